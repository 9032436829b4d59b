package memory

import (
	"context"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	apperrors "github.com/kbukum/pipekit/errors"
)

func TestStorage_UploadDownload(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Upload(ctx, "test.txt", strings.NewReader("hello world")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	exists, _ := s.Exists(ctx, "test.txt")
	if !exists {
		t.Error("Exists should return true after Upload")
	}

	rc, err := s.Download(ctx, "test.txt")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello world" {
		t.Errorf("Download = %q, want %q", data, "hello world")
	}
}

func TestStorage_FailedUploadStoresNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Upload(ctx, "x", iotest.ErrReader(io.ErrUnexpectedEOF)); err == nil {
		t.Fatal("expected an error")
	}
	if ok, _ := s.Exists(ctx, "x"); ok {
		t.Error("partial object stored")
	}
}

func TestStorage_List(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, p := range []string{"b/2", "a/1", "b/1"} {
		if err := s.Upload(ctx, p, strings.NewReader(p)); err != nil {
			t.Fatal(err)
		}
	}
	files, _ := s.List(ctx, "b/")
	if len(files) != 2 || files[0].Path != "b/1" || files[1].Path != "b/2" {
		t.Errorf("unexpected listing %+v", files)
	}
	if _, err := s.Download(ctx, "c"); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
