package local

import (
	"context"
	"io"
	"strings"
	"testing"

	apperrors "github.com/kbukum/pipekit/errors"
)

func TestStorage_Operations(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Upload(ctx, "logs/a.txt", strings.NewReader("hello")); err != nil {
		t.Fatal(err)
	}
	if err := s.Upload(ctx, "logs/b.json", strings.NewReader("{}")); err != nil {
		t.Fatal(err)
	}
	if err := s.Upload(ctx, "other.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}

	rc, err := s.Download(ctx, "logs/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "hello" {
		t.Errorf("got %q", b)
	}

	files, err := s.List(ctx, "logs/")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Path != "logs/a.txt" || files[1].ContentType != "application/json" {
		t.Errorf("unexpected listing %+v", files)
	}

	info, err := s.Stat(ctx, "logs/a.txt")
	if err != nil || info.Size != 5 {
		t.Errorf("Stat = %+v, %v", info, err)
	}

	if err := s.Delete(ctx, "logs/a.txt"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "logs/a.txt"); ok {
		t.Error("file still exists after Delete")
	}
	if err := s.Delete(ctx, "logs/a.txt"); err != nil {
		t.Errorf("deleting a missing file: %v", err)
	}
}

func TestStorage_StaysInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewStorage(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Upload(ctx, "../../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	u, _ := s.URL(ctx, "../../escape.txt")
	if !strings.HasPrefix(u, "file://"+base) {
		t.Errorf("URL %q escapes %q", u, base)
	}
}

func TestStorage_DownloadMissing(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Download(context.Background(), "missing")
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
