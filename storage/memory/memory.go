// Package memory is an in-process storage backend backed by a map.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(storage.Config, *logger.Logger) (storage.Storage, error) {
		return New(), nil
	})
}

type memFile struct {
	data    []byte
	modTime time.Time
}

// Storage keeps objects in memory. It is safe for concurrent use.
type Storage struct {
	mu    sync.RWMutex
	files map[string]*memFile
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{files: make(map[string]*memFile)}
}

// Upload stores everything read from reader. A failed read stores nothing.
func (s *Storage) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = &memFile{data: data, modTime: time.Now()}
	return nil
}

func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return nil, errors.NotFound("object", path)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (s *Storage) Stat(_ context.Context, path string) (storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return storage.Object{}, errors.NotFound("object", path)
	}
	return info(path, f), nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok, nil
}

func (s *Storage) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

func (s *Storage) List(_ context.Context, prefix string) ([]storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var files []storage.Object
	for path, f := range s.files {
		if strings.HasPrefix(path, prefix) {
			files = append(files, info(path, f))
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func info(path string, f *memFile) storage.Object {
	return storage.Object{
		Path:        path,
		Size:        int64(len(f.data)),
		Modified:    f.modTime,
		ContentType: "application/octet-stream",
	}
}

var _ storage.Storage = (*Storage)(nil)
