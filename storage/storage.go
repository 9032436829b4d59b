package storage

import (
	"context"
	"io"
	"time"
)

// Object describes one stored object.
type Object struct {
	Path        string
	Size        int64
	Modified    time.Time
	ContentType string
}

// Reader fetches objects. Download's caller closes the returned reader.
type Reader interface {
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (Object, error)
}

// Writer stores objects. Upload consumes r until EOF and publishes the
// object only if r ends without an error, so a failed pipeline never leaves
// a truncated object behind.
type Writer interface {
	Upload(ctx context.Context, path string, r io.Reader) error
	// Delete removes path; a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// Lister enumerates objects under a key prefix.
type Lister interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Storage is an object store backend. Implementations register a Factory
// under their provider name.
type Storage interface {
	Reader
	Writer
	Lister
	// URL locates path for humans and logs, e.g. s3://bucket/key.
	URL(ctx context.Context, path string) (string, error)
}
