package main

import (
	"io"
	"net/url"
	"strings"

	"github.com/kbukum/pipekit/compress"
	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/pipeline"
	"github.com/kbukum/pipekit/storage"
	_ "github.com/kbukum/pipekit/storage/local"
	_ "github.com/kbukum/pipekit/storage/memory"
	_ "github.com/kbukum/pipekit/storage/s3"
)

type scheme int

const (
	schemeFile scheme = iota
	schemeStdio
	schemeS3
	schemeStore
)

// location is a parsed --from or --to argument: "-" for stdin/stdout,
// s3://bucket/key, store://path in the configured storage, file:///path or
// a plain path.
type location struct {
	scheme scheme
	bucket string
	path   string
}

func parseLocation(raw string) (location, error) {
	switch {
	case raw == "":
		return location{}, errors.InvalidInput("location", "location is empty")
	case raw == "-":
		return location{scheme: schemeStdio}, nil
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return location{}, errors.InvalidInput("location", err.Error())
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return location{}, errors.InvalidInput("location", "s3 locations look like s3://bucket/key")
		}
		return location{scheme: schemeS3, bucket: u.Host, path: key}, nil
	case strings.HasPrefix(raw, "store://"):
		path := strings.TrimPrefix(raw, "store://")
		if path == "" {
			return location{}, errors.InvalidInput("location", "store locations look like store://path")
		}
		return location{scheme: schemeStore, path: path}, nil
	case strings.HasPrefix(raw, "file://"):
		return location{path: strings.TrimPrefix(raw, "file://")}, nil
	default:
		return location{path: raw}, nil
	}
}

// codec resolves an explicit codec name, or guesses it from the path.
func (l location) codec(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if l.scheme == schemeStdio {
		return compress.NameNone
	}
	return compress.Detect(l.path)
}

// opener turns locations into byte ends.
type opener struct {
	storage  storage.Config
	log      *logger.Logger
	stdin    io.Reader
	stdout   io.Writer
	existing pipeline.ExistingFile

	configured storage.Storage
}

// store returns the configured storage, created on first use so that both
// ends of a store-to-store copy share it.
func (o *opener) store() (storage.Storage, error) {
	if o.configured != nil {
		return o.configured, nil
	}
	s, err := storage.New(o.storage, o.log)
	if err != nil {
		return nil, err
	}
	o.configured = s
	return s, nil
}

// bucket opens an S3 bucket with the configured credentials and endpoint.
func (o *opener) bucket(name string) (storage.Storage, error) {
	cfg := o.storage
	cfg.Provider = storage.ProviderS3
	cfg.Bucket = name
	return storage.New(cfg, o.log)
}

func (o *opener) source(loc location, codec string) (pipeline.StreamEnd, error) {
	return o.end(loc, codec, pipeline.Reader("stdin", o.stdin))
}

func (o *opener) sink(loc location, codec string) (pipeline.StreamEnd, error) {
	return o.end(loc, codec, pipeline.Writer("stdout", o.stdout))
}

func (o *opener) end(loc location, codec string, stdio pipeline.StreamEnd) (pipeline.StreamEnd, error) {
	var end pipeline.StreamEnd
	switch loc.scheme {
	case schemeStdio:
		end = stdio
	case schemeS3:
		s, err := o.bucket(loc.bucket)
		if err != nil {
			return nil, err
		}
		end = storage.PipeEnd(s, loc.path)
	case schemeStore:
		s, err := o.store()
		if err != nil {
			return nil, err
		}
		end = storage.PipeEnd(s, loc.path)
	default:
		end = pipeline.File(loc.path, pipeline.WithExistingFile(o.existing))
	}
	return compress.ByName(loc.codec(codec), end)
}
