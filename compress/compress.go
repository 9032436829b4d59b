package compress

import (
	"compress/bzip2"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/pipeline"
)

// Codec names accepted by ByName.
const (
	NameNone  = "none"
	NameGZip  = "gzip"
	NameZstd  = "zstd"
	NameS2    = "s2"
	NameBZip2 = "bzip2"
)

// GZip decompresses what inner produces when sucked from and compresses
// what is written into it when blown into.
func GZip(inner pipeline.StreamEnd, level int) pipeline.StreamEnd {
	return pipeline.WrapStream(inner, NameGZip,
		func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) },
		func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(w, level) },
	)
}

// Zstd is the Zstandard counterpart of GZip.
func Zstd(inner pipeline.StreamEnd, level zstd.EncoderLevel) pipeline.StreamEnd {
	return pipeline.WrapStream(inner, NameZstd,
		func(r io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		},
		func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(level))
		},
	)
}

// S2 is the S2 (Snappy-compatible) counterpart of GZip.
func S2(inner pipeline.StreamEnd) pipeline.StreamEnd {
	return pipeline.WrapStream(inner, NameS2,
		func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(s2.NewReader(r)), nil },
		func(w io.Writer) (io.WriteCloser, error) { return s2.NewWriter(w), nil },
	)
}

// BZip2 decompresses what inner produces. It cannot be blown into.
func BZip2(inner pipeline.StreamEnd) pipeline.StreamEnd {
	return pipeline.WrapStream(inner, NameBZip2,
		func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(bzip2.NewReader(r)), nil },
		nil,
	)
}

var byName = map[string]func(pipeline.StreamEnd) pipeline.StreamEnd{
	NameNone:  func(e pipeline.StreamEnd) pipeline.StreamEnd { return e },
	NameGZip:  func(e pipeline.StreamEnd) pipeline.StreamEnd { return GZip(e, gzip.DefaultCompression) },
	NameZstd:  func(e pipeline.StreamEnd) pipeline.StreamEnd { return Zstd(e, zstd.SpeedDefault) },
	NameS2:    S2,
	NameBZip2: BZip2,
}

// ByName wraps inner in the codec called name with default settings. An
// empty name or NameNone returns inner unchanged.
func ByName(name string, inner pipeline.StreamEnd) (pipeline.StreamEnd, error) {
	if name == "" {
		return inner, nil
	}
	wrap, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.InvalidInput("codec", "unknown compression codec "+name).
			WithDetail("supported", Names())
	}
	return wrap(inner), nil
}

// Names lists the codec names ByName accepts.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Detect guesses the codec from a file extension. It returns NameNone when the
// extension is not recognised.
func Detect(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return NameGZip
	case ".zst", ".zstd":
		return NameZstd
	case ".s2", ".sz":
		return NameS2
	case ".bz2":
		return NameBZip2
	default:
		return NameNone
	}
}
