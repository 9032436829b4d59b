package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/kbukum/pipekit/buffer"
)

type byteBuf = *buffer.Bytes

// Opener opens a stream for a worker. leaveOpen tells the worker not to
// close the stream when it is done with it.
type Opener[S any] func(ctx context.Context) (stream S, leaveOpen bool, err error)

// Streams builds a byte end from stream openers. open supplies the stream
// read when sucking; create supplies the stream written when blowing.
// Either may be nil to make the end one-directional.
func Streams(name string, open Opener[io.Reader], create Opener[io.Writer]) StreamEnd {
	var producer, consumer Attach[byteBuf]
	if open != nil {
		producer = func(b byteBuf, c *Context) error {
			return c.ScheduleAsync("reading", func(ctx context.Context, p *Progress) error {
				r, leaveOpen, err := open(ctx)
				if err != nil {
					return err
				}
				if !leaveOpen {
					defer closeStream(r)
				}
				if size, ok := streamSize(r); ok {
					p.ReportTotal(size)
				}
				w := b.Writer()
				if _, err := Pump(ctx, w, r, p); err != nil {
					return err
				}
				return w.Close()
			})
		}
	}
	if create != nil {
		consumer = func(b byteBuf, c *Context) error {
			return c.ScheduleAsync("writing", func(ctx context.Context, p *Progress) error {
				w, leaveOpen, err := create(ctx)
				if err != nil {
					return err
				}
				if _, err := Pump(ctx, w, b.Reader(), p); err != nil {
					if !leaveOpen {
						_ = closeStream(w)
					}
					return err
				}
				if f, ok := w.(interface{ Flush() error }); ok {
					if err := f.Flush(); err != nil {
						return err
					}
				}
				if leaveOpen {
					return nil
				}
				return closeStream(w)
			})
		}
	}
	return Terminal[byteBuf](name, producer, consumer)
}

// Reader is a byte source reading r. r is left open.
func Reader(name string, r io.Reader) StreamEnd {
	return Streams(name, func(context.Context) (io.Reader, bool, error) { return r, true, nil }, nil)
}

// Writer is a byte sink writing to w. w is left open.
func Writer(name string, w io.Writer) StreamEnd {
	return Streams(name, nil, func(context.Context) (io.Writer, bool, error) { return w, true, nil })
}

// ExistingFile selects what writing to a file that already exists does.
type ExistingFile int

const (
	// Truncate empties the file before writing.
	Truncate ExistingFile = iota
	// Throw fails the worker.
	Throw
	// OverwriteIncrementally writes from the start without truncating, so
	// bytes past the new length survive.
	OverwriteIncrementally
	// Append writes after the existing content.
	Append
)

type fileOptions struct {
	existing ExistingFile
	perm     os.FileMode
}

// FileOption configures File.
type FileOption func(*fileOptions)

// WithExistingFile sets the behaviour for an existing target file.
func WithExistingFile(e ExistingFile) FileOption {
	return func(o *fileOptions) { o.existing = e }
}

// WithPermissions sets the mode of files created by File.
func WithPermissions(perm os.FileMode) FileOption {
	return func(o *fileOptions) { o.perm = perm }
}

// File is a byte end over the file at path. Sucking reads it and reports
// its size as the progress total; blowing writes it.
func File(path string, opts ...FileOption) StreamEnd {
	o := fileOptions{existing: Truncate, perm: 0o644}
	for _, opt := range opts {
		opt(&o)
	}
	return Streams(filepath.Base(path),
		func(context.Context) (io.Reader, bool, error) {
			f, err := os.Open(path)
			return f, false, err
		},
		func(context.Context) (io.Writer, bool, error) {
			flag := os.O_WRONLY | os.O_CREATE
			switch o.existing {
			case Throw:
				flag |= os.O_EXCL
			case Append:
				flag |= os.O_APPEND
			case Truncate:
				flag |= os.O_TRUNC
			}
			f, err := os.OpenFile(path, flag, o.perm)
			return f, false, err
		},
	)
}

// Pump copies src into dst until src is exhausted or ctx ends, adding the
// number of bytes written to p.
func Pump(ctx context.Context, dst io.Writer, src io.Reader, p *Progress) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			if p != nil {
				p.AddProcessed(int64(w))
			}
			if werr != nil {
				return total, werr
			}
			if w < n {
				return total, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// Decoder wraps a reader of encoded bytes.
type Decoder func(io.Reader) (io.ReadCloser, error)

// Encoder wraps a writer of encoded bytes. Closing the result must flush it
// without closing the underlying writer.
type Encoder func(io.Writer) (io.WriteCloser, error)

// WrapStream is a byte transform around inner. Sucking decodes what inner
// produces; blowing encodes what is written into inner. A nil decode or
// encode makes the transform one-directional.
func WrapStream(inner StreamEnd, name string, decode Decoder, encode Encoder) StreamEnd {
	var forward, backward Bridge[byteBuf, byteBuf]
	if decode != nil {
		forward = func(src, dst byteBuf, c *Context) error {
			return c.ScheduleSync("decoding", func(ctx context.Context, p *Progress) error {
				r := src.Reader()
				dec, err := decode(r)
				if err != nil {
					return err
				}
				defer dec.Close()
				w := dst.Writer()
				if _, err := Pump(ctx, w, dec, p); err != nil {
					return err
				}
				if _, err := io.Copy(io.Discard, r); err != nil {
					return err
				}
				return w.Close()
			})
		}
	}
	if encode != nil {
		backward = func(src, dst byteBuf, c *Context) error {
			return c.ScheduleSync("encoding", func(ctx context.Context, p *Progress) error {
				w := dst.Writer()
				enc, err := encode(w)
				if err != nil {
					return err
				}
				if _, err := Pump(ctx, enc, src.Reader(), p); err != nil {
					return err
				}
				if err := enc.Close(); err != nil {
					return err
				}
				return w.Close()
			})
		}
	}
	return Nested[byteBuf, byteBuf](inner, name, forward, backward)
}

// StreamFunc moves bytes from r to w.
type StreamFunc func(ctx context.Context, r io.Reader, w io.Writer) error

// TransformStream is a byte transform around inner driven by arbitrary
// stream functions. forward runs when sucking, backward when blowing.
func TransformStream(inner StreamEnd, name string, forward, backward StreamFunc) StreamEnd {
	bridge := func(fn StreamFunc, verb string) Bridge[byteBuf, byteBuf] {
		if fn == nil {
			return nil
		}
		return func(src, dst byteBuf, c *Context) error {
			return c.ScheduleSync(verb, func(ctx context.Context, p *Progress) error {
				w := dst.Writer()
				if err := fn(ctx, src.Reader(), &countingWriter{w: w, p: p}); err != nil {
					return err
				}
				if _, err := io.Copy(io.Discard, src.Reader()); err != nil {
					return err
				}
				return w.Close()
			})
		}
	}
	return Nested[byteBuf, byteBuf](inner, name, bridge(forward, "transforming"), bridge(backward, "transforming"))
}

type countingWriter struct {
	w io.Writer
	p *Progress
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.p.AddProcessed(int64(n))
	return n, err
}

func streamSize(s any) (int64, bool) {
	switch v := s.(type) {
	case interface{ Stat() (os.FileInfo, error) }:
		fi, err := v.Stat()
		if err != nil || !fi.Mode().IsRegular() {
			return 0, false
		}
		return fi.Size(), true
	case interface{ Size() int64 }:
		return v.Size(), true
	default:
		return 0, false
	}
}

func closeStream(s any) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
