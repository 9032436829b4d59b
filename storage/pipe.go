package storage

import (
	"context"
	"io"

	"github.com/kbukum/pipekit/buffer"
	"github.com/kbukum/pipekit/pipeline"
)

// PipeEnd is a byte end over the object at path. Sucking downloads it;
// blowing uploads what arrives in the buffer, streaming it to the backend.
func PipeEnd(s Storage, path string) pipeline.StreamEnd {
	download := func(b *buffer.Bytes, c *pipeline.Context) error {
		return c.ScheduleAsync("downloading", func(ctx context.Context, p *pipeline.Progress) error {
			if obj, err := s.Stat(ctx, path); err == nil && obj.Size >= 0 {
				p.ReportTotal(obj.Size)
			}
			rc, err := s.Download(ctx, path)
			if err != nil {
				return err
			}
			defer rc.Close() //nolint:errcheck // read side

			w := b.Writer()
			if _, err := pipeline.Pump(ctx, w, rc, p); err != nil {
				return err
			}
			return w.Close()
		})
	}
	upload := func(b *buffer.Bytes, c *pipeline.Context) error {
		return c.ScheduleAsync("uploading", func(ctx context.Context, p *pipeline.Progress) error {
			return s.Upload(ctx, path, &countingReader{r: b.Reader(), p: p})
		})
	}
	return pipeline.Terminal[*buffer.Bytes](path, download, upload)
}

type countingReader struct {
	r io.Reader
	p *pipeline.Progress
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.p.AddProcessed(int64(n))
	return n, err
}
