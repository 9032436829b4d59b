package codec

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/goccy/go-yaml"

	"github.com/kbukum/pipekit/pipeline"
)

// YAMLConfig configures YAML parsing and serialization.
type YAMLConfig struct {
	// Strict rejects fields missing from T when parsing.
	Strict bool
}

// YAML turns a byte end into an end of YAML documents, one value per
// document.
func YAML[T any](inner pipeline.StreamEnd, cfg YAMLConfig) pipeline.ItemEnd[T] {
	return pipeline.Itemize(inner, "yaml", cfg, parseYAML[T], serializeYAML[T])
}

func parseYAML[T any](ctx context.Context, r io.Reader, emit func(T) error, cfg YAMLConfig) error {
	var opts []yaml.DecodeOption
	if cfg.Strict {
		opts = append(opts, yaml.Strict())
	}
	dec := yaml.NewDecoder(r, opts...)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := emit(v); err != nil {
			return err
		}
	}
}

func serializeYAML[T any](_ context.Context, w io.Writer, items iter.Seq2[T, error], _ YAMLConfig) error {
	first := true
	for v, err := range items {
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		if !first {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}
		first = false
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}
