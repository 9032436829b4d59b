package codec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/bytedance/sonic"

	"github.com/kbukum/pipekit/pipeline"
)

// JSONConfig configures JSON parsing and serialization.
type JSONConfig struct {
	// Lines selects newline-delimited JSON, one value per line. Otherwise
	// the stream is a single JSON array, parsed one element at a time.
	Lines bool
	// Indent, if set, pretty-prints array elements.
	Indent string
	// API overrides the sonic configuration. Zero means sonic.ConfigDefault.
	API sonic.API
}

func (c JSONConfig) api() sonic.API {
	if c.API == nil {
		return sonic.ConfigDefault
	}
	return c.API
}

// JSON turns a byte end into an end of JSON values of type T.
func JSON[T any](inner pipeline.StreamEnd, cfg JSONConfig) pipeline.ItemEnd[T] {
	return pipeline.Itemize(inner, "json", cfg, parseJSON[T], serializeJSON[T])
}

func parseJSON[T any](ctx context.Context, r io.Reader, emit func(T) error, cfg JSONConfig) error {
	if !cfg.Lines {
		return parseJSONArray(ctx, bufio.NewReader(r), emit, cfg.api())
	}

	dec := cfg.api().NewDecoder(r)
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

// parseJSONArray emits the elements of a top-level array as they arrive. Each
// element is cut from the stream and decoded on its own, so memory is bounded
// by the largest element rather than the whole array.
func parseJSONArray[T any](ctx context.Context, br *bufio.Reader, emit func(T) error, api sonic.API) error {
	c, err := skipSpace(br)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if c != '[' {
		return fmt.Errorf("json: expected array, found %q", c)
	}

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := skipSpace(br)
		if err != nil {
			return unexpectedEOF(err)
		}
		if c == ']' {
			return nil
		}
		if i > 0 {
			if c != ',' {
				return fmt.Errorf("json: expected ',' or ']' after element %d, found %q", i, c)
			}
			if c, err = skipSpace(br); err != nil {
				return unexpectedEOF(err)
			}
		}
		raw, err := readValue(br, c)
		if err != nil {
			return unexpectedEOF(err)
		}
		var v T
		if err := api.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("json: element %d: %w", i, err)
		}
		if err := emit(v); err != nil {
			return err
		}
	}
}

func skipSpace(br *bufio.Reader) (byte, error) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !isSpace(c) {
			return c, nil
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// readValue reads the raw bytes of one JSON value starting with first. It
// tracks nesting and string escapes only; the value itself is validated when
// decoded.
func readValue(br *bufio.Reader, first byte) ([]byte, error) {
	buf := []byte{first}
	switch first {
	case '{', '[':
		depth, inString, escaped := 1, false, false
		for depth > 0 {
			c, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			buf = append(buf, c)
			switch {
			case escaped:
				escaped = false
			case inString:
				if c == '\\' {
					escaped = true
				} else if c == '"' {
					inString = false
				}
			case c == '"':
				inString = true
			case c == '{' || c == '[':
				depth++
			case c == '}' || c == ']':
				depth--
			}
		}
		return buf, nil
	case '"':
		escaped := false
		for {
			c, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			buf = append(buf, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				return buf, nil
			}
		}
	default:
		for {
			c, err := br.ReadByte()
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			if err != nil {
				return nil, err
			}
			if c == ',' || c == ']' || isSpace(c) {
				return buf, br.UnreadByte()
			}
			buf = append(buf, c)
		}
	}
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func serializeJSON[T any](_ context.Context, w io.Writer, items iter.Seq2[T, error], cfg JSONConfig) error {
	api := cfg.api()
	if cfg.Lines {
		enc := api.NewEncoder(w)
		for v, err := range items {
			if err != nil {
				return err
			}
			if err := enc.Encode(v); err != nil {
				return err
			}
		}
		return nil
	}

	sep := []byte(",")
	if cfg.Indent != "" {
		sep = []byte(",\n")
	}
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	first := true
	for v, err := range items {
		if err != nil {
			return err
		}
		var b []byte
		if cfg.Indent != "" {
			b, err = api.MarshalIndent(v, cfg.Indent, cfg.Indent)
		} else {
			b, err = api.Marshal(v)
		}
		if err != nil {
			return err
		}
		if first && cfg.Indent != "" {
			b = append([]byte("\n"+cfg.Indent), b...)
		} else if !first {
			if cfg.Indent != "" {
				b = append([]byte(cfg.Indent), b...)
			}
			if _, err := w.Write(sep); err != nil {
				return err
			}
		}
		first = false
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	if cfg.Indent != "" && !first {
		_, err := io.WriteString(w, "\n]\n")
		return err
	}
	_, err := io.WriteString(w, "]\n")
	return err
}
