package codec

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"iter"

	"github.com/kbukum/pipekit/pipeline"
)

// XMLConfig configures XML parsing and serialization.
type XMLConfig struct {
	// Root is the document element written when serializing. Zero means
	// "items".
	Root string
	// Item selects which children of the document element are decoded and
	// names the elements written. Empty decodes every child and writes
	// values under their own XMLName.
	Item string
	// Indent, if set, pretty-prints the output.
	Indent string
}

// XML turns a byte end into an end of XML elements of type T.
func XML[T any](inner pipeline.StreamEnd, cfg XMLConfig) pipeline.ItemEnd[T] {
	if cfg.Root == "" {
		cfg.Root = "items"
	}
	return pipeline.Itemize(inner, "xml", cfg, parseXML[T], serializeXML[T])
}

func parseXML[T any](ctx context.Context, r io.Reader, emit func(T) error, cfg XMLConfig) error {
	dec := xml.NewDecoder(r)
	depth := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if depth == 1 && (cfg.Item == "" || el.Name.Local == cfg.Item) {
				var v T
				if err := dec.DecodeElement(&v, &el); err != nil {
					return err
				}
				if err := emit(v); err != nil {
					return err
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
}

func serializeXML[T any](_ context.Context, w io.Writer, items iter.Seq2[T, error], cfg XMLConfig) error {
	enc := xml.NewEncoder(w)
	if cfg.Indent != "" {
		enc.Indent("", cfg.Indent)
	}
	root := xml.StartElement{Name: xml.Name{Local: cfg.Root}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for v, err := range items {
		if err != nil {
			return err
		}
		if cfg.Item != "" {
			err = enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: cfg.Item}})
		} else {
			err = enc.Encode(v)
		}
		if err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	return enc.Close()
}
