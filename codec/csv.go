package codec

import (
	"context"
	"encoding"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/pipekit/pipeline"
)

// CSVConfig configures CSV parsing and serialization.
type CSVConfig struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// Comment, if not zero, starts a comment line when parsing.
	Comment rune
	// Header is written before the first record when serializing. CSVRows
	// derives it from the first row when empty.
	Header []string
	// SkipHeader drops the first record when parsing with CSV.
	SkipHeader bool
}

func (c CSVConfig) reader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	if c.Comma != 0 {
		cr.Comma = c.Comma
	}
	cr.Comment = c.Comment
	cr.FieldsPerRecord = -1
	return cr
}

func (c CSVConfig) writer(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	if c.Comma != 0 {
		cw.Comma = c.Comma
	}
	return cw
}

// CSV turns a byte end into an end of CSV records.
func CSV(inner pipeline.StreamEnd, cfg CSVConfig) pipeline.ItemEnd[[]string] {
	return pipeline.Itemize(inner, "csv", cfg, parseCSV, serializeCSV)
}

func parseCSV(ctx context.Context, r io.Reader, emit func([]string) error, cfg CSVConfig) error {
	cr := cfg.reader(r)
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if first && cfg.SkipHeader {
			first = false
			continue
		}
		first = false
		if err := emit(rec); err != nil {
			return err
		}
	}
}

func serializeCSV(_ context.Context, w io.Writer, items iter.Seq2[[]string, error], cfg CSVConfig) error {
	cw := cfg.writer(w)
	if len(cfg.Header) > 0 {
		if err := cw.Write(cfg.Header); err != nil {
			return err
		}
	}
	for rec, err := range items {
		if err != nil {
			return err
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVRows turns a byte end into an end of rows keyed by the header. When
// parsing, the first record is the header; when serializing, cfg.Header or
// else the sorted keys of the first row become the header.
func CSVRows(inner pipeline.StreamEnd, cfg CSVConfig) pipeline.ItemEnd[map[string]string] {
	return pipeline.Itemize(inner, "csv", cfg, parseCSVRows, serializeCSVRows)
}

func parseCSVRows(ctx context.Context, r io.Reader, emit func(map[string]string) error, cfg CSVConfig) error {
	var header []string
	cfg.SkipHeader = false
	return parseCSV(ctx, r, func(rec []string) error {
		if header == nil {
			header = rec
			return nil
		}
		row := make(map[string]string, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = v
			} else {
				row[fmt.Sprintf("col%d", i)] = v
			}
		}
		return emit(row)
	}, cfg)
}

func serializeCSVRows(_ context.Context, w io.Writer, items iter.Seq2[map[string]string, error], cfg CSVConfig) error {
	cw := cfg.writer(w)
	header := cfg.Header
	wroteHeader := false
	for row, err := range items {
		if err != nil {
			return err
		}
		if !wroteHeader {
			if len(header) == 0 {
				header = slices.Sorted(maps.Keys(row))
			}
			if err := cw.Write(header); err != nil {
				return err
			}
			wroteHeader = true
		}
		rec := make([]string, len(header))
		for i, k := range header {
			rec[i] = row[k]
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if !wroteHeader && len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVOf turns a byte end into an end of records of struct type T, bound to
// the header by the csv field tag (the field name when untagged). Embedded
// structs are not flattened. Parsing
// converts text weakly, so numbers, booleans, durations and
// encoding.TextUnmarshaler fields read from plain cells. Serializing writes
// cfg.Header, or else the fields in declaration order.
func CSVOf[T any](inner pipeline.StreamEnd, cfg CSVConfig) pipeline.ItemEnd[T] {
	return pipeline.Itemize(inner, "csv", cfg, parseCSVOf[T], serializeCSVOf[T])
}

func parseCSVOf[T any](ctx context.Context, r io.Reader, emit func(T) error, cfg CSVConfig) error {
	if _, err := csvFields[T](); err != nil {
		return err
	}
	line := 1
	return parseCSVRows(ctx, r, func(row map[string]string) error {
		line++
		var v T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "csv",
			WeaklyTypedInput: true,
			Result:           &v,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		})
		if err != nil {
			return err
		}
		if err := dec.Decode(row); err != nil {
			return fmt.Errorf("csv record %d: %w", line, err)
		}
		return emit(v)
	}, cfg)
}

func serializeCSVOf[T any](ctx context.Context, w io.Writer, items iter.Seq2[T, error], cfg CSVConfig) error {
	fields, err := csvFields[T]()
	if err != nil {
		return err
	}
	if len(cfg.Header) == 0 {
		for _, f := range fields {
			cfg.Header = append(cfg.Header, f.name)
		}
	}
	rows := func(yield func(map[string]string, error) bool) {
		for v, err := range items {
			if err != nil {
				yield(nil, err)
				return
			}
			rv := reflect.ValueOf(v)
			row := make(map[string]string, len(fields))
			for _, f := range fields {
				cell, err := formatCell(rv.FieldByIndex(f.index))
				if err != nil {
					yield(nil, fmt.Errorf("csv field %s: %w", f.name, err))
					return
				}
				row[f.name] = cell
			}
			if !yield(row, nil) {
				return
			}
		}
	}
	return serializeCSVRows(ctx, w, rows, cfg)
}

type csvField struct {
	name  string
	index []int
}

func csvFields[T any]() ([]csvField, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("codec: CSVOf needs a struct type, got %s", t)
	}
	var fields []csvField
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("csv"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields = append(fields, csvField{name: name, index: f.Index})
	}
	return fields, nil
}

func formatCell(v reflect.Value) (string, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}
	if m, ok := v.Interface().(encoding.TextMarshaler); ok {
		b, err := m.MarshalText()
		return string(b), err
	}
	return fmt.Sprint(v.Interface()), nil
}
