package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kbukum/pipekit/codec"
	"github.com/kbukum/pipekit/compress"
	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/pipeline"
)

// record is the item type convert moves between formats.
type record = map[string]any

// Record formats understood by convert.
const (
	formatCSV   = "csv"
	formatJSON  = "json"
	formatJSONL = "jsonl"
	formatYAML  = "yaml"
)

var formats = []string{formatCSV, formatJSON, formatJSONL, formatYAML}

// detectFormat guesses a record format from the path, looking past a
// compression extension.
func detectFormat(path string) string {
	if compress.Detect(path) != compress.NameNone {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return formatCSV
	case ".json":
		return formatJSON
	case ".jsonl", ".ndjson":
		return formatJSONL
	case ".yaml", ".yml":
		return formatYAML
	default:
		return ""
	}
}

// records itemizes a byte end into records of the given format.
func records(format string, inner pipeline.StreamEnd) (pipeline.ItemEnd[record], error) {
	switch format {
	case formatCSV:
		return pipeline.Map(codec.CSVRows(inner, codec.CSVConfig{}), fromRow, toRow), nil
	case formatJSON:
		return codec.JSON[record](inner, codec.JSONConfig{}), nil
	case formatJSONL:
		return codec.JSON[record](inner, codec.JSONConfig{Lines: true}), nil
	case formatYAML:
		return codec.YAML[record](inner, codec.YAMLConfig{}), nil
	case "":
		return nil, errors.InvalidInput("format", "cannot detect the record format, pass it explicitly").
			WithDetail("supported", formats)
	default:
		return nil, errors.InvalidInput("format", "unknown record format "+format).
			WithDetail("supported", formats)
	}
}

func fromRow(row map[string]string) (record, error) {
	r := make(record, len(row))
	for k, v := range row {
		r[k] = v
	}
	return r, nil
}

func toRow(r record) (map[string]string, error) {
	row := make(map[string]string, len(r))
	for k, v := range r {
		switch v := v.(type) {
		case nil:
			row[k] = ""
		case string:
			row[k] = v
		case map[string]any, []any:
			return nil, errors.InvalidInput(k, "nested values cannot be written as CSV")
		default:
			row[k] = fmt.Sprint(v)
		}
	}
	return row, nil
}
