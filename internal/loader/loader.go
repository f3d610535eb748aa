// Package loader reads data files into the values deepdiff compares: CSV,
// TSV & Excel sheets become lists of records, JSON & YAML keep their shape
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"facette.io/natsort"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for file extensions Load can't read
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extensions lists every file extension Load accepts
var Extensions = []string{".csv", ".tsv", ".xlsx", ".xlsm", ".json", ".yaml", ".yml"}

// Load reads the file at path, choosing a decoder by extension
func Load(ctx context.Context, path string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".tsv", ".xlsx", ".xlsm", ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	if ext == ".xlsx" || ext == ".xlsm" {
		return loadExcel(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var v interface{}
	switch ext {
	case ".csv", ".tsv":
		v, err = loadDelimited(ctx, data)
	case ".json":
		v, err = loadJSON(data)
	default:
		v, err = loadYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}

// LoadPair loads two files concurrently
func LoadPair(ctx context.Context, path1, path2 string) (v1, v2 interface{}, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v1, err = Load(ctx, path1)
		return err
	})
	g.Go(func() (err error) {
		v2, err = Load(ctx, path2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return v1, v2, nil
}

// delimiters are the candidates DetectDelimiter considers, in tie-break order
var delimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter picks the most frequent candidate delimiter in a header
// line. ties go to the earlier of , ; tab | and a line with none of them is
// comma separated
func DetectDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func loadDelimited(ctx context.Context, data []byte) (interface{}, error) {
	first, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = DetectDelimiter(first)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return records(ctx, rows)
}

func loadExcel(ctx context.Context, path string) (interface{}, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []interface{}{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheets[0], path, err)
	}
	return records(ctx, rows)
}

// records turns a header row & data rows into a list of mappings keyed by
// header. short rows are padded with nulls
func records(ctx context.Context, rows [][]string) ([]interface{}, error) {
	recs := []interface{}{}
	if len(rows) == 0 {
		return recs, nil
	}

	header := rows[0]
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := make(map[string]interface{}, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = parseCell(row[i])
			} else {
				rec[col] = nil
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// parseCell types a text cell: empty cells are null, then ints, floats &
// booleans are tried before falling back to the text itself
func parseCell(s string) interface{} {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	switch strings.ToLower(t) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func loadJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after the top-level value")
	}

	if cols, ok := columnar(v); ok {
		return cols, nil
	}
	return v, nil
}

// columnar converts a mapping of columns keyed by row number
// ({column: {"0": value, "1": value}}) into a list of records, in row order.
// every column must hold the same row numbers. ok is false for any other
// shape
func columnar(v interface{}) ([]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, false
	}

	var order []string
	for _, col := range m {
		cm, ok := col.(map[string]interface{})
		if !ok || len(cm) == 0 {
			return nil, false
		}
		if order == nil {
			for k := range cm {
				if n, err := strconv.Atoi(k); err != nil || n < 0 {
					return nil, false
				}
				order = append(order, k)
			}
			continue
		}
		if len(cm) != len(order) {
			return nil, false
		}
		for _, k := range order {
			if _, ok := cm[k]; !ok {
				return nil, false
			}
		}
	}
	natsort.Sort(order)

	recs := make([]interface{}, 0, len(order))
	for _, rk := range order {
		rec := make(map[string]interface{}, len(m))
		for name, col := range m {
			rec[name] = col.(map[string]interface{})[rk]
		}
		recs = append(recs, rec)
	}
	return recs, true
}

func loadYAML(data []byte) (interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalizeYAML(v), nil
}

// normalizeYAML converts mappings with non-string keys into string-keyed
// mappings, the only kind deepdiff compares
func normalizeYAML(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, ch := range x {
			x[k] = normalizeYAML(ch)
		}
		return x
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, ch := range x {
			m[fmt.Sprint(k)] = normalizeYAML(ch)
		}
		return m
	case []interface{}:
		for i, ch := range x {
			x[i] = normalizeYAML(ch)
		}
		return x
	}
	return v
}
