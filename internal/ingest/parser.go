package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"pvplant/internal/model"
)

// Table is a fully loaded source: canonical column names plus typed rows.
type Table[T any] struct {
	Source  string
	Columns []string
	Rows    []T
}

// Len returns the number of rows.
func (t Table[T]) Len() int { return len(t.Rows) }

// Column maps one raw header name to its canonical field name.
type Column struct {
	Raw   string
	Field string
}

// Schema is the explicit header mapping applied right after a source is
// read. Header matching is by name; order in the file does not matter.
type Schema []Column

// Fields returns the canonical field names in schema order.
func (s Schema) Fields() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Field
	}
	return out
}

func (s Schema) raw() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Raw
	}
	return out
}

// bind validates a header against the schema and returns the position of
// every canonical field in a record.
func (s Schema) bind(source string, header []string) (map[string]int, error) {
	got := make([]string, len(header))
	byRaw := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		got[i] = h
		byRaw[h] = i
	}

	mismatch := len(byRaw) != len(s) || len(header) != len(s)
	index := make(map[string]int, len(s))
	for _, c := range s {
		pos, ok := byRaw[c.Raw]
		if !ok {
			mismatch = true
			continue
		}
		index[c.Field] = pos
	}
	if mismatch {
		expected := s.raw()
		sort.Strings(expected)
		sort.Strings(got)
		return nil, &model.SchemaError{Source: source, Expected: expected, Got: got}
	}
	return index, nil
}

// readTable reads a delimited source with a header row and hands every
// record to fn. Any error aborts the whole load.
func readTable(r io.Reader, source string, schema Schema, fn func(*row) error) error {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty input: %w", source, model.ErrParse)
		}
		return fmt.Errorf("%s: reading CSV header: %w", source, err)
	}
	index, err := schema.bind(source, header)
	if err != nil {
		return err
	}

	rw := &row{source: source, index: index}
	lineNum := 1 // header was line 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &model.ParseError{Source: source, Line: lineNum, Column: "record", Err: err}
		}
		rw.line = lineNum
		rw.values = record
		if err := fn(rw); err != nil {
			return err
		}
	}
	return nil
}

var errNotFinite = errors.New("not a finite number")

// row gives typed access to one CSV record by canonical field name.
type row struct {
	source string
	line   int
	values []string
	index  map[string]int
}

func (r *row) str(field string) string {
	return strings.TrimSpace(r.values[r.index[field]])
}

func (r *row) float(field string) (float64, error) {
	s := r.str(field)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.fail(field, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, r.fail(field, s, errNotFinite)
	}
	return v, nil
}

func (r *row) timestamp(field string, tp timeParser) (time.Time, error) {
	s := r.str(field)
	ts, err := tp.parse(s)
	if err != nil {
		return time.Time{}, r.fail(field, s, err)
	}
	return ts, nil
}

func (r *row) fail(field, value string, err error) error {
	return &model.ParseError{Source: r.source, Line: r.line, Column: field, Value: value, Err: err}
}
