package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"pvplant/internal/model"
	"pvplant/internal/quality"
)

// WriteUnified writes one JSON object per line, in the given order.
func WriteUnified(w io.Writer, recs []model.UnifiedRecord) error {
	return writeLines(w, recs)
}

// WriteDaily writes one JSON object per line. Values keys are emitted in
// sorted order.
func WriteDaily(w io.Writer, rows []model.DailyAggregate) error {
	return writeLines(w, rows)
}

func ReadUnified(r io.Reader) ([]model.UnifiedRecord, error) {
	return readLines[model.UnifiedRecord](r)
}

func ReadDaily(r io.Reader) ([]model.DailyAggregate, error) {
	return readLines[model.DailyAggregate](r)
}

// WriteReport writes the quality report as indented JSON.
func WriteReport(w io.Writer, rep quality.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func ReadReport(r io.Reader) (quality.Report, error) {
	var rep quality.Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return quality.Report{}, fmt.Errorf("decoding report: %w", err)
	}
	return rep, nil
}

func writeLines[T any](w io.Writer, items []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("encoding line %d: %w", i+1, err)
		}
	}
	return bw.Flush()
}

func readLines[T any](r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var out []T
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var it T
		if err := json.Unmarshal(line, &it); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		out = append(out, it)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	return out, nil
}
