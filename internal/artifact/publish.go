package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pvplant/internal/model"
	"pvplant/internal/quality"
)

const (
	UnifiedFile = "unified.jsonl"
	DailyFile   = "daily.jsonl"
	ReportFile  = "quality_report.json"
	SQLiteFile  = "pvplant.sqlite"
	XLSXFile    = "daily.xlsx"
)

// Formats selects the optional sinks. The JSON-lines datasets and the
// report are always written.
type Formats struct {
	SQLite bool `yaml:"sqlite"`
	XLSX   bool `yaml:"xlsx"`
}

// Bundle is everything one run publishes.
type Bundle struct {
	Unified      []model.UnifiedRecord
	Daily        []model.DailyAggregate
	DailyColumns []string
	Report       quality.Report
}

// Publish writes the bundle into a staging directory next to dir and moves
// the files into dir only after all of them were written. On error dir is
// left as it was. It returns the published file names.
func Publish(ctx context.Context, dir string, b Bundle, formats Formats) ([]string, error) {
	parent := filepath.Dir(filepath.Clean(dir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", parent, err)
	}
	staging, err := os.MkdirTemp(parent, ".pvplant-staging-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	files := []string{UnifiedFile, DailyFile, ReportFile}
	if err := writeFile(filepath.Join(staging, UnifiedFile), func(w io.Writer) error {
		return WriteUnified(w, b.Unified)
	}); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(staging, DailyFile), func(w io.Writer) error {
		return WriteDaily(w, b.Daily)
	}); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(staging, ReportFile), func(w io.Writer) error {
		return WriteReport(w, b.Report)
	}); err != nil {
		return nil, err
	}

	if formats.SQLite {
		if err := WriteSQLite(ctx, filepath.Join(staging, SQLiteFile), b.Unified, b.Daily, b.DailyColumns); err != nil {
			return nil, fmt.Errorf("writing %s: %w", SQLiteFile, err)
		}
		files = append(files, SQLiteFile)
	}
	if formats.XLSX {
		if err := writeFile(filepath.Join(staging, XLSXFile), func(w io.Writer) error {
			return WriteXLSX(w, b.Daily, b.DailyColumns, b.Report.Anomalies)
		}); err != nil {
			return nil, err
		}
		files = append(files, XLSXFile)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	for _, name := range files {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("publishing %s: %w", name, err)
		}
	}
	return files, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Load reads the published datasets and report from dir.
func Load(dir string) (Bundle, error) {
	var b Bundle
	if err := readFile(filepath.Join(dir, UnifiedFile), func(r io.Reader) (err error) {
		b.Unified, err = ReadUnified(r)
		return err
	}); err != nil {
		return Bundle{}, err
	}
	if err := readFile(filepath.Join(dir, DailyFile), func(r io.Reader) (err error) {
		b.Daily, err = ReadDaily(r)
		return err
	}); err != nil {
		return Bundle{}, err
	}
	if err := readFile(filepath.Join(dir, ReportFile), func(r io.Reader) (err error) {
		b.Report, err = ReadReport(r)
		return err
	}); err != nil {
		return Bundle{}, err
	}
	b.DailyColumns = b.Report.DailyColumns
	return b, nil
}

func readFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}
