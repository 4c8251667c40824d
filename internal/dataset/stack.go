package dataset

import (
	"fmt"
	"sort"
	"strings"

	"pvplant/internal/ingest"
	"pvplant/internal/model"
)

// Stack concatenates tables that share a column set. Rows keep their input
// order and are not deduplicated.
func Stack[T any](tables ...ingest.Table[T]) (ingest.Table[T], error) {
	if len(tables) == 0 {
		return ingest.Table[T]{}, fmt.Errorf("stack: no tables")
	}

	first := tables[0]
	want := columnSet(first.Columns)
	names := make([]string, 0, len(tables))
	total := 0
	for _, t := range tables {
		if got := columnSet(t.Columns); got != want {
			return ingest.Table[T]{}, &model.SchemaError{
				Source:   "stack " + first.Source + " + " + t.Source,
				Expected: first.Columns,
				Got:      t.Columns,
			}
		}
		names = append(names, t.Source)
		total += len(t.Rows)
	}

	out := ingest.Table[T]{
		Source:  strings.Join(names, "+"),
		Columns: append([]string{}, first.Columns...),
		Rows:    make([]T, 0, total),
	}
	for _, t := range tables {
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out, nil
}

func columnSet(cols []string) string {
	sorted := append([]string{}, cols...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
