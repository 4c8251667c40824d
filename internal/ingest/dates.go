package ingest

import (
	"fmt"
	"strings"
	"time"
)

// DateConvention declares how a source writes its dates. It is set per
// source and never inferred from the data.
type DateConvention int

const (
	MonthFirst DateConvention = iota
	DayFirst
)

var (
	isoLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
	}
	dayFirstLayouts = []string{
		"02-01-2006 15:04",
		"02-01-2006 15:04:05",
		"02/01/2006 15:04",
		"02/01/2006 15:04:05",
	}
	monthFirstLayouts = []string{
		"01-02-2006 15:04",
		"01-02-2006 15:04:05",
		"01/02/2006 15:04",
		"01/02/2006 15:04:05",
	}
)

// ParseDateConvention accepts "day_first" or "month_first".
func ParseDateConvention(s string) (DateConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day_first", "dayfirst":
		return DayFirst, nil
	case "month_first", "monthfirst":
		return MonthFirst, nil
	}
	return MonthFirst, fmt.Errorf("unknown date convention %q", s)
}

func (c DateConvention) String() string {
	if c == DayFirst {
		return "day_first"
	}
	return "month_first"
}

// Layouts returns the accepted layouts in the order they are tried.
// Year-first ISO strings are unambiguous and accepted under both
// conventions.
func (c DateConvention) Layouts() []string {
	out := append([]string{}, isoLayouts...)
	if c == DayFirst {
		return append(out, dayFirstLayouts...)
	}
	return append(out, monthFirstLayouts...)
}

// timeParser tries a fixed list of layouts. Parsed values carry no zone
// and are stored as UTC.
type timeParser struct {
	layouts []string
}

func newTimeParser(c DateConvention, layout string) timeParser {
	if layout != "" {
		return timeParser{layouts: []string{layout}}
	}
	return timeParser{layouts: c.Layouts()}
}

func (p timeParser) parse(s string) (time.Time, error) {
	for _, l := range p.layouts {
		if ts, err := time.Parse(l, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("matches none of %d layouts", len(p.layouts))
}
