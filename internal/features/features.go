package features

import "pvplant/internal/model"

// Efficiency returns AC output as a percentage of DC input. A zero DC input
// yields exactly 0 whatever the AC reading is.
func Efficiency(ac, dc float64) float64 {
	if dc == 0 {
		return 0
	}
	return ac / dc * 100
}

// Calendar splits a timestamp into the integer fields used for grouping.
type Calendar struct {
	Month  int
	Day    int
	Hour   int
	Minute int
}

func CalendarOf(r model.UnifiedRecord) Calendar {
	ts := r.Timestamp
	return Calendar{Month: int(ts.Month()), Day: ts.Day(), Hour: ts.Hour(), Minute: ts.Minute()}
}

// Derive fills efficiency and calendar fields in place and returns recs.
func Derive(recs []model.UnifiedRecord) []model.UnifiedRecord {
	for i := range recs {
		r := &recs[i]
		r.Efficiency = Efficiency(r.ACPower, r.DCPower)
		c := CalendarOf(*r)
		r.Month, r.Day, r.Hour, r.Minute = c.Month, c.Day, c.Hour, c.Minute
	}
	return recs
}
