package model

import "time"

// PlantCode is the canonical short identifier substituted for a raw
// numeric plant ID.
type PlantCode string

const (
	PlantP1 PlantCode = "p1"
	PlantP2 PlantCode = "p2"
)

// DefaultPlantIDs maps the raw plant IDs found in the source exports to
// their canonical codes.
var DefaultPlantIDs = map[string]PlantCode{
	"4135001": PlantP1,
	"4136001": PlantP2,
}

// SeriesKey identifies one inverter time series.
type SeriesKey struct {
	Plant      PlantCode
	InverterID string
}

func (k SeriesKey) String() string {
	return string(k.Plant) + "/" + k.InverterID
}

// Less orders keys by plant, then inverter.
func (k SeriesKey) Less(o SeriesKey) bool {
	if k.Plant != o.Plant {
		return k.Plant < o.Plant
	}
	return k.InverterID < o.InverterID
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Date truncates t to its calendar day. Timestamps are naive wall clock
// values stored as UTC, so the day boundary is UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
