package quality

import (
	"fmt"
	"sort"

	"pvplant/internal/model"
)

// Kind classifies a non-fatal data-quality finding.
type Kind string

const (
	KindSensorCardinality   Kind = "sensor_cardinality"
	KindInverterCardinality Kind = "inverter_cardinality"
	KindYieldMismatch       Kind = "yield_mismatch"
	KindYieldDecrease       Kind = "yield_decrease"
	KindYieldScale          Kind = "yield_scale"
	KindACWithoutDC         Kind = "ac_without_dc"
	KindMissingDay          Kind = "missing_day"
	KindSparseDay           Kind = "sparse_day"
	KindUnevenInverter      Kind = "uneven_inverter"
	KindDuplicateKey        Kind = "duplicate_key"
	KindJoinDrop            Kind = "join_drop"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Anomaly is a structured, non-blocking finding. Date is "2006-01-02"
// when the finding is tied to one calendar day.
type Anomaly struct {
	Kind       Kind            `json:"kind"`
	Severity   Severity        `json:"severity"`
	Plant      model.PlantCode `json:"plant,omitempty"`
	InverterID string          `json:"inverter_id,omitempty"`
	Date       string          `json:"date,omitempty"`
	Count      int             `json:"count,omitempty"`
	Message    string          `json:"message"`
}

// Collector accumulates anomalies for a run.
type Collector struct {
	items []Anomaly
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(a Anomaly) {
	c.items = append(c.items, a)
}

// Addf records a warning built from a format string.
func (c *Collector) Addf(kind Kind, plant model.PlantCode, format string, args ...any) {
	c.Add(Anomaly{Kind: kind, Severity: SeverityWarning, Plant: plant, Message: fmt.Sprintf(format, args...)})
}

func (c *Collector) Len() int { return len(c.items) }

// Anomalies returns a copy sorted by kind, plant, inverter, date so that
// reports are stable across runs.
func (c *Collector) Anomalies() []Anomaly {
	out := make([]Anomaly, len(c.items))
	copy(out, c.items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Plant != b.Plant {
			return a.Plant < b.Plant
		}
		if a.InverterID != b.InverterID {
			return a.InverterID < b.InverterID
		}
		return a.Date < b.Date
	})
	return out
}

// CountByKind tallies anomalies per kind.
func (c *Collector) CountByKind() map[Kind]int {
	out := make(map[Kind]int)
	for _, a := range c.items {
		out[a.Kind]++
	}
	return out
}
