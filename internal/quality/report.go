package quality

import "pvplant/internal/model"

// SourceSummary describes one loaded input.
type SourceSummary struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Dates   string   `json:"dates"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// DropReport describes joined rows removed because their weather side was
// null. It is computed before the rows are removed.
type DropReport struct {
	Joined      int                     `json:"joined"`
	Dropped     int                     `json:"dropped"`
	Kept        int                     `json:"kept"`
	ByPlant     map[model.PlantCode]int `json:"by_plant,omitempty"`
	ByInverter  map[string]int          `json:"by_inverter,omitempty"`
	ByTimestamp map[string]int          `json:"by_timestamp,omitempty"`
}

// Report is the structured diagnostic output published next to the
// datasets. It carries nothing run-specific so reruns on the same inputs
// produce the same bytes.
type Report struct {
	Sources      []SourceSummary `json:"sources"`
	Plants       []PlantReport   `json:"plants"`
	Join         DropReport      `json:"join"`
	UnifiedRows  int             `json:"unified_rows"`
	DailyRows    int             `json:"daily_rows"`
	DailyColumns []string        `json:"daily_columns"`
	Anomalies    []Anomaly       `json:"anomalies"`
	AnomalyCount map[Kind]int    `json:"anomaly_count"`
}

// Attach copies the collector's findings into the report.
func (r *Report) Attach(c *Collector) {
	r.Anomalies = c.Anomalies()
	r.AnomalyCount = c.CountByKind()
}

// Warnings counts anomalies of warning severity.
func (r *Report) Warnings() int {
	n := 0
	for _, a := range r.Anomalies {
		if a.Severity == SeverityWarning {
			n++
		}
	}
	return n
}
