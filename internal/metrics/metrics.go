package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "pvplant_etl_"

// Run collects metrics for one pipeline run on a private registry. A nil
// *Run discards everything.
type Run struct {
	reg *prometheus.Registry

	rowsLoaded    *prometheus.CounterVec
	rowsJoined    prometheus.Counter
	rowsDropped   prometheus.Counter
	anomalies     *prometheus.GaugeVec
	dailyRows     prometheus.Gauge
	stageDuration *prometheus.HistogramVec
}

func NewRun() *Run {
	r := &Run{
		reg: prometheus.NewRegistry(),
		rowsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_loaded_total",
				Help: "Rows loaded per source",
			},
			[]string{"source", "kind"},
		),
		rowsJoined: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_joined_total",
				Help: "Generation rows entering the join",
			},
		),
		rowsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_dropped_total",
				Help: "Joined rows dropped for missing weather",
			},
		),
		anomalies: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "anomalies",
				Help: "Data-quality anomalies by kind",
			},
			[]string{"kind"},
		),
		dailyRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "daily_rows",
				Help: "Daily aggregate rows produced",
			},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
	r.reg.MustRegister(
		r.rowsLoaded,
		r.rowsJoined,
		r.rowsDropped,
		r.anomalies,
		r.dailyRows,
		r.stageDuration,
	)
	return r
}

// Registry exposes the run's registry.
func (r *Run) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Run) ObserveLoad(source, kind string, rows int) {
	if r == nil {
		return
	}
	r.rowsLoaded.WithLabelValues(source, kind).Add(float64(rows))
}

func (r *Run) ObserveJoin(joined, dropped int) {
	if r == nil {
		return
	}
	r.rowsJoined.Add(float64(joined))
	r.rowsDropped.Add(float64(dropped))
}

// SetAnomalies replaces the per-kind anomaly gauges.
func (r *Run) SetAnomalies(byKind map[string]int) {
	if r == nil {
		return
	}
	r.anomalies.Reset()
	for kind, n := range byKind {
		r.anomalies.WithLabelValues(kind).Set(float64(n))
	}
}

func (r *Run) SetDailyRows(n int) {
	if r == nil {
		return
	}
	r.dailyRows.Set(float64(n))
}

// ObserveStage records how long a stage took.
func (r *Run) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Run) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
