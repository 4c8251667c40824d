package aggregate

import (
	"fmt"
	"math"
	"time"

	"pvplant/internal/model"
	"pvplant/internal/store"
)

// Func is an aggregation function applied to one field within a bucket.
type Func string

const (
	FuncMin  Func = "min"
	FuncMean Func = "mean"
	FuncMax  Func = "max"
	FuncSum  Func = "sum"
)

// Spec lists the functions applied to one field.
type Spec struct {
	Field model.Field
	Funcs []Func
}

// Plan is an ordered set of field aggregations.
type Plan []Spec

// DailyPlan returns the standard daily aggregation set.
func DailyPlan() Plan {
	minMeanMax := []Func{FuncMin, FuncMean, FuncMax}
	withSum := []Func{FuncMin, FuncMean, FuncMax, FuncSum}
	return Plan{
		{Field: model.FieldIrradiance, Funcs: minMeanMax},
		{Field: model.FieldAmbientTemperature, Funcs: minMeanMax},
		{Field: model.FieldModuleTemperature, Funcs: minMeanMax},
		{Field: model.FieldDCPower, Funcs: withSum},
		{Field: model.FieldACPower, Funcs: withSum},
		{Field: model.FieldDailyYield, Funcs: []Func{FuncMax}},
		{Field: model.FieldTotalYield, Funcs: []Func{FuncMax}},
		{Field: model.FieldEfficiency, Funcs: minMeanMax},
	}
}

// Column names the output column of fn applied to f, e.g. "dc_power_sum".
func Column(f model.Field, fn Func) string {
	return string(f) + "_" + string(fn)
}

// Columns returns the output column names in plan order.
func (p Plan) Columns() []string {
	var cols []string
	for _, s := range p {
		for _, fn := range s.Funcs {
			cols = append(cols, Column(s.Field, fn))
		}
	}
	return cols
}

// Validate rejects unknown fields or functions and duplicate columns.
func (p Plan) Validate() error {
	seen := make(map[string]bool)
	var probe model.UnifiedRecord
	for _, s := range p {
		if _, ok := probe.Value(s.Field); !ok {
			return fmt.Errorf("aggregate: unknown field %q", s.Field)
		}
		for _, fn := range s.Funcs {
			switch fn {
			case FuncMin, FuncMean, FuncMax, FuncSum:
			default:
				return fmt.Errorf("aggregate: unknown function %q for %s", fn, s.Field)
			}
			col := Column(s.Field, fn)
			if seen[col] {
				return fmt.Errorf("aggregate: duplicate column %s", col)
			}
			seen[col] = true
		}
	}
	return nil
}

// Daily buckets records per (plant, inverter, calendar day) and applies
// the plan. Days without samples produce no row. Output is ordered by
// plant, inverter, date.
func Daily(recs []model.UnifiedRecord, plan Plan) ([]model.DailyAggregate, error) {
	st := store.New()
	st.AddRecords(recs)
	return FromStore(st, plan)
}

// FromStore aggregates every series held in st.
func FromStore(st *store.Store, plan Plan) ([]model.DailyAggregate, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	var out []model.DailyAggregate
	for _, key := range st.Series() {
		out = append(out, series(key, st.Records(key), plan)...)
	}
	return out, nil
}

// series aggregates one time-ordered series.
func series(key model.SeriesKey, recs []model.UnifiedRecord, plan Plan) []model.DailyAggregate {
	var out []model.DailyAggregate
	for start := 0; start < len(recs); {
		day := model.Date(recs[start].Timestamp)
		end := start
		for end < len(recs) && model.Date(recs[end].Timestamp).Equal(day) {
			end++
		}
		out = append(out, bucket(key, day, recs[start:end], plan))
		start = end
	}
	return out
}

type acc struct {
	n             int
	min, max, sum float64
}

func (a *acc) add(v float64) {
	if a.n == 0 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	a.sum += v
	a.n++
}

func (a acc) result(fn Func) float64 {
	switch fn {
	case FuncMin:
		return a.min
	case FuncMax:
		return a.max
	case FuncSum:
		return a.sum
	case FuncMean:
		return a.sum / float64(a.n)
	}
	return math.NaN()
}

func bucket(key model.SeriesKey, day time.Time, recs []model.UnifiedRecord, plan Plan) model.DailyAggregate {
	values := make(map[string]float64, len(plan)*3)
	for _, s := range plan {
		var a acc
		for _, r := range recs {
			v, _ := r.Value(s.Field)
			a.add(v)
		}
		for _, fn := range s.Funcs {
			values[Column(s.Field, fn)] = a.result(fn)
		}
	}
	return model.DailyAggregate{
		Plant:      key.Plant,
		InverterID: key.InverterID,
		Date:       day,
		Samples:    len(recs),
		Values:     values,
	}
}
