package solar

import (
	"fmt"
	"sort"
	"time"

	"pvplant/internal/model"
	"pvplant/internal/quality"
)

// Reception summarizes the weather a plant received. Each (plant,
// timestamp) observation counts once however many inverters share it.
type Reception struct {
	Plant                  model.PlantCode `json:"plant"`
	Observations           int             `json:"observations"`
	IrradianceSum          float64         `json:"irradiance_sum"`
	MeanAmbientTemperature float64         `json:"mean_ambient_temperature"`
	MeanModuleTemperature  float64         `json:"mean_module_temperature"`
}

func PlantReception(recs []model.UnifiedRecord) []Reception {
	type key struct {
		plant model.PlantCode
		ts    time.Time
	}
	seen := make(map[key]bool)
	byPlant := make(map[model.PlantCode]*Reception)
	for _, r := range recs {
		k := key{r.Plant, r.Timestamp}
		if seen[k] {
			continue
		}
		seen[k] = true
		rc := byPlant[r.Plant]
		if rc == nil {
			rc = &Reception{Plant: r.Plant}
			byPlant[r.Plant] = rc
		}
		rc.Observations++
		rc.IrradianceSum += r.Irradiance
		rc.MeanAmbientTemperature += r.AmbientTemperature
		rc.MeanModuleTemperature += r.ModuleTemperature
	}

	out := make([]Reception, 0, len(byPlant))
	for _, rc := range byPlant {
		n := float64(rc.Observations)
		rc.MeanAmbientTemperature /= n
		rc.MeanModuleTemperature /= n
		out = append(out, *rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plant < out[j].Plant })
	return out
}

// Window is an inclusive range of hours of day.
type Window struct {
	FromHour int `yaml:"from_hour" json:"from_hour"`
	ToHour   int `yaml:"to_hour" json:"to_hour"`
}

// DefaultDaytime covers 08:00 through 15:59.
var DefaultDaytime = Window{FromHour: 8, ToHour: 15}

func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.FromHour && h <= w.ToHour
}

func (w Window) Validate() error {
	if w.FromHour < 0 || w.ToHour > 23 || w.FromHour > w.ToHour {
		return fmt.Errorf("invalid daytime window %d-%d", w.FromHour, w.ToHour)
	}
	return nil
}

// Outage is the share of daytime samples in which an inverter reported no
// DC input.
type Outage struct {
	Plant      model.PlantCode `json:"plant"`
	InverterID string          `json:"inverter_id"`
	Samples    int             `json:"samples"`
	ZeroDC     int             `json:"zero_dc"`
	Share      float64         `json:"share"`
}

// DCOutages ranks inverters by their zero-DC share inside w, highest
// first.
func DCOutages(recs []model.UnifiedRecord, w Window) []Outage {
	byKey := make(map[model.SeriesKey]*Outage)
	for _, r := range recs {
		if !w.Contains(r.Timestamp) {
			continue
		}
		k := r.Series()
		o := byKey[k]
		if o == nil {
			o = &Outage{Plant: k.Plant, InverterID: k.InverterID}
			byKey[k] = o
		}
		o.Samples++
		if r.DCPower == 0 {
			o.ZeroDC++
		}
	}

	out := make([]Outage, 0, len(byKey))
	for _, o := range byKey {
		o.Share = float64(o.ZeroDC) / float64(o.Samples)
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Series().Less(out[j].Series())
	})
	return out
}

func (o Outage) Series() model.SeriesKey {
	return model.SeriesKey{Plant: o.Plant, InverterID: o.InverterID}
}

// InverterEfficiency holds the daily mean efficiency of one inverter over
// samples with positive DC input.
type InverterEfficiency struct {
	Plant      model.PlantCode `json:"plant"`
	InverterID string          `json:"inverter_id"`
	Days       []DayValue      `json:"days"`
	Summary    quality.Stats   `json:"summary"`
}

type DayValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// DailyEfficiency computes per-inverter daily mean efficiency, sorted by
// plant then inverter.
func DailyEfficiency(recs []model.UnifiedRecord) []InverterEfficiency {
	type acc struct {
		sum float64
		n   int
	}
	byKey := make(map[model.SeriesKey]map[time.Time]*acc)
	for _, r := range recs {
		if r.DCPower <= 0 {
			continue
		}
		k := r.Series()
		days := byKey[k]
		if days == nil {
			days = make(map[time.Time]*acc)
			byKey[k] = days
		}
		d := model.Date(r.Timestamp)
		a := days[d]
		if a == nil {
			a = &acc{}
			days[d] = a
		}
		a.sum += r.Efficiency
		a.n++
	}

	keys := make([]model.SeriesKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]InverterEfficiency, 0, len(keys))
	for _, k := range keys {
		days := byKey[k]
		dates := make([]time.Time, 0, len(days))
		for d := range days {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		ie := InverterEfficiency{Plant: k.Plant, InverterID: k.InverterID}
		means := make([]float64, len(dates))
		for i, d := range dates {
			a := days[d]
			means[i] = a.sum / float64(a.n)
			ie.Days = append(ie.Days, DayValue{Date: d.Format("2006-01-02"), Value: means[i]})
		}
		ie.Summary = quality.Describe(means)
		out = append(out, ie)
	}
	return out
}
