package quality

import (
	"fmt"
	"math"
	"sort"
	"time"

	"pvplant/internal/model"
)

const dateLayout = "2006-01-02"

// Config holds the checker tolerances.
type Config struct {
	// Yield increments agree with a daily maximum when they differ by at
	// most max(YieldAbsTolerance, YieldRelTolerance*max(|a|,|b|)).
	YieldRelTolerance float64 `yaml:"yield_rel_tolerance"`
	YieldAbsTolerance float64 `yaml:"yield_abs_tolerance"`
	// An inverter is uneven when its sample count is below this share of
	// the best-covered inverter of the same plant.
	InverterCountRatio float64 `yaml:"inverter_count_ratio"`
	// A day is sparse when its sample count is below this share of the
	// plant's median day.
	SparseDayRatio float64 `yaml:"sparse_day_ratio"`
	// Agreement share below which the yield cross-check is reported.
	YieldAgreementFloor float64 `yaml:"yield_agreement_floor"`
}

func DefaultConfig() Config {
	return Config{
		YieldRelTolerance:   0.05,
		YieldAbsTolerance:   1.0,
		InverterCountRatio:  0.9,
		SparseDayRatio:      0.9,
		YieldAgreementFloor: 0.9,
	}
}

// PowerCheck relates the instantaneous DC and AC fields.
type PowerCheck struct {
	Rows               int     `json:"rows"`
	Correlation        float64 `json:"correlation"`
	CorrelationDefined bool    `json:"correlation_defined"`
	// ACOverDC describes ac/dc over rows with dc != 0.
	ACOverDC    Stats `json:"ac_over_dc"`
	ACWithoutDC int   `json:"ac_without_dc"`
}

// YieldCheck relates the cumulative counters to each other and to the
// instantaneous power fields.
type YieldCheck struct {
	EntityDays int `json:"entity_days"`
	// Compared counts consecutive-day pairs per inverter.
	Compared         int     `json:"compared"`
	AgreePreviousDay int     `json:"agree_previous_day"`
	AgreeSameDay     int     `json:"agree_same_day"`
	PreviousDayShare float64 `json:"previous_day_share"`
	SameDayShare     float64 `json:"same_day_share"`
	Decreases        int     `json:"total_yield_decreases"`
	// Scale of daily_yield_max against the day's power sums. These stay
	// unreconciled; the unit relationship is unknown.
	DailyYieldPerDCSum Stats `json:"daily_yield_per_dc_sum"`
	DailyYieldPerACSum Stats `json:"daily_yield_per_ac_sum"`
}

type DayCount struct {
	Date     string `json:"date"`
	Records  int    `json:"records"`
	Entities int    `json:"entities"`
}

type EntityCount struct {
	ID      string `json:"id"`
	Records int    `json:"records"`
}

// DensityCheck is the record-count histogram of one source family.
type DensityCheck struct {
	FirstDay    string        `json:"first_day,omitempty"`
	LastDay     string        `json:"last_day,omitempty"`
	Days        []DayCount    `json:"days"`
	Entities    []EntityCount `json:"entities"`
	MissingDays []string      `json:"missing_days,omitempty"`
}

// PlantReport is the diagnostic output for one plant.
type PlantReport struct {
	Plant      model.PlantCode `json:"plant"`
	Inverters  int             `json:"inverters"`
	Sensors    []string        `json:"sensors"`
	Power      PowerCheck      `json:"power"`
	Yield      YieldCheck      `json:"yield"`
	Generation DensityCheck    `json:"generation_density"`
	Weather    DensityCheck    `json:"weather_density"`
}

// Checker cross-validates the raw sources. It never mutates its inputs;
// findings go to the report and the anomaly collector.
type Checker struct {
	cfg       Config
	anomalies *Collector
}

func NewChecker(cfg Config, anomalies *Collector) *Checker {
	return &Checker{cfg: cfg, anomalies: anomalies}
}

// CheckAll runs every check per plant. Records must carry canonical plant
// codes.
func (c *Checker) CheckAll(gen []model.GenerationRecord, weather []model.WeatherRecord) []PlantReport {
	genBy := make(map[model.PlantCode][]model.GenerationRecord)
	weatherBy := make(map[model.PlantCode][]model.WeatherRecord)
	plants := make(map[model.PlantCode]bool)
	for _, r := range gen {
		genBy[r.Plant] = append(genBy[r.Plant], r)
		plants[r.Plant] = true
	}
	for _, r := range weather {
		weatherBy[r.Plant] = append(weatherBy[r.Plant], r)
		plants[r.Plant] = true
	}

	codes := make([]model.PlantCode, 0, len(plants))
	for p := range plants {
		codes = append(codes, p)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	reports := make([]PlantReport, 0, len(codes))
	for _, p := range codes {
		reports = append(reports, c.CheckPlant(p, genBy[p], weatherBy[p]))
	}
	return reports
}

// CheckPlant runs every check on one plant's records.
func (c *Checker) CheckPlant(plant model.PlantCode, gen []model.GenerationRecord, weather []model.WeatherRecord) PlantReport {
	rep := PlantReport{
		Plant: plant,
		Power: c.checkPower(plant, gen),
		Yield: c.checkYield(plant, gen),
	}

	inverters := make(map[string]int)
	genTimes := make([]stamped, len(gen))
	for i, r := range gen {
		inverters[r.InverterID]++
		genTimes[i] = stamped{ts: r.Timestamp, id: r.InverterID}
	}
	rep.Inverters = len(inverters)
	rep.Generation = c.checkDensity(plant, genTimes, true)

	sensors := make(map[string]bool)
	weatherTimes := make([]stamped, len(weather))
	for i, r := range weather {
		sensors[r.SensorID] = true
		weatherTimes[i] = stamped{ts: r.Timestamp, id: r.SensorID}
	}
	rep.Sensors = sortedKeys(sensors)
	rep.Weather = c.checkDensity(plant, weatherTimes, false)

	return rep
}

func (c *Checker) checkPower(plant model.PlantCode, gen []model.GenerationRecord) PowerCheck {
	pc := PowerCheck{Rows: len(gen)}
	dc := make([]float64, len(gen))
	ac := make([]float64, len(gen))
	var ratios []float64
	for i, r := range gen {
		dc[i], ac[i] = r.DCPower, r.ACPower
		if r.DCPower != 0 {
			ratios = append(ratios, r.ACPower/r.DCPower)
		} else if r.ACPower != 0 {
			pc.ACWithoutDC++
		}
	}
	pc.Correlation, pc.CorrelationDefined = Pearson(dc, ac)
	pc.ACOverDC = Describe(ratios)

	if pc.ACWithoutDC > 0 {
		c.anomalies.Add(Anomaly{
			Kind: KindACWithoutDC, Severity: SeverityWarning, Plant: plant, Count: pc.ACWithoutDC,
			Message: "rows report AC output while DC input is zero",
		})
	}
	return pc
}

type entityDay struct {
	date       time.Time
	dailyMax   float64
	totalMax   float64
	dcSum      float64
	acSum      float64
	hasSamples bool
}

func (c *Checker) checkYield(plant model.PlantCode, gen []model.GenerationRecord) YieldCheck {
	var yc YieldCheck

	byInverter := make(map[string][]model.GenerationRecord)
	for _, r := range gen {
		byInverter[r.InverterID] = append(byInverter[r.InverterID], r)
	}

	var perDC, perAC []float64
	for _, inv := range sortedKeys(byInverter) {
		rows := byInverter[inv]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })

		decreases := 0
		days := make(map[time.Time]*entityDay)
		for i, r := range rows {
			if i > 0 && r.TotalYield < rows[i-1].TotalYield {
				decreases++
			}
			d := model.Date(r.Timestamp)
			ed, ok := days[d]
			if !ok {
				ed = &entityDay{date: d}
				days[d] = ed
			}
			if !ed.hasSamples || r.DailyYield > ed.dailyMax {
				ed.dailyMax = r.DailyYield
			}
			if !ed.hasSamples || r.TotalYield > ed.totalMax {
				ed.totalMax = r.TotalYield
			}
			ed.hasSamples = true
			ed.dcSum += r.DCPower
			ed.acSum += r.ACPower
		}

		if decreases > 0 {
			yc.Decreases += decreases
			c.anomalies.Add(Anomaly{
				Kind: KindYieldDecrease, Severity: SeverityWarning, Plant: plant, InverterID: inv, Count: decreases,
				Message: "cumulative total_yield decreased between consecutive samples",
			})
		}

		ordered := make([]*entityDay, 0, len(days))
		for _, ed := range days {
			ordered = append(ordered, ed)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].date.Before(ordered[j].date) })
		yc.EntityDays += len(ordered)

		for i, ed := range ordered {
			if ed.dcSum > 0 {
				perDC = append(perDC, ed.dailyMax/ed.dcSum)
			}
			if ed.acSum > 0 {
				perAC = append(perAC, ed.dailyMax/ed.acSum)
			}
			if i == 0 {
				continue
			}
			prev := ordered[i-1]
			if !ed.date.Equal(prev.date.AddDate(0, 0, 1)) {
				continue
			}
			increment := ed.totalMax - prev.totalMax
			yc.Compared++
			if c.agree(increment, prev.dailyMax) {
				yc.AgreePreviousDay++
			}
			if c.agree(increment, ed.dailyMax) {
				yc.AgreeSameDay++
			}
		}
	}

	if yc.Compared > 0 {
		yc.PreviousDayShare = float64(yc.AgreePreviousDay) / float64(yc.Compared)
		yc.SameDayShare = float64(yc.AgreeSameDay) / float64(yc.Compared)
		if yc.PreviousDayShare < c.cfg.YieldAgreementFloor {
			c.anomalies.Add(Anomaly{
				Kind: KindYieldMismatch, Severity: SeverityWarning, Plant: plant,
				Count: yc.Compared - yc.AgreePreviousDay,
				Message: fmt.Sprintf("total_yield day-over-day increment matches previous-day daily_yield max in %.3f of days (same-day alignment %.3f)",
					yc.PreviousDayShare, yc.SameDayShare),
			})
		}
	}

	yc.DailyYieldPerDCSum = Describe(perDC)
	yc.DailyYieldPerACSum = Describe(perAC)
	if yc.DailyYieldPerACSum.Count > 0 {
		c.anomalies.Add(Anomaly{
			Kind: KindYieldScale, Severity: SeverityInfo, Plant: plant,
			Message: fmt.Sprintf("median daily_yield_max / ac_power_sum %.3f, / dc_power_sum %.3f",
				yc.DailyYieldPerACSum.P50, yc.DailyYieldPerDCSum.P50),
		})
	}
	return yc
}

func (c *Checker) agree(a, b float64) bool {
	tol := math.Max(c.cfg.YieldAbsTolerance, c.cfg.YieldRelTolerance*math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol
}

type stamped struct {
	ts time.Time
	id string
}

func (c *Checker) checkDensity(plant model.PlantCode, rows []stamped, generation bool) DensityCheck {
	var dc DensityCheck
	if len(rows) == 0 {
		return dc
	}

	dayRecords := make(map[time.Time]int)
	dayEntities := make(map[time.Time]map[string]bool)
	entityRecords := make(map[string]int)
	for _, r := range rows {
		d := model.Date(r.ts)
		dayRecords[d]++
		if dayEntities[d] == nil {
			dayEntities[d] = make(map[string]bool)
		}
		dayEntities[d][r.id] = true
		entityRecords[r.id]++
	}

	days := make([]time.Time, 0, len(dayRecords))
	for d := range dayRecords {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	dc.FirstDay = days[0].Format(dateLayout)
	dc.LastDay = days[len(days)-1].Format(dateLayout)

	counts := make([]float64, len(days))
	for i, d := range days {
		dc.Days = append(dc.Days, DayCount{Date: d.Format(dateLayout), Records: dayRecords[d], Entities: len(dayEntities[d])})
		counts[i] = float64(dayRecords[d])
	}

	source := "weather"
	if generation {
		source = "generation"
	}

	for d := days[0]; !d.After(days[len(days)-1]); d = d.AddDate(0, 0, 1) {
		if _, ok := dayRecords[d]; !ok {
			ds := d.Format(dateLayout)
			dc.MissingDays = append(dc.MissingDays, ds)
			c.anomalies.Add(Anomaly{
				Kind: KindMissingDay, Severity: SeverityWarning, Plant: plant, Date: ds,
				Message: source + " log has no samples for this day",
			})
		}
	}

	median := Describe(counts).P50
	for _, day := range dc.Days {
		if float64(day.Records) < c.cfg.SparseDayRatio*median {
			c.anomalies.Add(Anomaly{
				Kind: KindSparseDay, Severity: SeverityInfo, Plant: plant, Date: day.Date, Count: day.Records,
				Message: source + " day has fewer samples than the plant's median day",
			})
		}
	}

	best := 0
	for _, id := range sortedKeys(entityRecords) {
		n := entityRecords[id]
		dc.Entities = append(dc.Entities, EntityCount{ID: id, Records: n})
		if n > best {
			best = n
		}
	}
	if generation {
		for _, e := range dc.Entities {
			if float64(e.Records) < c.cfg.InverterCountRatio*float64(best) {
				c.anomalies.Add(Anomaly{
					Kind: KindUnevenInverter, Severity: SeverityWarning, Plant: plant, InverterID: e.ID, Count: e.Records,
					Message: "inverter has noticeably fewer samples than the best-covered inverter",
				})
			}
		}
	}
	return dc
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
