package dataset

import (
	"fmt"
	"sort"
	"time"

	"pvplant/internal/model"
	"pvplant/internal/quality"
)

const (
	windowLayout = "2006-01-02 15:04"
	dateLayout   = "2006-01-02"
)

// JoinedRow is a generation row after the left join. Weather is nil when
// no weather row shares its (timestamp, plant) key.
type JoinedRow struct {
	Generation model.GenerationRecord
	Weather    *model.WeatherRecord
}

type weatherKey struct {
	ts    time.Time
	plant model.PlantCode
}

type unifiedKey struct {
	ts    time.Time
	plant model.PlantCode
	inv   string
}

// LeftJoin pairs every generation row with the weather row of the same
// plant and timestamp. Duplicate keys on either side keep their first
// occurrence and are reported, so the output key stays unique.
func LeftJoin(gen []model.GenerationRecord, weather []model.WeatherRecord, anomalies *quality.Collector) []JoinedRow {
	index := make(map[weatherKey]int, len(weather))
	dupWeather := make(map[model.PlantCode]int)
	for i, w := range weather {
		k := weatherKey{ts: w.Timestamp, plant: w.Plant}
		if _, ok := index[k]; ok {
			dupWeather[w.Plant]++
			continue
		}
		index[k] = i
	}

	seen := make(map[unifiedKey]bool, len(gen))
	dupGen := make(map[model.PlantCode]int)
	out := make([]JoinedRow, 0, len(gen))
	for _, g := range gen {
		uk := unifiedKey{ts: g.Timestamp, plant: g.Plant, inv: g.InverterID}
		if seen[uk] {
			dupGen[g.Plant]++
			continue
		}
		seen[uk] = true

		row := JoinedRow{Generation: g}
		if i, ok := index[weatherKey{ts: g.Timestamp, plant: g.Plant}]; ok {
			w := weather[i]
			row.Weather = &w
		}
		out = append(out, row)
	}

	reportDuplicates(anomalies, dupWeather, "weather rows share a (timestamp, plant) key; first kept")
	reportDuplicates(anomalies, dupGen, "generation rows share a (timestamp, plant, inverter) key; first kept")
	return out
}

func reportDuplicates(anomalies *quality.Collector, counts map[model.PlantCode]int, msg string) {
	plants := make([]model.PlantCode, 0, len(counts))
	for p := range counts {
		plants = append(plants, p)
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i] < plants[j] })
	for _, p := range plants {
		anomalies.Add(quality.Anomaly{
			Kind: quality.KindDuplicateKey, Severity: quality.SeverityWarning, Plant: p, Count: counts[p], Message: msg,
		})
	}
}

// CountUnmatched returns the drop report for rows without weather, without
// removing anything.
func CountUnmatched(rows []JoinedRow) quality.DropReport {
	rep := quality.DropReport{Joined: len(rows)}
	for _, r := range rows {
		if r.Weather != nil {
			continue
		}
		if rep.ByPlant == nil {
			rep.ByPlant = make(map[model.PlantCode]int)
			rep.ByInverter = make(map[string]int)
			rep.ByTimestamp = make(map[string]int)
		}
		g := r.Generation
		rep.Dropped++
		rep.ByPlant[g.Plant]++
		rep.ByInverter[model.SeriesKey{Plant: g.Plant, InverterID: g.InverterID}.String()]++
		rep.ByTimestamp[g.Timestamp.Format(windowLayout)]++
	}
	rep.Kept = rep.Joined - rep.Dropped
	return rep
}

// DropUnmatched removes rows without weather and returns the surviving
// unified records sorted by (timestamp, plant, inverter). Derived fields are
// left zero.
func DropUnmatched(rows []JoinedRow) []model.UnifiedRecord {
	out := make([]model.UnifiedRecord, 0, len(rows))
	for _, r := range rows {
		if r.Weather == nil {
			continue
		}
		g, w := r.Generation, r.Weather
		out = append(out, model.UnifiedRecord{
			Timestamp:          g.Timestamp,
			Plant:              g.Plant,
			InverterID:         g.InverterID,
			DCPower:            g.DCPower,
			ACPower:            g.ACPower,
			DailyYieldRaw:      g.DailyYield,
			TotalYieldRaw:      g.TotalYield,
			SensorID:           w.SensorID,
			AmbientTemperature: w.AmbientTemperature,
			ModuleTemperature:  w.ModuleTemperature,
			Irradiance:         w.Irradiance,
		})
	}
	SortUnified(out)
	return out
}

// SortUnified orders records by timestamp, plant, inverter.
func SortUnified(recs []model.UnifiedRecord) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Plant != b.Plant {
			return a.Plant < b.Plant
		}
		return a.InverterID < b.InverterID
	})
}

// Join runs the left join, reports unmatched rows, then drops them.
func Join(gen []model.GenerationRecord, weather []model.WeatherRecord, anomalies *quality.Collector) ([]model.UnifiedRecord, quality.DropReport) {
	joined := LeftJoin(gen, weather, anomalies)
	rep := CountUnmatched(joined)

	if rep.Dropped > 0 {
		type plantDay struct {
			plant model.PlantCode
			date  string
		}
		byDay := make(map[plantDay]int)
		for _, r := range joined {
			if r.Weather == nil {
				g := r.Generation
				byDay[plantDay{g.Plant, model.Date(g.Timestamp).Format(dateLayout)}]++
			}
		}
		keys := make([]plantDay, 0, len(byDay))
		for k := range byDay {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].plant != keys[j].plant {
				return keys[i].plant < keys[j].plant
			}
			return keys[i].date < keys[j].date
		})
		for _, k := range keys {
			anomalies.Add(quality.Anomaly{
				Kind: quality.KindJoinDrop, Severity: quality.SeverityWarning,
				Plant: k.plant, Date: k.date, Count: byDay[k],
				Message: fmt.Sprintf("%d generation rows have no weather sample and were dropped", byDay[k]),
			})
		}
	}
	return DropUnmatched(joined), rep
}
