package identity

import (
	"fmt"
	"sort"
	"strings"

	"pvplant/internal/model"
	"pvplant/internal/quality"
)

// SensorsPerPlant returns the distinct weather sensor IDs of each plant and
// reports every plant that does not have exactly one.
func SensorsPerPlant(rows []model.WeatherRecord, anomalies *quality.Collector) map[model.PlantCode][]string {
	sets := make(map[model.PlantCode]map[string]bool)
	for _, r := range rows {
		if sets[r.Plant] == nil {
			sets[r.Plant] = make(map[string]bool)
		}
		sets[r.Plant][r.SensorID] = true
	}

	out := make(map[model.PlantCode][]string, len(sets))
	for _, plant := range sortedPlants(sets) {
		ids := make([]string, 0, len(sets[plant]))
		for id := range sets[plant] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[plant] = ids
		if len(ids) != 1 {
			anomalies.Add(quality.Anomaly{
				Kind: quality.KindSensorCardinality, Severity: quality.SeverityWarning, Plant: plant, Count: len(ids),
				Message: fmt.Sprintf("expected exactly one weather sensor, found %d (%s)", len(ids), strings.Join(ids, ",")),
			})
		}
	}
	return out
}

// InvertersPerPlant counts distinct inverters per plant. When expected has
// an entry for a plant, a different count is reported.
func InvertersPerPlant(rows []model.GenerationRecord, expected map[model.PlantCode]int, anomalies *quality.Collector) map[model.PlantCode]int {
	sets := make(map[model.PlantCode]map[string]bool)
	for _, r := range rows {
		if sets[r.Plant] == nil {
			sets[r.Plant] = make(map[string]bool)
		}
		sets[r.Plant][r.InverterID] = true
	}

	out := make(map[model.PlantCode]int, len(sets))
	for _, plant := range sortedPlants(sets) {
		n := len(sets[plant])
		out[plant] = n
		if want, ok := expected[plant]; ok && want != n {
			anomalies.Add(quality.Anomaly{
				Kind: quality.KindInverterCardinality, Severity: quality.SeverityWarning, Plant: plant, Count: n,
				Message: fmt.Sprintf("expected %d inverters, found %d", want, n),
			})
		}
	}
	return out
}

func sortedPlants[V any](m map[model.PlantCode]V) []model.PlantCode {
	out := make([]model.PlantCode, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
