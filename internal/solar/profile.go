package solar

import (
	"sort"

	"pvplant/internal/model"
)

// HourStats holds the mean of each field over all records of one hour of
// day.
type HourStats struct {
	Samples            int     `json:"samples"`
	Irradiance         float64 `json:"irradiance"`
	AmbientTemperature float64 `json:"ambient_temperature"`
	DCPower            float64 `json:"dc_power"`
	ACPower            float64 `json:"ac_power"`
	Efficiency         float64 `json:"efficiency"`
	// ACFactor is ACPower relative to the peak hour (peak = 1.0).
	ACFactor float64 `json:"ac_factor"`
}

// HourlyProfile is the mean daily shape of one plant.
type HourlyProfile struct {
	Plant    model.PlantCode `json:"plant"`
	Hours    [24]HourStats   `json:"hours"`
	PeakHour int             `json:"peak_hour"`
}

// BuildProfiles derives an hourly profile per plant from unified records.
// Profiles are sorted by plant.
func BuildProfiles(recs []model.UnifiedRecord) []HourlyProfile {
	type sums struct {
		n                     [24]int
		irr, amb, dc, ac, eff [24]float64
	}
	byPlant := make(map[model.PlantCode]*sums)
	for _, r := range recs {
		s := byPlant[r.Plant]
		if s == nil {
			s = &sums{}
			byPlant[r.Plant] = s
		}
		h := r.Timestamp.Hour()
		s.n[h]++
		s.irr[h] += r.Irradiance
		s.amb[h] += r.AmbientTemperature
		s.dc[h] += r.DCPower
		s.ac[h] += r.ACPower
		s.eff[h] += r.Efficiency
	}

	out := make([]HourlyProfile, 0, len(byPlant))
	for plant, s := range byPlant {
		p := HourlyProfile{Plant: plant}
		var maxAC float64
		for h := 0; h < 24; h++ {
			if s.n[h] == 0 {
				continue
			}
			n := float64(s.n[h])
			p.Hours[h] = HourStats{
				Samples:            s.n[h],
				Irradiance:         s.irr[h] / n,
				AmbientTemperature: s.amb[h] / n,
				DCPower:            s.dc[h] / n,
				ACPower:            s.ac[h] / n,
				Efficiency:         s.eff[h] / n,
			}
			if p.Hours[h].ACPower > maxAC {
				maxAC = p.Hours[h].ACPower
				p.PeakHour = h
			}
		}

		// Normalize to peak = 1.0
		if maxAC > 0 {
			for h := 0; h < 24; h++ {
				p.Hours[h].ACFactor = p.Hours[h].ACPower / maxAC
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plant < out[j].Plant })
	return out
}
