package model

import "time"

// GenerationRecord is one inverter sample as read from a generation log.
// Plant stays empty until the identifier normalizer has run.
type GenerationRecord struct {
	Timestamp  time.Time
	PlantRawID string
	Plant      PlantCode
	InverterID string
	DCPower    float64
	ACPower    float64
	DailyYield float64
	TotalYield float64
}

// WeatherRecord is one plant-level sensor sample as read from a weather log.
type WeatherRecord struct {
	Timestamp          time.Time
	PlantRawID         string
	Plant              PlantCode
	SensorID           string
	AmbientTemperature float64
	ModuleTemperature  float64
	Irradiance         float64
}

// UnifiedRecord is a generation sample joined with the weather sample of
// the same plant and timestamp, plus derived fields. Key: (Timestamp,
// Plant, InverterID).
type UnifiedRecord struct {
	Timestamp          time.Time `json:"timestamp"`
	Plant              PlantCode `json:"plant"`
	InverterID         string    `json:"inverter_id"`
	DCPower            float64   `json:"dc_power"`
	ACPower            float64   `json:"ac_power"`
	DailyYieldRaw      float64   `json:"daily_yield_raw"`
	TotalYieldRaw      float64   `json:"total_yield_raw"`
	SensorID           string    `json:"sensor_id"`
	AmbientTemperature float64   `json:"ambient_temperature"`
	ModuleTemperature  float64   `json:"module_temperature"`
	Irradiance         float64   `json:"irradiance"`
	Efficiency         float64   `json:"efficiency"`
	Month              int       `json:"month"`
	Day                int       `json:"day"`
	Hour               int       `json:"hour"`
	Minute             int       `json:"minute"`
}

func (r UnifiedRecord) Series() SeriesKey {
	return SeriesKey{Plant: r.Plant, InverterID: r.InverterID}
}

// Value returns the numeric field named f.
func (r UnifiedRecord) Value(f Field) (float64, bool) {
	switch f {
	case FieldDCPower:
		return r.DCPower, true
	case FieldACPower:
		return r.ACPower, true
	case FieldDailyYield:
		return r.DailyYieldRaw, true
	case FieldTotalYield:
		return r.TotalYieldRaw, true
	case FieldAmbientTemperature:
		return r.AmbientTemperature, true
	case FieldModuleTemperature:
		return r.ModuleTemperature, true
	case FieldIrradiance:
		return r.Irradiance, true
	case FieldEfficiency:
		return r.Efficiency, true
	}
	return 0, false
}

// DailyAggregate is one (plant, inverter, calendar day) bucket. Values is
// keyed by column names such as "dc_power_sum".
type DailyAggregate struct {
	Plant      PlantCode          `json:"plant"`
	InverterID string             `json:"inverter_id"`
	Date       time.Time          `json:"date"`
	Samples    int                `json:"samples"`
	Values     map[string]float64 `json:"values"`
}

func (d DailyAggregate) Series() SeriesKey {
	return SeriesKey{Plant: d.Plant, InverterID: d.InverterID}
}
