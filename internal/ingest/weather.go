package ingest

import (
	"io"

	"pvplant/internal/model"
)

// WeatherSchema maps the plant weather sensor export header.
var WeatherSchema = Schema{
	{Raw: "DATE_TIME", Field: "timestamp"},
	{Raw: "PLANT_ID", Field: "plant_raw_id"},
	{Raw: "SOURCE_KEY", Field: "sensor_id"},
	{Raw: "AMBIENT_TEMPERATURE", Field: "ambient_temperature"},
	{Raw: "MODULE_TEMPERATURE", Field: "module_temperature"},
	{Raw: "IRRADIATION", Field: "irradiance"},
}

// WeatherParser parses per-plant weather sensor logs.
//
// Expected format:
//
//	DATE_TIME,PLANT_ID,SOURCE_KEY,AMBIENT_TEMPERATURE,MODULE_TEMPERATURE,IRRADIATION
//	2020-05-15 00:00:00,4135001,HmiyD2TTLFNqkNe,25.18,22.85,0.0
type WeatherParser struct {
	Source string
	Dates  DateConvention
	Layout string
	Schema Schema
}

func NewWeatherParser(source string, dates DateConvention) *WeatherParser {
	return &WeatherParser{Source: source, Dates: dates, Schema: WeatherSchema}
}

func (p *WeatherParser) Parse(r io.Reader) (Table[model.WeatherRecord], error) {
	tp := newTimeParser(p.Dates, p.Layout)
	table := Table[model.WeatherRecord]{Source: p.Source, Columns: p.Schema.Fields()}

	err := readTable(r, p.Source, p.Schema, func(rw *row) error {
		var (
			rec model.WeatherRecord
			err error
		)
		if rec.Timestamp, err = rw.timestamp("timestamp", tp); err != nil {
			return err
		}
		rec.PlantRawID = rw.str("plant_raw_id")
		rec.SensorID = rw.str("sensor_id")
		if rec.AmbientTemperature, err = rw.float("ambient_temperature"); err != nil {
			return err
		}
		if rec.ModuleTemperature, err = rw.float("module_temperature"); err != nil {
			return err
		}
		if rec.Irradiance, err = rw.float("irradiance"); err != nil {
			return err
		}
		table.Rows = append(table.Rows, rec)
		return nil
	})
	if err != nil {
		return Table[model.WeatherRecord]{}, err
	}
	return table, nil
}
