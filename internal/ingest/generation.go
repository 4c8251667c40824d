package ingest

import (
	"io"

	"pvplant/internal/model"
)

// GenerationSchema maps the inverter generation export header.
var GenerationSchema = Schema{
	{Raw: "DATE_TIME", Field: "timestamp"},
	{Raw: "PLANT_ID", Field: "plant_raw_id"},
	{Raw: "SOURCE_KEY", Field: "inverter_id"},
	{Raw: "DC_POWER", Field: "dc_power"},
	{Raw: "AC_POWER", Field: "ac_power"},
	{Raw: "DAILY_YIELD", Field: "daily_yield"},
	{Raw: "TOTAL_YIELD", Field: "total_yield"},
}

// GenerationParser parses per-inverter generation logs.
//
// Expected format:
//
//	DATE_TIME,PLANT_ID,SOURCE_KEY,DC_POWER,AC_POWER,DAILY_YIELD,TOTAL_YIELD
//	15-05-2020 00:00,4135001,1BY6WEcLGh8j5v7,0.0,0.0,0.0,6259559.0
type GenerationParser struct {
	Source string
	Dates  DateConvention
	// Layout, if set, replaces the convention's layout list.
	Layout string
	Schema Schema
}

func NewGenerationParser(source string, dates DateConvention) *GenerationParser {
	return &GenerationParser{Source: source, Dates: dates, Schema: GenerationSchema}
}

func (p *GenerationParser) Parse(r io.Reader) (Table[model.GenerationRecord], error) {
	tp := newTimeParser(p.Dates, p.Layout)
	table := Table[model.GenerationRecord]{Source: p.Source, Columns: p.Schema.Fields()}

	err := readTable(r, p.Source, p.Schema, func(rw *row) error {
		var (
			rec model.GenerationRecord
			err error
		)
		if rec.Timestamp, err = rw.timestamp("timestamp", tp); err != nil {
			return err
		}
		rec.PlantRawID = rw.str("plant_raw_id")
		rec.InverterID = rw.str("inverter_id")
		if rec.DCPower, err = rw.float("dc_power"); err != nil {
			return err
		}
		if rec.ACPower, err = rw.float("ac_power"); err != nil {
			return err
		}
		if rec.DailyYield, err = rw.float("daily_yield"); err != nil {
			return err
		}
		if rec.TotalYield, err = rw.float("total_yield"); err != nil {
			return err
		}
		table.Rows = append(table.Rows, rec)
		return nil
	})
	if err != nil {
		return Table[model.GenerationRecord]{}, err
	}
	return table, nil
}
