package ingest

import (
	"fmt"
	"os"

	"pvplant/internal/model"
)

// Kind tells which record family a source holds.
type Kind string

const (
	KindGeneration Kind = "generation"
	KindWeather    Kind = "weather"
)

// Source describes one input file.
type Source struct {
	Name   string
	Kind   Kind
	Path   string
	Dates  DateConvention
	Layout string
}

// LoadGeneration reads a generation source from disk.
func LoadGeneration(src Source) (Table[model.GenerationRecord], error) {
	if src.Kind != KindGeneration {
		return Table[model.GenerationRecord]{}, fmt.Errorf("source %s is %s, not %s", src.Name, src.Kind, KindGeneration)
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return Table[model.GenerationRecord]{}, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()

	p := NewGenerationParser(src.Name, src.Dates)
	p.Layout = src.Layout
	return p.Parse(f)
}

// LoadWeather reads a weather source from disk.
func LoadWeather(src Source) (Table[model.WeatherRecord], error) {
	if src.Kind != KindWeather {
		return Table[model.WeatherRecord]{}, fmt.Errorf("source %s is %s, not %s", src.Name, src.Kind, KindWeather)
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return Table[model.WeatherRecord]{}, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()

	p := NewWeatherParser(src.Name, src.Dates)
	p.Layout = src.Layout
	return p.Parse(f)
}
