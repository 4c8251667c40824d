package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pvplant/internal/artifact"
	"pvplant/internal/ingest"
	"pvplant/internal/model"
	"pvplant/internal/quality"
	"pvplant/internal/solar"
)

// SourceConfig declares one input file. Dates is "day_first" or
// "month_first"; Layout, when set, overrides the convention's layouts.
type SourceConfig struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Path   string `yaml:"path"`
	Dates  string `yaml:"dates"`
	Layout string `yaml:"layout,omitempty"`
}

type OutputConfig struct {
	Dir             string           `yaml:"dir"`
	Formats         artifact.Formats `yaml:"formats"`
	MetricsTextfile bool             `yaml:"metrics_textfile"`
}

// Config is the pipeline configuration.
type Config struct {
	// DataDir is the base for relative source paths.
	DataDir  string            `yaml:"data_dir"`
	Plants   map[string]string `yaml:"plants"`
	Sources  []SourceConfig    `yaml:"sources"`
	Output   OutputConfig      `yaml:"output"`
	Quality  quality.Config    `yaml:"quality"`
	Daytime  solar.Window      `yaml:"daytime"`
	LogLevel string            `yaml:"log_level"`

	// ExpectedInverters maps a plant code to its installed inverter count.
	ExpectedInverters map[string]int `yaml:"expected_inverters"`
}

// Default describes the four plant exports in ./data.
func Default() Config {
	plants := make(map[string]string, len(model.DefaultPlantIDs))
	for raw, code := range model.DefaultPlantIDs {
		plants[raw] = string(code)
	}
	return Config{
		DataDir: "data",
		Plants:  plants,
		Sources: []SourceConfig{
			{Name: "plant1_generation", Kind: string(ingest.KindGeneration), Path: "Plant_1_Generation_Data.csv", Dates: "day_first"},
			{Name: "plant2_generation", Kind: string(ingest.KindGeneration), Path: "Plant_2_Generation_Data.csv", Dates: "month_first"},
			{Name: "plant1_weather", Kind: string(ingest.KindWeather), Path: "Plant_1_Weather_Sensor_Data.csv", Dates: "month_first"},
			{Name: "plant2_weather", Kind: string(ingest.KindWeather), Path: "Plant_2_Weather_Sensor_Data.csv", Dates: "month_first"},
		},
		Output:   OutputConfig{Dir: "output"},
		Quality:  quality.DefaultConfig(),
		Daytime:  solar.DefaultDaytime,
		LogLevel: "info",

		ExpectedInverters: map[string]int{
			string(model.PlantP1): 22,
			string(model.PlantP2): 22,
		},
	}
}

// Load reads .env if present, then the YAML file at path (or
// $PVPLANT_CONFIG when path is empty), then applies env overrides. With no
// file the defaults are used.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("PVPLANT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		if !filepath.IsAbs(cfg.DataDir) {
			cfg.DataDir = filepath.Join(filepath.Dir(path), cfg.DataDir)
		}
	}

	cfg.DataDir = getEnv("PVPLANT_DATA_DIR", cfg.DataDir)
	cfg.Output.Dir = getEnv("PVPLANT_OUTPUT_DIR", cfg.Output.Dir)
	cfg.LogLevel = getEnv("PVPLANT_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Plants and sources, when given,
// replace the default lists entirely.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	cfg.Plants = nil
	cfg.Sources = nil
	cfg.ExpectedInverters = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	def := Default()
	if cfg.Plants == nil {
		cfg.Plants = def.Plants
	}
	if cfg.Sources == nil {
		cfg.Sources = def.Sources
	}
	if cfg.ExpectedInverters == nil {
		cfg.ExpectedInverters = def.ExpectedInverters
	}
	return cfg, nil
}

// Validate checks the configuration for errors that would otherwise
// surface mid-run.
func (c Config) Validate() error {
	var errs []error

	if len(c.Plants) == 0 {
		errs = append(errs, errors.New("no plants configured"))
	}
	codes := make(map[string]string)
	for raw, code := range c.Plants {
		if strings.TrimSpace(raw) == "" || strings.TrimSpace(code) == "" {
			errs = append(errs, fmt.Errorf("plant mapping %q -> %q has an empty side", raw, code))
			continue
		}
		if prev, ok := codes[code]; ok {
			errs = append(errs, fmt.Errorf("plant code %q used by %s and %s", code, prev, raw))
		}
		codes[code] = raw
	}

	for code, n := range c.ExpectedInverters {
		if _, ok := codes[code]; !ok {
			errs = append(errs, fmt.Errorf("expected_inverters: unknown plant code %q", code))
		}
		if n < 0 {
			errs = append(errs, fmt.Errorf("expected_inverters: negative count for %q", code))
		}
	}

	var gen, weather int
	names := make(map[string]bool)
	for i, s := range c.Sources {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("source #%d", i+1)
			errs = append(errs, fmt.Errorf("%s: name required", label))
		} else if names[s.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate source name", label))
		}
		names[s.Name] = true

		switch ingest.Kind(s.Kind) {
		case ingest.KindGeneration:
			gen++
		case ingest.KindWeather:
			weather++
		default:
			errs = append(errs, fmt.Errorf("%s: unknown kind %q", label, s.Kind))
		}
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("%s: path required", label))
		}
		if _, err := ingest.ParseDateConvention(s.Dates); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}
	if gen == 0 || weather == 0 {
		errs = append(errs, errors.New("at least one generation and one weather source required"))
	}

	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output dir required"))
	}
	if err := c.Daytime.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Quality.YieldRelTolerance < 0 || c.Quality.YieldAbsTolerance < 0 {
		errs = append(errs, errors.New("yield tolerances must not be negative"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// PlantMap returns the raw id to canonical code table.
func (c Config) PlantMap() map[string]model.PlantCode {
	out := make(map[string]model.PlantCode, len(c.Plants))
	for raw, code := range c.Plants {
		out[raw] = model.PlantCode(code)
	}
	return out
}

// InverterCounts returns the expected inverter count per plant.
func (c Config) InverterCounts() map[model.PlantCode]int {
	out := make(map[model.PlantCode]int, len(c.ExpectedInverters))
	for code, n := range c.ExpectedInverters {
		out[model.PlantCode(code)] = n
	}
	return out
}

// IngestSources resolves the configured sources, with relative paths
// joined to DataDir.
func (c Config) IngestSources() ([]ingest.Source, error) {
	out := make([]ingest.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		dates, err := ingest.ParseDateConvention(s.Dates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		path := s.Path
		if !filepath.IsAbs(path) && c.DataDir != "" {
			path = filepath.Join(c.DataDir, path)
		}
		out = append(out, ingest.Source{
			Name:   s.Name,
			Kind:   ingest.Kind(s.Kind),
			Path:   path,
			Dates:  dates,
			Layout: s.Layout,
		})
	}
	return out, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
