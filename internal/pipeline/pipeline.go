package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pvplant/internal/aggregate"
	"pvplant/internal/artifact"
	"pvplant/internal/config"
	"pvplant/internal/dataset"
	"pvplant/internal/features"
	"pvplant/internal/identity"
	"pvplant/internal/ingest"
	"pvplant/internal/log"
	"pvplant/internal/metrics"
	"pvplant/internal/model"
	"pvplant/internal/quality"
	"pvplant/internal/store"
)

// MetricsFile is written next to the artifacts when enabled. It is not part
// of the reproducible output.
const MetricsFile = "metrics.prom"

// Result describes a finished run.
type Result struct {
	RunID  string
	Bundle artifact.Bundle
	Files  []string
}

// Run builds both datasets and the quality report, then publishes them to
// cfg.Output.Dir. Any fatal error aborts before anything is published.
func Run(ctx context.Context, cfg config.Config, m *metrics.Run) (Result, error) {
	runID := uuid.NewString()
	ctx = log.WithAttrs(ctx, "run_id", runID)
	logger := log.Ctx(ctx)

	b, err := Build(ctx, cfg, m)
	if err != nil {
		logger.Error("run failed", "error", err)
		return Result{RunID: runID}, err
	}

	var files []string
	err = stage(ctx, m, "publish", func() error {
		files, err = artifact.Publish(ctx, cfg.Output.Dir, b, cfg.Output.Formats)
		return err
	})
	if err != nil {
		logger.Error("publish failed", "error", err)
		return Result{RunID: runID}, err
	}
	logger.Info("published", "dir", cfg.Output.Dir, "files", files)

	if cfg.Output.MetricsTextfile {
		path := filepath.Join(cfg.Output.Dir, MetricsFile)
		if err := m.WriteTextfile(path); err != nil {
			logger.Warn("writing metrics textfile", "path", path, "error", err)
		}
	}
	return Result{RunID: runID, Bundle: b, Files: files}, nil
}

// Build runs every stage in memory and returns what would be published.
func Build(ctx context.Context, cfg config.Config, m *metrics.Run) (artifact.Bundle, error) {
	logger := log.Ctx(ctx)

	norm, err := identity.NewNormalizer(cfg.PlantMap())
	if err != nil {
		return artifact.Bundle{}, err
	}
	sources, err := cfg.IngestSources()
	if err != nil {
		return artifact.Bundle{}, err
	}

	var (
		genTables     []ingest.Table[model.GenerationRecord]
		weatherTables []ingest.Table[model.WeatherRecord]
		summaries     []quality.SourceSummary
	)
	err = stage(ctx, m, "load", func() error {
		for _, src := range sources {
			summary, err := loadSource(src, norm, &genTables, &weatherTables)
			if err != nil {
				return err
			}
			logger.Info("source loaded", "source", src.Name, "kind", src.Kind, "rows", summary.Rows)
			m.ObserveLoad(src.Name, string(src.Kind), summary.Rows)
			summaries = append(summaries, summary)
		}
		return nil
	})
	if err != nil {
		return artifact.Bundle{}, err
	}

	var (
		gen     ingest.Table[model.GenerationRecord]
		weather ingest.Table[model.WeatherRecord]
	)
	err = stage(ctx, m, "stack", func() error {
		if gen, err = dataset.Stack(genTables...); err != nil {
			return fmt.Errorf("stacking generation: %w", err)
		}
		if weather, err = dataset.Stack(weatherTables...); err != nil {
			return fmt.Errorf("stacking weather: %w", err)
		}
		return nil
	})
	if err != nil {
		return artifact.Bundle{}, err
	}
	logger.Info("sources stacked", "generation_rows", gen.Len(), "weather_rows", weather.Len())

	anomalies := quality.NewCollector()
	var plants []quality.PlantReport
	err = stage(ctx, m, "check", func() error {
		identity.SensorsPerPlant(weather.Rows, anomalies)
		identity.InvertersPerPlant(gen.Rows, cfg.InverterCounts(), anomalies)
		plants = quality.NewChecker(cfg.Quality, anomalies).CheckAll(gen.Rows, weather.Rows)
		return nil
	})
	if err != nil {
		return artifact.Bundle{}, err
	}

	var (
		unified []model.UnifiedRecord
		drop    quality.DropReport
	)
	err = stage(ctx, m, "join", func() error {
		unified, drop = dataset.Join(gen.Rows, weather.Rows, anomalies)
		features.Derive(unified)
		return nil
	})
	if err != nil {
		return artifact.Bundle{}, err
	}
	m.ObserveJoin(drop.Joined, drop.Dropped)
	logger.Info("joined", "rows", len(unified), "dropped", drop.Dropped)

	plan := aggregate.DailyPlan()
	var daily []model.DailyAggregate
	err = stage(ctx, m, "aggregate", func() error {
		st := store.New()
		st.AddRecords(unified)
		daily, err = aggregate.FromStore(st, plan)
		return err
	})
	if err != nil {
		return artifact.Bundle{}, err
	}
	m.SetDailyRows(len(daily))
	logger.Info("aggregated", "daily_rows", len(daily))

	rep := quality.Report{
		Sources:      summaries,
		Plants:       plants,
		Join:         drop,
		UnifiedRows:  len(unified),
		DailyRows:    len(daily),
		DailyColumns: plan.Columns(),
	}
	rep.Attach(anomalies)

	byKind := make(map[string]int, len(rep.AnomalyCount))
	for k, n := range rep.AnomalyCount {
		byKind[string(k)] = n
	}
	m.SetAnomalies(byKind)
	for _, a := range rep.Anomalies {
		if a.Severity == quality.SeverityWarning {
			logger.Warn("data quality", "kind", a.Kind, "plant", a.Plant, "inverter", a.InverterID, "date", a.Date, "message", a.Message)
		}
	}

	return artifact.Bundle{
		Unified:      unified,
		Daily:        daily,
		DailyColumns: rep.DailyColumns,
		Report:       rep,
	}, nil
}

func loadSource(src ingest.Source, norm *identity.Normalizer, gen *[]ingest.Table[model.GenerationRecord], weather *[]ingest.Table[model.WeatherRecord]) (quality.SourceSummary, error) {
	summary := quality.SourceSummary{Name: src.Name, Kind: string(src.Kind), Dates: src.Dates.String()}
	switch src.Kind {
	case ingest.KindGeneration:
		t, err := ingest.LoadGeneration(src)
		if err != nil {
			return summary, err
		}
		if t, err = norm.Generation(t); err != nil {
			return summary, err
		}
		summary.Rows, summary.Columns = t.Len(), t.Columns
		*gen = append(*gen, t)
	case ingest.KindWeather:
		t, err := ingest.LoadWeather(src)
		if err != nil {
			return summary, err
		}
		if t, err = norm.Weather(t); err != nil {
			return summary, err
		}
		summary.Rows, summary.Columns = t.Len(), t.Columns
		*weather = append(*weather, t)
	default:
		return summary, fmt.Errorf("source %s: unknown kind %q", src.Name, src.Kind)
	}
	return summary, nil
}

// stage times fn and stops early if ctx is done.
func stage(ctx context.Context, m *metrics.Run, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	m.ObserveStage(name, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
