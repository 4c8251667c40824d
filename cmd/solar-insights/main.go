package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"pvplant/internal/artifact"
	"pvplant/internal/log"
	"pvplant/internal/model"
	"pvplant/internal/quality"
	"pvplant/internal/solar"
)

func main() {
	dir := flag.String("dir", "output", "directory holding published artifacts")
	window := flag.String("window", "8-15", "daytime hours for the DC outage check, inclusive (from-to)")
	top := flag.Int("top", 10, "number of inverters to list in rankings")
	flag.Parse()

	logger := log.Ctx(context.Background())

	w, err := parseWindow(*window)
	if err != nil {
		logger.Error("invalid window", "error", err)
		os.Exit(1)
	}

	b, err := artifact.Load(*dir)
	if err != nil {
		logger.Error("loading artifacts", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(b.Unified) == 0 {
		logger.Error("no unified records", "dir", *dir)
		os.Exit(1)
	}

	first, last := b.Unified[0].Timestamp, b.Unified[len(b.Unified)-1].Timestamp
	fmt.Println()
	fmt.Println("PV Plant Insights")
	fmt.Printf("  Data: %s to %s (%d records, %d daily rows)\n",
		first.Format("2006-01-02"), last.Format("2006-01-02"), len(b.Unified), len(b.Daily))
	fmt.Println()

	printChecks(b.Report.Plants)
	printReception(solar.PlantReception(b.Unified))
	printProfiles(solar.BuildProfiles(b.Unified))
	printOutages(solar.DCOutages(b.Unified, w), w, *top)
	printEfficiency(solar.DailyEfficiency(b.Unified), *top)
	printAnomalies(b.Report.Anomalies)
}

func parseWindow(s string) (solar.Window, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return solar.Window{}, fmt.Errorf("window %q: want from-to", s)
	}
	f, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return solar.Window{}, fmt.Errorf("window %q: %w", s, err)
	}
	t, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return solar.Window{}, fmt.Errorf("window %q: %w", s, err)
	}
	w := solar.Window{FromHour: f, ToHour: t}
	return w, w.Validate()
}

func printChecks(plants []quality.PlantReport) {
	fmt.Println("=== Source consistency ===")
	fmt.Printf("   %5s │ %4s │ %7s │ %10s │ %9s │ %9s │ %11s\n",
		"Plant", "Inv", "DC~AC r", "AC/DC p50", "Yield d-1", "Yield d", "DY/DCsum")
	fmt.Printf("  ───────┼──────┼─────────┼────────────┼───────────┼───────────┼─────────────\n")
	for _, p := range plants {
		corr := "n/a"
		if p.Power.CorrelationDefined {
			corr = fmt.Sprintf("%.4f", p.Power.Correlation)
		}
		fmt.Printf("   %5s │ %4d │ %7s │ %10.4f │ %8.1f%% │ %8.1f%% │ %11.4f\n",
			p.Plant, p.Inverters, corr, p.Power.ACOverDC.P50,
			p.Yield.PreviousDayShare*100, p.Yield.SameDayShare*100, p.Yield.DailyYieldPerDCSum.P50)
	}
	fmt.Println()
}

func printReception(rs []solar.Reception) {
	fmt.Println("=== Plant reception ===")
	fmt.Printf("   %5s │ %6s │ %12s │ %9s │ %9s\n", "Plant", "Obs", "Irradiance Σ", "Ambient", "Module")
	fmt.Printf("  ───────┼────────┼──────────────┼───────────┼──────────\n")
	for _, r := range rs {
		fmt.Printf("   %5s │ %6d │ %12.2f │ %7.1f°C │ %7.1f°C\n",
			r.Plant, r.Observations, r.IrradianceSum, r.MeanAmbientTemperature, r.MeanModuleTemperature)
	}
	fmt.Println()
}

func printProfiles(ps []solar.HourlyProfile) {
	for _, p := range ps {
		fmt.Printf("=== Hourly profile %s (peak %02d:00) ===\n", p.Plant, p.PeakHour)
		fmt.Printf("   %4s │ %10s │ %8s │ %10s │ %10s │ %7s │ %s\n", "Hour", "Irradiance", "Ambient", "DC", "AC", "Eff %", "AC shape")
		fmt.Printf("  ──────┼────────────┼──────────┼────────────┼────────────┼─────────┼──────────\n")
		for h, s := range p.Hours {
			if s.Samples == 0 {
				continue
			}
			fmt.Printf("     %02d │ %10.3f │ %8.1f │ %10.1f │ %10.1f │ %7.2f │ %s\n",
				h, s.Irradiance, s.AmbientTemperature, s.DCPower, s.ACPower, s.Efficiency, bar(s.ACFactor, 20))
		}
		fmt.Println()
	}
}

func printOutages(outages []solar.Outage, w solar.Window, top int) {
	fmt.Printf("=== Zero-DC share %02d:00-%02d:59 ===\n", w.FromHour, w.ToHour)
	fmt.Printf("   %-24s │ %7s │ %7s │ %6s\n", "Inverter", "Samples", "Zero DC", "Share")
	fmt.Printf("  ──────────────────────────┼─────────┼─────────┼───────\n")
	for i, o := range outages {
		if i >= top {
			break
		}
		fmt.Printf("   %-24s │ %7d │ %7d │ %5.1f%%\n", o.Series(), o.Samples, o.ZeroDC, o.Share*100)
	}
	fmt.Println()
}

func printEfficiency(es []solar.InverterEfficiency, top int) {
	fmt.Println("=== Inverter daily efficiency (DC > 0) ===")
	fmt.Printf("   %-24s │ %4s │ %7s │ %7s │ %7s\n", "Inverter", "Days", "Mean", "Min", "Max")
	fmt.Printf("  ──────────────────────────┼──────┼─────────┼─────────┼────────\n")
	for i, e := range es {
		if i >= top {
			break
		}
		key := model.SeriesKey{Plant: e.Plant, InverterID: e.InverterID}
		fmt.Printf("   %-24s │ %4d │ %6.2f%% │ %6.2f%% │ %6.2f%%\n",
			key, e.Summary.Count, e.Summary.Mean, e.Summary.Min, e.Summary.Max)
	}
	fmt.Println()
}

func printAnomalies(as []quality.Anomaly) {
	fmt.Printf("=== Anomalies (%d) ===\n", len(as))
	for _, a := range as {
		where := string(a.Plant)
		if a.InverterID != "" {
			where += "/" + a.InverterID
		}
		if a.Date != "" {
			where += " " + a.Date
		}
		fmt.Printf("  [%-7s] %-20s %-30s %s\n", a.Severity, a.Kind, where, a.Message)
	}
	fmt.Println()
}

// bar renders v in [0,1] as a bar of at most width cells.
func bar(v float64, width int) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return strings.Repeat("█", int(v*float64(width)+0.5))
}
