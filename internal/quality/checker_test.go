package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvplant/internal/model"
)

var day1 = time.Date(2020, 5, 15, 0, 0, 0, 0, time.UTC)

func gen(inv string, ts time.Time, dc, ac, daily, total float64) model.GenerationRecord {
	return model.GenerationRecord{
		Timestamp: ts, PlantRawID: "4135001", Plant: model.PlantP1, InverterID: inv,
		DCPower: dc, ACPower: ac, DailyYield: daily, TotalYield: total,
	}
}

func weather(ts time.Time, sensor string) model.WeatherRecord {
	return model.WeatherRecord{Timestamp: ts, PlantRawID: "4135001", Plant: model.PlantP1, SensorID: sensor}
}

func kinds(c *Collector) map[Kind]int { return c.CountByKind() }

func TestChecker_Power(t *testing.T) {
	c := NewCollector()
	ch := NewChecker(DefaultConfig(), c)

	rows := []model.GenerationRecord{
		gen("a", day1, 0, 0, 0, 1),
		gen("a", day1.Add(15*time.Minute), 100, 10, 0, 1),
		gen("a", day1.Add(30*time.Minute), 200, 20, 0, 1),
		gen("a", day1.Add(45*time.Minute), 0, 5, 0, 1),
	}
	pc := ch.checkPower(model.PlantP1, rows)

	assert.Equal(t, 4, pc.Rows)
	assert.True(t, pc.CorrelationDefined)
	assert.Equal(t, 2, pc.ACOverDC.Count)
	assert.InDelta(t, 0.1, pc.ACOverDC.Mean, 1e-9)
	assert.Equal(t, 1, pc.ACWithoutDC)
	assert.Equal(t, 1, kinds(c)[KindACWithoutDC])
}

func TestChecker_YieldSameDayAlignment(t *testing.T) {
	c := NewCollector()
	ch := NewChecker(DefaultConfig(), c)

	day2 := day1.AddDate(0, 0, 1)
	rows := []model.GenerationRecord{
		gen("a", day1.Add(6*time.Hour), 1, 1, 0, 100),
		gen("a", day1.Add(18*time.Hour), 1, 1, 10, 110),
		gen("a", day2.Add(6*time.Hour), 1, 1, 0, 110),
		gen("a", day2.Add(18*time.Hour), 1, 1, 15, 125),
	}
	yc := ch.checkYield(model.PlantP1, rows)

	assert.Equal(t, 2, yc.EntityDays)
	assert.Equal(t, 1, yc.Compared)
	assert.Equal(t, 0, yc.AgreePreviousDay)
	assert.Equal(t, 1, yc.AgreeSameDay)
	assert.InDelta(t, 1.0, yc.SameDayShare, 1e-9)
	assert.Zero(t, yc.Decreases)
	assert.Equal(t, 1, kinds(c)[KindYieldMismatch])
	assert.Equal(t, 1, kinds(c)[KindYieldScale])
}

func TestChecker_YieldPreviousDayAlignment(t *testing.T) {
	c := NewCollector()
	ch := NewChecker(DefaultConfig(), c)

	day2 := day1.AddDate(0, 0, 1)
	rows := []model.GenerationRecord{
		gen("a", day1.Add(6*time.Hour), 1, 1, 0, 100),
		gen("a", day1.Add(18*time.Hour), 1, 1, 10, 100),
		gen("a", day2.Add(6*time.Hour), 1, 1, 0, 110),
		gen("a", day2.Add(18*time.Hour), 1, 1, 40, 110),
	}
	yc := ch.checkYield(model.PlantP1, rows)

	assert.Equal(t, 1, yc.AgreePreviousDay)
	assert.InDelta(t, 1.0, yc.PreviousDayShare, 1e-9)
	assert.Zero(t, kinds(c)[KindYieldMismatch])
}

func TestChecker_YieldSkipsNonConsecutiveDays(t *testing.T) {
	ch := NewChecker(DefaultConfig(), NewCollector())

	rows := []model.GenerationRecord{
		gen("a", day1, 1, 1, 10, 100),
		gen("a", day1.AddDate(0, 0, 2), 1, 1, 10, 110),
	}
	yc := ch.checkYield(model.PlantP1, rows)

	assert.Equal(t, 2, yc.EntityDays)
	assert.Zero(t, yc.Compared)
}

func TestChecker_YieldDecrease(t *testing.T) {
	c := NewCollector()
	ch := NewChecker(DefaultConfig(), c)

	rows := []model.GenerationRecord{
		gen("b", day1.Add(30*time.Minute), 1, 1, 0, 90),
		gen("b", day1, 1, 1, 0, 100),
		gen("b", day1.Add(15*time.Minute), 1, 1, 0, 95),
	}
	yc := ch.checkYield(model.PlantP1, rows)

	assert.Equal(t, 2, yc.Decreases)
	anomalies := c.Anomalies()
	require.NotEmpty(t, anomalies)
	var found bool
	for _, a := range anomalies {
		if a.Kind == KindYieldDecrease {
			found = true
			assert.Equal(t, "b", a.InverterID)
			assert.Equal(t, 2, a.Count)
		}
	}
	assert.True(t, found)
}

func TestChecker_Density(t *testing.T) {
	c := NewCollector()
	ch := NewChecker(DefaultConfig(), c)

	var rows []model.GenerationRecord
	for _, d := range []time.Time{day1, day1.AddDate(0, 0, 1), day1.AddDate(0, 0, 3)} {
		for i := 0; i < 4; i++ {
			rows = append(rows, gen("a", d.Add(time.Duration(i)*15*time.Minute), 0, 0, 0, 1))
			rows = append(rows, gen("b", d.Add(time.Duration(i)*15*time.Minute), 0, 0, 0, 1))
		}
	}
	// a short day for inverter "c"
	rows = append(rows, gen("c", day1, 0, 0, 0, 1))

	rep := ch.CheckPlant(model.PlantP1, rows, []model.WeatherRecord{weather(day1, "s1"), weather(day1, "s2")})

	assert.Equal(t, 3, rep.Inverters)
	assert.Equal(t, []string{"s1", "s2"}, rep.Sensors)
	assert.Equal(t, "2020-05-15", rep.Generation.FirstDay)
	assert.Equal(t, "2020-05-18", rep.Generation.LastDay)
	assert.Equal(t, []string{"2020-05-17"}, rep.Generation.MissingDays)
	require.Len(t, rep.Generation.Days, 3)
	assert.Equal(t, DayCount{Date: "2020-05-15", Records: 9, Entities: 3}, rep.Generation.Days[0])
	assert.Equal(t, []EntityCount{{"a", 12}, {"b", 12}, {"c", 1}}, rep.Generation.Entities)

	k := kinds(c)
	assert.Equal(t, 1, k[KindMissingDay])
	assert.Equal(t, 1, k[KindUnevenInverter])
	assert.Zero(t, k[KindSparseDay])
}

func TestChecker_CheckAllGroupsByPlant(t *testing.T) {
	ch := NewChecker(DefaultConfig(), NewCollector())

	g2 := gen("x", day1, 1, 1, 0, 1)
	g2.Plant = model.PlantP2
	reports := ch.CheckAll([]model.GenerationRecord{g2, gen("a", day1, 1, 1, 0, 1)}, []model.WeatherRecord{weather(day1, "s1")})

	require.Len(t, reports, 2)
	assert.Equal(t, model.PlantP1, reports[0].Plant)
	assert.Equal(t, []string{"s1"}, reports[0].Sensors)
	assert.Equal(t, model.PlantP2, reports[1].Plant)
	assert.Empty(t, reports[1].Sensors)
}

func TestCollector_AnomaliesSorted(t *testing.T) {
	c := NewCollector()
	c.Addf(KindSparseDay, model.PlantP2, "b")
	c.Add(Anomaly{Kind: KindMissingDay, Plant: model.PlantP1, Date: "2020-05-17"})
	c.Add(Anomaly{Kind: KindMissingDay, Plant: model.PlantP1, Date: "2020-05-16"})

	got := c.Anomalies()
	require.Len(t, got, 3)
	assert.Equal(t, "2020-05-16", got[0].Date)
	assert.Equal(t, "2020-05-17", got[1].Date)
	assert.Equal(t, KindSparseDay, got[2].Kind)
	assert.Equal(t, SeverityWarning, got[2].Severity)
	assert.Equal(t, 3, c.Len())
}
