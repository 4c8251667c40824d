package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvplant/internal/model"
)

var day = time.Date(2020, 5, 15, 0, 0, 0, 0, time.UTC)

func rec(plant model.PlantCode, inv string, ts time.Time, dc, ac float64) model.UnifiedRecord {
	eff := 0.0
	if dc != 0 {
		eff = ac / dc * 100
	}
	return model.UnifiedRecord{
		Timestamp: ts, Plant: plant, InverterID: inv, DCPower: dc, ACPower: ac, Efficiency: eff,
		Irradiance: 0.5, AmbientTemperature: 25, ModuleTemperature: 40,
	}
}

func TestBuildProfiles(t *testing.T) {
	recs := []model.UnifiedRecord{
		rec(model.PlantP2, "x", day.Add(9*time.Hour), 100, 90),
		rec(model.PlantP1, "a", day.Add(9*time.Hour), 100, 50),
		rec(model.PlantP1, "b", day.Add(9*time.Hour), 300, 150),
		rec(model.PlantP1, "a", day.Add(12*time.Hour), 400, 400),
		rec(model.PlantP1, "a", day.Add(23*time.Hour), 0, 0),
	}

	profiles := BuildProfiles(recs)
	require.Len(t, profiles, 2)
	p1 := profiles[0]
	assert.Equal(t, model.PlantP1, p1.Plant)
	assert.Equal(t, 12, p1.PeakHour)

	assert.Equal(t, 2, p1.Hours[9].Samples)
	assert.InDelta(t, 200, p1.Hours[9].DCPower, 1e-9)
	assert.InDelta(t, 100, p1.Hours[9].ACPower, 1e-9)
	assert.InDelta(t, 0.25, p1.Hours[9].ACFactor, 1e-9)
	assert.InDelta(t, 1.0, p1.Hours[12].ACFactor, 1e-9)
	assert.Equal(t, 0, p1.Hours[3].Samples)
	assert.Equal(t, 1, p1.Hours[23].Samples)
}

func TestPlantReception_CountsEachTimestampOnce(t *testing.T) {
	a := rec(model.PlantP1, "a", day.Add(10*time.Hour), 1, 1)
	b := rec(model.PlantP1, "b", day.Add(10*time.Hour), 1, 1)
	c := rec(model.PlantP1, "a", day.Add(11*time.Hour), 1, 1)
	c.Irradiance = 0.7
	c.AmbientTemperature = 35

	out := PlantReception([]model.UnifiedRecord{a, b, c})
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Observations)
	assert.InDelta(t, 1.2, out[0].IrradianceSum, 1e-9)
	assert.InDelta(t, 30, out[0].MeanAmbientTemperature, 1e-9)
	assert.InDelta(t, 40, out[0].MeanModuleTemperature, 1e-9)
}

func TestDCOutages(t *testing.T) {
	var recs []model.UnifiedRecord
	for h := 0; h < 24; h++ {
		ts := day.Add(time.Duration(h) * time.Hour)
		recs = append(recs, rec(model.PlantP1, "healthy", ts, 10, 9))
		dc := 10.0
		if h%2 == 0 {
			dc = 0
		}
		recs = append(recs, rec(model.PlantP1, "flaky", ts, dc, 0))
	}
	// night zeros are outside the window
	recs = append(recs, rec(model.PlantP1, "healthy", day.Add(-2*time.Hour), 0, 0))

	out := DCOutages(recs, DefaultDaytime)
	require.Len(t, out, 2)
	assert.Equal(t, "flaky", out[0].InverterID)
	assert.Equal(t, 8, out[0].Samples)
	assert.Equal(t, 4, out[0].ZeroDC)
	assert.InDelta(t, 0.5, out[0].Share, 1e-9)
	assert.Equal(t, "healthy", out[1].InverterID)
	assert.Equal(t, 0.0, out[1].Share)
}

func TestWindow(t *testing.T) {
	assert.True(t, DefaultDaytime.Contains(day.Add(8*time.Hour)))
	assert.True(t, DefaultDaytime.Contains(day.Add(15*time.Hour+45*time.Minute)))
	assert.False(t, DefaultDaytime.Contains(day.Add(16*time.Hour)))
	assert.NoError(t, DefaultDaytime.Validate())
	assert.Error(t, Window{FromHour: 10, ToHour: 9}.Validate())
	assert.Error(t, Window{FromHour: 0, ToHour: 24}.Validate())
}

func TestDailyEfficiency(t *testing.T) {
	recs := []model.UnifiedRecord{
		rec(model.PlantP1, "a", day.Add(10*time.Hour), 100, 90),
		rec(model.PlantP1, "a", day.Add(11*time.Hour), 100, 100),
		rec(model.PlantP1, "a", day.Add(12*time.Hour), 0, 5), // excluded, no DC
		rec(model.PlantP1, "a", day.Add(34*time.Hour), 100, 80),
	}

	out := DailyEfficiency(recs)
	require.Len(t, out, 1)
	require.Len(t, out[0].Days, 2)
	assert.Equal(t, "2020-05-15", out[0].Days[0].Date)
	assert.InDelta(t, 95, out[0].Days[0].Value, 1e-9)
	assert.InDelta(t, 80, out[0].Days[1].Value, 1e-9)
	assert.Equal(t, 2, out[0].Summary.Count)
	assert.InDelta(t, 87.5, out[0].Summary.Mean, 1e-9)
}
