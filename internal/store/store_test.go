package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvplant/internal/model"
)

func makeRecords(key model.SeriesKey, dc []float64, startTime time.Time, interval time.Duration) []model.UnifiedRecord {
	recs := make([]model.UnifiedRecord, len(dc))
	for i, v := range dc {
		recs[i] = model.UnifiedRecord{
			Timestamp:  startTime.Add(time.Duration(i) * interval),
			Plant:      key.Plant,
			InverterID: key.InverterID,
			DCPower:    v,
		}
	}
	return recs
}

var (
	series    = model.SeriesKey{Plant: model.PlantP1, InverterID: "1BY6WEcLGh8j5v7"}
	other     = model.SeriesKey{Plant: model.PlantP2, InverterID: "4UPUqMRk7TRMgml"}
	startTime = time.Date(2020, 5, 15, 12, 0, 0, 0, time.UTC)
	step      = 15 * time.Minute
)

func TestStore_AddAndCount(t *testing.T) {
	s := New()
	s.AddRecords(makeRecords(series, []float64{100, 200, 300, 400, 500}, startTime, step))

	assert.Equal(t, 5, s.RecordCount(series))
	assert.Equal(t, 0, s.RecordCount(other))
	assert.Equal(t, 5, s.Len())
}

func TestStore_TimeRange(t *testing.T) {
	s := New()
	s.AddRecords(makeRecords(series, []float64{100, 200, 300}, startTime, step))

	tr, ok := s.TimeRange(series)
	require.True(t, ok)
	assert.Equal(t, startTime, tr.Start)
	assert.Equal(t, startTime.Add(2*step), tr.End)

	_, ok = s.TimeRange(other)
	assert.False(t, ok)
}

func TestStore_RecordsInRange(t *testing.T) {
	s := New()
	s.AddRecords(makeRecords(series, []float64{100, 200, 300, 400, 500}, startTime, step))

	result := s.RecordsInRange(series, startTime.Add(step), startTime.Add(3*step))
	require.Len(t, result, 2)
	assert.InDelta(t, 200.0, result[0].DCPower, 0.001)
	assert.InDelta(t, 300.0, result[1].DCPower, 0.001)

	result = s.RecordsInRange(series, startTime.Add(10*step), startTime.Add(11*step))
	assert.Empty(t, result)

	result = s.RecordsInRange(other, startTime, startTime.Add(step))
	assert.Empty(t, result)
}

func TestStore_RecordAt(t *testing.T) {
	s := New()
	s.AddRecords(makeRecords(series, []float64{100, 200, 300}, startTime, step))

	r, ok := s.RecordAt(series, startTime.Add(step))
	require.True(t, ok)
	assert.InDelta(t, 200.0, r.DCPower, 0.001)

	// between samples, most recent before wins
	r, ok = s.RecordAt(series, startTime.Add(step+5*time.Minute))
	require.True(t, ok)
	assert.InDelta(t, 200.0, r.DCPower, 0.001)

	_, ok = s.RecordAt(series, startTime.Add(-step))
	assert.False(t, ok)
}

func TestStore_SeriesAndPlants(t *testing.T) {
	s := New()
	b := model.SeriesKey{Plant: model.PlantP1, InverterID: "zzz"}
	s.AddRecords(makeRecords(other, []float64{1}, startTime, step))
	s.AddRecords(makeRecords(b, []float64{1}, startTime, step))
	s.AddRecords(makeRecords(series, []float64{1}, startTime, step))

	assert.Equal(t, []model.SeriesKey{series, b, other}, s.Series())
	assert.Equal(t, []model.PlantCode{model.PlantP1, model.PlantP2}, s.Plants())
}

func TestStore_GlobalTimeRange(t *testing.T) {
	s := New()

	_, ok := s.GlobalTimeRange()
	assert.False(t, ok)

	// series: 12:00 - 12:15
	// other:  11:45 - 12:30
	s.AddRecords(makeRecords(series, []float64{100, 200}, startTime, step))
	s.AddRecords(makeRecords(other, []float64{300, 400}, startTime.Add(-step), 3*step))

	tr, ok := s.GlobalTimeRange()
	require.True(t, ok)
	assert.Equal(t, startTime.Add(-step), tr.Start)
	assert.Equal(t, startTime.Add(2*step), tr.End)
}

func TestStore_AddRecordsUnsorted(t *testing.T) {
	s := New()

	recs := makeRecords(series, []float64{100, 200, 300}, startTime, step)
	s.AddRecords([]model.UnifiedRecord{recs[2], recs[0], recs[1]})

	result := s.Records(series)
	require.Len(t, result, 3)
	assert.InDelta(t, 100.0, result[0].DCPower, 0.001)
	assert.InDelta(t, 200.0, result[1].DCPower, 0.001)
	assert.InDelta(t, 300.0, result[2].DCPower, 0.001)
}

func TestStore_Daily(t *testing.T) {
	s := New()
	d1 := model.Date(startTime)
	d2 := d1.AddDate(0, 0, 1)
	s.AddDaily([]model.DailyAggregate{
		{Plant: series.Plant, InverterID: series.InverterID, Date: d2, Samples: 2},
		{Plant: series.Plant, InverterID: series.InverterID, Date: d1, Samples: 1},
	})

	rows := s.Daily(series)
	require.Len(t, rows, 2)
	assert.Equal(t, d1, rows[0].Date)
	assert.Equal(t, d2, rows[1].Date)
	assert.Nil(t, s.Daily(other))
	assert.Equal(t, []model.SeriesKey{series}, s.Series())
}
