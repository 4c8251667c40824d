package store

import (
	"sort"
	"sync"
	"time"

	"pvplant/internal/model"
)

// Store holds unified records and daily aggregates in memory, indexed by
// inverter series.
type Store struct {
	mu      sync.RWMutex
	records map[model.SeriesKey][]model.UnifiedRecord  // sorted by timestamp
	daily   map[model.SeriesKey][]model.DailyAggregate // sorted by date
}

func New() *Store {
	return &Store{
		records: make(map[model.SeriesKey][]model.UnifiedRecord),
		daily:   make(map[model.SeriesKey][]model.DailyAggregate),
	}
}

// AddRecords adds unified records, then sorts each affected series by
// timestamp.
func (s *Store) AddRecords(recs []model.UnifiedRecord) {
	if len(recs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[model.SeriesKey]bool)
	for _, r := range recs {
		k := r.Series()
		s.records[k] = append(s.records[k], r)
		seen[k] = true
	}
	for k := range seen {
		series := s.records[k]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})
	}
}

// AddDaily adds daily aggregates, then sorts each affected series by date.
func (s *Store) AddDaily(rows []model.DailyAggregate) {
	if len(rows) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[model.SeriesKey]bool)
	for _, d := range rows {
		k := d.Series()
		s.daily[k] = append(s.daily[k], d)
		seen[k] = true
	}
	for k := range seen {
		series := s.daily[k]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
	}
}

// Series returns every series that has records or daily rows, sorted by
// plant then inverter.
func (s *Store) Series() []model.SeriesKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[model.SeriesKey]bool, len(s.records))
	for k := range s.records {
		set[k] = true
	}
	for k := range s.daily {
		set[k] = true
	}
	keys := make([]model.SeriesKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Plants returns the distinct plant codes, sorted.
func (s *Store) Plants() []model.PlantCode {
	var out []model.PlantCode
	for _, k := range s.Series() {
		if len(out) == 0 || out[len(out)-1] != k.Plant {
			out = append(out, k.Plant)
		}
	}
	return out
}

// RecordCount returns the number of unified records in a series.
func (s *Store) RecordCount(key model.SeriesKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[key])
}

// Len returns the total number of unified records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// TimeRange returns the time range covered by a series.
func (s *Store) TimeRange(key model.SeriesKey) (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records[key]
	if len(recs) == 0 {
		return model.TimeRange{}, false
	}

	return model.TimeRange{
		Start: recs[0].Timestamp,
		End:   recs[len(recs)-1].Timestamp,
	}, true
}

// GlobalTimeRange returns the union of all series' time ranges.
func (s *Store) GlobalTimeRange() (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var start, end time.Time
	first := true

	for _, recs := range s.records {
		if len(recs) == 0 {
			continue
		}
		rStart := recs[0].Timestamp
		rEnd := recs[len(recs)-1].Timestamp

		if first || rStart.Before(start) {
			start = rStart
		}
		if first || rEnd.After(end) {
			end = rEnd
		}
		first = false
	}

	if first {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: start, End: end}, true
}

// Records returns a copy of every record in a series.
func (s *Store) Records(key model.SeriesKey) []model.UnifiedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.records[key]
	if len(all) == 0 {
		return nil
	}
	out := make([]model.UnifiedRecord, len(all))
	copy(out, all)
	return out
}

// RecordsInRange returns records of a series between start (inclusive) and
// end (exclusive).
func (s *Store) RecordsInRange(key model.SeriesKey, start, end time.Time) []model.UnifiedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.records[key]
	if len(all) == 0 {
		return nil
	}

	startIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(start)
	})
	endIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(end)
	})

	if startIdx >= endIdx {
		return nil
	}

	result := make([]model.UnifiedRecord, endIdx-startIdx)
	copy(result, all[startIdx:endIdx])
	return result
}

// RecordAt returns the most recent record at or before t.
func (s *Store) RecordAt(key model.SeriesKey, t time.Time) (model.UnifiedRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.records[key]
	if len(all) == 0 {
		return model.UnifiedRecord{}, false
	}

	idx := sort.Search(len(all), func(i int) bool {
		return all[i].Timestamp.After(t)
	})
	if idx == 0 {
		return model.UnifiedRecord{}, false
	}
	return all[idx-1], true
}

// Daily returns a copy of the daily aggregates of a series.
func (s *Store) Daily(key model.SeriesKey) []model.DailyAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.daily[key]
	if len(all) == 0 {
		return nil
	}
	out := make([]model.DailyAggregate, len(all))
	copy(out, all)
	return out
}
