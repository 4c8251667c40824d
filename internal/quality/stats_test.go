package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, 3, 2})

	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, s.Std, 1e-6)
	assert.InDelta(t, 1.0, s.Min, 1e-9)
	assert.InDelta(t, 1.75, s.P25, 1e-9)
	assert.InDelta(t, 2.5, s.P50, 1e-9)
	assert.InDelta(t, 3.25, s.P75, 1e-9)
	assert.InDelta(t, 4.0, s.Max, 1e-9)
}

func TestDescribe_Edges(t *testing.T) {
	assert.Equal(t, Stats{}, Describe(nil))

	one := Describe([]float64{7})
	assert.Equal(t, 1, one.Count)
	assert.Zero(t, one.Std)
	assert.InDelta(t, 7.0, one.P50, 1e-9)
}

func TestDescribe_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Describe(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 40})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	r, ok = Pearson([]float64{1, 2, 3}, []float64{3, 2, 1})
	assert.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-9)

	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok, "constant series")

	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok)

	_, ok = Pearson([]float64{1, 2}, []float64{1})
	assert.False(t, ok)
}
