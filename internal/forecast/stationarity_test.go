package forecast

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticAR1 generates an AR(1) process y_t = phi*y_{t-1} + e_t with a
// fixed seed so tests are reproducible.
func syntheticAR1(n int, phi float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for t := 1; t < n; t++ {
		out[t] = phi*out[t-1] + rng.NormFloat64()
	}
	return out
}

// syntheticLinearTrend generates y_t = a + b*t + sigma*e_t.
func syntheticLinearTrend(n int, a, b, sigma float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for t := range out {
		out[t] = a + b*float64(t) + sigma*rng.NormFloat64()
	}
	return out
}

// syntheticRandomWalk generates a unit-root process.
func syntheticRandomWalk(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for t := 1; t < n; t++ {
		out[t] = out[t-1] + rng.NormFloat64()
	}
	return out
}

func TestADFStationarySeries(t *testing.T) {
	series := syntheticAR1(300, 0.3, 42)

	res, err := ADF(series, 0)
	require.NoError(t, err)
	assert.True(t, res.IsStationary)
	assert.Less(t, res.PValue, 0.05)
	assert.Negative(t, res.Statistic)
}

func TestADFRandomWalk(t *testing.T) {
	series := syntheticRandomWalk(300, 42)

	res, err := ADF(series, 0)
	require.NoError(t, err)
	assert.False(t, res.IsStationary)
	assert.GreaterOrEqual(t, res.PValue, 0.05)
}

func TestADFInsufficientData(t *testing.T) {
	series := make([]float64, minADFObservations-1)

	_, err := ADF(series, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestDetermineOrder(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		wantD  int
	}{
		{name: "stationary keeps d=0", series: syntheticAR1(300, 0.3, 7), wantD: 0},
		{name: "unit root gets d=1", series: syntheticRandomWalk(300, 7), wantD: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := DetermineOrder(tt.series, 2, 1)
			require.NoError(t, err)
			assert.Equal(t, 2, order.P)
			assert.Equal(t, 1, order.Q)
			assert.Equal(t, tt.wantD, order.D)
		})
	}
}

func TestDetermineOrderShortSeries(t *testing.T) {
	_, err := DetermineOrder(make([]float64, 5), 2, 1)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestDiffSeries(t *testing.T) {
	got := diffSeries([]float64{1, 3, 6, 10}, 1)
	assert.Equal(t, []float64{2, 3, 4}, got)

	assert.Nil(t, diffSeries([]float64{1}, 1))
}
