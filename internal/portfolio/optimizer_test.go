package portfolio

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

// noisyReturns builds a return series with the given mean and volatility.
func noisyReturns(n int, mean, vol float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + vol*rng.NormFloat64()
	}
	return out
}

func assertValidWeights(t *testing.T, weights map[string]float64) {
	t.Helper()
	sum := 0.0
	for s, w := range weights {
		assert.GreaterOrEqual(t, w, -1e-9, "weight for %s is negative", s)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestMinVolatilityPrefersQuietAsset(t *testing.T) {
	returns := map[string][]float64{
		"CALM": noisyReturns(250, 0.0004, 0.005, 1),
		"WILD": noisyReturns(250, 0.0004, 0.05, 2),
	}

	opt, err := NewOptimizer(ObjectiveMinVolatility, 0, 0)
	require.NoError(t, err)

	alloc, err := opt.Optimize(returns)
	require.NoError(t, err)
	assertValidWeights(t, alloc.Weights)
	assert.Greater(t, alloc.Weights["CALM"], alloc.Weights["WILD"])
	assert.Greater(t, alloc.Weights["CALM"], 0.8)
}

func TestMinVolatilityBeatsEqualWeight(t *testing.T) {
	// Regression for the descent barely moving off the equal-weight start
	// when covariance entries are small.
	calm := noisyReturns(250, 0.0004, 0.005, 9)
	wild := noisyReturns(250, 0.0004, 0.05, 10)

	opt, err := NewOptimizer(ObjectiveMinVolatility, 0, 0)
	require.NoError(t, err)

	alloc, err := opt.Optimize(map[string][]float64{"CALM": calm, "WILD": wild})
	require.NoError(t, err)
	assertValidWeights(t, alloc.Weights)

	equal := make([]float64, len(calm))
	for i := range equal {
		equal[i] = 0.5*calm[i] + 0.5*wild[i]
	}
	assert.Less(t, alloc.Volatility, 0.5*stat.StdDev(equal, nil))
}

func TestMaxSharpePrefersBetterRatio(t *testing.T) {
	returns := map[string][]float64{
		"GOOD": noisyReturns(250, 0.002, 0.01, 3),
		"FLAT": noisyReturns(250, 0.0, 0.01, 4),
	}

	opt, err := NewOptimizer(ObjectiveMaxSharpe, 0, 0)
	require.NoError(t, err)

	alloc, err := opt.Optimize(returns)
	require.NoError(t, err)
	assertValidWeights(t, alloc.Weights)
	assert.Greater(t, alloc.Weights["GOOD"], alloc.Weights["FLAT"])
	assert.False(t, math.IsNaN(alloc.Sharpe))
}

func TestOptimizeUnevenSeriesLengths(t *testing.T) {
	returns := map[string][]float64{
		"A": noisyReturns(300, 0.001, 0.01, 5),
		"B": noisyReturns(120, 0.001, 0.01, 6),
		"C": noisyReturns(200, 0.001, 0.01, 7),
	}

	opt, err := NewOptimizer(ObjectiveMinVolatility, 0, 0)
	require.NoError(t, err)

	alloc, err := opt.Optimize(returns)
	require.NoError(t, err)
	assertValidWeights(t, alloc.Weights)
	assert.Len(t, alloc.Weights, 3)
	assert.Positive(t, alloc.Volatility)
}

func TestOptimizeTooFewInstruments(t *testing.T) {
	opt, err := NewOptimizer(ObjectiveMinVolatility, 0, 0)
	require.NoError(t, err)

	_, err = opt.Optimize(map[string][]float64{"ONLY": {0.01, 0.02}})
	assert.Error(t, err)
}

func TestNewOptimizerUnknownObjective(t *testing.T) {
	_, err := NewOptimizer("max_profit", 0, 0)
	assert.Error(t, err)
}

func TestProjectSimplex(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
	}{
		{name: "already on simplex", in: []float64{0.5, 0.3, 0.2}},
		{name: "needs clipping", in: []float64{1.5, -0.5, 0.3}},
		{name: "all negative", in: []float64{-1, -2, -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make([]float64, len(tt.in))
			copy(v, tt.in)
			projectSimplex(v)

			sum := 0.0
			for _, x := range v {
				assert.GreaterOrEqual(t, x, 0.0)
				sum += x
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}
