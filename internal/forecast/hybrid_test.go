package forecast

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHybridConfig(timeSteps int) HybridConfig {
	cfg := DefaultHybridConfig()
	cfg.TimeSteps = timeSteps
	cfg.LSTM = smallLSTMConfig()
	return cfg
}

func TestHybridStateMachine(t *testing.T) {
	h := NewHybrid(testHybridConfig(10), rand.New(rand.NewSource(1)))

	// Fit and Predict both require the linear stage first.
	err := h.Fit()
	assert.True(t, errors.Is(err, ErrNotFitted))

	_, err = h.Predict(1)
	assert.True(t, errors.Is(err, ErrNotFitted))

	series := syntheticAR1(300, 0.5, 17)
	require.NoError(t, h.FitLinear(series))

	// Linear fit alone is not enough to predict.
	_, err = h.Predict(1)
	assert.True(t, errors.Is(err, ErrNotFitted))

	require.NoError(t, h.Fit())

	pred, err := h.Predict(3)
	require.NoError(t, err)
	require.Len(t, pred.Values, 3)
}

func TestHybridPredictSumsComponents(t *testing.T) {
	h := NewHybrid(testHybridConfig(10), rand.New(rand.NewSource(2)))
	series := syntheticAR1(300, 0.5, 23)
	require.NoError(t, h.FitLinear(series))
	require.NoError(t, h.Fit())

	pred, err := h.Predict(5)
	require.NoError(t, err)
	require.Len(t, pred.Values, 5)
	require.Len(t, pred.Linear, 5)

	assert.InDelta(t, pred.Linear[0]+pred.Residual, pred.Values[0], 1e-12)
	for i := 1; i < 5; i++ {
		assert.Equal(t, pred.Linear[i], pred.Values[i])
	}
	assert.Contains(t, pred.Warnings, WarnResidualSingleStep)
}

func TestHybridSingleStepNoWarning(t *testing.T) {
	h := NewHybrid(testHybridConfig(10), rand.New(rand.NewSource(4)))
	series := syntheticAR1(300, 0.5, 29)
	require.NoError(t, h.FitLinear(series))
	require.NoError(t, h.Fit())

	pred, err := h.Predict(1)
	require.NoError(t, err)
	assert.NotContains(t, pred.Warnings, WarnResidualSingleStep)
	assert.NotContains(t, pred.Warnings, WarnDegradedForecast)
}

func TestHybridDegradedFallback(t *testing.T) {
	// Residual history shorter than the window: the hybrid still fits but
	// predicts with a zero residual and says so.
	cfg := testHybridConfig(60)
	h := NewHybrid(cfg, rand.New(rand.NewSource(5)))

	series := syntheticAR1(40, 0.5, 31)
	require.NoError(t, h.FitLinear(series))
	require.NoError(t, h.Fit())

	pred, err := h.Predict(2)
	require.NoError(t, err)
	assert.Contains(t, pred.Warnings, WarnDegradedForecast)
	assert.Equal(t, 0.0, pred.Residual)
	assert.Equal(t, pred.Linear, pred.Values)
}

func TestHybridUnitRootSeries(t *testing.T) {
	h := NewHybrid(testHybridConfig(10), rand.New(rand.NewSource(6)))

	walk := syntheticRandomWalk(300, 37)
	for i := range walk {
		walk[i] += 100
	}
	require.NoError(t, h.FitLinear(walk))
	assert.Equal(t, 1, h.Order().D)

	require.NoError(t, h.Fit())
	pred, err := h.Predict(3)
	require.NoError(t, err)
	for _, v := range pred.Values {
		assert.False(t, math.IsNaN(v))
	}
}

func TestHybridLinearTrendSeries(t *testing.T) {
	series := syntheticLinearTrend(300, 2, 0.5, 0.5, 43)
	holdout := 30
	train, held := series[:len(series)-holdout], series[len(series)-holdout:]

	h := NewHybrid(testHybridConfig(10), rand.New(rand.NewSource(9)))
	require.NoError(t, h.FitLinear(train))
	assert.Equal(t, 1, h.Order().D)

	require.NoError(t, h.Fit())

	// The linear model should absorb the trend, leaving residuals centered
	// on zero.
	mean := 0.0
	for _, r := range h.residuals {
		mean += r
	}
	mean /= float64(len(h.residuals))
	assert.InDelta(t, 0, mean, 0.15)

	pred, err := h.Predict(holdout)
	require.NoError(t, err)

	hybridEval, err := h.Evaluate(held, pred.Values)
	require.NoError(t, err)
	linearEval, err := h.Evaluate(held, pred.Linear)
	require.NoError(t, err)

	// The residual correction touches only the first step; on the held-out
	// tail it must not cost accuracy against the pure linear forecast.
	assert.LessOrEqual(t, hybridEval.RMSE, linearEval.RMSE+0.1)
	assert.Less(t, hybridEval.RMSE, 5.0)
}

func TestHybridEvaluate(t *testing.T) {
	h := NewHybrid(testHybridConfig(10), rand.New(rand.NewSource(8)))

	ev, err := h.Evaluate([]float64{1, 2, 3}, []float64{2, 2, 5})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(5.0/3.0), ev.RMSE, 1e-12)
	assert.InDelta(t, 1.0, ev.MAE, 1e-12)

	_, err = h.Evaluate([]float64{1}, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
