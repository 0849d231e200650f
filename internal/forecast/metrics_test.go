package forecast

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRMSE(t *testing.T) {
	actual := []float64{1, 2, 3}
	predicted := []float64{2, 2, 5}

	got, err := RMSE(actual, predicted)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(5.0/3.0), got, 1e-12)
}

func TestRMSEPerfect(t *testing.T) {
	v := []float64{1.5, -2, 0}
	got, err := RMSE(v, v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestMAE(t *testing.T) {
	actual := []float64{1, 2, 3}
	predicted := []float64{2, 2, 5}

	got, err := MAE(actual, predicted)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestMetricsShapeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
	}{
		{name: "different lengths", actual: []float64{1, 2}, predicted: []float64{1}},
		{name: "empty actual", actual: nil, predicted: []float64{1}},
		{name: "both empty", actual: nil, predicted: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RMSE(tt.actual, tt.predicted)
			assert.True(t, errors.Is(err, ErrShapeMismatch))

			_, err = MAE(tt.actual, tt.predicted)
			assert.True(t, errors.Is(err, ErrShapeMismatch))
		})
	}
}
