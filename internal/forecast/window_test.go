package forecast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDatasetWindowCount(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		timeSteps int
		want      int
	}{
		{name: "normal", length: 100, timeSteps: 10, want: 90},
		{name: "exactly one window", length: 11, timeSteps: 10, want: 1},
		{name: "too short is empty", length: 10, timeSteps: 10, want: 0},
		{name: "single value", length: 1, timeSteps: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := make([]float64, tt.length)
			for i := range series {
				series[i] = float64(i)
			}
			ds, scaler, err := BuildDataset(series, tt.timeSteps)
			require.NoError(t, err)
			require.NotNil(t, scaler)
			assert.Equal(t, tt.want, ds.Len())
			assert.Len(t, ds.Y, tt.want)
		})
	}
}

func TestBuildDatasetAlignment(t *testing.T) {
	series := []float64{0, 1, 2, 3, 4, 5}
	ds, scaler, err := BuildDataset(series, 3)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	scaled, err := scaler.Transform(series)
	require.NoError(t, err)

	// Each target is the value immediately after its window.
	for i := range ds.X {
		require.Len(t, ds.X[i], 3)
		assert.Equal(t, scaled[i:i+3], ds.X[i])
		assert.Equal(t, scaled[i+3], ds.Y[i])
	}
}

func TestBuildDatasetEmptySeries(t *testing.T) {
	_, _, err := BuildDataset(nil, 10)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestBuildDatasetBadTimeSteps(t *testing.T) {
	_, _, err := BuildDataset([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}
