package forecast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScalerRoundTrip(t *testing.T) {
	s := &MinMaxScaler{}
	values := []float64{10, 20, 15, 30, 25}
	require.NoError(t, s.Fit(values))

	scaled, err := s.Transform(values)
	require.NoError(t, err)
	for _, v := range scaled {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, 0.0, scaled[0])
	assert.Equal(t, 1.0, scaled[3])

	back, err := s.InverseTransform(scaled)
	require.NoError(t, err)
	for i := range values {
		assert.InDelta(t, values[i], back[i], 1e-12)
	}
}

func TestMinMaxScalerNoRefit(t *testing.T) {
	s := &MinMaxScaler{}
	require.NoError(t, s.Fit([]float64{0, 10}))

	err := s.Fit([]float64{0, 100})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyFitted))
	// Bounds stay from the first fit.
	assert.Equal(t, 10.0, s.Max)
}

func TestMinMaxScalerOutOfRangeInput(t *testing.T) {
	// Values outside the fitted bounds are allowed and land outside [0,1];
	// the scaler never refits on them.
	s := &MinMaxScaler{}
	require.NoError(t, s.Fit([]float64{0, 10}))

	scaled, err := s.Transform([]float64{20})
	require.NoError(t, err)
	assert.Equal(t, 2.0, scaled[0])
	assert.Equal(t, 10.0, s.Max)
}

func TestMinMaxScalerConstantSeries(t *testing.T) {
	s := &MinMaxScaler{}
	require.NoError(t, s.Fit([]float64{5, 5, 5}))

	scaled, err := s.Transform([]float64{5, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scaled)
}

func TestMinMaxScalerNotFitted(t *testing.T) {
	s := &MinMaxScaler{}

	_, err := s.Transform([]float64{1})
	assert.True(t, errors.Is(err, ErrNotFitted))

	_, err = s.InverseTransform([]float64{1})
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestMinMaxScalerEmptyFit(t *testing.T) {
	s := &MinMaxScaler{}
	err := s.Fit(nil)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}
