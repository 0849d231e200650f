package forecast

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallLSTMConfig() LSTMConfig {
	return LSTMConfig{
		HiddenSize:   8,
		Epochs:       30,
		BatchSize:    8,
		Patience:     5,
		LearningRate: 0.01,
		Dropout:      0.1,
	}
}

// sineDataset builds windows over a scaled sine wave, an easy target for a
// small network.
func sineDataset(t *testing.T, n, timeSteps int) (*Dataset, *Dataset) {
	t.Helper()
	series := make([]float64, n)
	for i := range series {
		series[i] = math.Sin(float64(i) * 0.2)
	}
	ds, _, err := BuildDataset(series, timeSteps)
	require.NoError(t, err)

	cut := int(float64(ds.Len()) * 0.8)
	train := &Dataset{X: ds.X[:cut], Y: ds.Y[:cut], TimeSteps: timeSteps}
	val := &Dataset{X: ds.X[cut:], Y: ds.Y[cut:], TimeSteps: timeSteps}
	return train, val
}

func TestLSTMFitAndPredict(t *testing.T) {
	train, val := sineDataset(t, 150, 10)

	n := NewLSTM(smallLSTMConfig(), rand.New(rand.NewSource(1)))
	loss, err := n.Fit(train, val)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(loss))
	assert.Less(t, loss, 1.0)

	out, err := n.Predict(val.X[0])
	require.NoError(t, err)
	assert.False(t, math.IsNaN(out))
	assert.False(t, math.IsInf(out, 0))
}

func TestLSTMDeterministicWithSeed(t *testing.T) {
	train, val := sineDataset(t, 120, 10)

	a := NewLSTM(smallLSTMConfig(), rand.New(rand.NewSource(7)))
	_, err := a.Fit(train, val)
	require.NoError(t, err)

	b := NewLSTM(smallLSTMConfig(), rand.New(rand.NewSource(7)))
	_, err = b.Fit(train, val)
	require.NoError(t, err)

	pa, err := a.Predict(val.X[0])
	require.NoError(t, err)
	pb, err := b.Predict(val.X[0])
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestLSTMPredictBeforeFit(t *testing.T) {
	n := NewLSTM(smallLSTMConfig(), rand.New(rand.NewSource(1)))

	_, err := n.Predict(make([]float64, 10))
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestLSTMFitEmptyDataset(t *testing.T) {
	n := NewLSTM(smallLSTMConfig(), rand.New(rand.NewSource(1)))

	_, err := n.Fit(&Dataset{TimeSteps: 10}, nil)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestLSTMPredictWrongWindowLength(t *testing.T) {
	train, val := sineDataset(t, 80, 10)

	n := NewLSTM(smallLSTMConfig(), rand.New(rand.NewSource(1)))
	_, err := n.Fit(train, val)
	require.NoError(t, err)

	_, err = n.Predict(make([]float64, 5))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestLSTMEarlyStoppingKeepsBestLoss(t *testing.T) {
	train, val := sineDataset(t, 120, 10)

	n := NewLSTM(smallLSTMConfig(), rand.New(rand.NewSource(3)))
	best, err := n.Fit(train, val)
	require.NoError(t, err)

	// Restored weights reproduce the best validation loss.
	assert.InDelta(t, best, n.meanLoss(val), 1e-9)
}
