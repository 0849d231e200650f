package forecast

import "fmt"

// Dataset is a supervised windowed view of a scaled series: X[i] holds
// timeSteps consecutive values and Y[i] the value that follows them.
type Dataset struct {
	X         [][]float64
	Y         []float64
	TimeSteps int
}

// Len returns the number of windows.
func (d *Dataset) Len() int { return len(d.X) }

// BuildDataset scales series with a freshly fitted MinMaxScaler and slices
// it into sliding windows. A series of length L yields L-timeSteps windows;
// when L <= timeSteps the dataset is empty, which is not an error here (the
// downstream fit rejects empty datasets).
func BuildDataset(series []float64, timeSteps int) (*Dataset, *MinMaxScaler, error) {
	if timeSteps < 1 {
		return nil, nil, fmt.Errorf("window size must be >= 1, got %d", timeSteps)
	}

	scaler := &MinMaxScaler{}
	if len(series) == 0 {
		return nil, nil, fmt.Errorf("window build on empty series: %w", ErrInsufficientData)
	}
	if err := scaler.Fit(series); err != nil {
		return nil, nil, err
	}
	scaled, err := scaler.Transform(series)
	if err != nil {
		return nil, nil, err
	}

	return windowScaled(scaled, timeSteps), scaler, nil
}

// windowScaled slices an already-scaled series into windows. Used for
// validation splits where the scaler must not be refit.
func windowScaled(scaled []float64, timeSteps int) *Dataset {
	ds := &Dataset{TimeSteps: timeSteps}
	if len(scaled) <= timeSteps {
		return ds
	}
	count := len(scaled) - timeSteps
	ds.X = make([][]float64, count)
	ds.Y = make([]float64, count)
	for i := 0; i < count; i++ {
		win := make([]float64, timeSteps)
		copy(win, scaled[i:i+timeSteps])
		ds.X[i] = win
		ds.Y[i] = scaled[i+timeSteps]
	}
	return ds
}
