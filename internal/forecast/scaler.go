package forecast

import "fmt"

// MinMaxScaler maps values into [0,1] using the min and max observed at fit
// time. The scaler is fit exactly once; later transforms reuse the captured
// bounds so validation and test data never leak into the scale.
type MinMaxScaler struct {
	Min, Max float64
	fitted   bool
}

// Fit captures the bounds of values. Refitting an already-fitted scaler is
// rejected.
func (s *MinMaxScaler) Fit(values []float64) error {
	if s.fitted {
		return fmt.Errorf("scaler fit: %w", ErrAlreadyFitted)
	}
	if len(values) == 0 {
		return fmt.Errorf("scaler fit on empty series: %w", ErrInsufficientData)
	}
	s.Min, s.Max = values[0], values[0]
	for _, v := range values[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.fitted = true
	return nil
}

// Transform scales values into [0,1]. A constant series (max == min) maps
// to all zeros.
func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if !s.fitted {
		return nil, fmt.Errorf("scaler transform: %w", ErrNotFitted)
	}
	out := make([]float64, len(values))
	span := s.Max - s.Min
	if span == 0 {
		return out, nil
	}
	for i, v := range values {
		out[i] = (v - s.Min) / span
	}
	return out, nil
}

// InverseTransform maps scaled values back to the original units.
func (s *MinMaxScaler) InverseTransform(values []float64) ([]float64, error) {
	if !s.fitted {
		return nil, fmt.Errorf("scaler inverse transform: %w", ErrNotFitted)
	}
	out := make([]float64, len(values))
	span := s.Max - s.Min
	for i, v := range values {
		out[i] = v*span + s.Min
	}
	return out, nil
}
