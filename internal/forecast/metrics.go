package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RMSE returns the root mean squared error between actual and predicted.
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkShapes(actual, predicted); err != nil {
		return 0, err
	}
	d := floats.Distance(actual, predicted, 2)
	return d / math.Sqrt(float64(len(actual))), nil
}

// MAE returns the mean absolute error between actual and predicted.
func MAE(actual, predicted []float64) (float64, error) {
	if err := checkShapes(actual, predicted); err != nil {
		return 0, err
	}
	d := floats.Distance(actual, predicted, 1)
	return d / float64(len(actual)), nil
}

func checkShapes(actual, predicted []float64) error {
	if len(actual) == 0 || len(predicted) == 0 {
		return fmt.Errorf("metric input empty: %w", ErrShapeMismatch)
	}
	if len(actual) != len(predicted) {
		return fmt.Errorf("metric inputs have lengths %d and %d: %w", len(actual), len(predicted), ErrShapeMismatch)
	}
	return nil
}
