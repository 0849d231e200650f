package forecast

import "errors"

var (
	// ErrInsufficientData is returned when a series or window is too short
	// for the requested operation.
	ErrInsufficientData = errors.New("forecast: insufficient data")

	// ErrNonConvergence is returned when an optimizer diverges (NaN or Inf
	// loss) or a regression matrix is singular. A fit that merely runs out
	// of iterations keeps its bounded coefficients and is not an error.
	ErrNonConvergence = errors.New("forecast: model fit did not converge")

	// ErrNotFitted is returned when predict or transform is invoked before
	// the required fit stage.
	ErrNotFitted = errors.New("forecast: model not fitted")

	// ErrAlreadyFitted is returned when a fit-once component is fitted a
	// second time.
	ErrAlreadyFitted = errors.New("forecast: already fitted")

	// ErrShapeMismatch is returned when metric inputs differ in length or
	// are empty.
	ErrShapeMismatch = errors.New("forecast: input lengths differ")
)

// Warning is a non-fatal condition attached to a prediction. Warnings are
// values on results, never swallowed and never fatal.
type Warning string

const (
	// WarnDegradedForecast signals that the residual component defaulted to
	// zero because fewer residual observations than the window size were
	// available. The linear forecast is returned unchanged.
	WarnDegradedForecast Warning = "degraded: residual history shorter than window, residual component zeroed"

	// WarnResidualSingleStep signals that only the first forecast step
	// carries a residual correction; later steps are linear-only.
	WarnResidualSingleStep Warning = "residual correction applied to first step only"
)
