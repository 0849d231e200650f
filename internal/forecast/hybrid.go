package forecast

import (
	"fmt"
	"math"
	"math/rand"
)

// hybridState tracks fit progress. Linear fit must complete before the
// residual learner trains, and prediction requires both.
type hybridState int

const (
	stateUnfit hybridState = iota
	stateLinearFit
	stateFit
)

// HybridConfig holds the tunables of the combined model.
type HybridConfig struct {
	P          int
	Q          int
	TimeSteps  int
	TrainSplit float64
	LSTM       LSTMConfig
}

// DefaultHybridConfig returns the pipeline defaults: ARIMA(2,d,1) with d
// chosen by the stationarity test, 60-step windows, 80/20 chronological
// split.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		P:          2,
		Q:          1,
		TimeSteps:  60,
		TrainSplit: 0.8,
		LSTM:       DefaultLSTMConfig(),
	}
}

// Prediction is a hybrid forecast. Values[i] = Linear[i] plus the residual
// correction, which applies to the first step only. Warnings carry non-fatal
// degradations; they are never dropped.
type Prediction struct {
	Values   []float64 `json:"values"`
	Linear   []float64 `json:"linear"`
	Residual float64   `json:"residual"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Evaluation holds held-out accuracy metrics.
type Evaluation struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}

// Hybrid combines the ARIMA linear model with the LSTM residual learner.
// The linear model captures trend and autocorrelation; the network trains on
// what the linear model missed.
type Hybrid struct {
	cfg HybridConfig
	rng *rand.Rand

	state     hybridState
	linear    *ARIMA
	learner   *LSTM
	scaler    *MinMaxScaler
	residuals []float64 // original-scale residual history, warm-up trimmed
	degraded  bool
	valLoss   float64
}

// NewHybrid builds an unfitted hybrid model. rng seeds all stochastic parts
// of training; pass a deterministic source for reproducible fits.
func NewHybrid(cfg HybridConfig, rng *rand.Rand) *Hybrid {
	return &Hybrid{cfg: cfg, rng: rng}
}

// FitLinear determines the differencing order from the stationarity test and
// fits the ARIMA component on series. It moves the model from Unfit to
// LinearFit.
func (h *Hybrid) FitLinear(series []float64) error {
	order, err := DetermineOrder(series, h.cfg.P, h.cfg.Q)
	if err != nil {
		return fmt.Errorf("determine order: %w", err)
	}
	m := NewARIMA(order)
	if err := m.Fit(series); err != nil {
		return fmt.Errorf("linear fit: %w", err)
	}
	h.linear = m
	h.state = stateLinearFit
	return nil
}

// Fit trains the residual learner on the linear model's in-sample errors.
// Residuals are windowed, split chronologically (no shuffling) and the
// network early-stops on the validation tail. When the residual history is
// too short to form a single window the model still reaches the fitted state
// but predicts a zero residual, surfaced later as a degraded-forecast
// warning.
func (h *Hybrid) Fit() error {
	if h.state == stateUnfit {
		return fmt.Errorf("hybrid fit before linear fit: %w", ErrNotFitted)
	}

	raw := h.linear.Residuals()
	resid := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) {
			resid = append(resid, v)
		}
	}
	h.residuals = resid

	ds, scaler, err := BuildDataset(resid, h.cfg.TimeSteps)
	if err != nil {
		return fmt.Errorf("residual windows: %w", err)
	}
	h.scaler = scaler

	if ds.Len() == 0 {
		h.degraded = true
		h.state = stateFit
		return nil
	}

	split := h.cfg.TrainSplit
	if split <= 0 || split >= 1 {
		split = 0.8
	}
	cut := int(float64(ds.Len()) * split)
	if cut < 1 {
		cut = 1
	}
	train := &Dataset{X: ds.X[:cut], Y: ds.Y[:cut], TimeSteps: ds.TimeSteps}
	val := &Dataset{X: ds.X[cut:], Y: ds.Y[cut:], TimeSteps: ds.TimeSteps}

	learner := NewLSTM(h.cfg.LSTM, h.rng)
	loss, err := learner.Fit(train, val)
	if err != nil {
		return fmt.Errorf("residual fit: %w", err)
	}
	h.learner = learner
	h.valLoss = loss
	h.state = stateFit
	return nil
}

// Predict forecasts steps values ahead. The linear forecast covers every
// step; the residual correction is one-step-ahead only, so later steps are
// linear-only and a warning says so. A degraded model returns the linear
// forecast unchanged with a degraded-forecast warning.
func (h *Hybrid) Predict(steps int) (*Prediction, error) {
	if h.state != stateFit {
		return nil, fmt.Errorf("hybrid predict: %w", ErrNotFitted)
	}

	linear, err := h.linear.Predict(steps)
	if err != nil {
		return nil, fmt.Errorf("linear predict: %w", err)
	}

	pred := &Prediction{Linear: linear}

	residual := 0.0
	if h.degraded || len(h.residuals) < h.cfg.TimeSteps {
		pred.Warnings = append(pred.Warnings, WarnDegradedForecast)
	} else {
		window := h.residuals[len(h.residuals)-h.cfg.TimeSteps:]
		scaled, err := h.scaler.Transform(window)
		if err != nil {
			return nil, fmt.Errorf("scale residual window: %w", err)
		}
		out, err := h.learner.Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("residual predict: %w", err)
		}
		inv, err := h.scaler.InverseTransform([]float64{out})
		if err != nil {
			return nil, fmt.Errorf("unscale residual: %w", err)
		}
		residual = inv[0]
		if steps > 1 {
			pred.Warnings = append(pred.Warnings, WarnResidualSingleStep)
		}
	}

	pred.Residual = residual
	pred.Values = make([]float64, steps)
	copy(pred.Values, linear)
	pred.Values[0] += residual
	return pred, nil
}

// Evaluate computes RMSE and MAE between actual and predicted.
func (h *Hybrid) Evaluate(actual, predicted []float64) (Evaluation, error) {
	rmse, err := RMSE(actual, predicted)
	if err != nil {
		return Evaluation{}, err
	}
	mae, err := MAE(actual, predicted)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{RMSE: rmse, MAE: mae}, nil
}

// Order reports the linear component's order. Zero value before FitLinear.
func (h *Hybrid) Order() Order {
	if h.linear == nil {
		return Order{}
	}
	return h.linear.Order
}

// ValidationLoss reports the residual learner's best validation loss.
func (h *Hybrid) ValidationLoss() float64 { return h.valLoss }
