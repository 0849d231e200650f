package models

import "time"

// Signal direction published alongside a forecast.
const (
	SignalBullish = "bullish"
	SignalBearish = "bearish"
	SignalNeutral = "neutral"
)

// ForecastResult is one instrument's hybrid forecast with its evaluation
// and the sentiment context it was published under.
type ForecastResult struct {
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	GeneratedAt time.Time `json:"generated_at"`

	// Model orders chosen for the linear component.
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`

	Steps    int       `json:"steps"`
	Values   []float64 `json:"values"`
	Linear   []float64 `json:"linear"`
	Residual float64   `json:"residual"`

	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`

	Sentiment float64  `json:"sentiment"`
	Signal    string   `json:"signal"`
	Warnings  []string `json:"warnings,omitempty"`
}

// SentimentIndex is the mean of headline labels mapped to {-1, 0, +1}.
type SentimentIndex struct {
	Symbol    string    `json:"symbol"`
	Index     float64   `json:"index"`
	Samples   int       `json:"samples"`
	Timestamp time.Time `json:"timestamp"`
}

// Allocation is a portfolio weight vector over the configured instruments.
// Weights are non-negative and sum to one.
type Allocation struct {
	GeneratedAt    time.Time          `json:"generated_at"`
	Objective      string             `json:"objective"`
	Weights        map[string]float64 `json:"weights"`
	ExpectedReturn float64            `json:"expected_return"`
	Volatility     float64            `json:"volatility"`
	Sharpe         float64            `json:"sharpe"`
}
