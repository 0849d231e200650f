package models

// ForecastRequest is the query contract for GET /api/forecast.
type ForecastRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	Steps  int    `query:"steps" default:"1" validate:"gte=1,lte=30"`
	TF     string `query:"tf"`
}

// SentimentRequest is the query contract for GET /api/sentiment.
type SentimentRequest struct {
	Symbol string `query:"symbol" validate:"required"`
}

// CandlesRequest is the query contract for GET /api/candles. From and To
// accept RFC3339 or unix seconds.
type CandlesRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	TF     string `query:"tf"`
	From   string `query:"from"`
	To     string `query:"to"`
}
