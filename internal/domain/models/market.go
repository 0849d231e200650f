package models

import "time"

// Candle is an OHLCV record on a timeframe bucket, the forecasting input.
// Candles arrive date-ascending; close prices are rounded to 2 decimals by
// the upstream crawler.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Trade is a raw tick from the live market-data stream.
type Trade struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp int64 // unix seconds
}
