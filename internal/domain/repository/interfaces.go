package repository

import (
	"context"
	"time"

	"AlphaCast/internal/domain/models"
)

// MarketStream is the live tick feed from the upstream crawler.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PriceStore provides read-only access to historical candles.
type PriceStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

// ForecastStore persists forecast results.
type ForecastStore interface {
	StoreForecast(ctx context.Context, f *models.ForecastResult) error
	LatestForecast(ctx context.Context, symbol string, tf Timeframe) (*models.ForecastResult, error)
	Health(ctx context.Context) error
}

// Publisher pushes results onto the message bus.
type Publisher interface {
	PublishForecast(ctx context.Context, f *models.ForecastResult) error
	PublishTrades(ctx context.Context, trades []*models.Trade) error
	Close() error
}

// TickStore persists raw trades consumed from the message bus.
type TickStore interface {
	InsertTrades(ctx context.Context, trades []*models.Trade) error
}

// Metrics is the recorder surface used by the pipeline.
type Metrics interface {
	RecordForecast(symbol string)
	RecordError(kind string)
	RecordRMSE(symbol string, rmse float64)
	RecordStageLatency(stage string, seconds float64)
}

// Locker guards scheduled runs against overlapping execution.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
