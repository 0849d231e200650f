package service

import (
	"context"

	"AlphaCast/internal/domain/models"
)

// SentimentProvider computes the current sentiment index for a symbol.
type SentimentProvider interface {
	Index(ctx context.Context, symbol string) (models.SentimentIndex, error)
}

// PortfolioOptimizer turns per-symbol return series into portfolio weights.
type PortfolioOptimizer interface {
	Optimize(returns map[string][]float64) (models.Allocation, error)
}
