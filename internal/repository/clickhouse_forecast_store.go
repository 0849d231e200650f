package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"AlphaCast/internal/domain/models"
	domrepo "AlphaCast/internal/domain/repository"
	pkgch "AlphaCast/pkg/clickhouse"
)

const forecastTable = "alphacast.forecasts"

// CHForecastStore persists forecast results to ClickHouse.
type CHForecastStore struct {
	db *sql.DB
}

func NewCHForecastStore(ch *pkgch.Client) domrepo.ForecastStore {
	return &CHForecastStore{db: ch.DB()}
}

func (s *CHForecastStore) StoreForecast(ctx context.Context, f *models.ForecastResult) error {
	q := fmt.Sprintf(`INSERT INTO %s
        (generated_at, symbol, tf, p, d, q, steps, values, linear, residual, rmse, mae, sentiment, signal, warnings)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, forecastTable)
	_, err := s.db.ExecContext(ctx, q,
		f.GeneratedAt,
		f.Symbol,
		f.Timeframe,
		int32(f.P),
		int32(f.D),
		int32(f.Q),
		int32(f.Steps),
		f.Values,
		f.Linear,
		f.Residual,
		f.RMSE,
		f.MAE,
		f.Sentiment,
		f.Signal,
		strings.Join(f.Warnings, ";"),
	)
	if err != nil {
		return fmt.Errorf("store forecast: %w", err)
	}
	return nil
}

func (s *CHForecastStore) LatestForecast(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.ForecastResult, error) {
	q := fmt.Sprintf(`
        SELECT generated_at, symbol, tf, p, d, q, steps, values, linear, residual, rmse, mae, sentiment, signal, warnings
        FROM %s
        WHERE symbol = ? AND tf = ?
        ORDER BY generated_at DESC
        LIMIT 1`, forecastTable)

	var (
		f        models.ForecastResult
		p, d, qq int32
		steps    int32
		warnings string
	)
	row := s.db.QueryRowContext(ctx, q, symbol, string(tf))
	err := row.Scan(&f.GeneratedAt, &f.Symbol, &f.Timeframe, &p, &d, &qq, &steps,
		&f.Values, &f.Linear, &f.Residual, &f.RMSE, &f.MAE, &f.Sentiment, &f.Signal, &warnings)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest forecast: %w", err)
	}
	f.P, f.D, f.Q, f.Steps = int(p), int(d), int(qq), int(steps)
	if warnings != "" {
		f.Warnings = strings.Split(warnings, ";")
	}
	return &f, nil
}

func (s *CHForecastStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ForecastSchema returns idempotent DDL for the forecast table.
func ForecastSchema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            generated_at DateTime,
            symbol LowCardinality(String),
            tf LowCardinality(String),
            p Int32,
            d Int32,
            q Int32,
            steps Int32,
            values Array(Float64),
            linear Array(Float64),
            residual Float64,
            rmse Float64,
            mae Float64,
            sentiment Float64,
            signal LowCardinality(String),
            warnings String
        ) ENGINE = MergeTree()
        ORDER BY (symbol, tf, generated_at)
        TTL generated_at + INTERVAL 90 DAY`, forecastTable),
	}
}
