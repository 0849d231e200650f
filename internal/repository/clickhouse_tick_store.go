package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AlphaCast/internal/domain/models"
	domrepo "AlphaCast/internal/domain/repository"
	pkgch "AlphaCast/pkg/clickhouse"
)

const ticksTable = "alphacast.ticks_raw"

// CHTickStore writes raw trades into ClickHouse in batches.
type CHTickStore struct {
	db *sql.DB
}

func NewCHTickStore(ch *pkgch.Client) domrepo.TickStore {
	return &CHTickStore{db: ch.DB()}
}

func (s *CHTickStore) InsertTrades(ctx context.Context, trades []*models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tick batch: %w", err)
	}

	q := fmt.Sprintf("INSERT INTO %s (symbol, t, price, vol) VALUES (?, ?, ?, ?)", ticksTable)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare tick batch: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx, t.Symbol, time.Unix(t.Timestamp, 0).UTC(), t.Price, t.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append tick: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tick batch: %w", err)
	}
	return nil
}
