package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"AlphaCast/internal/domain/models"
	drepo "AlphaCast/internal/domain/repository"
	applogger "AlphaCast/pkg/logger"
)

// TicksPersistHandler consumes raw ticks from Kafka and writes them to the
// tick store in batches. It implements the kafka MessageHandler interface.
type TicksPersistHandler struct {
	topic   string
	store   drepo.TickStore
	metrics drepo.Metrics
	l       *applogger.Logger

	batchSize int
	maxAge    time.Duration

	mu      sync.Mutex
	pending []*models.Trade
	oldest  time.Time
}

type tickPayload struct {
	Symbol string  `json:"symbol"`
	T      int64   `json:"t"`
	C      float64 `json:"c"`
	V      float64 `json:"v"`
}

func NewTicksPersistHandler(topic string, store drepo.TickStore, metrics drepo.Metrics, l *applogger.Logger, batchSize int, maxAge time.Duration) *TicksPersistHandler {
	if batchSize <= 0 {
		batchSize = 500
	}
	if maxAge <= 0 {
		maxAge = 2 * time.Second
	}
	return &TicksPersistHandler{
		topic:     topic,
		store:     store,
		metrics:   metrics,
		l:         l,
		batchSize: batchSize,
		maxAge:    maxAge,
	}
}

// Topic returns the Kafka topic this handler consumes.
func (h *TicksPersistHandler) Topic() string { return h.topic }

// Handle buffers one tick and flushes when the batch is full or the oldest
// buffered tick exceeds maxAge.
func (h *TicksPersistHandler) Handle(ctx context.Context, data []byte) error {
	var p tickPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode tick: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("tick without symbol")
	}

	h.mu.Lock()
	if len(h.pending) == 0 {
		h.oldest = time.Now()
	}
	h.pending = append(h.pending, &models.Trade{
		Symbol:    p.Symbol,
		Timestamp: p.T,
		Price:     p.C,
		Volume:    p.V,
	})
	shouldFlush := len(h.pending) >= h.batchSize || time.Since(h.oldest) >= h.maxAge
	h.mu.Unlock()

	if shouldFlush {
		return h.Flush(ctx)
	}
	return nil
}

// Flush writes buffered ticks to the store. The app calls it once more on
// shutdown so the tail of the stream is not lost.
func (h *TicksPersistHandler) Flush(ctx context.Context) error {
	h.mu.Lock()
	batch := h.pending
	h.pending = nil
	h.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := h.store.InsertTrades(ctx, batch); err != nil {
		h.metrics.RecordError("tick_persist")
		h.l.Error("tick batch insert failed", applogger.Int("size", len(batch)), applogger.Error(err))
		// requeue so the batch is retried on the next flush
		h.mu.Lock()
		h.pending = append(batch, h.pending...)
		h.mu.Unlock()
		return err
	}
	h.l.Debug("tick batch persisted", applogger.Int("size", len(batch)))
	return nil
}
