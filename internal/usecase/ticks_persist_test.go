package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaCast/internal/domain/models"
	applogger "AlphaCast/pkg/logger"
)

type stubTickStore struct {
	batches [][]*models.Trade
	fail    bool
}

func (s *stubTickStore) InsertTrades(_ context.Context, trades []*models.Trade) error {
	if s.fail {
		return assert.AnError
	}
	s.batches = append(s.batches, trades)
	return nil
}

func tickJSON(t *testing.T, symbol string, price float64) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{"symbol": symbol, "t": int64(1700000000), "c": price, "v": 1.5})
	require.NoError(t, err)
	return b
}

func newTicksHandler(t *testing.T, store *stubTickStore, batchSize int) *TicksPersistHandler {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return NewTicksPersistHandler("ticks", store, &stubMetrics{}, l, batchSize, time.Minute)
}

func TestTicksHandlerFlushesFullBatch(t *testing.T) {
	store := &stubTickStore{}
	h := newTicksHandler(t, store, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Handle(context.Background(), tickJSON(t, "AAA", 100+float64(i))))
	}

	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 3)
	assert.Equal(t, "AAA", store.batches[0][0].Symbol)
	assert.Equal(t, 100.0, store.batches[0][0].Price)
}

func TestTicksHandlerFlushOnShutdown(t *testing.T) {
	store := &stubTickStore{}
	h := newTicksHandler(t, store, 100)

	require.NoError(t, h.Handle(context.Background(), tickJSON(t, "AAA", 100)))
	require.Empty(t, store.batches)

	require.NoError(t, h.Flush(context.Background()))
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 1)
}

func TestTicksHandlerRejectsBadPayload(t *testing.T) {
	h := newTicksHandler(t, &stubTickStore{}, 10)

	assert.Error(t, h.Handle(context.Background(), []byte("not json")))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"t":1,"c":2}`)))
}

func TestTicksHandlerRequeuesOnStoreError(t *testing.T) {
	store := &stubTickStore{fail: true}
	h := newTicksHandler(t, store, 1)

	require.Error(t, h.Handle(context.Background(), tickJSON(t, "AAA", 100)))

	// store recovers, the buffered tick survives
	store.fail = false
	require.NoError(t, h.Flush(context.Background()))
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 1)
}
