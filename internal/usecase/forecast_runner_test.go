package usecase

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaCast/internal/domain/models"
	domrepo "AlphaCast/internal/domain/repository"
	"AlphaCast/internal/forecast"
	applogger "AlphaCast/pkg/logger"
)

// --- stubs ---

type stubPriceStore struct {
	candles map[string][]models.Candle
}

func (s *stubPriceStore) GetCandles(_ context.Context, symbol string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	return s.candles[symbol], nil
}

func (s *stubPriceStore) GetLatestNCandles(_ context.Context, symbol string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	cs := s.candles[symbol]
	if len(cs) > n {
		cs = cs[len(cs)-n:]
	}
	return cs, nil
}

type stubForecastStore struct {
	mu     sync.Mutex
	stored []*models.ForecastResult
}

func (s *stubForecastStore) StoreForecast(_ context.Context, f *models.ForecastResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, f)
	return nil
}

func (s *stubForecastStore) LatestForecast(_ context.Context, symbol string, _ domrepo.Timeframe) (*models.ForecastResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.stored) - 1; i >= 0; i-- {
		if s.stored[i].Symbol == symbol {
			return s.stored[i], nil
		}
	}
	return nil, nil
}

func (s *stubForecastStore) Health(context.Context) error { return nil }

type stubPublisher struct {
	mu        sync.Mutex
	published []*models.ForecastResult
}

func (p *stubPublisher) PublishForecast(_ context.Context, f *models.ForecastResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, f)
	return nil
}

func (p *stubPublisher) PublishTrades(context.Context, []*models.Trade) error { return nil }
func (p *stubPublisher) Close() error                                         { return nil }

type stubSentiment struct {
	index float64
}

func (s *stubSentiment) Index(_ context.Context, symbol string) (models.SentimentIndex, error) {
	return models.SentimentIndex{Symbol: symbol, Index: s.index, Samples: 5}, nil
}

type stubOptimizer struct {
	got map[string][]float64
}

func (o *stubOptimizer) Optimize(returns map[string][]float64) (models.Allocation, error) {
	o.got = returns
	weights := make(map[string]float64, len(returns))
	for s := range returns {
		weights[s] = 1 / float64(len(returns))
	}
	return models.Allocation{Objective: "min_volatility", Weights: weights}, nil
}

type stubMetrics struct {
	mu        sync.Mutex
	forecasts int
	errors    map[string]int
}

func (m *stubMetrics) RecordForecast(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts++
}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}

func (m *stubMetrics) RecordRMSE(string, float64)         {}
func (m *stubMetrics) RecordStageLatency(string, float64) {}

// --- helpers ---

func syntheticCandles(symbol string, n int, seed int64) []models.Candle {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.Candle, n)
	price := 100.0
	for i := range out {
		price += 0.1 + rng.NormFloat64()
		out[i] = models.Candle{
			Bucket: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Symbol: symbol,
			Close:  price,
		}
	}
	return out
}

func testRunnerConfig() RunnerConfig {
	hybrid := forecast.DefaultHybridConfig()
	hybrid.TimeSteps = 10
	hybrid.LSTM = forecast.LSTMConfig{
		HiddenSize:   8,
		Epochs:       10,
		BatchSize:    8,
		Patience:     3,
		LearningRate: 0.01,
		Dropout:      0.1,
	}
	return RunnerConfig{
		Symbols:   []string{"AAA", "BBB"},
		Timeframe: domrepo.TF1d,
		Steps:     3,
		Lookback:  140,
		Holdout:   10,
		CacheTTL:  time.Minute,
		Seed:      42,
		Hybrid:    hybrid,
	}
}

func newTestRunner(t *testing.T, cfg RunnerConfig, prices *stubPriceStore) (*ForecastRunner, *stubForecastStore, *stubPublisher, *stubMetrics, *stubOptimizer) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	store := &stubForecastStore{}
	pub := &stubPublisher{}
	metrics := &stubMetrics{}
	opt := &stubOptimizer{}
	runner := NewForecastRunner(cfg, prices, store, pub, &stubSentiment{index: 0.2}, opt, nil, nil, metrics, l)
	return runner, store, pub, metrics, opt
}

// --- tests ---

func TestRunProducesForecastsAndAllocation(t *testing.T) {
	prices := &stubPriceStore{candles: map[string][]models.Candle{
		"AAA": syntheticCandles("AAA", 150, 1),
		"BBB": syntheticCandles("BBB", 150, 2),
	}}
	runner, store, pub, metrics, opt := newTestRunner(t, testRunnerConfig(), prices)

	runner.Run(context.Background())

	require.Len(t, store.stored, 2)
	require.Len(t, pub.published, 2)
	assert.Equal(t, 2, metrics.forecasts)

	for _, f := range store.stored {
		assert.Len(t, f.Values, 3)
		assert.Positive(t, f.RMSE)
		assert.NotEmpty(t, f.Signal)
		assert.Equal(t, 0.2, f.Sentiment)
	}

	require.NotNil(t, opt.got)
	assert.Len(t, opt.got, 2)
	alloc := runner.LatestAllocation()
	require.NotNil(t, alloc)
	assert.Len(t, alloc.Weights, 2)
}

func TestRunIsolatesFailingInstrument(t *testing.T) {
	// BBB has far too little history; AAA must still publish.
	prices := &stubPriceStore{candles: map[string][]models.Candle{
		"AAA": syntheticCandles("AAA", 150, 3),
		"BBB": syntheticCandles("BBB", 5, 4),
	}}
	runner, store, _, metrics, _ := newTestRunner(t, testRunnerConfig(), prices)

	runner.Run(context.Background())

	require.Len(t, store.stored, 1)
	assert.Equal(t, "AAA", store.stored[0].Symbol)
	assert.Equal(t, 1, metrics.errors["insufficient_data"])
}

func TestForecastForFallsBackToStore(t *testing.T) {
	prices := &stubPriceStore{candles: map[string][]models.Candle{
		"AAA": syntheticCandles("AAA", 150, 5),
		"BBB": syntheticCandles("BBB", 150, 6),
	}}
	runner, _, _, _, _ := newTestRunner(t, testRunnerConfig(), prices)
	runner.Run(context.Background())

	f, err := runner.ForecastFor(context.Background(), "AAA", domrepo.TF1d, 3)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "AAA", f.Symbol)

	missing, err := runner.ForecastFor(context.Background(), "ZZZ", domrepo.TF1d, 3)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeriveSignal(t *testing.T) {
	tests := []struct {
		name      string
		last      float64
		next      float64
		sentiment float64
		want      string
	}{
		{name: "up with supportive sentiment", last: 100, next: 101, sentiment: 0.3, want: models.SignalBullish},
		{name: "up against strong negative", last: 100, next: 101, sentiment: -0.7, want: models.SignalNeutral},
		{name: "down with neutral sentiment", last: 100, next: 99, sentiment: 0, want: models.SignalBearish},
		{name: "down against strong positive", last: 100, next: 99, sentiment: 0.8, want: models.SignalNeutral},
		{name: "flat", last: 100, next: 100, sentiment: 0.9, want: models.SignalNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveSignal(tt.last, tt.next, tt.sentiment))
		})
	}
}

func TestPctReturns(t *testing.T) {
	got := pctReturns([]float64{100, 110, 99})
	require.Len(t, got, 2)
	assert.InDelta(t, 0.10, got[0], 1e-12)
	assert.InDelta(t, -0.10, got[1], 1e-12)

	assert.Nil(t, pctReturns([]float64{100}))
}
