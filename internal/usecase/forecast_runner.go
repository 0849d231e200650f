package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"AlphaCast/internal/domain/models"
	domrepo "AlphaCast/internal/domain/repository"
	domsvc "AlphaCast/internal/domain/service"
	"AlphaCast/internal/forecast"
	"AlphaCast/pkg/cache"
	applogger "AlphaCast/pkg/logger"
)

const runLockKey = "forecast_run"

// RunnerConfig holds the batch pipeline settings.
type RunnerConfig struct {
	Symbols   []string
	Timeframe domrepo.Timeframe
	Steps     int
	Lookback  int
	Holdout   int
	Interval  time.Duration
	CacheTTL  time.Duration
	Seed      int64
	Hybrid    forecast.HybridConfig
}

// ForecastRunner is the batch pipeline: per instrument it loads candles,
// fits the hybrid model, evaluates on a held-out tail, attaches the
// sentiment index and publishes the result. A failure in one instrument is
// recorded and never stops the others. After the batch it rebuilds the
// portfolio allocation from realized returns.
type ForecastRunner struct {
	cfg       RunnerConfig
	prices    domrepo.PriceStore
	store     domrepo.ForecastStore
	publisher domrepo.Publisher
	sentiment domsvc.SentimentProvider
	optimizer domsvc.PortfolioOptimizer
	cache     cache.Service
	locker    domrepo.Locker
	metrics   domrepo.Metrics
	l         *applogger.Logger

	mu         sync.RWMutex
	allocation *models.Allocation
}

func NewForecastRunner(
	cfg RunnerConfig,
	prices domrepo.PriceStore,
	store domrepo.ForecastStore,
	publisher domrepo.Publisher,
	sentimentSvc domsvc.SentimentProvider,
	optimizer domsvc.PortfolioOptimizer,
	c cache.Service,
	locker domrepo.Locker,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *ForecastRunner {
	return &ForecastRunner{
		cfg:       cfg,
		prices:    prices,
		store:     store,
		publisher: publisher,
		sentiment: sentimentSvc,
		optimizer: optimizer,
		cache:     c,
		locker:    locker,
		metrics:   metrics,
		l:         l,
	}
}

// Start runs one batch immediately and then on every interval tick until
// the context is cancelled.
func (r *ForecastRunner) Start(ctx context.Context) {
	r.Run(ctx)
	if r.cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Run(ctx)
		}
	}
}

// Run executes one batch over all configured symbols. Overlapping runs are
// prevented with a distributed lock; a run that cannot acquire it is
// skipped, not queued.
func (r *ForecastRunner) Run(ctx context.Context) {
	if r.locker != nil {
		ttl := r.cfg.Interval
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		ok, err := r.locker.Acquire(ctx, runLockKey, ttl)
		if err != nil {
			r.l.Warn("run lock unavailable, proceeding without it", applogger.Error(err))
		} else if !ok {
			r.l.Info("previous forecast run still in progress, skipping")
			return
		} else {
			defer func() {
				if err := r.locker.Release(ctx, runLockKey); err != nil {
					r.l.Warn("release run lock", applogger.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	returns := make(map[string][]float64, len(r.cfg.Symbols))
	failed := 0
	for i, symbol := range r.cfg.Symbols {
		rets, err := r.runOne(ctx, symbol, r.cfg.Seed+int64(i))
		if err != nil {
			failed++
			r.metrics.RecordError(errorKind(err))
			r.l.Error("forecast failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			continue
		}
		returns[symbol] = rets
	}

	if len(returns) >= 2 {
		alloc, err := r.optimizer.Optimize(returns)
		if err != nil {
			r.metrics.RecordError("allocation")
			r.l.Error("portfolio optimization failed", applogger.Error(err))
		} else {
			r.setAllocation(ctx, &alloc)
		}
	}

	r.metrics.RecordStageLatency("run", time.Since(start).Seconds())
	r.l.Info("forecast run complete",
		applogger.Int("symbols", len(r.cfg.Symbols)),
		applogger.Int("failed", failed),
		applogger.Duration("duration_ms", time.Since(start)),
	)
}

// runOne produces, evaluates, publishes and persists the forecast for one
// symbol. It returns the realized return series for allocation.
func (r *ForecastRunner) runOne(ctx context.Context, symbol string, seed int64) ([]float64, error) {
	stageStart := time.Now()

	need := r.cfg.Lookback + r.cfg.Holdout
	candles, err := r.prices.GetLatestNCandles(ctx, symbol, need, r.cfg.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	if len(closes) <= r.cfg.Holdout {
		return nil, fmt.Errorf("only %d candles for %s: %w", len(closes), symbol, forecast.ErrInsufficientData)
	}

	// Held-out evaluation: fit on everything before the tail, forecast the
	// tail, score it.
	trainEnd := len(closes) - r.cfg.Holdout
	eval, evalWarnings, err := r.evaluateHoldout(closes[:trainEnd], closes[trainEnd:], seed)
	if err != nil {
		return nil, err
	}

	// Published forecast: refit on the full window so the horizon starts at
	// the latest close.
	h := forecast.NewHybrid(r.cfg.Hybrid, rand.New(rand.NewSource(seed)))
	if err := h.FitLinear(closes); err != nil {
		return nil, fmt.Errorf("fit linear %s: %w", symbol, err)
	}
	if err := h.Fit(); err != nil {
		return nil, fmt.Errorf("fit residual %s: %w", symbol, err)
	}
	pred, err := h.Predict(r.cfg.Steps)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", symbol, err)
	}

	senti, err := r.sentiment.Index(ctx, symbol)
	if err != nil {
		// Sentiment is advisory; a classifier outage degrades to neutral.
		r.l.Warn("sentiment unavailable, using neutral",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		senti = models.SentimentIndex{Symbol: symbol}
	}

	order := h.Order()
	result := &models.ForecastResult{
		Symbol:      symbol,
		Timeframe:   string(r.cfg.Timeframe),
		GeneratedAt: time.Now().UTC(),
		P:           order.P,
		D:           order.D,
		Q:           order.Q,
		Steps:       r.cfg.Steps,
		Values:      pred.Values,
		Linear:      pred.Linear,
		Residual:    pred.Residual,
		RMSE:        eval.RMSE,
		MAE:         eval.MAE,
		Sentiment:   senti.Index,
		Signal:      deriveSignal(closes[len(closes)-1], pred.Values[0], senti.Index),
	}
	for _, w := range pred.Warnings {
		result.Warnings = append(result.Warnings, string(w))
	}
	for _, w := range evalWarnings {
		result.Warnings = append(result.Warnings, "holdout: "+string(w))
	}

	if err := r.store.StoreForecast(ctx, result); err != nil {
		return nil, fmt.Errorf("persist forecast %s: %w", symbol, err)
	}
	if err := r.publisher.PublishForecast(ctx, result); err != nil {
		return nil, fmt.Errorf("publish forecast %s: %w", symbol, err)
	}
	if r.cache != nil {
		key := forecastCacheKey(symbol, string(r.cfg.Timeframe), r.cfg.Steps)
		if err := r.cache.Set(ctx, key, result, r.cfg.CacheTTL); err != nil {
			r.l.Warn("forecast cache set failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}

	r.metrics.RecordForecast(symbol)
	r.metrics.RecordRMSE(symbol, eval.RMSE)
	r.metrics.RecordStageLatency("symbol", time.Since(stageStart).Seconds())
	r.l.Info("forecast published",
		applogger.String("symbol", symbol),
		applogger.Int("d", order.D),
		applogger.Float64("rmse", eval.RMSE),
		applogger.Float64("sentiment", senti.Index),
		applogger.String("signal", result.Signal),
	)

	return pctReturns(closes), nil
}

// evaluateHoldout fits on train, forecasts len(tail) steps and scores the
// forecast against the tail.
func (r *ForecastRunner) evaluateHoldout(train, tail []float64, seed int64) (forecast.Evaluation, []forecast.Warning, error) {
	h := forecast.NewHybrid(r.cfg.Hybrid, rand.New(rand.NewSource(seed)))
	if err := h.FitLinear(train); err != nil {
		return forecast.Evaluation{}, nil, fmt.Errorf("holdout linear fit: %w", err)
	}
	if err := h.Fit(); err != nil {
		return forecast.Evaluation{}, nil, fmt.Errorf("holdout residual fit: %w", err)
	}
	pred, err := h.Predict(len(tail))
	if err != nil {
		return forecast.Evaluation{}, nil, fmt.Errorf("holdout predict: %w", err)
	}
	eval, err := h.Evaluate(tail, pred.Values)
	if err != nil {
		return forecast.Evaluation{}, nil, err
	}
	return eval, pred.Warnings, nil
}

// deriveSignal combines forecast direction with the sentiment index. The
// forecast sets the direction; a strongly opposing sentiment pulls the
// signal back to neutral. Sentiment never changes the forecast values.
func deriveSignal(lastClose, next, sentimentIdx float64) string {
	delta := next - lastClose
	switch {
	case delta > 0:
		if sentimentIdx <= -0.5 {
			return models.SignalNeutral
		}
		return models.SignalBullish
	case delta < 0:
		if sentimentIdx >= 0.5 {
			return models.SignalNeutral
		}
		return models.SignalBearish
	default:
		return models.SignalNeutral
	}
}

// pctReturns computes simple period returns from a close series.
func pctReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, forecast.ErrNonConvergence):
		return "non_convergence"
	case errors.Is(err, forecast.ErrNotFitted):
		return "not_fitted"
	default:
		return "forecast"
	}
}

func forecastCacheKey(symbol, tf string, steps int) string {
	return cache.GenerateKeyWithParams("forecast", symbol, tf, steps)
}

func (r *ForecastRunner) setAllocation(ctx context.Context, alloc *models.Allocation) {
	r.mu.Lock()
	r.allocation = alloc
	r.mu.Unlock()
	if r.cache != nil {
		if err := r.cache.Set(ctx, "allocation:latest", alloc, r.cfg.CacheTTL); err != nil {
			r.l.Warn("allocation cache set failed", applogger.Error(err))
		}
	}
	r.l.Info("allocation updated",
		applogger.String("objective", alloc.Objective),
		applogger.Float64("volatility", alloc.Volatility),
		applogger.Float64("sharpe", alloc.Sharpe),
	)
}

// LatestAllocation returns the allocation from the most recent run, or nil
// when no run has completed yet.
func (r *ForecastRunner) LatestAllocation() *models.Allocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allocation
}

// ForecastFor serves the cached forecast for a symbol, falling back to the
// store when the cache has expired.
func (r *ForecastRunner) ForecastFor(ctx context.Context, symbol string, tf domrepo.Timeframe, steps int) (*models.ForecastResult, error) {
	if steps <= 0 {
		steps = r.cfg.Steps
	}
	if r.cache != nil {
		var cached models.ForecastResult
		if err := r.cache.Get(ctx, forecastCacheKey(symbol, string(tf), steps), &cached); err == nil {
			return &cached, nil
		}
	}
	f, err := r.store.LatestForecast(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// SentimentFor exposes the sentiment index to the API layer.
func (r *ForecastRunner) SentimentFor(ctx context.Context, symbol string) (models.SentimentIndex, error) {
	return r.sentiment.Index(ctx, symbol)
}
