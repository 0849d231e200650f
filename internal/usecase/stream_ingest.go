package usecase

import (
	"context"
	"time"

	"AlphaCast/internal/domain/models"
	drepo "AlphaCast/internal/domain/repository"
	applogger "AlphaCast/pkg/logger"
)

// StreamIngest consumes the live tick feed and forwards trades to the
// message bus in batches. It exists so the crawler's feed keeps flowing
// into Kafka while the forecasting pipeline reads settled candles from
// ClickHouse.
type StreamIngest struct {
	stream    drepo.MarketStream
	publisher drepo.Publisher
	metrics   drepo.Metrics
	l         *applogger.Logger

	batchSize  int
	flushEvery time.Duration
}

func NewStreamIngest(stream drepo.MarketStream, publisher drepo.Publisher, metrics drepo.Metrics, l *applogger.Logger, batchSize int, flushEvery time.Duration) *StreamIngest {
	if batchSize <= 0 {
		batchSize = 200
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	return &StreamIngest{
		stream:     stream,
		publisher:  publisher,
		metrics:    metrics,
		l:          l,
		batchSize:  batchSize,
		flushEvery: flushEvery,
	}
}

// IsConnected reports stream health for the readiness endpoint.
func (s *StreamIngest) IsConnected() bool {
	return s.stream.IsConnected()
}

// Start connects, subscribes and consumes until the context is cancelled.
func (s *StreamIngest) Start(ctx context.Context) error {
	if err := s.stream.Connect(ctx); err != nil {
		return err
	}
	if err := s.stream.Subscribe(ctx); err != nil {
		return err
	}
	trCh, errCh := s.stream.Read(ctx)
	go s.consume(ctx, trCh, errCh)
	return nil
}

func (s *StreamIngest) consume(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	batch := make([]*models.Trade, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.publisher.PublishTrades(ctx, batch); err != nil {
			s.metrics.RecordError("stream_publish")
			s.l.Error("publish trade batch", applogger.Int("size", len(batch)), applogger.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case err := <-errCh:
			if err == nil {
				// channel closed, the read loop is gone
				if ctx.Err() != nil {
					flush()
					return
				}
			} else {
				s.metrics.RecordError("stream")
				s.l.Warn("stream error, reconnecting", applogger.Error(err))
			}
			if rerr := s.stream.Reconnect(ctx); rerr != nil {
				s.l.Error("stream reconnect failed", applogger.Error(rerr))
				continue
			}
			trCh, errCh = s.stream.Read(ctx)
		case <-ticker.C:
			flush()
		case t := <-trCh:
			if t == nil {
				continue
			}
			batch = append(batch, t)
			if len(batch) >= s.batchSize {
				flush()
			}
		}
	}
}

// Stop closes the underlying stream.
func (s *StreamIngest) Stop() error { return s.stream.Close() }
