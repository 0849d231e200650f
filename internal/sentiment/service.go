package sentiment

import (
	"context"
	"fmt"
	"time"

	"AlphaCast/internal/domain/models"
	"AlphaCast/pkg/cache"
	applogger "AlphaCast/pkg/logger"
)

// HeadlineSource provides recent texts to score for a symbol.
type HeadlineSource interface {
	Headlines(ctx context.Context, symbol string) ([]string, error)
}

// Service computes the sentiment index for a symbol and caches it.
type Service struct {
	source     HeadlineSource
	classifier Classifier
	cache      cache.Service
	ttl        time.Duration
	l          *applogger.Logger
}

func NewService(source HeadlineSource, classifier Classifier, c cache.Service, ttl time.Duration, l *applogger.Logger) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{source: source, classifier: classifier, cache: c, ttl: ttl, l: l}
}

// Index fetches headlines, classifies them and averages the mapped scores.
// A symbol with no recent headlines gets a neutral index, not an error.
func (s *Service) Index(ctx context.Context, symbol string) (models.SentimentIndex, error) {
	key := cache.GenerateKey("sentiment", symbol)
	if s.cache != nil {
		var cached models.SentimentIndex
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	texts, err := s.source.Headlines(ctx, symbol)
	if err != nil {
		return models.SentimentIndex{}, fmt.Errorf("headlines for %s: %w", symbol, err)
	}

	idx := models.SentimentIndex{Symbol: symbol, Timestamp: time.Now().UTC()}
	if len(texts) > 0 {
		labels, err := s.classifier.Classify(ctx, texts)
		if err != nil {
			return models.SentimentIndex{}, fmt.Errorf("classify %s: %w", symbol, err)
		}
		v, err := Index(labels)
		if err != nil {
			return models.SentimentIndex{}, err
		}
		idx.Index = v
		idx.Samples = len(labels)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, idx, s.ttl); err != nil && s.l != nil {
			s.l.Warn("sentiment cache set failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	if s.l != nil {
		s.l.Debug("sentiment index computed",
			applogger.String("symbol", symbol),
			applogger.Float64("index", idx.Index),
			applogger.Int("samples", idx.Samples),
		)
	}
	return idx, nil
}
