package repository

import (
	"context"

	"AlphaCast/internal/domain/models"
	domrepo "AlphaCast/internal/domain/repository"
	pkgkafka "AlphaCast/pkg/kafka"
)

// KafkaPublisher pushes forecast results and raw trades onto Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishForecast(ctx context.Context, f *models.ForecastResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(f.Symbol), f)
}

func (p *KafkaPublisher) PublishTrades(ctx context.Context, trades []*models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(trades))
	for i, t := range trades {
		msgs[i] = pkgkafka.Message{
			Key: []byte(t.Symbol),
			Value: map[string]interface{}{
				"symbol": t.Symbol,
				"t":      t.Timestamp,
				"c":      t.Price,
				"v":      t.Volume,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic+".ticks", msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
