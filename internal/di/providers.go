package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"AlphaCast/internal/domain/repository"
	domsvc "AlphaCast/internal/domain/service"
	"AlphaCast/internal/forecast"
	"AlphaCast/internal/handler/api"
	"AlphaCast/internal/portfolio"
	internalrepo "AlphaCast/internal/repository"
	"AlphaCast/internal/sentiment"
	"AlphaCast/internal/service/marketdata"
	"AlphaCast/internal/usecase"
	"AlphaCast/pkg/cache"
	pkgch "AlphaCast/pkg/clickhouse"
	"AlphaCast/pkg/config"
	xhttp "AlphaCast/pkg/http"
	pkgkafka "AlphaCast/pkg/kafka"
	applogger "AlphaCast/pkg/logger"
	"AlphaCast/pkg/metrics"
	"AlphaCast/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates the ticks consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideTickStore creates the ClickHouse raw tick writer.
func ProvideTickStore(chClient *pkgch.Client) repository.TickStore {
	return internalrepo.NewCHTickStore(chClient)
}

// ProvideTicksHandler creates the Kafka handler persisting raw ticks.
func ProvideTicksHandler(cfg *config.Config, store repository.TickStore, m repository.Metrics, l *applogger.Logger) *usecase.TicksPersistHandler {
	return usecase.NewTicksPersistHandler(cfg.Kafka.Topic+".ticks", store, m, l, 0, 0)
}

// ProvideCache picks Redis when enabled, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	host := cfg.Redis.Addr
	port := 6379
	if h, p, err := net.SplitHostPort(cfg.Redis.Addr); err == nil {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePriceStore creates the ClickHouse candle reader.
func ProvidePriceStore(chClient *pkgch.Client, l *applogger.Logger) repository.PriceStore {
	store := internalrepo.NewCHPriceStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideForecastStore creates the ClickHouse forecast repository.
func ProvideForecastStore(chClient *pkgch.Client) repository.ForecastStore {
	return internalrepo.NewCHForecastStore(chClient)
}

// ProvidePublisher creates the Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideLocker creates the distributed run lock.
func ProvideLocker(c cache.Service) repository.Locker {
	return internalrepo.NewCacheLocker(c)
}

// ProvideSentiment creates the HTTP sentiment service. The classifier
// endpoint serves both headlines and labels.
func ProvideSentiment(cfg *config.Config, c cache.Service, l *applogger.Logger) domsvc.SentimentProvider {
	client := sentiment.NewHTTPClient(cfg.Sentiment.ServiceURL, cfg.Sentiment.Timeout)
	return sentiment.NewService(client, client, c, cfg.Sentiment.CacheTTL, l)
}

// ProvideOptimizer creates the portfolio optimizer.
func ProvideOptimizer(cfg *config.Config) (domsvc.PortfolioOptimizer, error) {
	return portfolio.NewOptimizer(cfg.Portfolio.Objective, cfg.Portfolio.TargetReturn, cfg.Portfolio.RiskFreeRate)
}

// ProvideMarketStream creates the WebSocket tick feed client.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return marketdata.New(
		cfg.Stream.APIKey,
		cfg.Stream.URL,
		cfg.Forecast.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
}

// ProvideStreamIngest creates the live tick ingestion use case, or nil when
// the stream is disabled.
func ProvideStreamIngest(
	cfg *config.Config,
	stream repository.MarketStream,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.StreamIngest {
	if !cfg.Stream.Enabled {
		return nil
	}
	return usecase.NewStreamIngest(stream, pub, m, l, 0, 0)
}

// ProvideForecastRunner creates the batch forecasting pipeline.
func ProvideForecastRunner(
	cfg *config.Config,
	prices repository.PriceStore,
	store repository.ForecastStore,
	pub repository.Publisher,
	senti domsvc.SentimentProvider,
	opt domsvc.PortfolioOptimizer,
	c cache.Service,
	locker repository.Locker,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ForecastRunner {
	return usecase.NewForecastRunner(runnerConfig(cfg), prices, store, pub, senti, opt, c, locker, m, l)
}

// runnerConfig translates YAML settings into the pipeline config.
func runnerConfig(cfg *config.Config) usecase.RunnerConfig {
	f := cfg.Forecast
	hybrid := forecast.HybridConfig{
		P:          f.P,
		Q:          f.Q,
		TimeSteps:  f.TimeSteps,
		TrainSplit: f.TrainSplit,
		LSTM: forecast.LSTMConfig{
			HiddenSize:   f.LSTM.HiddenSize,
			Epochs:       f.LSTM.Epochs,
			BatchSize:    f.LSTM.BatchSize,
			Patience:     f.LSTM.Patience,
			LearningRate: f.LSTM.LearningRate,
			Dropout:      f.LSTM.Dropout,
		},
	}
	return usecase.RunnerConfig{
		Symbols:   f.Symbols,
		Timeframe: repository.NormalizeTimeframe(f.Timeframe),
		Steps:     f.Steps,
		Lookback:  f.Lookback,
		Holdout:   f.Holdout,
		Interval:  f.Interval,
		CacheTTL:  f.CacheTTL,
		Seed:      f.Seed,
		Hybrid:    hybrid,
	}
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(l *applogger.Logger, runner *usecase.ForecastRunner, store repository.ForecastStore, prices repository.PriceStore) xhttp.Handler {
	return api.NewForecastEchoHandler(l, runner, store, prices)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.ForecastRunner,
	ingest *usecase.StreamIngest,
	consumer *pkgkafka.Consumer,
	ticksHandler *usecase.TicksPersistHandler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, runner, ingest, consumer, ticksHandler, handler, chClient, producer)
}
