package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"AlphaCast/internal/usecase"
	pkgch "AlphaCast/pkg/clickhouse"
	"AlphaCast/pkg/config"
	xhttp "AlphaCast/pkg/http"
	pkgkafka "AlphaCast/pkg/kafka"
	applogger "AlphaCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	l            *applogger.Logger
	runner       *usecase.ForecastRunner
	ingest       *usecase.StreamIngest
	consumer     *pkgkafka.Consumer
	ticksHandler *usecase.TicksPersistHandler
	handler      xhttp.Handler
	chClient     *pkgch.Client
	producer     *pkgkafka.Producer

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. ingest and consumer
// may be nil when the live stream or the ticks consumer is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.ForecastRunner,
	ingest *usecase.StreamIngest,
	consumer *pkgkafka.Consumer,
	ticksHandler *usecase.TicksPersistHandler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:          cfg,
		l:            l,
		runner:       runner,
		ingest:       ingest,
		consumer:     consumer,
		ticksHandler: ticksHandler,
		handler:      handler,
		chClient:     chClient,
		producer:     producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Batch forecasting loop
	go a.runner.Start(ctx)
	a.l.Info("forecast runner started",
		applogger.Strings("symbols", a.cfg.Forecast.Symbols),
		applogger.Duration("interval_ms", a.cfg.Forecast.Interval),
	)

	// Live tick ingestion, optional
	if a.ingest != nil {
		if err := a.ingest.Start(ctx); err != nil {
			a.l.Error("stream ingest start error", applogger.Error(err))
		} else {
			a.l.Info("stream ingest started")
		}
	}

	// Raw tick persistence from the bus, optional
	if a.consumer != nil && a.ticksHandler != nil {
		a.consumer.RegisterHandler(a.ticksHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.ticksHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.ingest != nil {
		if err := a.ingest.Stop(); err != nil {
			a.l.Warn("stream ingest stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		stopCtx, cancelStop := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		if err := a.consumer.Stop(stopCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
		cancelStop()
		if a.ticksHandler != nil {
			if err := a.ticksHandler.Flush(ctx); err != nil {
				a.l.Warn("tick flush error", applogger.Error(err))
			}
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
