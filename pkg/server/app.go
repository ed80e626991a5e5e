package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PerfectRatio/internal/usecase"
	"PerfectRatio/pkg/config"
	xhttp "PerfectRatio/pkg/http"
	pkgkafka "PerfectRatio/pkg/kafka"
	applogger "PerfectRatio/pkg/logger"
)

// Closer is an infrastructure resource released at shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// Closers are released in order after the servers stop.
type Closers []Closer

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	svc        *usecase.CurveService
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	closers    Closers
}

// New creates a new App. consumer and kh may be nil when the event consumer is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	svc *usecase.CurveService,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	closers Closers,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		svc:        svc,
		consumer:   consumer,
		kh:         kh,
		closers:    closers,
	}
}

// Run starts the HTTP server and the event consumer, then blocks until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return errors.Join(err, a.shutdown())
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return errors.Join(err, a.shutdown())
	}

	a.log.Info("perfectratio started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
		applogger.Bool("consumer", a.consumer != nil),
		applogger.Bool("clickhouse", a.cfg.ClickHouse.Enabled),
		applogger.Bool("redis", a.cfg.Redis.Enabled),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then drains background work, then closes clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	// the collector flushes through the producer, so it goes before the publisher
	a.log.RemoveCollector()

	// waits for in-flight event publishes, then closes the publisher
	if a.svc != nil {
		if err := a.svc.Close(); err != nil {
			a.log.Warn("solve event publisher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for _, c := range a.closers {
		if c.Close == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg != nil && a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 15 * time.Second
}
