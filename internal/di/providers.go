package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/domain/repository"
	"PerfectRatio/internal/handler/api"
	internalrepo "PerfectRatio/internal/repository"
	"PerfectRatio/internal/service/ratelimit"
	"PerfectRatio/internal/usecase"
	"PerfectRatio/pkg/cache"
	pkgch "PerfectRatio/pkg/clickhouse"
	"PerfectRatio/pkg/config"
	xhttp "PerfectRatio/pkg/http"
	"PerfectRatio/pkg/http/middleware"
	pkgkafka "PerfectRatio/pkg/kafka"
	applogger "PerfectRatio/pkg/logger"
	"PerfectRatio/pkg/metrics"
	"PerfectRatio/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry every collector registers on.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

func ProvideHTTPMetrics(reg *prometheus.Registry) *middleware.HTTPMetrics {
	return middleware.NewHTTPMetrics(reg)
}

func ProvideKafkaMetrics(reg *prometheus.Registry) *pkgkafka.Metrics {
	return pkgkafka.NewMetrics(reg)
}

// ProvideClickHouseClient creates a ClickHouse client and its schema. It
// returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
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

	if cfg.ClickHouse.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, pkgch.SolveEventsSchema(cfg.ClickHouse.Database)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, km *pkgkafka.Metrics) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerMetrics(km),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the solve-event consumer, or nil when it is disabled.
func ProvideKafkaConsumer(cfg *config.Config, km *pkgkafka.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
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
		pkgkafka.WithConsumerMetrics(km),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook()))
	return consumer, nil
}

// ProvideSolveEventStore creates the ClickHouse store, or nil without ClickHouse.
func ProvideSolveEventStore(ch *pkgch.Client, cfg *config.Config) repository.SolveEventStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseSolveEventStore(ch.DB(), cfg.ClickHouse.Database+"."+pkgch.SolveEventsTable)
}

// ProvideSolveEventPublisher picks Kafka when enabled, a direct ClickHouse
// write when only ClickHouse is enabled, and a no-op otherwise.
func ProvideSolveEventPublisher(producer *pkgkafka.Producer, store repository.SolveEventStore, cfg *config.Config) repository.SolveEventPublisher {
	switch {
	case producer != nil:
		return internalrepo.NewKafkaSolveEventPublisher(producer, cfg.Kafka.SolveEventsTopic)
	case store != nil:
		return internalrepo.NewStoreSolveEventPublisher(store)
	default:
		return internalrepo.NoopSolveEventPublisher{}
	}
}

// ProvideSolveEventHandler creates the consumer handler, or nil without a store.
func ProvideSolveEventHandler(cfg *config.Config, store repository.SolveEventStore, m repository.Metrics) pkgkafka.MessageHandler {
	if store == nil {
		return nil
	}
	return usecase.NewSolveEventHandler(cfg.Kafka.SolveEventsTopic, store, m)
}

// ProvideCache creates the rate limiter store: Redis when enabled, in-memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideRateLimiter creates the API limiter, or nil when limiting is disabled.
func ProvideRateLimiter(cfg *config.Config, store cache.Service) *ratelimit.FixedWindow {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.NewFixedWindow(store, cfg.RateLimit.Requests, cfg.RateLimit.Window)
}

// ProvideStreamLimiter creates the per-connection WebSocket limiter.
func ProvideStreamLimiter(cfg *config.Config) *ratelimit.TokenBucket {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.WSPerSecond <= 0 {
		return nil
	}
	return ratelimit.NewTokenBucket(float64(cfg.RateLimit.WSBurst), cfg.RateLimit.WSPerSecond)
}

// ProvideBaseParameters maps the curve section onto solver parameters.
func ProvideBaseParameters(cfg *config.Config) models.CurveParameters {
	p := models.DefaultCurveParameters()
	p.TargetSuccessRate = cfg.Curve.TargetSuccessRate
	p.TargetTurnRule = models.TargetTurnRule(cfg.Curve.TurnRule)
	p.DrawConvention = models.DrawConvention(cfg.Curve.DrawConvention)
	p.ProbabilityModel = models.ProbabilityModel(cfg.Curve.Model)
	p.OpeningHandSize = cfg.Curve.OpeningHandSize
	p.RequiredDeckSize = cfg.Curve.RequiredDeckSize
	return p
}

func ProvideCurveSolver() *usecase.CurveSolver {
	return usecase.NewCurveSolver()
}

func ProvideCurveService(
	solver *usecase.CurveSolver,
	pub repository.SolveEventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	base models.CurveParameters,
) *usecase.CurveService {
	return usecase.NewCurveService(solver, pub, m, l, usecase.WithBaseParameters(base))
}

// ProvideHealthChecks probes the enabled dependencies.
func ProvideHealthChecks(store cache.Service, ch *pkgch.Client) api.HealthChecks {
	checks := api.HealthChecks{"cache": store.Ping}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	return checks
}

func ProvideCurveWSHandler(cfg *config.Config, l *applogger.Logger, svc *usecase.CurveService, tb *ratelimit.TokenBucket) *api.CurveWSHandler {
	return api.NewCurveWSHandler(l, svc, tb, cfg.Server.CORSOrigins)
}

// ProvideHTTPServer creates the echo server with the REST and WebSocket routes.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	rest *api.CurveEchoHandler,
	ws *api.CurveWSHandler,
	hm *middleware.HTTPMetrics,
	reg *prometheus.Registry,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, hm, reg))
	} else {
		opts = append(opts, xhttp.WithMetrics("", nil, nil))
	}
	return xhttp.NewServer(l, []xhttp.Handler{rest, ws}, opts...)
}

// ProvideClosers lists the clients the app releases at shutdown.
func ProvideClosers(store cache.Service, ch *pkgch.Client) server.Closers {
	closers := server.Closers{{Name: "cache", Close: store.Close}}
	if ch != nil {
		closers = append(closers, server.Closer{Name: "clickhouse", Close: ch.Close})
	}
	return closers
}

// ProvideApp creates the application server. Error logs are shipped to the
// logs topic when Kafka is enabled.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	svc *usecase.CurveService,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	closers server.Closers,
) *server.App {
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Kafka.LogsTopic,
			Publisher: producer,
		})
	}
	return server.New(cfg, l, srv, svc, consumer, kh, closers)
}
