//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"PerfectRatio/internal/handler/api"
	"PerfectRatio/pkg/config"
	"PerfectRatio/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideHTTPMetrics,
	ProvideKafkaMetrics,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideKafkaConsumer,
	ProvideCache,
	ProvideClosers,
)

var curveSet = wire.NewSet(
	ProvideSolveEventStore,
	ProvideSolveEventPublisher,
	ProvideSolveEventHandler,
	ProvideBaseParameters,
	ProvideCurveSolver,
	ProvideCurveService,
	ProvideRateLimiter,
	ProvideStreamLimiter,
	ProvideHealthChecks,
	api.NewCurveEchoHandler,
	ProvideCurveWSHandler,
	ProvideHTTPServer,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		infraSet,
		curveSet,
		ProvideApp,
	)
	return &server.App{}, nil
}
