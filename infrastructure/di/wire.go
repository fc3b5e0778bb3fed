//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"diary-backend/infrastructure/config"

	"github.com/google/wire"
)

// AWSSet provides the AWS SDK clients
var AWSSet = wire.NewSet(
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
)

// ObservabilitySet provides logging, metrics and tracing
var ObservabilitySet = wire.NewSet(
	ProvideLogger,
	ProvideCollector,
	ProvideTracer,
	ProvideCloudWatchMetrics,
)

// PersistenceSet provides the document store and the repositories over it
var PersistenceSet = wire.NewSet(
	ProvideClock,
	ProvideDocumentStore,
	ProvideAdapter,
	ProvideGraphStore,
	ProvideMapRepository,
	ProvideReportRepository,
	ProvideLocker,
	ProvideCache,
)

// ApplicationSet provides services and buses
var ApplicationSet = wire.NewSet(
	ProvideDomainConfig,
	ProvideEventPublisher,
	ProvideTextGenerator,
	ProvideAIGateway,
	ProvideMindMapService,
	ProvideDeletionService,
	ProvideSummaryService,
	ProvideReportService,
	ProvideMapService,
	ProvideCachingMiddleware,
	ProvideCommandBus,
	ProvideQueryBus,
)

// HTTPSet provides the router and its security
var HTTPSet = wire.NewSet(
	ProvideJWTConfig,
	ProvideJWTValidator,
	ProvideAILimiter,
	ProvideErrorHandler,
	ProvideRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	AWSSet,
	ObservabilitySet,
	PersistenceSet,
	ApplicationSet,
	HTTPSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
