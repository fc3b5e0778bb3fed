package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"diary-backend/application/commands/bus"
	commandhandlers "diary-backend/application/commands/handlers"
	"diary-backend/application/ports"
	querybus "diary-backend/application/queries/bus"
	queryhandlers "diary-backend/application/queries/handlers"
	"diary-backend/application/services"
	domainconfig "diary-backend/domain/config"
	"diary-backend/infrastructure/ai"
	"diary-backend/infrastructure/config"
	"diary-backend/infrastructure/messaging"
	"diary-backend/infrastructure/messaging/eventbridge"
	"diary-backend/infrastructure/persistence/docstore"
	"diary-backend/infrastructure/persistence/dynamodb"
	"diary-backend/infrastructure/persistence/instrumented"
	"diary-backend/infrastructure/persistence/memory"
	"diary-backend/infrastructure/persistence/sqlite"
	"diary-backend/interfaces/http/rest"
	"diary-backend/interfaces/http/rest/middleware"
	"diary-backend/pkg/auth"
	pkgerrors "diary-backend/pkg/errors"
	"diary-backend/pkg/observability"
	"diary-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

const (
	serviceName = "diary-backend"

	// devJWTSecret signs tokens outside production when JWT_SECRET is unset.
	devJWTSecret = "development-secret-change-in-production"

	reportCacheTTL     = 300
	cacheSweepInterval = time.Minute
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}
	return zcfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCollector returns the Prometheus collector, or nil when metrics are disabled.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("diary")
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideCloudWatchMetrics creates the CloudWatch publisher used by scheduled jobs
func ProvideCloudWatchMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("Diary/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideDomainConfig derives the business constants from the configuration
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.Domain()
}

// ProvideClock returns the wall clock
func ProvideClock() ports.Clock {
	return utils.SystemClock{}
}

// ProvideDocumentStore opens the configured backend and decorates it with
// metrics and tracing. The cleanup closes the backend.
func ProvideDocumentStore(
	cfg *config.Config,
	client *awsdynamodb.Client,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (ports.DocumentStore, func(), error) {
	var store interface {
		ports.DocumentStore
		io.Closer
	}
	switch cfg.StoreBackend {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case config.StoreDynamoDB:
		store = dynamodb.NewStore(client, cfg.DynamoDBTable, cfg.SubscriptionPollInterval, logger)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	logger.Info("Document store ready", zap.String("backend", cfg.StoreBackend))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close document store", zap.Error(err))
		}
	}
	return instrumented.NewStore(store, collector, tracer), cleanup, nil
}

// ProvideAdapter maps domain entities onto the document store
func ProvideAdapter(store ports.DocumentStore, clock ports.Clock, logger *zap.Logger) *docstore.Adapter {
	return docstore.NewAdapter(store, clock, logger)
}

// ProvideGraphStore exposes the adapter as the graph store
func ProvideGraphStore(adapter *docstore.Adapter) ports.GraphStore {
	return adapter
}

// ProvideMapRepository exposes the adapter as the map repository
func ProvideMapRepository(adapter *docstore.Adapter) ports.MapRepository {
	return adapter
}

// ProvideReportRepository returns the report collection store
func ProvideReportRepository(adapter *docstore.Adapter) ports.ReportRepository {
	return adapter.Reports()
}

// ProvideLocker returns a DynamoDB lease lock for the DynamoDB backend and a
// process-local lock otherwise.
func ProvideLocker(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.Locker {
	if cfg.StoreBackend == config.StoreDynamoDB {
		return dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, logger)
	}
	return memory.NewLocker()
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured and
// to the log otherwise.
func ProvideEventPublisher(
	cfg *config.Config,
	client *awseventbridge.Client,
	collector *observability.Collector,
	logger *zap.Logger,
) ports.EventPublisher {
	var next messaging.Publisher = messaging.NewLogPublisher(logger)
	if cfg.EventBusName != "" {
		next = eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return messaging.NewInstrumentedPublisher(next, collector)
}

// ProvideTextGenerator creates the OpenRouter client
func ProvideTextGenerator(cfg *config.Config, logger *zap.Logger) ports.TextGenerator {
	return ai.NewOpenRouterGenerator(cfg.OpenRouterAPIKey, cfg.AIModel, logger)
}

// ProvideAIGateway wraps the generator with retries, the circuit breaker and metrics
func ProvideAIGateway(
	gen ports.TextGenerator,
	domain *domainconfig.DomainConfig,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) ports.AIGateway {
	return ai.NewGateway(gen, domain, collector, tracer, logger)
}

// ProvideMindMapService creates the graph editing service
func ProvideMindMapService(
	graph ports.GraphStore,
	gateway ports.AIGateway,
	publisher ports.EventPublisher,
	domain *domainconfig.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *services.MindMapService {
	return services.NewMindMapService(graph, gateway, publisher, domain, clock, logger)
}

// ProvideDeletionService creates the cascade delete service
func ProvideDeletionService(graph ports.GraphStore, publisher ports.EventPublisher, clock ports.Clock, logger *zap.Logger) *services.DeletionService {
	return services.NewDeletionService(graph, publisher, clock, logger)
}

// ProvideSummaryService creates the summary service
func ProvideSummaryService(
	maps ports.MapRepository,
	graph ports.GraphStore,
	gateway ports.AIGateway,
	publisher ports.EventPublisher,
	domain *domainconfig.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *services.SummaryService {
	return services.NewSummaryService(maps, graph, gateway, publisher, domain, clock, logger)
}

// ProvideReportService creates the report service
func ProvideReportService(
	reports ports.ReportRepository,
	maps ports.MapRepository,
	summaries *services.SummaryService,
	gateway ports.AIGateway,
	locker ports.Locker,
	publisher ports.EventPublisher,
	domain *domainconfig.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *services.ReportService {
	return services.NewReportService(reports, maps, summaries, gateway, locker, publisher, domain, clock, logger)
}

// ProvideMapService creates the map collection service
func ProvideMapService(
	maps ports.MapRepository,
	graph ports.GraphStore,
	mindmaps *services.MindMapService,
	publisher ports.EventPublisher,
	domain *domainconfig.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *services.MapService {
	return services.NewMapService(maps, graph, mindmaps, publisher, domain, clock, logger)
}

// ProvideCache creates the query result cache. The cleanup stops its sweeper.
func ProvideCache(collector *observability.Collector) (ports.Cache, func()) {
	var recorder CacheRecorder
	if collector != nil {
		recorder = collector
	}
	cache := NewInMemoryCache(recorder, cacheSweepInterval)
	return cache, cache.Close
}

// ProvideCachingMiddleware caches report lookups. The command side shares it
// to invalidate deleted reports.
func ProvideCachingMiddleware(cache ports.Cache) *querybus.CachingMiddleware {
	return querybus.NewCachingMiddleware(cache, reportCacheTTL)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	maps *services.MapService,
	mindmaps *services.MindMapService,
	deletion *services.DeletionService,
	summaries *services.SummaryService,
	reports *services.ReportService,
	caching *querybus.CachingMiddleware,
	collector *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	middlewares := []bus.Middleware{bus.LoggingMiddleware(logger)}
	if collector != nil {
		middlewares = append(middlewares, bus.MetricsMiddleware(collector))
	}
	commandBus := bus.NewCommandBus(middlewares...)

	handlers := commandhandlers.NewCommandHandlers(maps, mindmaps, deletion, summaries, reports, caching, logger)
	if err := handlers.Register(commandBus); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	maps *services.MapService,
	mindmaps *services.MindMapService,
	summaries *services.SummaryService,
	reports *services.ReportService,
	gateway ports.AIGateway,
	caching *querybus.CachingMiddleware,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	handlers := queryhandlers.NewQueryHandlers(maps, mindmaps, summaries, reports, gateway, caching, logger)
	if err := handlers.Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideJWTConfig builds the token settings. Outside production a missing
// secret falls back to a fixed development secret.
func ProvideJWTConfig(cfg *config.Config, logger *zap.Logger) auth.JWTConfig {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	return auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  []string{auth.Audience},
	}
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(jwtCfg auth.JWTConfig) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(jwtCfg)
}

// ProvideAILimiter throttles AI-backed requests per user. The DynamoDB backend
// shares the window across instances. A zero limit disables throttling.
func ProvideAILimiter(cfg *config.Config, client *awsdynamodb.Client) middleware.Limiter {
	if cfg.AIRequestsPerMin <= 0 {
		return nil
	}
	if cfg.StoreBackend == config.StoreDynamoDB {
		return auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, cfg.AIRequestsPerMin, time.Minute, "AI")
	}
	return auth.NewUserRateLimiter(auth.NewSlidingWindowLimiter(cfg.AIRequestsPerMin, time.Minute), "ai")
}

// ProvideErrorHandler creates the HTTP error writer. Details are exposed outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, !cfg.IsProduction())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	graph ports.GraphStore,
	validator *auth.JWTValidator,
	errorHandler *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	limiter middleware.Limiter,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.Options{AILimiter: limiter}
	if cfg.EnableCORS {
		opts.CORSOrigins = cfg.CORSOrigins
	}
	return rest.NewRouter(commandBus, queryBus, graph, validator, errorHandler, collector, tracer, opts, logger)
}
