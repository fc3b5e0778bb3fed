package di

import (
	"diary-backend/application/commands/bus"
	"diary-backend/application/ports"
	querybus "diary-backend/application/queries/bus"
	"diary-backend/application/services"
	"diary-backend/infrastructure/config"
	"diary-backend/interfaces/http/rest"
	"diary-backend/pkg/auth"
	"diary-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Store ports.DocumentStore
	Graph ports.GraphStore
	Maps  ports.MapRepository

	MindMaps  *services.MindMapService
	Deletion  *services.DeletionService
	Summaries *services.SummaryService
	Reports   *services.ReportService
	MapsSvc   *services.MapService
	AI        ports.AIGateway

	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Router     *rest.Router
	JWT        auth.JWTConfig

	Collector *observability.Collector
	Tracer    *observability.Tracer
	Metrics   *observability.Metrics
}
