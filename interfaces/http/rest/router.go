package rest

import (
	"fmt"
	"net/http"

	"diary-backend/application/commands/bus"
	"diary-backend/application/ports"
	querybus "diary-backend/application/queries/bus"
	"diary-backend/interfaces/http/rest/handlers"
	"diary-backend/interfaces/http/rest/middleware"
	"diary-backend/pkg/auth"
	pkgerrors "diary-backend/pkg/errors"
	"diary-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options controls the optional parts of the router.
type Options struct {
	// CORSOrigins enables CORS for these origins when non-empty.
	CORSOrigins []string
	// AILimiter throttles AI-backed endpoints per user when set.
	AILimiter middleware.Limiter
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	graph      ports.GraphStore
	validator  *auth.JWTValidator
	errors     *pkgerrors.ErrorHandler
	collector  *observability.Collector
	tracer     *observability.Tracer
	opts       Options
	logger     *zap.Logger

	live *handlers.LiveHandler
}

// NewRouter creates a new router instance. collector and tracer may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	graph ports.GraphStore,
	validator *auth.JWTValidator,
	errorHandler *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		graph:      graph,
		validator:  validator,
		errors:     errorHandler,
		collector:  collector,
		tracer:     tracer,
		opts:       opts,
		logger:     logger,
		live:       handlers.NewLiveHandler(queryBus, graph, errorHandler, logger),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	var recorder middleware.HTTPRecorder
	if rt.collector != nil {
		recorder = rt.collector
	}
	router.Use(middleware.Logger(rt.logger, recorder))
	router.Use(middleware.Trace(rt.tracer))

	if len(rt.opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	maps := handlers.NewMapHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	nodes := handlers.NewNodeHandler(rt.commandBus, rt.errors, rt.logger)
	summaries := handlers.NewSummaryHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	reports := handlers.NewReportHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.errors, rt.logger))

		r.Route("/maps", func(r chi.Router) {
			r.Get("/", maps.ListMaps)
			r.Post("/", maps.CreateMap)

			r.Route("/{mapID}", func(r chi.Router) {
				r.Get("/", maps.GetMap)
				r.Put("/", maps.RenameMap)
				r.Delete("/", maps.DeleteMap)
				r.Put("/content", maps.UpdateContent)
				r.Get("/graph", maps.GetGraph)
				r.Get("/markdown", maps.GetMarkdown)
				r.With(rt.aiLimit("summary")).Post("/summary", summaries.SummarizeMap)

				r.Post("/nodes", nodes.CreateNode)
				r.Route("/nodes/{nodeID}", func(r chi.Router) {
					r.Patch("/", nodes.UpdateNode)
					r.Delete("/", nodes.DeleteNode)
					r.Put("/position", nodes.MoveNode)
					r.Post("/children", nodes.CreateChild)
					r.With(rt.aiLimit("ideas")).Post("/brainstorm", nodes.Brainstorm)
					r.Post("/select", nodes.SelectChoice)
					r.Post("/choices/reset", nodes.ResetChoices)
				})
				r.Post("/edges", nodes.Connect)

				r.Get("/live", rt.live.Stream)
				r.Route("/live/{sessionID}", func(r chi.Router) {
					r.Post("/select", rt.live.Select)
					r.Post("/drag", rt.live.Drag)
					r.Post("/drag-stop", rt.live.DragStop)
					r.Post("/connect", rt.live.Connect)
				})
			})
		})

		r.Route("/days/{date}", func(r chi.Router) {
			r.Get("/maps", summaries.MapsOnDate)
			r.With(rt.aiLimit("summary")).Post("/summary", summaries.SummarizeDate)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", reports.ListReports)
			r.With(rt.aiLimit("report")).Post("/generate", reports.GenerateReports)
			r.Get("/{reportID}", reports.GetReport)
			r.Delete("/{reportID}", reports.DeleteReport)
		})

		r.With(rt.aiLimit("ideas")).Get("/ideas", summaries.TopicIdeas)
		r.Get("/search", maps.Search)
	})

	return router
}

// aiLimit throttles an AI-backed route when a limiter is configured.
func (rt *Router) aiLimit(service string) func(http.Handler) http.Handler {
	if rt.opts.AILimiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(rt.opts.AILimiter, service, rt.errors, rt.logger)
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready along with the number of open live streams.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ready","liveSessions":%d}`, rt.live.Sessions())
}
