// Package handlers answers queries from the application services.
package handlers

import (
	"context"

	"diary-backend/application/ports"
	"diary-backend/application/queries"
	"diary-backend/application/queries/bus"
	"diary-backend/application/services"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

// QueryHandlers holds the services every query handler needs.
type QueryHandlers struct {
	maps      *services.MapService
	mindmaps  *services.MindMapService
	summaries *services.SummaryService
	reports   *services.ReportService
	ai        ports.AIGateway
	cache     *bus.CachingMiddleware
	logger    *zap.Logger
}

// NewQueryHandlers creates the query handler set. cache may be nil.
func NewQueryHandlers(
	maps *services.MapService,
	mindmaps *services.MindMapService,
	summaries *services.SummaryService,
	reports *services.ReportService,
	ai ports.AIGateway,
	cache *bus.CachingMiddleware,
	logger *zap.Logger,
) *QueryHandlers {
	return &QueryHandlers{
		maps:      maps,
		mindmaps:  mindmaps,
		summaries: summaries,
		reports:   reports,
		ai:        ai,
		cache:     cache,
		logger:    logger,
	}
}

func handle[Q bus.Query](fn func(ctx context.Context, q Q) (interface{}, error)) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, q bus.Query) (interface{}, error) {
		typed, ok := q.(Q)
		if !ok {
			return nil, pkgerrors.NewInternalError("unexpected query type")
		}
		return fn(ctx, typed)
	})
}

// Register adds a handler for every query to b.
func (h *QueryHandlers) Register(b *bus.QueryBus) error {
	getReport := handle(h.getReport)
	if h.cache != nil {
		getReport = h.cache.Wrap(getReport)
	}

	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.ListMapsQuery{}, handle(h.listMaps)},
		{queries.GetMapQuery{}, handle(h.getMap)},
		{queries.GetGraphQuery{}, handle(h.getGraph)},
		{queries.GetMarkdownQuery{}, handle(h.getMarkdown)},
		{queries.SearchMapsQuery{}, handle(h.searchMaps)},
		{queries.MapsOnDateQuery{}, handle(h.mapsOnDate)},
		{queries.ListReportsQuery{}, handle(h.listReports)},
		{queries.GetReportQuery{}, getReport},
		{queries.TopicIdeasQuery{}, handle(h.topicIdeas)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *QueryHandlers) listMaps(ctx context.Context, q queries.ListMapsQuery) (interface{}, error) {
	return h.maps.List(ctx, q.UserID)
}

func (h *QueryHandlers) getMap(ctx context.Context, q queries.GetMapQuery) (interface{}, error) {
	return h.maps.Get(ctx, q.UserID, q.MapID)
}

func (h *QueryHandlers) getGraph(ctx context.Context, q queries.GetGraphQuery) (interface{}, error) {
	m, err := h.maps.Get(ctx, q.UserID, q.MapID)
	if err != nil {
		return nil, err
	}
	nodes, edges, err := h.mindmaps.Graph(ctx, q.UserID, q.MapID)
	if err != nil {
		return nil, err
	}
	return queries.GraphResult{Map: m, Nodes: nodes, Edges: edges}, nil
}

func (h *QueryHandlers) getMarkdown(ctx context.Context, q queries.GetMarkdownQuery) (interface{}, error) {
	md, err := h.summaries.Markdown(ctx, q.UserID, q.MapID)
	if err != nil {
		return nil, err
	}
	return queries.MarkdownResult{MapID: q.MapID, Markdown: md}, nil
}

func (h *QueryHandlers) searchMaps(ctx context.Context, q queries.SearchMapsQuery) (interface{}, error) {
	return h.maps.Search(ctx, q.UserID, q.Query)
}

func (h *QueryHandlers) mapsOnDate(ctx context.Context, q queries.MapsOnDateQuery) (interface{}, error) {
	return h.summaries.MapsOnDate(ctx, q.UserID, q.Date)
}

func (h *QueryHandlers) listReports(ctx context.Context, q queries.ListReportsQuery) (interface{}, error) {
	return h.reports.List(ctx, q.UserID)
}

func (h *QueryHandlers) getReport(ctx context.Context, q queries.GetReportQuery) (interface{}, error) {
	return h.reports.Get(ctx, q.UserID, q.ReportID)
}

func (h *QueryHandlers) topicIdeas(ctx context.Context, q queries.TopicIdeasQuery) (interface{}, error) {
	ideas, err := h.ai.GenerateTopicIdeas(ctx, q.Topic)
	if err != nil {
		return nil, err
	}
	if ideas == nil {
		ideas = []string{}
	}
	return queries.IdeasResult{Ideas: ideas}, nil
}
