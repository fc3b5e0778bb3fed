package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"diary-backend/application/commands/bus"
	commandhandlers "diary-backend/application/commands/handlers"
	"diary-backend/application/ports"
	querybus "diary-backend/application/queries/bus"
	queryhandlers "diary-backend/application/queries/handlers"
	"diary-backend/application/services"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/infrastructure/messaging"
	"diary-backend/infrastructure/persistence/docstore"
	"diary-backend/infrastructure/persistence/memory"
	"diary-backend/pkg/auth"
	pkgerrors "diary-backend/pkg/errors"
	"diary-backend/pkg/observability"
	"diary-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAI struct {
	ideas []string
}

func (s *stubAI) GenerateIdeas(ctx context.Context, req ports.IdeaRequest) ([]string, error) {
	return s.ideas, nil
}

func (s *stubAI) GenerateTopicIdeas(ctx context.Context, topic string) ([]string, error) {
	return s.ideas, nil
}

func (s *stubAI) SummarizeDiary(ctx context.Context, markdown string) ports.DiarySummary {
	return ports.DiarySummary{Summary: "A calm day", Emotion: "😌", Financials: []entities.FinancialItem{}}
}

func (s *stubAI) GenerateReport(ctx context.Context, req ports.ReportRequest) (ports.ReportContent, error) {
	return ports.ReportContent{Summary: "week", Chronological: "first", Emotion: "🙂"}, nil
}

type testCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func (c *testCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *testCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

type testServer struct {
	handler   http.Handler
	token     string
	collector *observability.Collector
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	clock := &utils.FixedClock{T: time.Date(2024, 8, 14, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	adapter := docstore.NewAdapter(store, clock, logger)
	ai := &stubAI{ideas: []string{"Coffee", "Walk"}}
	publisher := messaging.NewLogPublisher(logger)

	mindmaps := services.NewMindMapService(adapter, ai, publisher, cfg, clock, logger)
	deletion := services.NewDeletionService(adapter, publisher, clock, logger)
	summaries := services.NewSummaryService(adapter, adapter, ai, publisher, cfg, clock, logger)
	reports := services.NewReportService(adapter.Reports(), adapter, summaries, ai, memory.NewLocker(), publisher, cfg, clock, logger)
	maps := services.NewMapService(adapter, adapter, mindmaps, publisher, cfg, clock, logger)

	caching := querybus.NewCachingMiddleware(&testCache{items: map[string]interface{}{}}, 300)
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, commandhandlers.NewCommandHandlers(maps, mindmaps, deletion, summaries, reports, caching, logger).Register(commandBus))
	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewQueryHandlers(maps, mindmaps, summaries, reports, ai, caching, logger).Register(queryBus))

	jwtCfg := auth.JWTConfig{SecretKey: "test-secret", Issuer: "diary-backend", Audience: []string{auth.Audience}}
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)
	generator, err := auth.NewJWTGenerator(jwtCfg)
	require.NoError(t, err)
	token, err := generator.GenerateToken("user-1", "user@example.com", nil)
	require.NoError(t, err)

	collector := observability.NewCollector("diary_test")
	router := NewRouter(commandBus, queryBus, adapter, validator, pkgerrors.NewErrorHandler(logger, false),
		collector, nil, opts, logger)

	return &testServer{handler: router.Setup(), token: token, collector: collector}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (s *testServer) createMap(t *testing.T, title string) entities.Map {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/maps", map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[entities.Map](t, rec)
}

func TestRouter_Health(t *testing.T) {
	// Arrange
	srv := newTestServer(t, Options{})

	// Act
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_Authentication(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing token", header: ""},
		{name: "malformed header", header: "Token abc"},
		{name: "bad signature", header: "Bearer eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newTestServer(t, Options{})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/maps", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			// Act
			srv.handler.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decode[pkgerrors.ErrorResponse](t, rec)
			assert.True(t, body.Error)
			assert.Equal(t, string(pkgerrors.ErrorTypeUnauthorized), body.Type)
		})
	}
}

func TestRouter_MapLifecycle(t *testing.T) {
	// Arrange
	srv := newTestServer(t, Options{})
	m := srv.createMap(t, "Trip")

	// Act
	renamed := srv.do(t, http.MethodPut, "/api/v1/maps/"+m.ID, map[string]string{"title": "Road trip"})
	got := srv.do(t, http.MethodGet, "/api/v1/maps/"+m.ID, nil)
	list := srv.do(t, http.MethodGet, "/api/v1/maps", nil)
	deleted := srv.do(t, http.MethodDelete, "/api/v1/maps/"+m.ID, nil)
	missing := srv.do(t, http.MethodGet, "/api/v1/maps/"+m.ID, nil)

	// Assert
	assert.Equal(t, http.StatusNoContent, renamed.Code)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "Road trip", decode[entities.Map](t, got).Title)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode[map[string][]entities.Map](t, list)["maps"], 1)
	assert.Equal(t, http.StatusNoContent, deleted.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestRouter_NodeFlow(t *testing.T) {
	// Arrange
	srv := newTestServer(t, Options{})
	m := srv.createMap(t, "Ideas")
	base := "/api/v1/maps/" + m.ID

	// Act
	rootRec := srv.do(t, http.MethodPost, base+"/nodes", map[string]string{"label": "Root"})
	require.Equal(t, http.StatusCreated, rootRec.Code, rootRec.Body.String())
	root := decode[entities.Node](t, rootRec)

	childRec := srv.do(t, http.MethodPost, base+"/nodes/"+root.ID+"/children", map[string]string{"label": "Child"})
	require.Equal(t, http.StatusCreated, childRec.Code, childRec.Body.String())

	graphRec := srv.do(t, http.MethodGet, base+"/graph", nil)
	markdownRec := srv.do(t, http.MethodGet, base+"/markdown", nil)
	deleteRec := srv.do(t, http.MethodDelete, base+"/nodes/"+root.ID, nil)
	afterRec := srv.do(t, http.MethodGet, base+"/graph", nil)

	// Assert
	require.Equal(t, http.StatusOK, graphRec.Code)
	graph := decode[struct {
		Nodes []entities.Node `json:"nodes"`
		Edges []entities.Edge `json:"edges"`
	}](t, graphRec)
	assert.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, root.ID, graph.Edges[0].Source)

	require.Equal(t, http.StatusOK, markdownRec.Code)
	assert.Contains(t, decode[map[string]string](t, markdownRec)["markdown"], "Child")

	require.Equal(t, http.StatusOK, deleteRec.Code)
	assert.Len(t, decode[map[string][]string](t, deleteRec)["nodeIds"], 2)

	after := decode[struct {
		Nodes []entities.Node `json:"nodes"`
	}](t, afterRec)
	assert.Empty(t, after.Nodes)
}

func TestRouter_ReportLifecycle(t *testing.T) {
	// Arrange
	srv := newTestServer(t, Options{})
	m := srv.createMap(t, "Wednesday")
	rec := srv.do(t, http.MethodPost, "/api/v1/maps/"+m.ID+"/nodes", map[string]string{"label": "Swim"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	generated := srv.do(t, http.MethodPost, "/api/v1/reports/generate", map[string]bool{"inProgress": true})
	require.Equal(t, http.StatusOK, generated.Code, generated.Body.String())
	created := decode[map[string][]entities.Report](t, generated)["reports"]
	require.Len(t, created, 1)
	path := "/api/v1/reports/" + created[0].ID

	// Act
	cached := srv.do(t, http.MethodGet, path, nil)
	deleted := srv.do(t, http.MethodDelete, path, nil)
	afterGet := srv.do(t, http.MethodGet, path, nil)
	afterList := srv.do(t, http.MethodGet, "/api/v1/reports", nil)
	again := srv.do(t, http.MethodDelete, path, nil)

	// Assert
	require.Equal(t, http.StatusOK, cached.Code)
	assert.Equal(t, "week", decode[entities.Report](t, cached).Summary)
	assert.Equal(t, http.StatusNoContent, deleted.Code)
	assert.Equal(t, http.StatusNotFound, afterGet.Code)
	require.Equal(t, http.StatusOK, afterList.Code)
	assert.Empty(t, decode[map[string][]entities.Report](t, afterList)["reports"])
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestRouter_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(mapID string) string
		body interface{}
	}{
		{
			name: "node without label",
			path: func(mapID string) string { return "/api/v1/maps/" + mapID + "/nodes" },
			body: map[string]string{"content": "text"},
		},
		{
			name: "unknown field",
			path: func(mapID string) string { return "/api/v1/maps/" + mapID + "/nodes" },
			body: map[string]string{"label": "x", "colour": "red"},
		},
		{
			name: "bad date",
			path: func(string) string { return "/api/v1/days/2024-13-01/summary" },
			body: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newTestServer(t, Options{})
			m := srv.createMap(t, "Validation")

			// Act
			rec := srv.do(t, http.MethodPost, tt.path(m.ID), tt.body)

			// Assert
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, string(pkgerrors.ErrorTypeValidation), decode[pkgerrors.ErrorResponse](t, rec).Type)
		})
	}
}

func TestRouter_SearchAndIdeas(t *testing.T) {
	// Arrange
	srv := newTestServer(t, Options{})
	srv.createMap(t, "Holiday plans")

	// Act
	search := srv.do(t, http.MethodGet, "/api/v1/search?q=holiday", nil)
	ideas := srv.do(t, http.MethodGet, "/api/v1/ideas?topic=mornings", nil)

	// Assert
	require.Equal(t, http.StatusOK, search.Code)
	results := decode[map[string][]services.SearchHit](t, search)["results"]
	require.Len(t, results, 1)
	assert.Equal(t, services.MatchTitle, results[0].Kind)

	require.Equal(t, http.StatusOK, ideas.Code)
	assert.Equal(t, []string{"Coffee", "Walk"}, decode[map[string][]string](t, ideas)["ideas"])
}

func TestRouter_AIRateLimit(t *testing.T) {
	// Arrange
	limiter := auth.NewUserRateLimiter(auth.NewSlidingWindowLimiter(1, time.Minute), "ai")
	srv := newTestServer(t, Options{AILimiter: limiter})

	// Act
	first := srv.do(t, http.MethodGet, "/api/v1/ideas?topic=a", nil)
	second := srv.do(t, http.MethodGet, "/api/v1/ideas?topic=b", nil)
	unlimited := srv.do(t, http.MethodGet, "/api/v1/maps", nil)

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, unlimited.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	// Arrange
	srv := newTestServer(t, Options{})
	srv.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	// Act
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `diary_test_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

type sseEvent struct {
	name string
	data string
}

func readEvents(body io.Reader, out chan<- sseEvent) {
	defer close(out)
	scanner := bufio.NewScanner(body)
	var ev sseEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "" && ev.name != "":
			out <- ev
			ev = sseEvent{}
		}
	}
}

// waitForGraph reads events until match accepts a graph.
func waitForGraph(t *testing.T, events <-chan sseEvent, match func(LiveGraphPayload) bool) LiveGraphPayload {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream ended")
			if ev.name != "graph" {
				continue
			}
			var g LiveGraphPayload
			require.NoError(t, json.Unmarshal([]byte(ev.data), &g))
			if match(g) {
				return g
			}
		case <-timeout:
			t.Fatal("timed out waiting for graph event")
		}
	}
}

// LiveGraphPayload mirrors the graph event body.
type LiveGraphPayload struct {
	MapID    string          `json:"mapId"`
	Nodes    []entities.Node `json:"nodes"`
	Edges    []entities.Edge `json:"edges"`
	Selected []string        `json:"selected"`
}

func TestRouter_LiveStream(t *testing.T) {
	// Arrange
	srv := newTestServer(t, Options{})
	m := srv.createMap(t, "Live")
	base := "/api/v1/maps/" + m.ID
	rootRec := srv.do(t, http.MethodPost, base+"/nodes", map[string]string{"label": "Root"})
	require.Equal(t, http.StatusCreated, rootRec.Code)
	root := decode[entities.Node](t, rootRec)

	server := httptest.NewServer(srv.handler)
	defer server.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+base+"/live?token="+srv.token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan sseEvent, 16)
	go readEvents(resp.Body, events)

	first := <-events
	require.Equal(t, "session", first.name)
	var session map[string]string
	require.NoError(t, json.Unmarshal([]byte(first.data), &session))
	sessionBase := base + "/live/" + session["sessionId"]

	// Act
	waitForGraph(t, events, func(g LiveGraphPayload) bool { return len(g.Nodes) == 1 })
	selectRec := srv.do(t, http.MethodPost, sessionBase+"/select", map[string]string{"nodeId": root.ID})
	selected := waitForGraph(t, events, func(g LiveGraphPayload) bool { return len(g.Selected) == 1 })
	stopRec := srv.do(t, http.MethodPost, sessionBase+"/drag-stop", map[string]interface{}{
		"nodeId":   root.ID,
		"position": map[string]float64{"x": 420, "y": 90},
	})
	moved := waitForGraph(t, events, func(g LiveGraphPayload) bool {
		return len(g.Nodes) == 1 && g.Nodes[0].Position.X == 420
	})
	unknown := srv.do(t, http.MethodPost, base+"/live/nope/select", map[string]string{"nodeId": root.ID})

	// Assert
	assert.Equal(t, http.StatusNoContent, selectRec.Code)
	assert.Equal(t, []string{root.ID}, selected.Selected)
	assert.Equal(t, http.StatusNoContent, stopRec.Code)
	assert.Equal(t, 90.0, moved.Nodes[0].Position.Y)
	assert.Equal(t, http.StatusNotFound, unknown.Code)

	graphRec := srv.do(t, http.MethodGet, base+"/graph", nil)
	stored := decode[struct {
		Nodes []entities.Node `json:"nodes"`
	}](t, graphRec)
	require.Len(t, stored.Nodes, 1)
	assert.Equal(t, 420.0, stored.Nodes[0].Position.X)
}
