package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"diary-backend/application/ports"
	"diary-backend/application/queries"
	querybus "diary-backend/application/queries/bus"
	"diary-backend/application/services"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultHeartbeat = 15 * time.Second

// LiveGraph is the payload of a "graph" event.
type LiveGraph struct {
	MapID    string          `json:"mapId"`
	Nodes    []entities.Node `json:"nodes"`
	Edges    []entities.Edge `json:"edges"`
	Selected []string        `json:"selected"`
}

func liveGraph(v services.GraphView) LiveGraph {
	edges := v.Edges
	if edges == nil {
		edges = []entities.Edge{}
	}
	selected := v.SelectedIDs()
	if selected == nil {
		selected = []string{}
	}
	return LiveGraph{MapID: v.MapID, Nodes: v.RenderedNodes(), Edges: edges, Selected: selected}
}

type liveSession struct {
	userID     string
	mapID      string
	reconciler *services.Reconciler
}

// LiveHandler streams a map's reconciled graph as server-sent events. Each
// stream owns a reconciler session that accepts optimistic edits until the
// client disconnects.
type LiveHandler struct {
	queryBus  *querybus.QueryBus
	graph     ports.GraphStore
	errors    *pkgerrors.ErrorHandler
	logger    *zap.Logger
	heartbeat time.Duration

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewLiveHandler creates a new live handler
func NewLiveHandler(
	queryBus *querybus.QueryBus,
	graph ports.GraphStore,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *LiveHandler {
	return &LiveHandler{
		queryBus:  queryBus,
		graph:     graph,
		errors:    errorHandler,
		logger:    logger,
		heartbeat: defaultHeartbeat,
		sessions:  make(map[string]*liveSession),
	}
}

// Sessions returns the number of open streams.
func (h *LiveHandler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Stream opens the map and writes a "session" event followed by a "graph"
// event for every change until the client goes away.
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	mapID := chi.URLParam(r, "mapID")
	if _, err := h.queryBus.Ask(r.Context(), queries.GetMapQuery{UserID: uid, MapID: mapID}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("streaming unsupported"))
		return
	}

	ctx := r.Context()
	rec := services.NewReconciler(h.graph, h.logger)
	views := make(chan services.GraphView, 1)
	unsubscribe := rec.OnChange(func(v services.GraphView) {
		for {
			select {
			case views <- v:
				return
			default:
			}
			select {
			case <-views:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := rec.Open(ctx, uid, mapID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	defer rec.Close()

	sessionID := uuid.New().String()
	h.mu.Lock()
	h.sessions[sessionID] = &liveSession{userID: uid, mapID: mapID, reconciler: rec}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, sessionID)
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	logger := h.logger.With(zap.String("mapID", mapID), zap.String("sessionID", sessionID))
	logger.Info("Live stream opened")
	defer logger.Info("Live stream closed")

	if err := writeEvent(w, "session", map[string]string{"sessionId": sessionID}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-views:
			if err := writeEvent(w, "graph", liveGraph(v)); err != nil {
				logger.Debug("Live stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

// session finds the caller's open stream for the map in the path.
func (h *LiveHandler) session(r *http.Request) (*liveSession, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	sessionID := chi.URLParam(r, "sessionID")
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok || s.userID != uid || s.mapID != chi.URLParam(r, "mapID") {
		return nil, pkgerrors.NewNotFoundError("session").WithDetail("session_id", sessionID)
	}
	return s, nil
}

// NodePositionRequest is the body of the drag endpoints.
type NodePositionRequest struct {
	NodeID   string                `json:"nodeId"`
	Position valueobjects.Position `json:"position"`
}

// SelectRequest selects one node; an empty id clears the selection.
type SelectRequest struct {
	NodeID string `json:"nodeId"`
}

// Select marks a node as the session's only selected node.
func (h *LiveHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req SelectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	s.reconciler.Select(req.NodeID)
	w.WriteHeader(http.StatusNoContent)
}

// Drag moves a node in the session view without writing it.
func (h *LiveHandler) Drag(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req NodePositionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !s.reconciler.Drag(req.NodeID, req.Position) {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("node").WithDetail("node_id", req.NodeID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DragStop applies the final position and stores it.
func (h *LiveHandler) DragStop(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req NodePositionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := s.reconciler.DragStop(r.Context(), req.NodeID, req.Position); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connect shows the edge in the session at once and stores it.
func (h *LiveHandler) Connect(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req ConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if req.Source == "" || req.Target == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("source and target are required"))
		return
	}
	edge, err := s.reconciler.Connect(r.Context(), req.Source, req.Target)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, edge)
}
