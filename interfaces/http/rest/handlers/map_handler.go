package handlers

import (
	"net/http"

	"diary-backend/application/commands"
	"diary-backend/application/commands/bus"
	"diary-backend/application/queries"
	querybus "diary-backend/application/queries/bus"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MapHandler handles map collection requests
type MapHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewMapHandler creates a new map handler
func NewMapHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *MapHandler {
	return &MapHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateMapRequest is the body of POST /maps.
type CreateMapRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// RenameMapRequest is the body of PUT /maps/{mapID}.
type RenameMapRequest struct {
	Title string `json:"title"`
}

// UpdateContentRequest is the body of PUT /maps/{mapID}/content. Right is set
// for two-page notes.
type UpdateContentRequest struct {
	Content string  `json:"content"`
	Right   *string `json:"right,omitempty"`
}

func (h *MapHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req CreateMapRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateMapCommand{
		UserID: uid,
		Title:  req.Title,
		Type:   req.Type,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *MapHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), queries.ListMapsQuery{UserID: uid})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"maps": result})
}

func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, func(uid string) querybus.Query {
		return queries.GetMapQuery{UserID: uid, MapID: chi.URLParam(r, "mapID")}
	})
}

// GetGraph returns the map with its nodes and edges.
func (h *MapHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, func(uid string) querybus.Query {
		return queries.GetGraphQuery{UserID: uid, MapID: chi.URLParam(r, "mapID")}
	})
}

// GetMarkdown returns the map rendered as an indented outline.
func (h *MapHandler) GetMarkdown(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, func(uid string) querybus.Query {
		return queries.GetMarkdownQuery{UserID: uid, MapID: chi.URLParam(r, "mapID")}
	})
}

func (h *MapHandler) RenameMap(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req RenameMapRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if _, err := h.commandBus.Send(r.Context(), commands.RenameMapCommand{
		UserID: uid,
		MapID:  chi.URLParam(r, "mapID"),
		Title:  req.Title,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MapHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req UpdateContentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if _, err := h.commandBus.Send(r.Context(), commands.UpdateMapContentCommand{
		UserID:  uid,
		MapID:   chi.URLParam(r, "mapID"),
		Content: req.Content,
		Right:   req.Right,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMap removes the map with its whole graph.
func (h *MapHandler) DeleteMap(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	mapID := chi.URLParam(r, "mapID")
	if _, err := h.commandBus.Send(r.Context(), commands.DeleteMapCommand{UserID: uid, MapID: mapID}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.logger.Info("Map deleted via API", zap.String("mapID", mapID))
	w.WriteHeader(http.StatusNoContent)
}

// Search finds maps matching ?q=.
func (h *MapHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), queries.SearchMapsQuery{UserID: uid, Query: r.URL.Query().Get("q")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": result})
}

func (h *MapHandler) ask(w http.ResponseWriter, r *http.Request, build func(uid string) querybus.Query) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), build(uid))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
