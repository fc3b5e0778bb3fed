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

// SummaryHandler handles AI summaries, day views and topic ideas.
type SummaryHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *SummaryHandler {
	return &SummaryHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// SummarizeRequest is the optional body of the summarize endpoints.
type SummarizeRequest struct {
	Force bool `json:"force"`
}

// SummarizeMap summarizes one map, reusing a current summary unless forced.
func (h *SummaryHandler) SummarizeMap(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req SummarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.commandBus.Send(r.Context(), commands.SummarizeMapCommand{
		UserID: uid,
		MapID:  chi.URLParam(r, "mapID"),
		Force:  req.Force,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SummarizeDate summarizes every map of the day in the path.
func (h *SummaryHandler) SummarizeDate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req SummarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.commandBus.Send(r.Context(), commands.SummarizeDateCommand{
		UserID: uid,
		Date:   chi.URLParam(r, "date"),
		Force:  req.Force,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// MapsOnDate lists the maps created or updated on the day in the path.
func (h *SummaryHandler) MapsOnDate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), queries.MapsOnDateQuery{UserID: uid, Date: chi.URLParam(r, "date")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"maps": result})
}

// TopicIdeas suggests ideas for ?topic=.
func (h *SummaryHandler) TopicIdeas(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), queries.TopicIdeasQuery{UserID: uid, Topic: r.URL.Query().Get("topic")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
