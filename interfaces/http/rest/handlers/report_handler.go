package handlers

import (
	"net/http"

	"diary-backend/application/commands"
	"diary-backend/application/commands/bus"
	"diary-backend/application/queries"
	querybus "diary-backend/application/queries/bus"
	"diary-backend/domain/core/entities"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler handles weekly and monthly reports
type ReportHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// GenerateReportsRequest selects the due reports or the current week's.
type GenerateReportsRequest struct {
	InProgress bool `json:"inProgress"`
}

func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), queries.ListReportsQuery{UserID: uid})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reports": result})
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), queries.GetReportQuery{UserID: uid, ReportID: chi.URLParam(r, "reportID")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// DeleteReport removes a stored report so its period can be generated again.
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	reportID := chi.URLParam(r, "reportID")
	if _, err := h.commandBus.Send(r.Context(), commands.DeleteReportCommand{UserID: uid, ReportID: reportID}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.logger.Info("Report deleted via API", zap.String("userID", uid), zap.String("reportID", reportID))
	w.WriteHeader(http.StatusNoContent)
}

// GenerateReports creates whatever reports are due and returns the new ones.
func (h *ReportHandler) GenerateReports(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req GenerateReportsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.commandBus.Send(r.Context(), commands.GenerateReportsCommand{UserID: uid, InProgress: req.InProgress})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	created, _ := result.([]entities.Report)
	if created == nil {
		created = []entities.Report{}
	}
	h.logger.Info("Reports generated via API", zap.String("userID", uid), zap.Int("count", len(created)))
	respondJSON(w, http.StatusOK, map[string]interface{}{"reports": created})
}
