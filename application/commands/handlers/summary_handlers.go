package handlers

import (
	"context"

	"diary-backend/application/commands"
	"diary-backend/application/queries"
	"diary-backend/domain/core/entities"

	"go.uber.org/zap"
)

func (h *CommandHandlers) summarizeMap(ctx context.Context, cmd commands.SummarizeMapCommand) (interface{}, error) {
	return h.summaries.Summarize(ctx, cmd.UserID, cmd.MapID, cmd.Force)
}

func (h *CommandHandlers) summarizeDate(ctx context.Context, cmd commands.SummarizeDateCommand) (interface{}, error) {
	return h.summaries.SummarizeDate(ctx, cmd.UserID, cmd.Date, cmd.Force)
}

func (h *CommandHandlers) generateReports(ctx context.Context, cmd commands.GenerateReportsCommand) (interface{}, error) {
	var (
		reports []entities.Report
		err     error
	)
	if cmd.InProgress {
		reports, err = h.reports.GenerateCurrentWeek(ctx, cmd.UserID)
	} else {
		reports, err = h.reports.GenerateDue(ctx, cmd.UserID)
	}
	if err != nil {
		return nil, err
	}
	h.logger.Info("Reports generated", zap.String("userID", cmd.UserID), zap.Int("count", len(reports)))
	if reports == nil {
		reports = []entities.Report{}
	}
	return reports, nil
}

func (h *CommandHandlers) deleteReport(ctx context.Context, cmd commands.DeleteReportCommand) (interface{}, error) {
	if err := h.reports.Delete(ctx, cmd.UserID, cmd.ReportID); err != nil {
		return nil, err
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, queries.GetReportQuery{UserID: cmd.UserID, ReportID: cmd.ReportID}); err != nil {
			h.logger.Warn("Failed to invalidate cached report", zap.String("reportID", cmd.ReportID), zap.Error(err))
		}
	}
	return nil, nil
}
