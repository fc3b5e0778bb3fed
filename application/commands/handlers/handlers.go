// Package handlers binds commands to the application services.
package handlers

import (
	"context"

	"diary-backend/application/commands"
	"diary-backend/application/commands/bus"
	querybus "diary-backend/application/queries/bus"
	"diary-backend/application/services"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

// CommandHandlers holds the services every command handler needs.
type CommandHandlers struct {
	maps      *services.MapService
	mindmaps  *services.MindMapService
	deletion  *services.DeletionService
	summaries *services.SummaryService
	reports   *services.ReportService
	cache     *querybus.CachingMiddleware
	logger    *zap.Logger
}

// NewCommandHandlers creates the command handler set. cache is the query
// cache that report deletion invalidates; it may be nil.
func NewCommandHandlers(
	maps *services.MapService,
	mindmaps *services.MindMapService,
	deletion *services.DeletionService,
	summaries *services.SummaryService,
	reports *services.ReportService,
	cache *querybus.CachingMiddleware,
	logger *zap.Logger,
) *CommandHandlers {
	return &CommandHandlers{
		maps:      maps,
		mindmaps:  mindmaps,
		deletion:  deletion,
		summaries: summaries,
		reports:   reports,
		cache:     cache,
		logger:    logger,
	}
}

// handle adapts a typed handler function to bus.CommandHandler.
func handle[C bus.Command](fn func(ctx context.Context, cmd C) (interface{}, error)) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, pkgerrors.NewInternalError("unexpected command type")
		}
		return fn(ctx, typed)
	})
}

// Register adds a handler for every command to b.
func (h *CommandHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateMapCommand{}, handle(h.createMap)},
		{commands.RenameMapCommand{}, handle(h.renameMap)},
		{commands.UpdateMapContentCommand{}, handle(h.updateMapContent)},
		{commands.DeleteMapCommand{}, handle(h.deleteMap)},
		{commands.AddNodeCommand{}, handle(h.addNode)},
		{commands.AddChildCommand{}, handle(h.addChild)},
		{commands.BrainstormCommand{}, handle(h.brainstorm)},
		{commands.UpdateNodeCommand{}, handle(h.updateNode)},
		{commands.MoveNodeCommand{}, handle(h.moveNode)},
		{commands.DeleteNodeCommand{}, handle(h.deleteNode)},
		{commands.ConnectNodesCommand{}, handle(h.connectNodes)},
		{commands.SelectChoiceCommand{}, handle(h.selectChoice)},
		{commands.ResetChoicesCommand{}, handle(h.resetChoices)},
		{commands.SummarizeMapCommand{}, handle(h.summarizeMap)},
		{commands.SummarizeDateCommand{}, handle(h.summarizeDate)},
		{commands.GenerateReportsCommand{}, handle(h.generateReports)},
		{commands.DeleteReportCommand{}, handle(h.deleteReport)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
