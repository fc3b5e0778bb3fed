package handlers

import (
	"context"

	"diary-backend/application/commands"
	"diary-backend/application/services"
	"diary-backend/domain/core/valueobjects"
)

func (h *CommandHandlers) createMap(ctx context.Context, cmd commands.CreateMapCommand) (interface{}, error) {
	mapType, err := valueobjects.ParseMapType(cmd.Type)
	if err != nil {
		return nil, err
	}
	return h.maps.Create(ctx, cmd.UserID, services.CreateMapInput{Title: cmd.Title, Type: mapType})
}

func (h *CommandHandlers) renameMap(ctx context.Context, cmd commands.RenameMapCommand) (interface{}, error) {
	return nil, h.maps.Rename(ctx, cmd.UserID, cmd.MapID, cmd.Title)
}

func (h *CommandHandlers) updateMapContent(ctx context.Context, cmd commands.UpdateMapContentCommand) (interface{}, error) {
	if cmd.Right != nil {
		return nil, h.maps.UpdatePages(ctx, cmd.UserID, cmd.MapID, cmd.Content, *cmd.Right)
	}
	return nil, h.maps.UpdateContent(ctx, cmd.UserID, cmd.MapID, cmd.Content)
}

func (h *CommandHandlers) deleteMap(ctx context.Context, cmd commands.DeleteMapCommand) (interface{}, error) {
	return nil, h.maps.Delete(ctx, cmd.UserID, cmd.MapID)
}
