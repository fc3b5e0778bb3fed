package commands

import "diary-backend/pkg/utils"

// CreateMapCommand creates a map. Empty title and type take defaults.
type CreateMapCommand struct {
	UserID string `json:"user_id" validate:"required"`
	Title  string `json:"title" validate:"max=200"`
	Type   string `json:"type" validate:"omitempty,oneof=blank daily note"`
}

func (c CreateMapCommand) Validate() error { return utils.ValidateStruct(c) }

// RenameMapCommand changes a map's title.
type RenameMapCommand struct {
	UserID string `json:"user_id" validate:"required"`
	MapID  string `json:"map_id" validate:"required"`
	Title  string `json:"title" validate:"required,max=200"`
}

func (c RenameMapCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateMapContentCommand replaces a note map's content. When Right is set the
// content is stored as two pages.
type UpdateMapContentCommand struct {
	UserID  string  `json:"user_id" validate:"required"`
	MapID   string  `json:"map_id" validate:"required"`
	Content string  `json:"content"`
	Right   *string `json:"right,omitempty"`
}

func (c UpdateMapContentCommand) Validate() error { return utils.ValidateStruct(c) }

// DeleteMapCommand deletes a map with its nodes and edges.
type DeleteMapCommand struct {
	UserID string `json:"user_id" validate:"required"`
	MapID  string `json:"map_id" validate:"required"`
}

func (c DeleteMapCommand) Validate() error { return utils.ValidateStruct(c) }
