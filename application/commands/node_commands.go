package commands

import (
	"diary-backend/domain/core/valueobjects"
	"diary-backend/pkg/utils"
)

// AddNodeCommand creates an unconnected node.
type AddNodeCommand struct {
	UserID   string                 `json:"user_id" validate:"required"`
	MapID    string                 `json:"map_id" validate:"required"`
	Label    string                 `json:"label" validate:"required"`
	Content  string                 `json:"content"`
	Position *valueobjects.Position `json:"position,omitempty"`
}

func (c AddNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// AddChildCommand creates a child under ParentID in the next free slot.
type AddChildCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	MapID    string `json:"map_id" validate:"required"`
	ParentID string `json:"parent_id" validate:"required"`
	Label    string `json:"label"`
	Content  string `json:"content"`
}

func (c AddChildCommand) Validate() error { return utils.ValidateStruct(c) }

// BrainstormCommand adds AI-suggested children under ParentID.
type BrainstormCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	MapID    string `json:"map_id" validate:"required"`
	ParentID string `json:"parent_id" validate:"required"`
}

func (c BrainstormCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateNodeCommand changes a node's label and/or content.
type UpdateNodeCommand struct {
	UserID  string  `json:"user_id" validate:"required"`
	MapID   string  `json:"map_id" validate:"required"`
	NodeID  string  `json:"node_id" validate:"required"`
	Label   *string `json:"label,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (c UpdateNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// MoveNodeCommand stores a node's new position.
type MoveNodeCommand struct {
	UserID   string                `json:"user_id" validate:"required"`
	MapID    string                `json:"map_id" validate:"required"`
	NodeID   string                `json:"node_id" validate:"required"`
	Position valueobjects.Position `json:"position"`
}

func (c MoveNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// DeleteNodeCommand deletes a node and everything reachable from it.
type DeleteNodeCommand struct {
	UserID string `json:"user_id" validate:"required"`
	MapID  string `json:"map_id" validate:"required"`
	NodeID string `json:"node_id" validate:"required"`
}

func (c DeleteNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// ConnectNodesCommand adds an edge from Source to Target.
type ConnectNodesCommand struct {
	UserID string `json:"user_id" validate:"required"`
	MapID  string `json:"map_id" validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

func (c ConnectNodesCommand) Validate() error { return utils.ValidateStruct(c) }

// SelectChoiceCommand shows NodeID and hides its choice siblings.
type SelectChoiceCommand struct {
	UserID string `json:"user_id" validate:"required"`
	MapID  string `json:"map_id" validate:"required"`
	NodeID string `json:"node_id" validate:"required"`
}

func (c SelectChoiceCommand) Validate() error { return utils.ValidateStruct(c) }

// ResetChoicesCommand shows every choice under ParentID.
type ResetChoicesCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	MapID    string `json:"map_id" validate:"required"`
	ParentID string `json:"parent_id" validate:"required"`
}

func (c ResetChoicesCommand) Validate() error { return utils.ValidateStruct(c) }
