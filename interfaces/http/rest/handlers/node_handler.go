package handlers

import (
	"net/http"

	"diary-backend/application/commands"
	"diary-backend/application/commands/bus"
	"diary-backend/domain/core/valueobjects"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler handles node, edge and choice requests within one map.
type NodeHandler struct {
	commandBus *bus.CommandBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(commandBus *bus.CommandBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		commandBus: commandBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateNodeRequest is the body of POST /maps/{mapID}/nodes. Without a
// position the node is placed in the root slot.
type CreateNodeRequest struct {
	Label    string                 `json:"label"`
	Content  string                 `json:"content"`
	Position *valueobjects.Position `json:"position,omitempty"`
}

// CreateChildRequest is the body of POST .../nodes/{nodeID}/children.
type CreateChildRequest struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// UpdateNodeRequest carries the fields to change; absent fields are kept.
type UpdateNodeRequest struct {
	Label   *string `json:"label,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ConnectRequest is the body of POST /maps/{mapID}/edges.
type ConnectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// send runs cmd for the caller and writes the result, or 204 when there is none.
func (h *NodeHandler) send(w http.ResponseWriter, r *http.Request, status int, build func(uid, mapID string) bus.Command) {
	uid, err := userID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.commandBus.Send(r.Context(), build(uid, chi.URLParam(r, "mapID")))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, status, result)
}

func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusCreated, func(uid, mapID string) bus.Command {
		return commands.AddNodeCommand{
			UserID:   uid,
			MapID:    mapID,
			Label:    req.Label,
			Content:  req.Content,
			Position: req.Position,
		}
	})
}

// CreateChild adds a child in the next free slot under the node.
func (h *NodeHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req CreateChildRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusCreated, func(uid, mapID string) bus.Command {
		return commands.AddChildCommand{
			UserID:   uid,
			MapID:    mapID,
			ParentID: chi.URLParam(r, "nodeID"),
			Label:    req.Label,
			Content:  req.Content,
		}
	})
}

// Brainstorm asks the AI for child ideas and adds them under the node.
func (h *NodeHandler) Brainstorm(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusCreated, func(uid, mapID string) bus.Command {
		return commands.BrainstormCommand{UserID: uid, MapID: mapID, ParentID: chi.URLParam(r, "nodeID")}
	})
}

func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req UpdateNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusOK, func(uid, mapID string) bus.Command {
		return commands.UpdateNodeCommand{
			UserID:  uid,
			MapID:   mapID,
			NodeID:  chi.URLParam(r, "nodeID"),
			Label:   req.Label,
			Content: req.Content,
		}
	})
}

func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos valueobjects.Position
	if err := decodeJSON(r, &pos); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusOK, func(uid, mapID string) bus.Command {
		return commands.MoveNodeCommand{UserID: uid, MapID: mapID, NodeID: chi.URLParam(r, "nodeID"), Position: pos}
	})
}

// DeleteNode removes the node and everything reachable from it.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, func(uid, mapID string) bus.Command {
		return commands.DeleteNodeCommand{UserID: uid, MapID: mapID, NodeID: chi.URLParam(r, "nodeID")}
	})
}

func (h *NodeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusCreated, func(uid, mapID string) bus.Command {
		return commands.ConnectNodesCommand{UserID: uid, MapID: mapID, Source: req.Source, Target: req.Target}
	})
}

// SelectChoice shows the node and hides its sibling choices.
func (h *NodeHandler) SelectChoice(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, func(uid, mapID string) bus.Command {
		return commands.SelectChoiceCommand{UserID: uid, MapID: mapID, NodeID: chi.URLParam(r, "nodeID")}
	})
}

// ResetChoices shows every choice under the node again.
func (h *NodeHandler) ResetChoices(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, func(uid, mapID string) bus.Command {
		return commands.ResetChoicesCommand{UserID: uid, MapID: mapID, ParentID: chi.URLParam(r, "nodeID")}
	})
}
