package handlers

import (
	"context"

	"diary-backend/application/commands"
	"diary-backend/domain/core/entities"
)

// ChildResult is a created child node together with the edge from its parent.
type ChildResult struct {
	Node entities.Node `json:"node"`
	Edge entities.Edge `json:"edge"`
}

// BrainstormResult lists the children added by a brainstorm.
type BrainstormResult struct {
	Nodes []entities.Node `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// DeleteResult lists what a cascade delete removed.
type DeleteResult struct {
	NodeIDs []string `json:"nodeIds"`
	EdgeIDs []string `json:"edgeIds"`
}

func (h *CommandHandlers) addNode(ctx context.Context, cmd commands.AddNodeCommand) (interface{}, error) {
	return h.mindmaps.AddNode(ctx, cmd.UserID, cmd.MapID, cmd.Label, cmd.Content, cmd.Position)
}

func (h *CommandHandlers) addChild(ctx context.Context, cmd commands.AddChildCommand) (interface{}, error) {
	node, edge, err := h.mindmaps.AddChild(ctx, cmd.UserID, cmd.MapID, cmd.ParentID, cmd.Label, cmd.Content)
	if err != nil {
		return nil, err
	}
	return ChildResult{Node: node, Edge: edge}, nil
}

func (h *CommandHandlers) brainstorm(ctx context.Context, cmd commands.BrainstormCommand) (interface{}, error) {
	nodes, edges, err := h.mindmaps.Brainstorm(ctx, cmd.UserID, cmd.MapID, cmd.ParentID)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes, edges = []entities.Node{}, []entities.Edge{}
	}
	return BrainstormResult{Nodes: nodes, Edges: edges}, nil
}

func (h *CommandHandlers) updateNode(ctx context.Context, cmd commands.UpdateNodeCommand) (interface{}, error) {
	return nil, h.mindmaps.UpdateNodeContent(ctx, cmd.UserID, cmd.MapID, cmd.NodeID, cmd.Label, cmd.Content)
}

func (h *CommandHandlers) moveNode(ctx context.Context, cmd commands.MoveNodeCommand) (interface{}, error) {
	return nil, h.mindmaps.MoveNode(ctx, cmd.UserID, cmd.MapID, cmd.NodeID, cmd.Position)
}

func (h *CommandHandlers) deleteNode(ctx context.Context, cmd commands.DeleteNodeCommand) (interface{}, error) {
	plan, err := h.deletion.DeleteNode(ctx, cmd.UserID, cmd.MapID, cmd.NodeID)
	if err != nil {
		return nil, err
	}
	return DeleteResult{NodeIDs: plan.NodeIDs, EdgeIDs: plan.EdgeIDs}, nil
}

func (h *CommandHandlers) connectNodes(ctx context.Context, cmd commands.ConnectNodesCommand) (interface{}, error) {
	return h.mindmaps.Connect(ctx, cmd.UserID, cmd.MapID, cmd.Source, cmd.Target)
}

func (h *CommandHandlers) selectChoice(ctx context.Context, cmd commands.SelectChoiceCommand) (interface{}, error) {
	return nil, h.mindmaps.SelectChoice(ctx, cmd.UserID, cmd.MapID, cmd.NodeID)
}

func (h *CommandHandlers) resetChoices(ctx context.Context, cmd commands.ResetChoicesCommand) (interface{}, error) {
	return nil, h.mindmaps.ResetChoices(ctx, cmd.UserID, cmd.MapID, cmd.ParentID)
}
