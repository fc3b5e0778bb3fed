package services

import (
	"context"

	"diary-backend/application/ports"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	domainservices "diary-backend/domain/services"
	"diary-backend/domain/events"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

// MindMapService runs the node and edge operations of one map: adding,
// editing, laying out, brainstorming and choice selection.
type MindMapService struct {
	graph     ports.GraphStore
	ai        ports.AIGateway
	publisher ports.EventPublisher
	layout    *domainservices.LayoutAllocator
	cfg       *config.DomainConfig
	clock     ports.Clock
	logger    *zap.Logger
}

// NewMindMapService creates a new mind map service
func NewMindMapService(
	graph ports.GraphStore,
	ai ports.AIGateway,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *MindMapService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &MindMapService{
		graph:     graph,
		ai:        ai,
		publisher: publisher,
		layout:    domainservices.NewLayoutAllocator(cfg),
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// Layout exposes the allocator so callers place nodes with the same settings.
func (s *MindMapService) Layout() *domainservices.LayoutAllocator {
	return s.layout
}

// Graph returns the map's nodes and edges.
func (s *MindMapService) Graph(ctx context.Context, userID, mapID string) ([]entities.Node, []entities.Edge, error) {
	return s.graph.FetchGraph(ctx, userID, mapID)
}

func (s *MindMapService) touch(ctx context.Context, userID, mapID string) error {
	if err := s.graph.TouchMap(ctx, userID, mapID); err != nil {
		s.logger.Error("Failed to stamp map", zap.String("mapID", mapID), zap.Error(err))
		return err
	}
	return nil
}

// AddNode creates an unconnected node. A nil position puts it at the configured root anchor.
func (s *MindMapService) AddNode(ctx context.Context, userID, mapID, label, content string, position *valueobjects.Position) (entities.Node, error) {
	text, err := valueobjects.NewNodeText(label, content, s.cfg)
	if err != nil {
		return entities.Node{}, err
	}
	pos := valueobjects.NewPosition(s.cfg.RootPosition.X, s.cfg.RootPosition.Y)
	if position != nil {
		pos = *position
	}

	node, err := s.graph.CreateNode(ctx, userID, mapID, entities.NewNode(text, pos, s.cfg.PreviewLength))
	if err != nil {
		return entities.Node{}, err
	}
	if err := s.touch(ctx, userID, mapID); err != nil {
		return node, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewNodeCreated(userID, mapID, node.ID, node.Label, s.clock.Now()))
	return node, nil
}

// AddChild creates one child of parentID in the first free slot under it.
// An empty label uses the configured placeholder.
func (s *MindMapService) AddChild(ctx context.Context, userID, mapID, parentID, label, content string) (entities.Node, entities.Edge, error) {
	if label == "" {
		label = s.cfg.NewNodeLabel
	}
	text, err := valueobjects.NewNodeText(label, content, s.cfg)
	if err != nil {
		return entities.Node{}, entities.Edge{}, err
	}

	nodes, edges, err := s.graph.FetchGraph(ctx, userID, mapID)
	if err != nil {
		return entities.Node{}, entities.Edge{}, err
	}
	parent, err := findNode(nodes, parentID)
	if err != nil {
		return entities.Node{}, entities.Edge{}, err
	}

	siblings := s.layout.VisibleChildren(parentID, nodes, edges)
	pos := s.layout.PlaceChild(parent.Position, domainservices.Positions(siblings))

	created, createdEdges, err := s.graph.AddChildren(ctx, userID, mapID, parentID,
		[]entities.Node{entities.NewNode(text, pos, s.cfg.PreviewLength)})
	if err != nil {
		return entities.Node{}, entities.Edge{}, err
	}
	if err := s.touch(ctx, userID, mapID); err != nil {
		return created[0], createdEdges[0], err
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewNodeCreated(userID, mapID, created[0].ID, created[0].Label, s.clock.Now()))
	return created[0], createdEdges[0], nil
}

// Brainstorm asks the AI for new children of parentID, excluding labels its
// children already have, and places them all in one batch.
func (s *MindMapService) Brainstorm(ctx context.Context, userID, mapID, parentID string) ([]entities.Node, []entities.Edge, error) {
	nodes, edges, err := s.graph.FetchGraph(ctx, userID, mapID)
	if err != nil {
		return nil, nil, err
	}
	parent, err := findNode(nodes, parentID)
	if err != nil {
		return nil, nil, err
	}

	ideas, err := s.ai.GenerateIdeas(ctx, ports.IdeaRequest{
		Topic:   parent.DisplayLabel(),
		Path:    ancestorLabels(parentID, nodes, edges),
		Exclude: childLabels(parentID, nodes, edges),
		Content: parent.Body(),
	})
	if err != nil {
		return nil, nil, err
	}

	children := make([]entities.Node, 0, len(ideas))
	var labels []string
	for _, idea := range ideas {
		text, err := valueobjects.NewNodeText(idea, "", s.cfg)
		if err != nil {
			s.logger.Debug("Dropping unusable idea", zap.String("idea", idea), zap.Error(err))
			continue
		}
		labels = append(labels, text.Label())
		children = append(children, entities.NewNode(text, valueobjects.Position{}, s.cfg.PreviewLength))
	}
	if len(children) == 0 {
		return nil, nil, nil
	}

	siblings := s.layout.VisibleChildren(parentID, nodes, edges)
	positions := s.layout.PlaceChildren(parent.Position, domainservices.Positions(siblings), len(children))
	for i := range children {
		children[i].Position = positions[i]
	}

	created, createdEdges, err := s.graph.AddChildren(ctx, userID, mapID, parentID, children)
	if err != nil {
		return nil, nil, err
	}
	if err := s.touch(ctx, userID, mapID); err != nil {
		return created, createdEdges, err
	}

	s.logger.Info("Brainstormed children",
		zap.String("mapID", mapID),
		zap.String("parentID", parentID),
		zap.Strings("labels", labels),
	)
	return created, createdEdges, nil
}

// UpdateNodeContent changes a node's label and/or body and refreshes its preview.
func (s *MindMapService) UpdateNodeContent(ctx context.Context, userID, mapID, nodeID string, label, content *string) error {
	if label == nil && content == nil {
		return pkgerrors.NewValidationError("label or content is required")
	}

	update := ports.NodeUpdate{}
	if label != nil {
		l, err := valueobjects.ValidateLabel(*label, s.cfg)
		if err != nil {
			return err
		}
		update.Label = &l
	}
	if content != nil {
		if err := valueobjects.ValidateContent(*content, s.cfg); err != nil {
			return err
		}
		c := *content
		preview := ""
		if c != "" {
			preview = valueobjects.Preview(c, s.cfg.PreviewLength)
		}
		update.Content = &c
		update.Preview = &preview
	}

	if err := s.graph.UpdateNode(ctx, userID, mapID, nodeID, update); err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewNotFoundError("node").WithDetail("node_id", nodeID)
		}
		return err
	}
	return s.touch(ctx, userID, mapID)
}

// MoveNode persists a node's new position.
func (s *MindMapService) MoveNode(ctx context.Context, userID, mapID, nodeID string, pos valueobjects.Position) error {
	if err := s.graph.UpdateNode(ctx, userID, mapID, nodeID, ports.NodeUpdate{Position: &pos}); err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewNotFoundError("node").WithDetail("node_id", nodeID)
		}
		return err
	}
	return s.touch(ctx, userID, mapID)
}

// Connect stores an edge between two existing nodes. Parallel edges are allowed.
func (s *MindMapService) Connect(ctx context.Context, userID, mapID, source, target string) (entities.Edge, error) {
	nodes, _, err := s.graph.FetchGraph(ctx, userID, mapID)
	if err != nil {
		return entities.Edge{}, err
	}
	if _, err := findNode(nodes, source); err != nil {
		return entities.Edge{}, err
	}
	if _, err := findNode(nodes, target); err != nil {
		return entities.Edge{}, err
	}

	edge, err := s.graph.AddEdge(ctx, userID, mapID, entities.NewEdge(source, target))
	if err != nil {
		return entities.Edge{}, err
	}
	if err := s.touch(ctx, userID, mapID); err != nil {
		return edge, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewNodesConnected(userID, mapID, edge.ID, source, target, s.clock.Now()))
	return edge, nil
}

// SelectChoice shows nodeID and hides the other members of its choice group.
func (s *MindMapService) SelectChoice(ctx context.Context, userID, mapID, nodeID string) error {
	nodes, _, err := s.graph.FetchGraph(ctx, userID, mapID)
	if err != nil {
		return err
	}
	changes, err := domainservices.SelectChoice(nodeID, nodes)
	if err != nil {
		return err
	}
	selected, _ := findNode(nodes, nodeID)
	return s.applyChoices(ctx, userID, mapID, selected.Data.ParentID, nodeID, changes)
}

// ResetChoices shows every member of parentID's choice group again.
func (s *MindMapService) ResetChoices(ctx context.Context, userID, mapID, parentID string) error {
	nodes, _, err := s.graph.FetchGraph(ctx, userID, mapID)
	if err != nil {
		return err
	}
	return s.applyChoices(ctx, userID, mapID, parentID, "", domainservices.ResetChoices(parentID, nodes))
}

func (s *MindMapService) applyChoices(ctx context.Context, userID, mapID, parentID, selectedID string, changes map[string]bool) error {
	if len(changes) == 0 {
		return nil
	}
	if err := s.graph.SetNodesHidden(ctx, userID, mapID, changes); err != nil {
		return err
	}
	if err := s.touch(ctx, userID, mapID); err != nil {
		return err
	}
	publishEvent(ctx, s.publisher, s.logger, events.NewChoiceSelected(userID, mapID, parentID, selectedID, s.clock.Now()))
	return nil
}

// SeedDailyTemplate writes the daily prompt graph into an empty map.
func (s *MindMapService) SeedDailyTemplate(ctx context.Context, userID, mapID, title string) ([]entities.Node, error) {
	root := valueobjects.NewPosition(s.cfg.RootPosition.X, s.cfg.RootPosition.Y)
	template := domainservices.DailyTemplate(title, root, s.layout)

	ids := make([]string, len(template))
	var created []entities.Node

	// Parents always precede their children in the template.
	for i, tn := range template {
		if tn.Parent >= 0 {
			continue
		}
		text, err := valueobjects.NewNodeText(tn.Label, tn.Content, s.cfg)
		if err != nil {
			return nil, err
		}
		node, err := s.graph.CreateNode(ctx, userID, mapID, entities.NewNode(text, tn.Position, s.cfg.PreviewLength))
		if err != nil {
			return nil, err
		}
		ids[i] = node.ID
		created = append(created, node)
	}

	for parent := range template {
		var children []entities.Node
		var slots []int
		for i, tn := range template {
			if tn.Parent != parent {
				continue
			}
			text, err := valueobjects.NewNodeText(tn.Label, tn.Content, s.cfg)
			if err != nil {
				return nil, err
			}
			node := entities.NewNode(text, tn.Position, s.cfg.PreviewLength)
			if tn.IsChoice {
				node = entities.NewChoiceNode(text, tn.Position, ids[parent])
			}
			children = append(children, node)
			slots = append(slots, i)
		}
		if len(children) == 0 {
			continue
		}
		nodes, _, err := s.graph.AddChildren(ctx, userID, mapID, ids[parent], children)
		if err != nil {
			return nil, err
		}
		for j, node := range nodes {
			ids[slots[j]] = node.ID
		}
		created = append(created, nodes...)
	}

	if err := s.touch(ctx, userID, mapID); err != nil {
		return created, err
	}
	return created, nil
}
