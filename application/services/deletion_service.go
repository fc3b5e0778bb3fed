package services

import (
	"context"

	"diary-backend/application/ports"
	domainservices "diary-backend/domain/services"
	"diary-backend/domain/events"

	"go.uber.org/zap"
)

// DeletionService removes a node together with everything reachable from it.
type DeletionService struct {
	graph     ports.GraphStore
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *zap.Logger
}

// NewDeletionService creates a new deletion service
func NewDeletionService(graph ports.GraphStore, publisher ports.EventPublisher, clock ports.Clock, logger *zap.Logger) *DeletionService {
	return &DeletionService{
		graph:     graph,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// DeleteNode deletes nodeID, its descendants along outgoing edges and every
// edge touching them in one batch, then stamps the map.
func (s *DeletionService) DeleteNode(ctx context.Context, userID, mapID, nodeID string) (domainservices.DeletionPlan, error) {
	nodes, edges, err := s.graph.FetchGraph(ctx, userID, mapID)
	if err != nil {
		return domainservices.DeletionPlan{}, err
	}
	if _, err := findNode(nodes, nodeID); err != nil {
		return domainservices.DeletionPlan{}, err
	}

	plan := domainservices.PlanCascade(nodeID, edges)
	if err := s.graph.DeleteElements(ctx, userID, mapID, plan.NodeIDs, plan.EdgeIDs); err != nil {
		s.logger.Error("Cascade delete failed",
			zap.String("mapID", mapID),
			zap.String("nodeID", nodeID),
			zap.Int("nodes", len(plan.NodeIDs)),
			zap.Int("edges", len(plan.EdgeIDs)),
			zap.Error(err),
		)
		return domainservices.DeletionPlan{}, err
	}
	if err := s.graph.TouchMap(ctx, userID, mapID); err != nil {
		s.logger.Error("Failed to stamp map", zap.String("mapID", mapID), zap.Error(err))
		return plan, err
	}

	s.logger.Info("Cascade deleted node",
		zap.String("mapID", mapID),
		zap.String("nodeID", nodeID),
		zap.Int("nodes", len(plan.NodeIDs)),
		zap.Int("edges", len(plan.EdgeIDs)),
	)
	publishEvent(ctx, s.publisher, s.logger,
		events.NewNodeCascadeDeleted(userID, mapID, nodeID, plan.NodeIDs, plan.EdgeIDs, s.clock.Now()))
	return plan, nil
}
