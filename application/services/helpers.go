package services

import (
	"context"

	"diary-backend/application/ports"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/events"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

// publishEvent sends event and only logs a failure; events never fail the operation.
func publishEvent(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, event events.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("type", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

func findNode(nodes []entities.Node, id string) (entities.Node, error) {
	for _, n := range nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return entities.Node{}, pkgerrors.NewNotFoundError("node").WithDetail("node_id", id)
}

// ancestorLabels walks first parents up from nodeID and returns the labels
// from the top-most ancestor down, excluding nodeID itself.
func ancestorLabels(nodeID string, nodes []entities.Node, edges []entities.Edge) []string {
	index := entities.IndexNodes(nodes)
	visited := map[string]bool{nodeID: true}
	var reversed []string
	current := nodeID
	for {
		parents := entities.ParentIDs(current, edges)
		if len(parents) == 0 {
			break
		}
		parent := parents[0]
		if visited[parent] {
			break
		}
		visited[parent] = true
		if n, ok := index[parent]; ok {
			reversed = append(reversed, n.DisplayLabel())
		}
		current = parent
	}

	path := make([]string, len(reversed))
	for i, label := range reversed {
		path[len(reversed)-1-i] = label
	}
	return path
}

// childLabels returns the labels of every target of parentID's outgoing edges.
func childLabels(parentID string, nodes []entities.Node, edges []entities.Edge) []string {
	index := entities.IndexNodes(nodes)
	var labels []string
	for _, id := range entities.ChildIDs(parentID, edges) {
		if n, ok := index[id]; ok {
			labels = append(labels, n.DisplayLabel())
		}
	}
	return labels
}
