package ports

import (
	"context"
	"time"

	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	"diary-backend/domain/events"
)

// Stream is a typed, cancelable view over a collection subscription.
type Stream[T any] interface {
	Updates() <-chan StreamUpdate[T]
	Cancel()
}

// StreamUpdate carries one decoded snapshot or the error that ended the stream.
type StreamUpdate[T any] struct {
	Items []T
	Err   error
}

// NodeUpdate lists the node fields to change; nil fields are left alone.
// Label and Content are mirrored into data; Preview only into data.preview.
type NodeUpdate struct {
	Label    *string
	Content  *string
	Preview  *string
	Position *valueobjects.Position
	Hidden   *bool
}

// GraphStore translates node/edge operations into document operations
// on one map's sub-collections. It holds no business rules.
type GraphStore interface {
	// FetchGraph reads every node and edge of the map.
	FetchGraph(ctx context.Context, userID, mapID string) ([]entities.Node, []entities.Edge, error)

	// CreateNode stores a node and returns it with its assigned id and createdAt.
	CreateNode(ctx context.Context, userID, mapID string, node entities.Node) (entities.Node, error)

	// AddChildren stores children and a parent->child edge for each in one batch.
	AddChildren(ctx context.Context, userID, mapID, parentID string, children []entities.Node) ([]entities.Node, []entities.Edge, error)

	UpdateNode(ctx context.Context, userID, mapID, nodeID string, update NodeUpdate) error

	// AddEdge stores an edge; the stored document id becomes the edge id.
	AddEdge(ctx context.Context, userID, mapID string, edge entities.Edge) (entities.Edge, error)

	// DeleteElements removes the nodes and edges in one atomic batch.
	DeleteElements(ctx context.Context, userID, mapID string, nodeIDs, edgeIDs []string) error

	// SetNodesHidden writes the hidden flag of several nodes in one batch.
	SetNodesHidden(ctx context.Context, userID, mapID string, hidden map[string]bool) error

	// TouchMap bumps the map's updatedAt.
	TouchMap(ctx context.Context, userID, mapID string) error

	SubscribeNodes(ctx context.Context, userID, mapID string) (Stream[entities.Node], error)
	SubscribeEdges(ctx context.Context, userID, mapID string) (Stream[entities.Edge], error)
}

// MapUpdate lists the map fields to change; nil fields are left alone.
type MapUpdate struct {
	Title   *string
	Content *string
}

// SummaryRecord is what a completed summarization writes back to a map.
type SummaryRecord struct {
	Summary    string
	Emotion    string
	Financials []entities.FinancialItem
	At         time.Time
}

// MapRepository persists the per-user map collection.
type MapRepository interface {
	Create(ctx context.Context, userID string, m entities.Map) (entities.Map, error)
	Get(ctx context.Context, userID, mapID string) (entities.Map, error)

	// List returns all maps, most recently updated first.
	List(ctx context.Context, userID string) ([]entities.Map, error)

	// Update changes title/content and bumps updatedAt.
	Update(ctx context.Context, userID, mapID string, update MapUpdate) error

	// SaveSummary stores a summary and sets summarizedAt without touching updatedAt.
	SaveSummary(ctx context.Context, userID, mapID string, record SummaryRecord) error

	// Delete removes the map with its nodes and edges and reports how many were removed.
	Delete(ctx context.Context, userID, mapID string) (nodes int, edges int, err error)
}

// ReportRepository persists generated reports. Report ids are period ids.
type ReportRepository interface {
	// List returns reports newest first.
	List(ctx context.Context, userID string) ([]entities.Report, error)
	Get(ctx context.Context, userID, reportID string) (entities.Report, error)
	Exists(ctx context.Context, userID, periodID string) (bool, error)
	Create(ctx context.Context, userID string, report entities.Report) (entities.Report, error)

	// Delete removes a stored report. A missing report is a not-found error.
	Delete(ctx context.Context, userID, reportID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
