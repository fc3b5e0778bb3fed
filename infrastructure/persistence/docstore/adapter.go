// Package docstore maps nodes, edges, maps and reports onto a generic
// per-user document store. It holds no business rules.
package docstore

import (
	"context"
	"sort"

	"diary-backend/application/ports"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Adapter implements ports.GraphStore, ports.MapRepository and ports.ReportRepository.
type Adapter struct {
	store  ports.DocumentStore
	clock  ports.Clock
	logger *zap.Logger
}

// NewAdapter creates a new document store adapter
func NewAdapter(store ports.DocumentStore, clock ports.Clock, logger *zap.Logger) *Adapter {
	return &Adapter{store: store, clock: clock, logger: logger}
}

func nodesOf(userID, mapID string) ports.CollectionRef {
	return ports.MapCollection(userID, mapID, ports.CollectionNodes)
}

func edgesOf(userID, mapID string) ports.CollectionRef {
	return ports.MapCollection(userID, mapID, ports.CollectionEdges)
}

func mapsOf(userID string) ports.CollectionRef {
	return ports.UserCollection(userID, ports.CollectionMaps)
}

func reportsOf(userID string) ports.CollectionRef {
	return ports.UserCollection(userID, ports.CollectionReports)
}

// ---- decoding ----

func (a *Adapter) toNodes(docs []ports.Document) []entities.Node {
	nodes := make([]entities.Node, 0, len(docs))
	for _, doc := range docs {
		var n entities.Node
		if err := decode(doc.Fields, &n); err != nil {
			a.logger.Warn("Skipping malformed node document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		n.ID = doc.ID
		nodes = append(nodes, n)
	}
	return nodes
}

// toEdges uses the document id as the edge id; the stored id field is only conventional.
func (a *Adapter) toEdges(docs []ports.Document) []entities.Edge {
	edges := make([]entities.Edge, 0, len(docs))
	for _, doc := range docs {
		var e entities.Edge
		if err := decode(doc.Fields, &e); err != nil {
			a.logger.Warn("Skipping malformed edge document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		e.ID = doc.ID
		edges = append(edges, e)
	}
	return edges
}

func toMap(doc ports.Document) (entities.Map, error) {
	var m entities.Map
	if err := decode(doc.Fields, &m); err != nil {
		return entities.Map{}, pkgerrors.NewDatabaseError("decode map", err)
	}
	m.ID = doc.ID
	if m.Type == "" {
		m.Type = valueobjects.MapTypeBlank
	}
	return m, nil
}

func toReport(doc ports.Document) (entities.Report, error) {
	var r entities.Report
	if err := decode(doc.Fields, &r); err != nil {
		return entities.Report{}, pkgerrors.NewDatabaseError("decode report", err)
	}
	r.ID = doc.ID
	return r, nil
}

// ---- GraphStore ----

func (a *Adapter) FetchGraph(ctx context.Context, userID, mapID string) ([]entities.Node, []entities.Edge, error) {
	nodeDocs, err := a.store.Fetch(ctx, nodesOf(userID, mapID))
	if err != nil {
		return nil, nil, err
	}
	edgeDocs, err := a.store.Fetch(ctx, edgesOf(userID, mapID))
	if err != nil {
		return nil, nil, err
	}
	return a.toNodes(nodeDocs), a.toEdges(edgeDocs), nil
}

func (a *Adapter) prepareNode(node entities.Node) (entities.Node, ports.Fields, error) {
	if node.Type == "" {
		node.Type = entities.NodeKind
	}
	node.CreatedAt = a.clock.Now()
	fields, err := encode(node)
	return node, fields, err
}

func (a *Adapter) CreateNode(ctx context.Context, userID, mapID string, node entities.Node) (entities.Node, error) {
	node, fields, err := a.prepareNode(node)
	if err != nil {
		return entities.Node{}, err
	}
	id, err := a.store.Create(ctx, nodesOf(userID, mapID), node.ID, fields)
	if err != nil {
		return entities.Node{}, err
	}
	node.ID = id
	return node, nil
}

func (a *Adapter) AddChildren(ctx context.Context, userID, mapID, parentID string, children []entities.Node) ([]entities.Node, []entities.Edge, error) {
	if len(children) == 0 {
		return nil, nil, nil
	}

	nodeColl, edgeColl := nodesOf(userID, mapID), edgesOf(userID, mapID)
	ops := make([]ports.BatchOp, 0, 2*len(children))
	nodes := make([]entities.Node, 0, len(children))
	edges := make([]entities.Edge, 0, len(children))

	for _, child := range children {
		child, fields, err := a.prepareNode(child)
		if err != nil {
			return nil, nil, err
		}
		if child.ID == "" {
			child.ID = uuid.New().String()
		}
		edge := entities.NewEdge(parentID, child.ID)
		edgeFields, err := encode(edge)
		if err != nil {
			return nil, nil, err
		}
		edgeFields["id"] = edge.ID
		edgeDocID := uuid.New().String()

		ops = append(ops,
			ports.BatchOp{Kind: ports.BatchSet, Ref: nodeColl.Doc(child.ID), Fields: fields},
			ports.BatchOp{Kind: ports.BatchSet, Ref: edgeColl.Doc(edgeDocID), Fields: edgeFields},
		)
		nodes = append(nodes, child)
		edge.ID = edgeDocID
		edges = append(edges, edge)
	}

	if err := a.store.Batch(ctx, ops); err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func (a *Adapter) UpdateNode(ctx context.Context, userID, mapID, nodeID string, update ports.NodeUpdate) error {
	fields := ports.Fields{}
	if update.Label != nil {
		fields["label"] = *update.Label
		fields["data.label"] = *update.Label
	}
	if update.Content != nil {
		fields["content"] = *update.Content
		fields["data.content"] = *update.Content
	}
	if update.Preview != nil {
		fields["data.preview"] = *update.Preview
	}
	if update.Position != nil {
		fields["position"] = map[string]interface{}{"x": update.Position.X, "y": update.Position.Y}
	}
	if update.Hidden != nil {
		fields["hidden"] = *update.Hidden
	}
	if len(fields) == 0 {
		return pkgerrors.NewValidationError("no node fields to update")
	}
	return a.store.Update(ctx, nodesOf(userID, mapID).Doc(nodeID), fields)
}

func (a *Adapter) AddEdge(ctx context.Context, userID, mapID string, edge entities.Edge) (entities.Edge, error) {
	if edge.ID == "" {
		edge.ID = entities.EdgeID(edge.Source, edge.Target)
	}
	fields, err := encode(edge)
	if err != nil {
		return entities.Edge{}, err
	}
	fields["id"] = edge.ID

	docID, err := a.store.Create(ctx, edgesOf(userID, mapID), "", fields)
	if err != nil {
		return entities.Edge{}, err
	}
	edge.ID = docID
	return edge, nil
}

func (a *Adapter) DeleteElements(ctx context.Context, userID, mapID string, nodeIDs, edgeIDs []string) error {
	if len(nodeIDs)+len(edgeIDs) == 0 {
		return nil
	}
	nodeColl, edgeColl := nodesOf(userID, mapID), edgesOf(userID, mapID)
	ops := make([]ports.BatchOp, 0, len(nodeIDs)+len(edgeIDs))
	for _, id := range nodeIDs {
		ops = append(ops, ports.BatchOp{Kind: ports.BatchDelete, Ref: nodeColl.Doc(id)})
	}
	for _, id := range edgeIDs {
		ops = append(ops, ports.BatchOp{Kind: ports.BatchDelete, Ref: edgeColl.Doc(id)})
	}
	return a.store.Batch(ctx, ops)
}

func (a *Adapter) SetNodesHidden(ctx context.Context, userID, mapID string, hidden map[string]bool) error {
	if len(hidden) == 0 {
		return nil
	}
	ids := make([]string, 0, len(hidden))
	for id := range hidden {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	coll := nodesOf(userID, mapID)
	ops := make([]ports.BatchOp, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, ports.BatchOp{
			Kind:   ports.BatchUpdate,
			Ref:    coll.Doc(id),
			Fields: ports.Fields{"hidden": hidden[id]},
		})
	}
	return a.store.Batch(ctx, ops)
}

func (a *Adapter) TouchMap(ctx context.Context, userID, mapID string) error {
	return a.store.Update(ctx, mapsOf(userID).Doc(mapID), ports.Fields{
		"updatedAt": timestamp(a.clock.Now()),
	})
}

func (a *Adapter) SubscribeNodes(ctx context.Context, userID, mapID string) (ports.Stream[entities.Node], error) {
	sub, err := a.store.Subscribe(ctx, nodesOf(userID, mapID))
	if err != nil {
		return nil, err
	}
	return newStream(sub, a.toNodes), nil
}

func (a *Adapter) SubscribeEdges(ctx context.Context, userID, mapID string) (ports.Stream[entities.Edge], error) {
	sub, err := a.store.Subscribe(ctx, edgesOf(userID, mapID))
	if err != nil {
		return nil, err
	}
	return newStream(sub, a.toEdges), nil
}
