package services

import (
	"context"
	"sync"

	"diary-backend/application/ports"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	pkgerrors "diary-backend/pkg/errors"

	"go.uber.org/zap"
)

// NodeOverlay is the local-only state layered over a confirmed node.
type NodeOverlay struct {
	Selected     bool
	DragPosition *valueobjects.Position
}

// NodeState pairs the last confirmed remote node with its local overlay.
type NodeState struct {
	Remote entities.Node
	Local  NodeOverlay
}

// Rendered collapses the overlay onto the confirmed node.
func (s NodeState) Rendered() entities.Node {
	n := s.Remote
	if s.Local.DragPosition != nil {
		n.Position = *s.Local.DragPosition
	}
	return n
}

// MergeNodes rebuilds the node list from a remote snapshot. Nodes keep snapshot
// order; local selection carries over by id and drag overlays are dropped.
func MergeNodes(prev []NodeState, snapshot []entities.Node) []NodeState {
	selected := make(map[string]bool, len(prev))
	for _, s := range prev {
		if s.Local.Selected {
			selected[s.Remote.ID] = true
		}
	}

	merged := make([]NodeState, 0, len(snapshot))
	for _, n := range snapshot {
		merged = append(merged, NodeState{
			Remote: n,
			Local:  NodeOverlay{Selected: selected[n.ID]},
		})
	}
	return merged
}

// GraphView is an immutable copy of the reconciled graph handed to listeners.
// Version grows with every published change.
type GraphView struct {
	MapID   string
	Version uint64
	Nodes []NodeState
	Edges []entities.Edge
}

// RenderedNodes returns every node with its overlay applied.
func (v GraphView) RenderedNodes() []entities.Node {
	out := make([]entities.Node, 0, len(v.Nodes))
	for _, s := range v.Nodes {
		out = append(out, s.Rendered())
	}
	return out
}

// SelectedIDs lists the locally selected node ids in node order.
func (v GraphView) SelectedIDs() []string {
	var ids []string
	for _, s := range v.Nodes {
		if s.Local.Selected {
			ids = append(ids, s.Remote.ID)
		}
	}
	return ids
}

// Reconciler keeps one session's view of a map consistent with the store
// while local edits are applied optimistically. Listeners are called one at a
// time in version order and must not call the reconciler's mutating methods.
type Reconciler struct {
	graph  ports.GraphStore
	logger *zap.Logger

	mu         sync.Mutex
	userID     string
	mapID      string
	generation uint64
	nodes      []NodeState
	edges      []entities.Edge
	stop       func()
	version    uint64

	// dispatch serializes listener calls; delivered is guarded by it.
	dispatch  sync.Mutex
	delivered uint64

	listenerSeq int
	listeners   map[int]func(GraphView)
}

// NewReconciler creates a reconciler with no open map.
func NewReconciler(graph ports.GraphStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		graph:     graph,
		logger:    logger,
		listeners: make(map[int]func(GraphView)),
	}
}

// OnChange registers fn for every change and returns a function that removes it.
func (r *Reconciler) OnChange(fn func(GraphView)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listenerSeq++
	id := r.listenerSeq
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Open switches the session to mapID. Listeners see an empty graph before the
// new subscriptions start, and snapshots from the previous map are discarded.
func (r *Reconciler) Open(ctx context.Context, userID, mapID string) error {
	r.mu.Lock()
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	r.generation++
	gen := r.generation
	r.userID, r.mapID = userID, mapID
	r.nodes, r.edges = nil, nil
	view, listeners := r.publishLocked()
	r.mu.Unlock()
	r.notify(listeners, view)

	subCtx, cancel := context.WithCancel(ctx)
	nodes, err := r.graph.SubscribeNodes(subCtx, userID, mapID)
	if err != nil {
		cancel()
		return err
	}
	edges, err := r.graph.SubscribeEdges(subCtx, userID, mapID)
	if err != nil {
		nodes.Cancel()
		cancel()
		return err
	}
	stop := func() {
		nodes.Cancel()
		edges.Cancel()
		cancel()
	}

	r.mu.Lock()
	if r.generation != gen {
		r.mu.Unlock()
		stop()
		return nil
	}
	r.stop = stop
	r.mu.Unlock()

	go r.consumeNodes(gen, nodes)
	go r.consumeEdges(gen, edges)

	r.logger.Debug("Opened map", zap.String("userID", userID), zap.String("mapID", mapID))
	return nil
}

// Close ends the current subscriptions; later snapshots are ignored.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

// View returns the current graph.
func (r *Reconciler) View() GraphView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

func (r *Reconciler) consumeNodes(gen uint64, stream ports.Stream[entities.Node]) {
	for update := range stream.Updates() {
		if update.Err != nil {
			r.logger.Warn("Node stream error", zap.Error(update.Err))
			continue
		}
		r.apply(gen, func() bool {
			r.nodes = MergeNodes(r.nodes, update.Items)
			return true
		})
	}
}

func (r *Reconciler) consumeEdges(gen uint64, stream ports.Stream[entities.Edge]) {
	for update := range stream.Updates() {
		if update.Err != nil {
			r.logger.Warn("Edge stream error", zap.Error(update.Err))
			continue
		}
		r.apply(gen, func() bool {
			r.edges = update.Items
			return true
		})
	}
}

// apply runs change under the lock unless gen is stale. When change reports a
// modification the new view is published to listeners.
func (r *Reconciler) apply(gen uint64, change func() bool) bool {
	r.mu.Lock()
	if gen != r.generation || !change() {
		r.mu.Unlock()
		return false
	}
	view, listeners := r.publishLocked()
	r.mu.Unlock()
	r.notify(listeners, view)
	return true
}

func (r *Reconciler) viewLocked() GraphView {
	return GraphView{
		MapID:   r.mapID,
		Version: r.version,
		Nodes:   append([]NodeState(nil), r.nodes...),
		Edges:   append([]entities.Edge(nil), r.edges...),
	}
}

// publishLocked stamps a new version and captures the view with its listeners.
func (r *Reconciler) publishLocked() (GraphView, []func(GraphView)) {
	r.version++
	listeners := make([]func(GraphView), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	return r.viewLocked(), listeners
}

// notify delivers view unless a newer one already went out.
func (r *Reconciler) notify(listeners []func(GraphView), view GraphView) {
	r.dispatch.Lock()
	defer r.dispatch.Unlock()
	if view.Version <= r.delivered {
		return
	}
	r.delivered = view.Version
	for _, fn := range listeners {
		fn(view)
	}
}

func (r *Reconciler) current() (userID, mapID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID, r.mapID, r.generation
}

// updateNode applies fn to nodeID's state; it reports false when the node is unknown.
func (r *Reconciler) updateNode(gen uint64, nodeID string, fn func(*NodeState)) bool {
	return r.apply(gen, func() bool {
		for i := range r.nodes {
			if r.nodes[i].Remote.ID == nodeID {
				fn(&r.nodes[i])
				return true
			}
		}
		return false
	})
}

func (r *Reconciler) hasNodeLocked(nodeID string) bool {
	for _, s := range r.nodes {
		if s.Remote.ID == nodeID {
			return true
		}
	}
	return false
}

// Drag moves a node locally while the pointer is down. Nothing is written.
func (r *Reconciler) Drag(nodeID string, pos valueobjects.Position) bool {
	_, _, gen := r.current()
	return r.updateNode(gen, nodeID, func(s *NodeState) {
		p := pos
		s.Local.DragPosition = &p
	})
}

// DragStop applies the final position locally, then persists it and stamps the map.
func (r *Reconciler) DragStop(ctx context.Context, nodeID string, pos valueobjects.Position) error {
	userID, mapID, gen := r.current()
	if mapID == "" {
		return pkgerrors.NewValidationError("no map is open")
	}
	if !r.updateNode(gen, nodeID, func(s *NodeState) {
		p := pos
		s.Local.DragPosition = &p
	}) {
		return pkgerrors.NewNotFoundError("node").WithDetail("node_id", nodeID)
	}

	if err := r.graph.UpdateNode(ctx, userID, mapID, nodeID, ports.NodeUpdate{Position: &pos}); err != nil {
		r.logger.Error("Failed to persist node position",
			zap.String("mapID", mapID), zap.String("nodeID", nodeID), zap.Error(err))
		return err
	}
	if err := r.graph.TouchMap(ctx, userID, mapID); err != nil {
		r.logger.Error("Failed to stamp map", zap.String("mapID", mapID), zap.Error(err))
		return err
	}
	return nil
}

// Connect shows the edge immediately under its derived id, then persists it.
// Both endpoints must be nodes of the open map.
func (r *Reconciler) Connect(ctx context.Context, source, target string) (entities.Edge, error) {
	userID, mapID, gen := r.current()
	if mapID == "" {
		return entities.Edge{}, pkgerrors.NewValidationError("no map is open")
	}
	edge := entities.NewEdge(source, target)
	missing := ""
	if !r.apply(gen, func() bool {
		switch {
		case !r.hasNodeLocked(source):
			missing = source
		case !r.hasNodeLocked(target):
			missing = target
		default:
			r.edges = append(r.edges, edge)
			return true
		}
		return false
	}) {
		if missing == "" {
			return entities.Edge{}, pkgerrors.NewConflictError("map changed while connecting")
		}
		return entities.Edge{}, pkgerrors.NewNotFoundError("node").WithDetail("node_id", missing)
	}

	stored, err := r.graph.AddEdge(ctx, userID, mapID, edge)
	if err != nil {
		r.logger.Error("Failed to persist edge",
			zap.String("mapID", mapID), zap.String("source", source), zap.String("target", target), zap.Error(err))
		return edge, err
	}
	if err := r.graph.TouchMap(ctx, userID, mapID); err != nil {
		r.logger.Error("Failed to stamp map", zap.String("mapID", mapID), zap.Error(err))
		return stored, err
	}
	return stored, nil
}

// Select marks nodeID as the only selected node. An empty id clears the selection.
func (r *Reconciler) Select(nodeID string) {
	_, _, gen := r.current()
	r.apply(gen, func() bool {
		for i := range r.nodes {
			r.nodes[i].Local.Selected = r.nodes[i].Remote.ID == nodeID
		}
		return true
	})
}
