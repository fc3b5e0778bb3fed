package services

import (
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
)

// LayoutAllocator picks collision-free positions for new child nodes.
// Single and batch placement share the same slot width and vertical gap.
type LayoutAllocator struct {
	slotWidth   float64
	verticalGap float64
	searchBound int
}

// NewLayoutAllocator creates an allocator from the domain layout settings
func NewLayoutAllocator(cfg *config.DomainConfig) *LayoutAllocator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &LayoutAllocator{
		slotWidth:   cfg.SlotWidth,
		verticalGap: cfg.VerticalGap,
		searchBound: cfg.SlotSearchBound,
	}
}

// VisibleChildren returns the visible targets of parentID's outgoing edges.
// Edges pointing at unknown nodes are ignored.
func (a *LayoutAllocator) VisibleChildren(parentID string, nodes []entities.Node, edges []entities.Edge) []entities.Node {
	index := entities.IndexNodes(nodes)
	seen := make(map[string]struct{})
	var out []entities.Node
	for _, childID := range entities.ChildIDs(parentID, edges) {
		if _, dup := seen[childID]; dup {
			continue
		}
		seen[childID] = struct{}{}
		child, ok := index[childID]
		if !ok || !child.IsVisible() {
			continue
		}
		out = append(out, child)
	}
	return out
}

// PlaceChild returns the position for one new child of parent.
func (a *LayoutAllocator) PlaceChild(parent valueobjects.Position, siblings []valueobjects.Position) valueobjects.Position {
	return a.place(parent, siblings, len(siblings))
}

// PlaceChildren returns n positions; each placed child counts as occupied for the next.
func (a *LayoutAllocator) PlaceChildren(parent valueobjects.Position, siblings []valueobjects.Position, n int) []valueobjects.Position {
	occupied := make([]valueobjects.Position, len(siblings), len(siblings)+n)
	copy(occupied, siblings)

	placed := make([]valueobjects.Position, 0, n)
	for i := 0; i < n; i++ {
		pos := a.place(parent, occupied, len(occupied))
		placed = append(placed, pos)
		occupied = append(occupied, pos)
	}
	return placed
}

// place searches offsets 0, +1, -1, +2, -2, ... for the first free slot.
// When the search bound is exhausted it falls back to parentX + siblingCount*slotWidth.
func (a *LayoutAllocator) place(parent valueobjects.Position, occupied []valueobjects.Position, siblingCount int) valueobjects.Position {
	y := parent.Y + a.verticalGap
	half := a.slotWidth / 2

	for i := 0; i < a.searchBound; i++ {
		candidate := parent.X + float64(slotOffset(i))*a.slotWidth
		if !isOccupied(candidate, occupied, half) {
			return valueobjects.NewPosition(candidate, y)
		}
	}

	return valueobjects.NewPosition(parent.X+float64(siblingCount)*a.slotWidth, y)
}

// slotOffset maps the i-th probe to 0, 1, -1, 2, -2, ...
func slotOffset(i int) int {
	if i == 0 {
		return 0
	}
	step := (i + 1) / 2
	if i%2 == 1 {
		return step
	}
	return -step
}

func isOccupied(x float64, occupied []valueobjects.Position, tolerance float64) bool {
	for _, p := range occupied {
		if p.WithinX(x, tolerance) {
			return true
		}
	}
	return false
}

// Positions extracts node positions.
func Positions(nodes []entities.Node) []valueobjects.Position {
	out := make([]valueobjects.Position, len(nodes))
	for i, n := range nodes {
		out[i] = n.Position
	}
	return out
}
