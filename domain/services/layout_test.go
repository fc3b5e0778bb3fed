package services

import (
	"math"
	"testing"

	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(x, y float64) valueobjects.Position { return valueobjects.NewPosition(x, y) }

func TestLayoutAllocator_PlaceChild(t *testing.T) {
	allocator := NewLayoutAllocator(config.DefaultDomainConfig())
	parent := pos(0, 0)

	tests := []struct {
		name     string
		siblings []valueobjects.Position
		want     valueobjects.Position
	}{
		{name: "first child goes straight below", siblings: nil, want: pos(0, 150)},
		{name: "center taken moves right", siblings: []valueobjects.Position{pos(0, 150)}, want: pos(250, 150)},
		{name: "center and right taken moves left", siblings: []valueobjects.Position{pos(0, 150), pos(250, 150)}, want: pos(-250, 150)},
		{name: "sibling near center blocks it", siblings: []valueobjects.Position{pos(100, 150)}, want: pos(250, 150)},
		{name: "sibling exactly half a slot away does not block", siblings: []valueobjects.Position{pos(125, 150)}, want: pos(0, 150)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := allocator.PlaceChild(parent, tt.siblings)

			// Assert
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayoutAllocator_PlaceChild_FallbackWhenSearchExhausted(t *testing.T) {
	// Arrange
	cfg := config.DefaultDomainConfig()
	cfg.SlotSearchBound = 1
	allocator := NewLayoutAllocator(cfg)

	// Act
	got := allocator.PlaceChild(pos(10, 20), []valueobjects.Position{pos(10, 170), pos(-500, 170)})

	// Assert
	assert.Equal(t, pos(10+2*250, 170), got)
}

func TestLayoutAllocator_SequentialPlacementNeverCollides(t *testing.T) {
	// Arrange
	allocator := NewLayoutAllocator(config.DefaultDomainConfig())
	parent := pos(40, -30)
	var siblings []valueobjects.Position

	// Act
	for i := 0; i < 25; i++ {
		siblings = append(siblings, allocator.PlaceChild(parent, siblings))
	}

	// Assert
	assertNoCollisions(t, siblings, 125)
	for _, p := range siblings {
		assert.Equal(t, 120.0, p.Y)
	}
}

func TestLayoutAllocator_PlaceChildren_BatchAvoidsItselfAndSiblings(t *testing.T) {
	// Arrange
	allocator := NewLayoutAllocator(config.DefaultDomainConfig())
	existing := []valueobjects.Position{pos(0, 150), pos(-250, 150)}

	// Act
	placed := allocator.PlaceChildren(pos(0, 0), existing, 5)

	// Assert
	require.Len(t, placed, 5)
	assert.Equal(t, []valueobjects.Position{
		pos(250, 150), pos(500, 150), pos(-500, 150), pos(750, 150), pos(-750, 150),
	}, placed)
	assertNoCollisions(t, append(append([]valueobjects.Position{}, existing...), placed...), 125)
}

func TestLayoutAllocator_SingleAndBatchAgree(t *testing.T) {
	// Arrange
	allocator := NewLayoutAllocator(config.DefaultDomainConfig())
	siblings := []valueobjects.Position{pos(0, 150)}

	// Act
	single := allocator.PlaceChild(pos(0, 0), siblings)
	batch := allocator.PlaceChildren(pos(0, 0), siblings, 1)

	// Assert
	assert.Equal(t, single, batch[0])
}

func TestLayoutAllocator_VisibleChildren(t *testing.T) {
	// Arrange
	allocator := NewLayoutAllocator(nil)
	nodes := []entities.Node{
		{ID: "p"},
		{ID: "a", Position: pos(0, 150)},
		{ID: "b", Position: pos(250, 150), Hidden: true},
		{ID: "c", Position: pos(-250, 150)},
		{ID: "other"},
	}
	edges := []entities.Edge{
		entities.NewEdge("p", "a"),
		entities.NewEdge("p", "b"),
		entities.NewEdge("p", "c"),
		entities.NewEdge("p", "missing"),
		entities.NewEdge("other", "p"),
	}

	// Act
	children := allocator.VisibleChildren("p", nodes, edges)

	// Assert
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].ID)
	assert.Equal(t, "c", children[1].ID)
	assert.Equal(t, []valueobjects.Position{pos(0, 150), pos(-250, 150)}, Positions(children))
}

func assertNoCollisions(t *testing.T, positions []valueobjects.Position, tolerance float64) {
	t.Helper()
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			assert.GreaterOrEqual(t, math.Abs(positions[i].X-positions[j].X), tolerance,
				"positions %d and %d collide: %v %v", i, j, positions[i], positions[j])
		}
	}
}
