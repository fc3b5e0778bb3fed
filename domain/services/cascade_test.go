package services

import (
	"testing"

	"diary-backend/domain/core/entities"

	"github.com/stretchr/testify/assert"
)

// A→B→C, A→D
func sampleTree() []entities.Edge {
	return []entities.Edge{
		entities.NewEdge("A", "B"),
		entities.NewEdge("B", "C"),
		entities.NewEdge("A", "D"),
	}
}

func TestPlanCascade(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		edges     []entities.Edge
		wantNodes []string
		wantEdges []string
	}{
		{
			name:      "root removes the whole tree",
			target:    "A",
			edges:     sampleTree(),
			wantNodes: []string{"A", "B", "C", "D"},
			wantEdges: []string{"eA-B", "eB-C", "eA-D"},
		},
		{
			name:      "inner node removes its subtree and the edge from its parent",
			target:    "B",
			edges:     sampleTree(),
			wantNodes: []string{"B", "C"},
			wantEdges: []string{"eA-B", "eB-C"},
		},
		{
			name:      "leaf removes only itself and its incoming edge",
			target:    "D",
			edges:     sampleTree(),
			wantNodes: []string{"D"},
			wantEdges: []string{"eA-D"},
		},
		{
			name:      "isolated node",
			target:    "Z",
			edges:     sampleTree(),
			wantNodes: []string{"Z"},
			wantEdges: nil,
		},
		{
			name:   "cycle terminates and lists each node once",
			target: "A",
			edges: []entities.Edge{
				entities.NewEdge("A", "B"),
				entities.NewEdge("B", "A"),
			},
			wantNodes: []string{"A", "B"},
			wantEdges: []string{"eA-B", "eB-A"},
		},
		{
			name:   "diamond visits the shared child once",
			target: "A",
			edges: []entities.Edge{
				entities.NewEdge("A", "B"),
				entities.NewEdge("A", "C"),
				entities.NewEdge("B", "D"),
				entities.NewEdge("C", "D"),
			},
			wantNodes: []string{"A", "B", "C", "D"},
			wantEdges: []string{"eA-B", "eA-C", "eB-D", "eC-D"},
		},
		{
			name:   "edge from an outside node into the subtree is removed",
			target: "B",
			edges: []entities.Edge{
				entities.NewEdge("A", "B"),
				entities.NewEdge("B", "C"),
				entities.NewEdge("X", "C"),
				entities.NewEdge("X", "Y"),
			},
			wantNodes: []string{"B", "C"},
			wantEdges: []string{"eA-B", "eB-C", "eX-C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			plan := PlanCascade(tt.target, tt.edges)

			// Assert
			assert.Equal(t, tt.target, plan.RootID)
			assert.ElementsMatch(t, tt.wantNodes, plan.NodeIDs)
			assert.ElementsMatch(t, tt.wantEdges, plan.EdgeIDs)
			assert.Equal(t, tt.target, plan.NodeIDs[0])
		})
	}
}

func TestPlanCascade_NoDanglingEdges(t *testing.T) {
	// Arrange
	edges := []entities.Edge{
		entities.NewEdge("A", "B"),
		entities.NewEdge("B", "C"),
		entities.NewEdge("C", "A"),
		entities.NewEdge("C", "D"),
		entities.NewEdge("E", "D"),
		entities.NewEdge("E", "F"),
	}

	// Act
	plan := PlanCascade("B", edges)

	// Assert
	deleted := make(map[string]struct{})
	for _, id := range plan.NodeIDs {
		deleted[id] = struct{}{}
	}
	removed := make(map[string]struct{})
	for _, id := range plan.EdgeIDs {
		removed[id] = struct{}{}
	}
	for _, e := range edges {
		if _, gone := removed[e.ID]; gone {
			continue
		}
		_, srcDeleted := deleted[e.Source]
		_, dstDeleted := deleted[e.Target]
		assert.False(t, srcDeleted || dstDeleted, "edge %s left dangling", e.ID)
	}
	assert.True(t, plan.Contains("A"))
	assert.False(t, plan.Contains("E"))
	assert.Equal(t, len(plan.NodeIDs)+len(plan.EdgeIDs), plan.Size())
}
