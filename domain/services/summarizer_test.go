package services

import (
	"strings"
	"testing"

	"diary-backend/domain/core/entities"

	"github.com/stretchr/testify/assert"
)

func labeled(id, label string) entities.Node {
	return entities.Node{ID: id, Label: label, Type: entities.NodeKind}
}

func TestSummarizeGraph_NestedOutline(t *testing.T) {
	// Arrange
	y := labeled("y", "Y")
	y.Content = "line1\r\nline2"
	nodes := []entities.Node{labeled("r", "R"), labeled("x", "b"), labeled("z", "a"), y}
	edges := []entities.Edge{
		entities.NewEdge("r", "x"),
		entities.NewEdge("r", "z"),
		entities.NewEdge("x", "y"),
	}

	// Act
	got := SummarizeGraph(nodes, edges)

	// Assert
	want := strings.Join([]string{
		"- **R**",
		"  - **a**",
		"  - **b**",
		"    - **Y**",
		"      > line1",
		"      > line2",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSummarizeGraph_EmptyWhenNothingVisible(t *testing.T) {
	hidden := labeled("h", "H")
	hidden.Hidden = true

	assert.Equal(t, "", SummarizeGraph(nil, nil))
	assert.Equal(t, "", SummarizeGraph([]entities.Node{hidden}, nil))
}

func TestSummarizeGraph_DepthFidelity(t *testing.T) {
	// Arrange
	nodes := []entities.Node{labeled("r", "Root"), labeled("x", "Child"), labeled("y", "Grandchild")}
	edges := []entities.Edge{entities.NewEdge("r", "x"), entities.NewEdge("x", "y")}

	// Act
	lines := strings.Split(SummarizeGraph(nodes, edges), "\n")

	// Assert
	indent := func(line string) int { return len(line) - len(strings.TrimLeft(line, " ")) }
	assert.Len(t, lines, 3)
	assert.Equal(t, indent(lines[0])+4, indent(lines[2]))
	assert.Contains(t, lines[2], "**Grandchild**")
}

func TestSummarizeGraph_HiddenNodesExcluded(t *testing.T) {
	// Arrange
	hidden := labeled("h", "Secret")
	hidden.Hidden = true
	nodes := []entities.Node{labeled("r", "Root"), hidden, labeled("a", "Alpha"), labeled("b", "Beta")}
	edges := []entities.Edge{
		entities.NewEdge("r", "a"),
		entities.NewEdge("r", "h"),
		entities.NewEdge("r", "b"),
	}

	// Act
	got := SummarizeGraph(nodes, edges)

	// Assert
	assert.NotContains(t, got, "Secret")
	assert.Equal(t, "- **Root**\n  - **Alpha**\n  - **Beta**", got)
}

func TestSummarizeGraph_CycleFallsBackToAllRoots(t *testing.T) {
	// Arrange
	nodes := []entities.Node{labeled("b", "B"), labeled("a", "A")}
	edges := []entities.Edge{entities.NewEdge("a", "b"), entities.NewEdge("b", "a")}

	// Act
	got := SummarizeGraph(nodes, edges)

	// Assert
	assert.Equal(t, "- **A**\n  - **B**", got)
}

func TestSummarizeGraph_IslandsAndSharedChildrenAppearOnce(t *testing.T) {
	// Arrange
	nodes := []entities.Node{
		labeled("r1", "One"),
		labeled("r2", "Two"),
		labeled("shared", "Shared"),
		labeled("island", "Island"),
	}
	edges := []entities.Edge{
		entities.NewEdge("r1", "shared"),
		entities.NewEdge("r2", "shared"),
		entities.NewEdge("r1", "ghost"),
	}

	// Act
	got := SummarizeGraph(nodes, edges)

	// Assert
	assert.Equal(t, 1, strings.Count(got, "**Shared**"))
	assert.Equal(t, 1, strings.Count(got, "**Island**"))
	assert.NotContains(t, got, "ghost")
	assert.Equal(t, "- **Island**\n- **One**\n  - **Shared**\n- **Two**", got)
}

func TestSummarizeGraph_UnreachedCycleAppendedInInputOrder(t *testing.T) {
	// Arrange
	nodes := []entities.Node{
		labeled("root", "Root"),
		labeled("q", "Q"),
		labeled("p", "P"),
	}
	edges := []entities.Edge{entities.NewEdge("p", "q"), entities.NewEdge("q", "p")}

	// Act
	got := SummarizeGraph(nodes, edges)

	// Assert
	assert.Equal(t, "- **Root**\n- **Q**\n  - **P**", got)
}

func TestSummarizeGraph_Deterministic(t *testing.T) {
	// Arrange
	nodes := []entities.Node{labeled("1", "same"), labeled("2", "same"), labeled("3", ""), labeled("4", "z")}
	nodes[2].Data.Label = "fromData"
	edges := []entities.Edge{entities.NewEdge("4", "2"), entities.NewEdge("4", "1")}

	// Act
	first := SummarizeGraph(nodes, edges)
	second := SummarizeGraph(nodes, edges)

	// Assert
	assert.Equal(t, first, second)
	assert.Equal(t, "- **fromData**\n- **z**\n  - **same**\n  - **same**", first)
}

func TestSummarizeGraph_UntitledFallbackAndBlankBody(t *testing.T) {
	// Arrange
	n := entities.Node{ID: "n", Content: "   \n  "}

	// Act
	got := SummarizeGraph([]entities.Node{n}, nil)

	// Assert
	assert.Equal(t, "- **untitled**", got)
}
