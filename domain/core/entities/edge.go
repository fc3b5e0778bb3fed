package entities

import "fmt"

// Edge is a directed connection between two nodes of the same map.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeID is the conventional id derived from a (source, target) pair.
func EdgeID(source, target string) string {
	return fmt.Sprintf("e%s-%s", source, target)
}

// NewEdge builds an edge with the derived id.
func NewEdge(source, target string) Edge {
	return Edge{ID: EdgeID(source, target), Source: source, Target: target}
}

// Touches reports whether either endpoint is in ids.
func (e Edge) Touches(ids map[string]struct{}) bool {
	if _, ok := ids[e.Source]; ok {
		return true
	}
	_, ok := ids[e.Target]
	return ok
}

// ChildIDs returns the targets of parentID's outgoing edges, in edge order.
func ChildIDs(parentID string, edges []Edge) []string {
	var out []string
	for _, e := range edges {
		if e.Source == parentID {
			out = append(out, e.Target)
		}
	}
	return out
}

// ParentIDs returns the sources of nodeID's incoming edges, in edge order.
func ParentIDs(nodeID string, edges []Edge) []string {
	var out []string
	for _, e := range edges {
		if e.Target == nodeID {
			out = append(out, e.Source)
		}
	}
	return out
}
