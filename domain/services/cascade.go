package services

import "diary-backend/domain/core/entities"

// DeletionPlan is the set of documents a cascade delete removes.
type DeletionPlan struct {
	RootID  string
	NodeIDs []string
	EdgeIDs []string
}

// PlanCascade walks outgoing edges from targetID and collects every reachable
// node (targetID included) plus every edge touching that set.
//
// The walk uses an explicit stack and a visited set, so cycles and diamonds
// terminate and each node is listed once. Node ids come out in discovery order.
func PlanCascade(targetID string, edges []entities.Edge) DeletionPlan {
	outgoing := make(map[string][]string)
	for _, e := range edges {
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}

	visited := map[string]struct{}{targetID: {}}
	nodeIDs := []string{targetID}
	stack := []string{targetID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range outgoing[current] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			nodeIDs = append(nodeIDs, next)
			stack = append(stack, next)
		}
	}

	var edgeIDs []string
	seenEdges := make(map[string]struct{})
	for _, e := range edges {
		if !e.Touches(visited) {
			continue
		}
		if _, dup := seenEdges[e.ID]; dup {
			continue
		}
		seenEdges[e.ID] = struct{}{}
		edgeIDs = append(edgeIDs, e.ID)
	}

	return DeletionPlan{RootID: targetID, NodeIDs: nodeIDs, EdgeIDs: edgeIDs}
}

// Size is the number of documents the plan deletes.
func (p DeletionPlan) Size() int {
	return len(p.NodeIDs) + len(p.EdgeIDs)
}

// Contains reports whether nodeID is part of the plan.
func (p DeletionPlan) Contains(nodeID string) bool {
	for _, id := range p.NodeIDs {
		if id == nodeID {
			return true
		}
	}
	return false
}
