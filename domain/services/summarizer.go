package services

import (
	"sort"
	"strings"

	"diary-backend/domain/core/entities"
)

// SummarizeGraph renders the visible part of a map graph as nested markdown.
//
// Roots (visible nodes with no incoming edge from a visible node) are walked
// depth-first in label order; children are ordered by label as well. When every
// visible node has a parent the whole visible set is used as roots. Nodes not
// reached from any root are appended afterwards, in input order. Edges with a
// missing or hidden endpoint are skipped.
func SummarizeGraph(nodes []entities.Node, edges []entities.Edge) string {
	visible := entities.VisibleNodes(nodes)
	if len(visible) == 0 {
		return ""
	}
	index := entities.IndexNodes(visible)

	children := make(map[string][]string)
	incoming := make(map[string]struct{})
	for _, e := range edges {
		_, okSource := index[e.Source]
		_, okTarget := index[e.Target]
		if !okSource || !okTarget {
			continue
		}
		children[e.Source] = append(children[e.Source], e.Target)
		incoming[e.Target] = struct{}{}
	}

	byLabel := func(ids []string) {
		sort.SliceStable(ids, func(i, j int) bool {
			li, lj := index[ids[i]].DisplayLabel(), index[ids[j]].DisplayLabel()
			if li != lj {
				return li < lj
			}
			return ids[i] < ids[j]
		})
	}
	for _, ids := range children {
		byLabel(ids)
	}

	var roots []string
	for _, n := range visible {
		if _, ok := incoming[n.ID]; !ok {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		for _, n := range visible {
			roots = append(roots, n.ID)
		}
	}
	byLabel(roots)

	w := &outlineWriter{index: index, children: children, visited: make(map[string]struct{})}
	for _, id := range roots {
		w.walk(id)
	}
	for _, n := range visible {
		w.walk(n.ID)
	}

	return strings.Join(w.lines, "\n")
}

type outlineFrame struct {
	id    string
	depth int
}

type outlineWriter struct {
	index    map[string]entities.Node
	children map[string][]string
	visited  map[string]struct{}
	lines    []string
}

// walk emits the subtree under rootID in pre-order, skipping anything already emitted.
func (w *outlineWriter) walk(rootID string) {
	stack := []outlineFrame{{id: rootID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := w.visited[f.id]; seen {
			continue
		}
		w.visited[f.id] = struct{}{}

		node, ok := w.index[f.id]
		if !ok {
			continue
		}
		w.emit(node, f.depth)

		kids := w.children[f.id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, outlineFrame{id: kids[i], depth: f.depth + 1})
		}
	}
}

func (w *outlineWriter) emit(node entities.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	w.lines = append(w.lines, indent+"- **"+node.DisplayLabel()+"**")

	if !node.HasBody() {
		return
	}
	bodyIndent := strings.Repeat("  ", depth+1)
	body := strings.ReplaceAll(node.Body(), "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	for _, line := range strings.Split(body, "\n") {
		w.lines = append(w.lines, bodyIndent+"> "+line)
	}
}
