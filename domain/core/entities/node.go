package entities

import (
	"strings"
	"time"

	"diary-backend/domain/core/valueobjects"
)

// NodeKind is the renderer type stored on every node document.
const NodeKind = "diary"

// UntitledLabel is the display label of a node with no label at all.
const UntitledLabel = "untitled"

// NodeData mirrors the display payload stored under "data" on a node document.
type NodeData struct {
	Label    string `json:"label"`
	Content  string `json:"content,omitempty"`
	Preview  string `json:"preview,omitempty"`
	IsChoice bool   `json:"isChoice,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// Node is one idea or diary entry in a map's graph.
type Node struct {
	ID        string                `json:"id"`
	Label     string                `json:"label"`
	Content   string                `json:"content,omitempty"`
	Position  valueobjects.Position `json:"position"`
	Data      NodeData              `json:"data"`
	Hidden    bool                  `json:"hidden,omitempty"`
	Type      string                `json:"type"`
	CreatedAt time.Time             `json:"createdAt"`
}

// NewNode builds an unsaved node. The store assigns the id.
func NewNode(text valueobjects.NodeText, position valueobjects.Position, previewLen int) Node {
	return Node{
		Label:    text.Label(),
		Content:  text.Content(),
		Position: position,
		Data: NodeData{
			Label:   text.Label(),
			Content: text.Content(),
			Preview: previewOrEmpty(text.Content(), previewLen),
		},
		Type: NodeKind,
	}
}

// NewChoiceNode builds a node that belongs to an exclusive choice group under parentID.
func NewChoiceNode(text valueobjects.NodeText, position valueobjects.Position, parentID string) Node {
	n := NewNode(text, position, 0)
	n.Data.IsChoice = true
	n.Data.ParentID = parentID
	return n
}

func previewOrEmpty(content string, n int) string {
	if content == "" || n <= 0 {
		return ""
	}
	return valueobjects.Preview(content, n)
}

// DisplayLabel falls back from label to data.label to the untitled placeholder.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return UntitledLabel
}

// Body returns the node's content, falling back to data.content.
func (n Node) Body() string {
	if n.Content != "" {
		return n.Content
	}
	return n.Data.Content
}

// HasBody reports whether the body has any non-whitespace text.
func (n Node) HasBody() bool {
	return strings.TrimSpace(n.Body()) != ""
}

// IsVisible reports whether the node is not hidden.
func (n Node) IsVisible() bool {
	return !n.Hidden
}

// IsChoiceOf reports whether n is a choice branch of parentID.
func (n Node) IsChoiceOf(parentID string) bool {
	return n.Data.IsChoice && n.Data.ParentID == parentID
}

// VisibleNodes filters out hidden nodes, keeping order.
func VisibleNodes(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsVisible() {
			out = append(out, n)
		}
	}
	return out
}

// IndexNodes maps node ids to nodes.
func IndexNodes(nodes []Node) map[string]Node {
	idx := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n
	}
	return idx
}
