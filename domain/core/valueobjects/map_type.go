package valueobjects

import (
	"fmt"
	"strings"
)

// MapType distinguishes graph maps from flat note maps.
type MapType string

const (
	MapTypeBlank MapType = "blank"
	MapTypeDaily MapType = "daily"
	MapTypeNote  MapType = "note"
)

// ParseMapType parses a map type; the empty string means blank.
func ParseMapType(s string) (MapType, error) {
	switch MapType(strings.ToLower(strings.TrimSpace(s))) {
	case "", MapTypeBlank:
		return MapTypeBlank, nil
	case MapTypeDaily:
		return MapTypeDaily, nil
	case MapTypeNote:
		return MapTypeNote, nil
	}
	return "", fmt.Errorf("unknown map type %q", s)
}

// HasGraph reports whether maps of this type hold a node/edge graph.
func (t MapType) HasGraph() bool {
	return t != MapTypeNote
}

// PageBreak splits note content into two facing pages.
const PageBreak = "<!-- page-break -->"

// SplitPages returns the left and right page of note content.
func SplitPages(content string) (left, right string) {
	idx := strings.Index(content, PageBreak)
	if idx < 0 {
		return content, ""
	}
	left = strings.TrimRight(content[:idx], "\n")
	right = strings.TrimLeft(content[idx+len(PageBreak):], "\n")
	return left, right
}

// JoinPages is the inverse of SplitPages. An empty right page drops the marker.
func JoinPages(left, right string) string {
	if right == "" {
		return left
	}
	return left + "\n" + PageBreak + "\n" + right
}
