package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"diary-backend/application/ports"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	"diary-backend/domain/events"
	pkgerrors "diary-backend/pkg/errors"
	"diary-backend/pkg/utils"

	"go.uber.org/zap"
)

const searchSnippetRadius = 40

// Search match kinds, in the order they are tried.
const (
	MatchTitle   = "title"
	MatchSummary = "summary"
	MatchContent = "content"
	MatchNode    = "node"
)

// SearchHit is one map matching a search query.
type SearchHit struct {
	MapID   string `json:"mapId"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	NodeID  string `json:"nodeId,omitempty"`
	Snippet string `json:"snippet"`
}

// CreateMapInput describes a new map. Empty fields take defaults.
type CreateMapInput struct {
	Title string
	Type  valueobjects.MapType
}

// MapService manages a user's collection of maps.
type MapService struct {
	maps      ports.MapRepository
	graph     ports.GraphStore
	mindmaps  *MindMapService
	publisher ports.EventPublisher
	cfg       *config.DomainConfig
	clock     ports.Clock
	logger    *zap.Logger
}

// NewMapService creates a new map service
func NewMapService(
	maps ports.MapRepository,
	graph ports.GraphStore,
	mindmaps *MindMapService,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *MapService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &MapService{
		maps:      maps,
		graph:     graph,
		mindmaps:  mindmaps,
		publisher: publisher,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// Create stores a new map. The default title is today's date; a taken title
// gets " #2", " #3", ... appended. Daily maps are seeded with the prompt graph.
func (s *MapService) Create(ctx context.Context, userID string, input CreateMapInput) (entities.Map, error) {
	mapType := input.Type
	if mapType == "" {
		mapType = valueobjects.MapTypeBlank
	}

	existing, err := s.maps.List(ctx, userID)
	if err != nil {
		return entities.Map{}, err
	}

	base := strings.TrimSpace(input.Title)
	if base == "" {
		base = utils.FormatDate(s.clock.Now(), s.cfg.Location)
	}
	title := uniqueTitle(base, existing)

	m, err := s.maps.Create(ctx, userID, entities.Map{Title: title, Type: mapType})
	if err != nil {
		return entities.Map{}, err
	}

	if mapType == valueobjects.MapTypeDaily {
		if _, err := s.mindmaps.SeedDailyTemplate(ctx, userID, m.ID, title); err != nil {
			s.logger.Error("Failed to seed daily template", zap.String("mapID", m.ID), zap.Error(err))
			return m, err
		}
	}

	s.logger.Info("Created map",
		zap.String("userID", userID),
		zap.String("mapID", m.ID),
		zap.String("type", string(mapType)),
	)
	publishEvent(ctx, s.publisher, s.logger, events.NewMapCreated(userID, m.ID, string(mapType), title, s.clock.Now()))
	return m, nil
}

func uniqueTitle(base string, existing []entities.Map) string {
	taken := make(map[string]bool, len(existing))
	for _, m := range existing {
		taken[m.Title] = true
	}
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s #%d", base, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

func (s *MapService) Get(ctx context.Context, userID, mapID string) (entities.Map, error) {
	return s.maps.Get(ctx, userID, mapID)
}

// List returns the user's maps, most recently updated first.
func (s *MapService) List(ctx context.Context, userID string) ([]entities.Map, error) {
	return s.maps.List(ctx, userID)
}

// Rename changes a map's title.
func (s *MapService) Rename(ctx context.Context, userID, mapID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	return s.maps.Update(ctx, userID, mapID, ports.MapUpdate{Title: &title})
}

// UpdateContent replaces a note map's content.
func (s *MapService) UpdateContent(ctx context.Context, userID, mapID, content string) error {
	m, err := s.maps.Get(ctx, userID, mapID)
	if err != nil {
		return err
	}
	if m.Type != valueobjects.MapTypeNote {
		return pkgerrors.NewValidationError("only note maps have content").WithDetail("map_id", mapID)
	}
	return s.maps.Update(ctx, userID, mapID, ports.MapUpdate{Content: &content})
}

// UpdatePages stores a note's two facing pages.
func (s *MapService) UpdatePages(ctx context.Context, userID, mapID, left, right string) error {
	return s.UpdateContent(ctx, userID, mapID, valueobjects.JoinPages(left, right))
}

// Delete removes the map and its whole graph.
func (s *MapService) Delete(ctx context.Context, userID, mapID string) error {
	nodes, edges, err := s.maps.Delete(ctx, userID, mapID)
	if err != nil {
		return err
	}
	s.logger.Info("Deleted map",
		zap.String("mapID", mapID),
		zap.Int("nodes", nodes),
		zap.Int("edges", edges),
	)
	publishEvent(ctx, s.publisher, s.logger, events.NewMapDeleted(userID, mapID, nodes, edges, s.clock.Now()))
	return nil
}

// Search finds maps whose title, summary, content or node text contains query,
// ignoring case. Each map yields at most one hit, for its first matching field.
func (s *MapService) Search(ctx context.Context, userID, query string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.NewValidationError("query cannot be empty")
	}
	needle := lowerRunes(query)

	maps, err := s.maps.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	hits := []SearchHit{}
	for _, m := range maps {
		hit, ok, err := s.searchMap(ctx, userID, m, needle)
		if err != nil {
			return nil, err
		}
		if ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (s *MapService) searchMap(ctx context.Context, userID string, m entities.Map, needle []rune) (SearchHit, bool, error) {
	hit := SearchHit{MapID: m.ID, Title: m.Title}
	for _, field := range []struct{ kind, text string }{
		{MatchTitle, m.Title},
		{MatchSummary, m.Summary},
		{MatchContent, m.Content},
	} {
		if snippet, ok := matchSnippet(field.text, needle); ok {
			hit.Kind, hit.Snippet = field.kind, snippet
			return hit, true, nil
		}
	}

	if !m.Type.HasGraph() {
		return hit, false, nil
	}
	nodes, _, err := s.graph.FetchGraph(ctx, userID, m.ID)
	if err != nil {
		return hit, false, err
	}
	for _, n := range nodes {
		for _, text := range []string{n.DisplayLabel(), n.Body()} {
			if snippet, ok := matchSnippet(text, needle); ok {
				hit.Kind, hit.NodeID, hit.Snippet = MatchNode, n.ID, snippet
				return hit, true, nil
			}
		}
	}
	return hit, false, nil
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

// matchSnippet finds needle in text and returns the surrounding text.
func matchSnippet(text string, needle []rune) (string, bool) {
	if text == "" || len(needle) == 0 {
		return "", false
	}
	original := []rune(text)
	haystack := lowerRunes(text)

	at := -1
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			at = i
			break
		}
	}
	if at < 0 {
		return "", false
	}

	start := max(0, at-searchSnippetRadius)
	end := min(len(original), at+len(needle)+searchSnippetRadius)
	snippet := strings.Join(strings.Fields(string(original[start:end])), " ")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(original) {
		snippet += "..."
	}
	return snippet, true
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
