package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"diary-backend/application/ports"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	domainservices "diary-backend/domain/services"
	"diary-backend/domain/events"
	pkgerrors "diary-backend/pkg/errors"
	"diary-backend/pkg/utils"

	"go.uber.org/zap"
)

// NothingToSummarize is the summary text returned when a map has no content.
const NothingToSummarize = "Nothing to summarize yet."

// SummaryResult is the outcome of a summarize request.
type SummaryResult struct {
	MapIDs     []string                 `json:"mapIds"`
	Summary    string                   `json:"summary"`
	Emotion    string                   `json:"emotion"`
	Financials []entities.FinancialItem `json:"financials"`
	Totals     entities.FinancialTotals `json:"totals"`
	// Cached is set when the stored summary was still current.
	Cached bool `json:"cached"`
	// Empty is set when there was nothing to summarize and the AI was not called.
	Empty bool `json:"empty"`
	// Fallback is set when the AI failed and the placeholder was returned.
	Fallback     bool       `json:"fallback"`
	SummarizedAt *time.Time `json:"summarizedAt,omitempty"`
}

func emptyResult(mapIDs ...string) SummaryResult {
	return SummaryResult{MapIDs: mapIDs, Summary: NothingToSummarize, Empty: true}
}

// SummaryService renders maps to markdown and turns them into AI summaries.
type SummaryService struct {
	maps      ports.MapRepository
	graph     ports.GraphStore
	ai        ports.AIGateway
	publisher ports.EventPublisher
	cfg       *config.DomainConfig
	clock     ports.Clock
	logger    *zap.Logger
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	maps ports.MapRepository,
	graph ports.GraphStore,
	ai ports.AIGateway,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	clock ports.Clock,
	logger *zap.Logger,
) *SummaryService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SummaryService{
		maps:      maps,
		graph:     graph,
		ai:        ai,
		publisher: publisher,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// Markdown renders one map: note content as is, graph maps as a nested outline.
func (s *SummaryService) Markdown(ctx context.Context, userID, mapID string) (string, error) {
	m, err := s.maps.Get(ctx, userID, mapID)
	if err != nil {
		return "", err
	}
	return s.markdownOf(ctx, userID, m)
}

func (s *SummaryService) markdownOf(ctx context.Context, userID string, m entities.Map) (string, error) {
	if !m.Type.HasGraph() {
		return m.Content, nil
	}
	nodes, edges, err := s.graph.FetchGraph(ctx, userID, m.ID)
	if err != nil {
		return "", err
	}
	return domainservices.SummarizeGraph(nodes, edges), nil
}

// Summarize returns the map's summary, asking the AI only when the map changed
// since the last summary or force is set. The result is stored on the map.
func (s *SummaryService) Summarize(ctx context.Context, userID, mapID string, force bool) (SummaryResult, error) {
	m, err := s.maps.Get(ctx, userID, mapID)
	if err != nil {
		return SummaryResult{}, err
	}
	return s.summarizeMap(ctx, userID, m, force)
}

func (s *SummaryService) summarizeMap(ctx context.Context, userID string, m entities.Map, force bool) (SummaryResult, error) {
	if !force && !m.NeedsSummary() {
		s.logger.Debug("Summary is current", zap.String("mapID", m.ID))
		return SummaryResult{
			MapIDs:       []string{m.ID},
			Summary:      m.Summary,
			Emotion:      m.Emotion,
			Financials:   m.Financials,
			Totals:       entities.Totals(m.Financials),
			Cached:       true,
			SummarizedAt: m.SummarizedAt,
		}, nil
	}

	markdown, err := s.markdownOf(ctx, userID, m)
	if err != nil {
		return SummaryResult{}, err
	}
	if strings.TrimSpace(markdown) == "" {
		return emptyResult(m.ID), nil
	}

	summary := s.ai.SummarizeDiary(ctx, markdown)
	if summary.Fallback {
		// Not stored, so the next request tries again.
		return SummaryResult{
			MapIDs:   []string{m.ID},
			Summary:  summary.Summary,
			Emotion:  summary.Emotion,
			Fallback: true,
		}, nil
	}

	at := s.clock.Now()
	if err := s.maps.SaveSummary(ctx, userID, m.ID, ports.SummaryRecord{
		Summary:    summary.Summary,
		Emotion:    summary.Emotion,
		Financials: summary.Financials,
		At:         at,
	}); err != nil {
		return SummaryResult{}, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewMapSummarized(userID, m.ID, summary.Emotion, at))
	return SummaryResult{
		MapIDs:       []string{m.ID},
		Summary:      summary.Summary,
		Emotion:      summary.Emotion,
		Financials:   summary.Financials,
		Totals:       entities.Totals(summary.Financials),
		SummarizedAt: &at,
	}, nil
}

// MapsOnDate returns the daily maps whose date key is date, oldest activity first.
func (s *SummaryService) MapsOnDate(ctx context.Context, userID, date string) ([]entities.Map, error) {
	if _, err := utils.ParseDate(date, s.cfg.Location); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	all, err := s.maps.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []entities.Map
	for _, m := range all {
		if m.IsDaily() && m.DateKey(s.cfg.Location) == date {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(out[i]).Before(lastActivity(out[j]))
	})
	return out, nil
}

func lastActivity(m entities.Map) time.Time {
	if !m.UpdatedAt.IsZero() {
		return m.UpdatedAt
	}
	return m.CreatedAt
}

// SummarizeDate summarizes every map of one calendar day. A single map goes
// through Summarize; several are combined and summarized without being stored.
func (s *SummaryService) SummarizeDate(ctx context.Context, userID, date string, force bool) (SummaryResult, error) {
	maps, err := s.MapsOnDate(ctx, userID, date)
	if err != nil {
		return SummaryResult{}, err
	}
	switch len(maps) {
	case 0:
		return emptyResult(), nil
	case 1:
		return s.summarizeMap(ctx, userID, maps[0], force)
	}

	var sections []string
	var ids []string
	for _, m := range maps {
		markdown, err := s.markdownOf(ctx, userID, m)
		if err != nil {
			return SummaryResult{}, err
		}
		ids = append(ids, m.ID)
		if strings.TrimSpace(markdown) == "" {
			continue
		}
		sections = append(sections, "# "+m.Title+"\n\n"+markdown)
	}
	if len(sections) == 0 {
		return emptyResult(ids...), nil
	}

	summary := s.ai.SummarizeDiary(ctx, strings.Join(sections, "\n\n"))
	return SummaryResult{
		MapIDs:     ids,
		Summary:    summary.Summary,
		Emotion:    summary.Emotion,
		Financials: summary.Financials,
		Totals:     entities.Totals(summary.Financials),
		Fallback:   summary.Fallback,
	}, nil
}
