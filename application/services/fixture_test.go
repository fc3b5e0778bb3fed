package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"diary-backend/application/ports"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	"diary-backend/domain/events"
	"diary-backend/infrastructure/persistence/docstore"
	"diary-backend/infrastructure/persistence/memory"
	"diary-backend/pkg/utils"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAI struct {
	mock.Mock
}

func (m *mockAI) GenerateIdeas(ctx context.Context, req ports.IdeaRequest) ([]string, error) {
	args := m.Called(ctx, req)
	ideas, _ := args.Get(0).([]string)
	return ideas, args.Error(1)
}

func (m *mockAI) GenerateTopicIdeas(ctx context.Context, topic string) ([]string, error) {
	args := m.Called(ctx, topic)
	ideas, _ := args.Get(0).([]string)
	return ideas, args.Error(1)
}

func (m *mockAI) SummarizeDiary(ctx context.Context, markdown string) ports.DiarySummary {
	args := m.Called(ctx, markdown)
	return args.Get(0).(ports.DiarySummary)
}

func (m *mockAI) GenerateReport(ctx context.Context, req ports.ReportRequest) (ports.ReportContent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.ReportContent), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

type fixture struct {
	store     *memory.Store
	adapter   *docstore.Adapter
	clock     *utils.FixedClock
	ai        *mockAI
	publisher *recordingPublisher
	cfg       *config.DomainConfig

	mindmaps  *MindMapService
	deletion  *DeletionService
	summaries *SummaryService
	reports   *ReportService
	maps      *MapService
	locker    *memory.Locker
}

const testUser = "user-1"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	f := &fixture{
		store:     memory.NewStore(),
		clock:     &utils.FixedClock{T: time.Date(2024, 8, 14, 9, 0, 0, 0, time.UTC)},
		ai:        &mockAI{},
		publisher: &recordingPublisher{},
		cfg:       cfg,
		locker:    memory.NewLocker(),
	}
	t.Cleanup(func() { _ = f.store.Close() })

	f.adapter = docstore.NewAdapter(f.store, f.clock, logger)
	f.mindmaps = NewMindMapService(f.adapter, f.ai, f.publisher, cfg, f.clock, logger)
	f.deletion = NewDeletionService(f.adapter, f.publisher, f.clock, logger)
	f.summaries = NewSummaryService(f.adapter, f.adapter, f.ai, f.publisher, cfg, f.clock, logger)
	f.reports = NewReportService(f.adapter.Reports(), f.adapter, f.summaries, f.ai, f.locker, f.publisher, cfg, f.clock, logger)
	f.maps = NewMapService(f.adapter, f.adapter, f.mindmaps, f.publisher, cfg, f.clock, logger)
	return f
}

// newMap creates an empty blank map and advances the clock past its creation.
func (f *fixture) newMap(t *testing.T, title string) entities.Map {
	t.Helper()
	m, err := f.adapter.Create(context.Background(), testUser, entities.Map{Title: title})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return m
}

// newDailyMap is newMap for a daily page without the seeded template.
func (f *fixture) newDailyMap(t *testing.T, title string) entities.Map {
	t.Helper()
	m, err := f.adapter.Create(context.Background(), testUser, entities.Map{Title: title, Type: valueobjects.MapTypeDaily})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return m
}

func (f *fixture) graph(t *testing.T, mapID string) ([]entities.Node, []entities.Edge) {
	t.Helper()
	nodes, edges, err := f.adapter.FetchGraph(context.Background(), testUser, mapID)
	require.NoError(t, err)
	return nodes, edges
}

func labels(nodes []entities.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.DisplayLabel())
	}
	return out
}
