package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"diary-backend/application/ports"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

type countingRecorder struct {
	calls   map[string]int
	retries map[string]int
}

func (r *countingRecorder) RecordAICall(op string, _ time.Duration, _ error) { r.calls[op]++ }
func (r *countingRecorder) RecordAIRetry(op string)                          { r.retries[op]++ }

func newTestGateway(gen ports.TextGenerator) (*Gateway, *[]time.Duration, *countingRecorder) {
	cfg := config.DefaultDomainConfig()
	rec := &countingRecorder{calls: map[string]int{}, retries: map[string]int{}}
	g := NewGateway(gen, cfg, rec, nil, zap.NewNop())
	var sleeps []time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return g, &sleeps, rec
}

func rateLimited() error {
	return pkgerrors.NewRateLimitError("openrouter", errors.New("429 Too Many Requests"))
}

func TestGateway_IdeaTruncation(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		call  func(g *Gateway) ([]string, error)
		want  []string
	}{
		{
			name:  "topic ideas keep five",
			reply: "A, B, , C, D, E, F, G",
			call: func(g *Gateway) ([]string, error) {
				return g.GenerateTopicIdeas(context.Background(), "Travel")
			},
			want: []string{"A", "B", "C", "D", "E"},
		},
		{
			name:  "contextual ideas keep three",
			reply: " Packing list ,Flights,Hotels,Food, Museums",
			call: func(g *Gateway) ([]string, error) {
				return g.GenerateIdeas(context.Background(), ports.IdeaRequest{Topic: "Trip", Path: []string{"Summer"}})
			},
			want: []string{"Packing list", "Flights", "Hotels"},
		},
		{
			name:  "fewer items are fine",
			reply: "Only one",
			call: func(g *Gateway) ([]string, error) {
				return g.GenerateTopicIdeas(context.Background(), "Travel")
			},
			want: []string{"Only one"},
		},
		{
			name:  "empty reply is not an error",
			reply: " , ,",
			call: func(g *Gateway) ([]string, error) {
				return g.GenerateIdeas(context.Background(), ports.IdeaRequest{Topic: "Trip"})
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			gen := &mockGenerator{}
			gen.On("Generate", mock.Anything, mock.Anything, ports.GenerateOptions{}).Return(tt.reply, nil)
			g, _, _ := newTestGateway(gen)

			// Act
			got, err := tt.call(g)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGateway_ContextualPromptMentionsContext(t *testing.T) {
	// Arrange
	gen := &mockGenerator{}
	var prompt string
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return("x", nil)
	g, _, _ := newTestGateway(gen)

	// Act
	_, err := g.GenerateIdeas(context.Background(), ports.IdeaRequest{
		Topic:   "Trip",
		Path:    []string{"2024-08-14", "Summer"},
		Exclude: []string{"Flights"},
		Content: "Going to Lisbon",
	})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, prompt, "2024-08-14 > Summer > Trip")
	assert.Contains(t, prompt, "do not repeat: Flights")
	assert.Contains(t, prompt, "Going to Lisbon")
	assert.Contains(t, prompt, "Suggest 3")
}

func TestGateway_RetriesRateLimits(t *testing.T) {
	// Arrange
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", rateLimited()).Twice()
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("A, B", nil).Once()
	g, sleeps, rec := newTestGateway(gen)

	// Act
	got, err := g.GenerateTopicIdeas(context.Background(), "Travel")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *sleeps)
	assert.Equal(t, 2, rec.retries[opTopicIdeas])
	assert.Equal(t, 1, rec.calls[opTopicIdeas])
	gen.AssertNumberOfCalls(t, "Generate", 3)
}

func TestGateway_RetryExhaustion(t *testing.T) {
	// Arrange
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", rateLimited())
	g, sleeps, _ := newTestGateway(gen)

	// Act
	_, err := g.GenerateIdeas(context.Background(), ports.IdeaRequest{Topic: "Trip"})

	// Assert
	assert.True(t, pkgerrors.IsRateLimit(err))
	assert.Len(t, *sleeps, 2)
	gen.AssertNumberOfCalls(t, "Generate", 3)
}

func TestGateway_RateLimitsDoNotOpenBreaker(t *testing.T) {
	// Arrange
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", rateLimited())
	g, sleeps, _ := newTestGateway(gen)

	// Act
	_, first := g.GenerateTopicIdeas(context.Background(), "Travel")
	_, second := g.GenerateTopicIdeas(context.Background(), "Travel")

	// Assert
	assert.True(t, pkgerrors.IsRateLimit(first))
	assert.True(t, pkgerrors.IsRateLimit(second))
	assert.Equal(t, gobreaker.StateClosed, g.breaker.State())
	assert.Len(t, *sleeps, 4)
	gen.AssertNumberOfCalls(t, "Generate", 6)
}

func TestGateway_OtherErrorsAreNotRetried(t *testing.T) {
	// Arrange
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bad request"))
	g, sleeps, _ := newTestGateway(gen)

	// Act
	_, err := g.GenerateTopicIdeas(context.Background(), "Travel")

	// Assert
	assert.True(t, pkgerrors.IsExternal(err))
	assert.Empty(t, *sleeps)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGateway_CancelledWhileWaiting(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", rateLimited())
	g, _, _ := newTestGateway(gen)
	g.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.GenerateTopicIdeas(ctx, "Travel")

	assert.ErrorIs(t, err, context.Canceled)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGateway_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	// Arrange
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("boom"))
	g, _, _ := newTestGateway(gen)
	for i := 0; i < 5; i++ {
		_, _ = g.GenerateTopicIdeas(context.Background(), "Travel")
	}

	// Act
	_, err := g.GenerateTopicIdeas(context.Background(), "Travel")

	// Assert
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	gen.AssertNumberOfCalls(t, "Generate", 5)
}

func TestGateway_SummarizeDiary(t *testing.T) {
	// Arrange
	reply := "```json\n" + `{"summary":"A calm day.","emotion":"😌","financials":[` +
		`{"type":"expense","label":"Coffee","amount":4.5},` +
		`{"type":"Income","label":"Refund","amount":20},` +
		`{"type":"gift","label":"Flowers","amount":10}]}` + "\n```"
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, ports.GenerateOptions{JSON: true}).Return(reply, nil)
	g, _, _ := newTestGateway(gen)

	// Act
	got := g.SummarizeDiary(context.Background(), "- **Walk**")

	// Assert
	assert.False(t, got.Fallback)
	assert.Equal(t, "A calm day.", got.Summary)
	assert.Equal(t, "😌", got.Emotion)
	assert.Equal(t, []entities.FinancialItem{
		{Type: entities.FinancialExpense, Label: "Coffee", Amount: 4.5},
		{Type: entities.FinancialIncome, Label: "Refund", Amount: 20},
	}, got.Financials)
}

func TestGateway_SummarizeDiaryFallback(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "malformed json", reply: "not json at all"},
		{name: "missing emotion", reply: `{"summary":"A day."}`},
		{name: "backend error", err: errors.New("boom")},
		{name: "rate limit exhausted", err: rateLimited()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			gen := &mockGenerator{}
			gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(tt.reply, tt.err)
			g, _, _ := newTestGateway(gen)

			// Act
			got := g.SummarizeDiary(context.Background(), "- **Walk**")

			// Assert
			assert.True(t, got.Fallback)
			assert.Equal(t, FallbackSummary, got.Summary)
			assert.Equal(t, FallbackEmotion, got.Emotion)
		})
	}
}

func TestGateway_GenerateReport(t *testing.T) {
	// Arrange
	gen := &mockGenerator{}
	var prompt string
	gen.On("Generate", mock.Anything, mock.Anything, ports.GenerateOptions{JSON: true}).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return(`Here you go: {"chronological":"Mon: gym","thematic":"Health","summary":"Active week","emotion":"💪"}`, nil)
	g, _, _ := newTestGateway(gen)

	// Act
	got, err := g.GenerateReport(context.Background(), ports.ReportRequest{
		Type:     valueobjects.ReportTypeWeekly,
		Label:    "week of Aug 5",
		Markdown: "## Monday\n\n- **Gym**",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ports.ReportContent{
		Chronological: "Mon: gym",
		Thematic:      "Health",
		Summary:       "Active week",
		Emotion:       "💪",
	}, got)
	assert.Contains(t, prompt, "weekly reflection report for the week of Aug 5")
	assert.Contains(t, prompt, "## Monday")
}

func TestGateway_GenerateReportMalformed(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(`{"thematic":"x"}`, nil)
	g, _, _ := newTestGateway(gen)

	_, err := g.GenerateReport(context.Background(), ports.ReportRequest{Type: valueobjects.ReportTypeMonthly})

	assert.True(t, pkgerrors.IsExternal(err))
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}```", want: `{"a":1}`},
		{in: "  \n```json\n{}\n```  ", want: `{}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFence(tt.in))
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{msg: "error, status code: 429", want: true},
		{msg: "Rate limit exceeded", want: true},
		{msg: "quota exhausted for model", want: true},
		{msg: "RESOURCE_EXHAUSTED", want: true},
		{msg: "invalid api key", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isRateLimitError(errors.New(tt.msg)), tt.msg)
	}
}
