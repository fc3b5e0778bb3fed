// Package ai turns diary requests into prompts for a text-generation backend
// and parses the replies.
package ai

import (
	"context"
	"errors"
	"time"

	"diary-backend/application/ports"
	"diary-backend/domain/config"
	"diary-backend/domain/core/entities"
	pkgerrors "diary-backend/pkg/errors"
	"diary-backend/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// FallbackSummary and FallbackEmotion replace a diary summary the AI could not produce.
const (
	FallbackSummary = "The summary could not be generated right now. Please try again later."
	FallbackEmotion = "⚠️"
)

// Operation names used for metrics and tracing.
const (
	opTopicIdeas = "topic_ideas"
	opIdeas      = "ideas"
	opSummary    = "summary"
	opReport     = "report"
)

// Recorder receives AI call metrics.
type Recorder interface {
	RecordAICall(operation string, d time.Duration, err error)
	RecordAIRetry(operation string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAICall(string, time.Duration, error) {}
func (noopRecorder) RecordAIRetry(string)                      {}

// Gateway implements ports.AIGateway over a TextGenerator. Rate-limited calls
// are retried with exponential backoff; a circuit breaker stops calling a
// backend that keeps failing.
type Gateway struct {
	gen     ports.TextGenerator
	cfg     *config.DomainConfig
	breaker *gobreaker.CircuitBreaker
	metrics Recorder
	tracer  *observability.Tracer
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a gateway. metrics and tracer may be nil.
func NewGateway(
	gen ports.TextGenerator,
	cfg *config.DomainConfig,
	metrics Recorder,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *Gateway {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ai",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Quota errors are handled by the retry loop and do not count against the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || pkgerrors.IsRateLimit(err)
		},
	})
	return &Gateway{
		gen:     gen,
		cfg:     cfg,
		breaker: breaker,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// generate calls the backend, retrying rate-limit errors up to AIMaxAttempts
// attempts with a delay of AIBaseDelay doubled after every attempt.
func (g *Gateway) generate(ctx context.Context, op, prompt string, opts ports.GenerateOptions) (string, error) {
	start := time.Now()
	var text string
	err := g.tracer.TraceFunction(ctx, "ai."+op, func(ctx context.Context) error {
		var err error
		text, err = g.generateWithRetry(ctx, op, prompt, opts)
		return err
	})
	g.metrics.RecordAICall(op, time.Since(start), err)
	return text, err
}

func (g *Gateway) generateWithRetry(ctx context.Context, op, prompt string, opts ports.GenerateOptions) (string, error) {
	delay := g.cfg.AIBaseDelay
	attempts := max(1, g.cfg.AIMaxAttempts)

	for attempt := 1; ; attempt++ {
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.gen.Generate(ctx, prompt, opts)
		})
		if err == nil {
			return result.(string), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", pkgerrors.NewUnavailableError("ai").WithCause(err)
		}
		if !pkgerrors.IsRateLimit(err) || attempt >= attempts {
			return "", classify(err)
		}

		g.logger.Warn("AI rate limited, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		g.metrics.RecordAIRetry(op)
		if err := g.sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
}

func classify(err error) error {
	if pkgerrors.GetAppError(err) != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return pkgerrors.NewExternalError("ai", err)
}

// GenerateTopicIdeas returns at most TopicIdeaLimit idea labels for topic.
func (g *Gateway) GenerateTopicIdeas(ctx context.Context, topic string) ([]string, error) {
	limit := g.cfg.TopicIdeaLimit
	text, err := g.generate(ctx, opTopicIdeas, topicIdeasPrompt(topic, limit), ports.GenerateOptions{})
	if err != nil {
		return nil, err
	}
	return parseIdeas(text, limit), nil
}

// GenerateIdeas returns at most ContextualIdeaLimit new child labels for req.Topic.
func (g *Gateway) GenerateIdeas(ctx context.Context, req ports.IdeaRequest) ([]string, error) {
	limit := g.cfg.ContextualIdeaLimit
	text, err := g.generate(ctx, opIdeas, contextualIdeasPrompt(req, limit), ports.GenerateOptions{})
	if err != nil {
		return nil, err
	}
	return parseIdeas(text, limit), nil
}

// SummarizeDiary never returns an error: failures of any kind produce the
// fallback summary.
func (g *Gateway) SummarizeDiary(ctx context.Context, markdown string) ports.DiarySummary {
	text, err := g.generate(ctx, opSummary, diarySummaryPrompt(markdown), ports.GenerateOptions{JSON: true})
	if err != nil {
		g.logger.Error("Diary summary failed", zap.Error(err))
		return fallbackSummary()
	}
	summary, emotion, financials, err := parseSummary(text)
	if err != nil {
		g.logger.Error("Diary summary response malformed", zap.Error(err))
		return fallbackSummary()
	}
	return ports.DiarySummary{Summary: summary, Emotion: emotion, Financials: financials}
}

func fallbackSummary() ports.DiarySummary {
	return ports.DiarySummary{
		Summary:    FallbackSummary,
		Emotion:    FallbackEmotion,
		Financials: []entities.FinancialItem{},
		Fallback:   true,
	}
}

// GenerateReport writes a periodic report. A malformed reply is an external error.
func (g *Gateway) GenerateReport(ctx context.Context, req ports.ReportRequest) (ports.ReportContent, error) {
	text, err := g.generate(ctx, opReport, reportPrompt(req), ports.GenerateOptions{JSON: true})
	if err != nil {
		return ports.ReportContent{}, err
	}
	p, err := parseReport(text)
	if err != nil {
		return ports.ReportContent{}, pkgerrors.NewExternalError("ai", err).WithDetail("operation", opReport)
	}
	return ports.ReportContent{
		Chronological: p.Chronological,
		Thematic:      p.Thematic,
		Summary:       p.Summary,
		Emotion:       p.Emotion,
	}, nil
}
