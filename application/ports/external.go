package ports

import (
	"context"
	"time"

	"diary-backend/domain/core/entities"
	"diary-backend/domain/core/valueobjects"
)

// GenerateOptions tunes one text-generation call.
type GenerateOptions struct {
	// JSON asks the backend for a JSON object response when it supports one.
	JSON bool
}

// TextGenerator is the AI backend: prompt text in, text out.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Lock is a held mutual-exclusion lease.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out named leases. Acquire fails with a conflict error
// when the name is already held and its lease has not expired.
type Locker interface {
	Acquire(ctx context.Context, name, owner string, ttl time.Duration) (Lock, error)
}

// IdeaRequest asks for ideas that extend one node of a map.
type IdeaRequest struct {
	Topic string
	// Path holds the labels from the root down to the topic's parent.
	Path    []string
	Exclude []string
	Content string
}

// DiarySummary is the structured result of summarizing one diary.
// Fallback is set when the placeholder was returned instead of a real summary.
type DiarySummary struct {
	Summary    string
	Emotion    string
	Financials []entities.FinancialItem
	Fallback   bool
}

// ReportRequest asks for a periodic report over the combined markdown of several maps.
type ReportRequest struct {
	Type     valueobjects.ReportType
	Label    string
	Markdown string
}

// ReportContent is the AI-written body of a report.
type ReportContent struct {
	Chronological string
	Thematic      string
	Summary       string
	Emotion       string
}

// AIGateway is the prompt-level view of the AI backend.
type AIGateway interface {
	// GenerateIdeas returns at most the contextual idea limit of new child labels.
	GenerateIdeas(ctx context.Context, req IdeaRequest) ([]string, error)

	// GenerateTopicIdeas returns at most the topic idea limit of labels for a bare topic.
	GenerateTopicIdeas(ctx context.Context, topic string) ([]string, error)

	// SummarizeDiary never fails; any error yields the placeholder summary.
	SummarizeDiary(ctx context.Context, markdown string) DiarySummary

	GenerateReport(ctx context.Context, req ReportRequest) (ReportContent, error)
}
