package entities

import (
	"strings"
	"time"

	"diary-backend/domain/core/valueobjects"
)

// Map is one user-owned diary page: a node/edge graph or flat note content.
type Map struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Type         valueobjects.MapType `json:"type"`
	Content      string               `json:"content,omitempty"`
	Summary      string               `json:"summary,omitempty"`
	Emotion      string               `json:"emotion,omitempty"`
	Financials   []FinancialItem      `json:"financials,omitempty"`
	SummarizedAt *time.Time           `json:"summarizedAt,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// NeedsSummary reports whether the map changed since it was last summarized.
func (m Map) NeedsSummary() bool {
	if m.SummarizedAt == nil {
		return true
	}
	return m.UpdatedAt.After(*m.SummarizedAt)
}

// DateKey is the calendar day the map belongs to, or "" when unknown.
// createdAt wins, then updatedAt, then a YYYY-MM-DD prefix of the title.
func (m Map) DateKey(loc *time.Location) string {
	switch {
	case !m.CreatedAt.IsZero():
		return m.CreatedAt.In(loc).Format("2006-01-02")
	case !m.UpdatedAt.IsZero():
		return m.UpdatedAt.In(loc).Format("2006-01-02")
	case len(m.Title) >= 10:
		if _, err := time.Parse("2006-01-02", m.Title[:10]); err == nil {
			return m.Title[:10]
		}
	}
	return ""
}

// legacyDailyTitle marks daily maps created before maps had a type.
const legacyDailyTitle = "일의 기록"

// IsDaily reports whether the map is a daily diary page.
func (m Map) IsDaily() bool {
	return m.Type == valueobjects.MapTypeDaily || strings.Contains(m.Title, legacyDailyTitle)
}

// ActivityTime is the timestamp used to bucket the map into report periods.
func (m Map) ActivityTime() time.Time {
	if !m.CreatedAt.IsZero() {
		return m.CreatedAt
	}
	return m.UpdatedAt
}

// Pages splits note content into its two pages.
func (m Map) Pages() (left, right string) {
	return valueobjects.SplitPages(m.Content)
}
