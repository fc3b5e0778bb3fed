package entities

import (
	"time"

	"diary-backend/domain/core/valueobjects"
)

// Report is a generated weekly or monthly digest over several maps.
type Report struct {
	ID            string                  `json:"id"`
	Type          valueobjects.ReportType `json:"type"`
	PeriodID      string                  `json:"periodId"`
	PeriodDisplay string                  `json:"periodDisplay"`
	Chronological string                  `json:"chronological"`
	Thematic      string                  `json:"thematic"`
	Summary       string                  `json:"summary"`
	Emotion       string                  `json:"emotion"`
	MapCount      int                     `json:"mapCount"`
	CreatedAt     time.Time               `json:"createdAt"`
}
