package queries

import "diary-backend/pkg/utils"

// ListReportsQuery lists a user's reports, newest first.
type ListReportsQuery struct {
	UserID string `validate:"required"`
}

func (q ListReportsQuery) Validate() error { return utils.ValidateStruct(q) }

// GetReportQuery fetches one report. Reports never change once stored,
// so results are cacheable.
type GetReportQuery struct {
	UserID   string `validate:"required"`
	ReportID string `validate:"required"`
}

func (q GetReportQuery) Validate() error { return utils.ValidateStruct(q) }

func (q GetReportQuery) CacheKey() string { return q.UserID + "/" + q.ReportID }

// TopicIdeasQuery asks the AI for ideas about a bare topic.
type TopicIdeasQuery struct {
	UserID string `validate:"required"`
	Topic  string `validate:"required,max=200"`
}

func (q TopicIdeasQuery) Validate() error { return utils.ValidateStruct(q) }

// IdeasResult lists generated idea labels.
type IdeasResult struct {
	Ideas []string `json:"ideas"`
}
