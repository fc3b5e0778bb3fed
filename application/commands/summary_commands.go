package commands

import "diary-backend/pkg/utils"

// SummarizeMapCommand summarizes one map, reusing a current summary unless Force is set.
type SummarizeMapCommand struct {
	UserID string `json:"user_id" validate:"required"`
	MapID  string `json:"map_id" validate:"required"`
	Force  bool   `json:"force"`
}

func (c SummarizeMapCommand) Validate() error { return utils.ValidateStruct(c) }

// SummarizeDateCommand summarizes every map of one day.
type SummarizeDateCommand struct {
	UserID string `json:"user_id" validate:"required"`
	Date   string `json:"date" validate:"required,datekey"`
	Force  bool   `json:"force"`
}

func (c SummarizeDateCommand) Validate() error { return utils.ValidateStruct(c) }

// GenerateReportsCommand creates the due weekly and monthly reports, or the
// current week's in-progress report when InProgress is set.
type GenerateReportsCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	InProgress bool   `json:"in_progress"`
}

func (c GenerateReportsCommand) Validate() error { return utils.ValidateStruct(c) }

// DeleteReportCommand removes one stored report.
type DeleteReportCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	ReportID string `json:"report_id" validate:"required"`
}

func (c DeleteReportCommand) Validate() error { return utils.ValidateStruct(c) }
