package queries

import (
	"diary-backend/domain/core/entities"
	"diary-backend/pkg/utils"
)

// ListMapsQuery lists a user's maps, most recently updated first.
type ListMapsQuery struct {
	UserID string `validate:"required"`
}

func (q ListMapsQuery) Validate() error { return utils.ValidateStruct(q) }

// GetMapQuery fetches one map.
type GetMapQuery struct {
	UserID string `validate:"required"`
	MapID  string `validate:"required"`
}

func (q GetMapQuery) Validate() error { return utils.ValidateStruct(q) }

// GetGraphQuery fetches a map with its nodes and edges.
type GetGraphQuery struct {
	UserID string `validate:"required"`
	MapID  string `validate:"required"`
}

func (q GetGraphQuery) Validate() error { return utils.ValidateStruct(q) }

// GraphResult is a map together with its graph.
type GraphResult struct {
	Map   entities.Map    `json:"map"`
	Nodes []entities.Node `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// GetMarkdownQuery renders a map as markdown.
type GetMarkdownQuery struct {
	UserID string `validate:"required"`
	MapID  string `validate:"required"`
}

func (q GetMarkdownQuery) Validate() error { return utils.ValidateStruct(q) }

// MarkdownResult is the rendered markdown of a map.
type MarkdownResult struct {
	MapID    string `json:"mapId"`
	Markdown string `json:"markdown"`
}

// SearchMapsQuery searches a user's maps.
type SearchMapsQuery struct {
	UserID string `validate:"required"`
	Query  string `validate:"required,max=200"`
}

func (q SearchMapsQuery) Validate() error { return utils.ValidateStruct(q) }

// MapsOnDateQuery lists the maps of one calendar day.
type MapsOnDateQuery struct {
	UserID string `validate:"required"`
	Date   string `validate:"required,datekey"`
}

func (q MapsOnDateQuery) Validate() error { return utils.ValidateStruct(q) }
