package events

import (
	"time"

	"github.com/google/uuid"
)

// SourceDiary is the event source name used on the event bus.
const SourceDiary = "diary.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetEventType() string
	GetUserID() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func newBase(eventType, aggregateID, userID string, at time.Time) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		EventType:   eventType,
		UserID:      userID,
		Timestamp:   at,
	}
}

func (e BaseEvent) GetEventID() string      { return e.EventID }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetUserID() string       { return e.UserID }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// Event type names
const (
	TypeMapCreated          = "map.created"
	TypeMapDeleted          = "map.deleted"
	TypeMapSummarized       = "map.summarized"
	TypeNodeCreated         = "node.created"
	TypeNodesConnected      = "nodes.connected"
	TypeNodeCascadeDeleted  = "node.cascade_deleted"
	TypeReportGenerated     = "report.generated"
	TypeReportDeleted       = "report.deleted"
	TypeChoiceSelected      = "choice.selected"
)

// MapCreated is raised when a map is created.
type MapCreated struct {
	BaseEvent
	MapID   string `json:"map_id"`
	MapType string `json:"map_type"`
	Title   string `json:"title"`
}

func NewMapCreated(userID, mapID, mapType, title string, at time.Time) MapCreated {
	return MapCreated{
		BaseEvent: newBase(TypeMapCreated, mapID, userID, at),
		MapID:     mapID,
		MapType:   mapType,
		Title:     title,
	}
}

// MapDeleted is raised when a map and its graph are deleted.
type MapDeleted struct {
	BaseEvent
	MapID        string `json:"map_id"`
	NodesDeleted int    `json:"nodes_deleted"`
	EdgesDeleted int    `json:"edges_deleted"`
}

func NewMapDeleted(userID, mapID string, nodes, edges int, at time.Time) MapDeleted {
	return MapDeleted{
		BaseEvent:    newBase(TypeMapDeleted, mapID, userID, at),
		MapID:        mapID,
		NodesDeleted: nodes,
		EdgesDeleted: edges,
	}
}

// MapSummarized is raised after an AI summary is stored on a map.
type MapSummarized struct {
	BaseEvent
	MapID   string `json:"map_id"`
	Emotion string `json:"emotion"`
}

func NewMapSummarized(userID, mapID, emotion string, at time.Time) MapSummarized {
	return MapSummarized{
		BaseEvent: newBase(TypeMapSummarized, mapID, userID, at),
		MapID:     mapID,
		Emotion:   emotion,
	}
}

// NodeCreated is raised when a new node is created
type NodeCreated struct {
	BaseEvent
	MapID  string `json:"map_id"`
	NodeID string `json:"node_id"`
	Label  string `json:"label"`
}

func NewNodeCreated(userID, mapID, nodeID, label string, at time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: newBase(TypeNodeCreated, nodeID, userID, at),
		MapID:     mapID,
		NodeID:    nodeID,
		Label:     label,
	}
}

// NodesConnected is raised when two nodes are connected
type NodesConnected struct {
	BaseEvent
	MapID    string `json:"map_id"`
	EdgeID   string `json:"edge_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

func NewNodesConnected(userID, mapID, edgeID, sourceID, targetID string, at time.Time) NodesConnected {
	return NodesConnected{
		BaseEvent: newBase(TypeNodesConnected, sourceID, userID, at),
		MapID:     mapID,
		EdgeID:    edgeID,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// NodeCascadeDeleted is raised after a node and its descendants are deleted.
type NodeCascadeDeleted struct {
	BaseEvent
	MapID   string   `json:"map_id"`
	RootID  string   `json:"root_id"`
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids"`
}

func NewNodeCascadeDeleted(userID, mapID, rootID string, nodeIDs, edgeIDs []string, at time.Time) NodeCascadeDeleted {
	return NodeCascadeDeleted{
		BaseEvent: newBase(TypeNodeCascadeDeleted, rootID, userID, at),
		MapID:     mapID,
		RootID:    rootID,
		NodeIDs:   nodeIDs,
		EdgeIDs:   edgeIDs,
	}
}

// ChoiceSelected is raised when an exclusive choice branch is picked or reset.
type ChoiceSelected struct {
	BaseEvent
	MapID      string `json:"map_id"`
	ParentID   string `json:"parent_id"`
	SelectedID string `json:"selected_id,omitempty"`
}

func NewChoiceSelected(userID, mapID, parentID, selectedID string, at time.Time) ChoiceSelected {
	return ChoiceSelected{
		BaseEvent:  newBase(TypeChoiceSelected, parentID, userID, at),
		MapID:      mapID,
		ParentID:   parentID,
		SelectedID: selectedID,
	}
}

// ReportGenerated is raised when a periodic report is stored.
type ReportGenerated struct {
	BaseEvent
	ReportID   string `json:"report_id"`
	ReportType string `json:"report_type"`
	PeriodID   string `json:"period_id"`
	MapCount   int    `json:"map_count"`
}

func NewReportGenerated(userID, reportID, reportType, periodID string, mapCount int, at time.Time) ReportGenerated {
	return ReportGenerated{
		BaseEvent:  newBase(TypeReportGenerated, reportID, userID, at),
		ReportID:   reportID,
		ReportType: reportType,
		PeriodID:   periodID,
		MapCount:   mapCount,
	}
}

// ReportDeleted is raised when a user removes a stored report.
type ReportDeleted struct {
	BaseEvent
	ReportID string `json:"report_id"`
}

func NewReportDeleted(userID, reportID string, at time.Time) ReportDeleted {
	return ReportDeleted{
		BaseEvent: newBase(TypeReportDeleted, reportID, userID, at),
		ReportID:  reportID,
	}
}
