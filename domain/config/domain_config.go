package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Layout
	SlotWidth       float64
	VerticalGap     float64
	SlotSearchBound int
	RootPosition    Position

	// Node constraints
	MaxLabelLength   int
	MaxContentLength int
	PreviewLength    int
	UntitledLabel    string
	NewNodeLabel     string

	// Idea generation
	ContextualIdeaLimit int
	TopicIdeaLimit      int

	// AI gateway retry policy
	AIMaxAttempts int
	AIBaseDelay   time.Duration

	// Reports
	ReportLockTTL time.Duration
	Location      *time.Location
}

// Position is a plain coordinate pair used for configured anchors.
type Position struct {
	X float64
	Y float64
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		SlotWidth:       250,
		VerticalGap:     150,
		SlotSearchBound: 100,
		RootPosition:    Position{X: 0, Y: 0},

		MaxLabelLength:   200,
		MaxContentLength: 20000,
		PreviewLength:    30,
		UntitledLabel:    "untitled",
		NewNodeLabel:     "New thought",

		ContextualIdeaLimit: 3,
		TopicIdeaLimit:      5,

		AIMaxAttempts: 3,
		AIBaseDelay:   2 * time.Second,

		ReportLockTTL: 5 * time.Minute,
		Location:      time.UTC,
	}
}

// DevelopmentDomainConfig shortens retry delays for local work.
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.AIBaseDelay = 500 * time.Millisecond
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "development", "test":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.SlotWidth <= 0 {
		return fmt.Errorf("slot width must be positive, got %v", c.SlotWidth)
	}
	if c.SlotSearchBound < 1 {
		return fmt.Errorf("slot search bound must be at least 1, got %d", c.SlotSearchBound)
	}
	if c.AIMaxAttempts < 1 {
		return fmt.Errorf("AI max attempts must be at least 1, got %d", c.AIMaxAttempts)
	}
	if c.ContextualIdeaLimit < 1 || c.TopicIdeaLimit < 1 {
		return fmt.Errorf("idea limits must be positive")
	}
	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	return nil
}
