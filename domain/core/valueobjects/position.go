package valueobjects

import "math"

// Position is a node's layout coordinate. It carries no semantic meaning.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// WithinX reports whether the horizontal distance to x is below tolerance.
func (p Position) WithinX(x, tolerance float64) bool {
	return math.Abs(p.X-x) < tolerance
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}
