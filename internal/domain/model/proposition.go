// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Side identifies which side of the line a proposition is wagered on.
type Side string

// Proposition sides.
const (
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// Direction is an evaluator's directional read on a proposition's stat line.
type Direction string

// Evaluator directions.
const (
	DirectionOver    Direction = "OVER"
	DirectionUnder   Direction = "UNDER"
	DirectionNeutral Direction = "NEUTRAL"
)

// Proposition is a single candidate wager: an entity, a stat category,
// a line, and a side. Propositions are immutable for the duration of a
// scoring run and discarded afterwards.
type Proposition struct {
	ID       string  // unique id, e.g. uuid
	Entity   string  // subject entity (player)
	Category string  // stat category, e.g. "points", "rebounds"
	Line     float64 // statistical threshold
	Side     Side    // OVER or UNDER relative to Line

	// Context references resolved by the data provider.
	Opponent string // opposing team
	GameID   string // game the proposition belongs to
}

// Opposite returns the complementary side of s.
func (s Side) Opposite() Side {
	if s == SideOver {
		return SideUnder
	}
	return SideOver
}

// Validate checks that the proposition is well formed. A malformed
// proposition is rejected before any evaluator runs.
func (p Proposition) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProposition)
	}
	if strings.TrimSpace(p.Entity) == "" {
		return fmt.Errorf("%w: missing entity", ErrInvalidProposition)
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidProposition)
	}
	if p.Line < 0 {
		return fmt.Errorf("%w: negative line %.2f", ErrInvalidProposition, p.Line)
	}
	if p.Side != SideOver && p.Side != SideUnder {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidProposition, p.Side)
	}
	return nil
}
