package scoring

import (
	"fmt"
	"sort"
)

// Minimum number of recommendation buckets a tier table must define.
const minTierCount = 5

// Tier maps a confidence floor to a recommendation label.
type Tier struct {
	Name string
	Min  int // inclusive confidence floor
}

// Tiers is a recommendation table ordered by Min descending. Build one
// with NewTiers so the ordering and coverage invariants hold.
type Tiers []Tier

// NewTiers validates and normalizes a tier table: at least minTierCount
// buckets, distinct floors, and full coverage of [0, 100].
func NewTiers(tiers []Tier) (Tiers, error) {
	if len(tiers) < minTierCount {
		return nil, fmt.Errorf("%w: need at least %d buckets, got %d", ErrInvalidTiers, minTierCount, len(tiers))
	}
	out := make(Tiers, len(tiers))
	copy(out, tiers)
	sort.Slice(out, func(i, j int) bool { return out[i].Min > out[j].Min })
	for i, t := range out {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: unnamed bucket at floor %d", ErrInvalidTiers, t.Min)
		}
		if t.Min < 0 || t.Min > 100 {
			return nil, fmt.Errorf("%w: floor %d out of range", ErrInvalidTiers, t.Min)
		}
		if i > 0 && out[i-1].Min == t.Min {
			return nil, fmt.Errorf("%w: duplicate floor %d", ErrInvalidTiers, t.Min)
		}
	}
	if out[len(out)-1].Min != 0 {
		return nil, fmt.Errorf("%w: lowest bucket must start at 0", ErrInvalidTiers)
	}
	return out, nil
}

// DefaultTiers returns the built-in recommendation table.
func DefaultTiers() Tiers {
	t, err := NewTiers([]Tier{
		{Name: "elite", Min: 75},
		{Name: "strong", Min: 70},
		{Name: "solid", Min: 65},
		{Name: "lean", Min: 60},
		{Name: "avoid", Min: 0},
	})
	if err != nil {
		panic(err) // built-in table is statically valid
	}
	return t
}

// For returns the recommendation label for a confidence value.
func (t Tiers) For(confidence int) string {
	for _, tier := range t {
		if confidence >= tier.Min {
			return tier.Name
		}
	}
	return t[len(t)-1].Name
}
