package correlation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Strength applied when a shared driver pair is absent from the table.
const defaultStrength = 1.0

// pairKey is an unordered evaluator pair.
type pairKey struct {
	a, b string
}

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// StrengthTable is a symmetric lookup of correlation strength per
// evaluator pair. Different signal families overlap to different degrees;
// keeping the table as data lets it be recalibrated from observed results
// without a redeploy.
type StrengthTable struct {
	strengths map[pairKey]float64
	def       float64
}

// PairStrength is one entry of a strength table definition.
type PairStrength struct {
	A        string  `yaml:"a"`
	B        string  `yaml:"b"`
	Strength float64 `yaml:"strength"`
}

// tableFile is the on-disk YAML shape of a strength table.
type tableFile struct {
	Default float64        `yaml:"default"`
	Pairs   []PairStrength `yaml:"pairs"`
}

// NewStrengthTable builds a table from pair entries. A non-positive
// defaultVal falls back to the built-in default of 1.0.
func NewStrengthTable(pairs []PairStrength, defaultVal float64) (*StrengthTable, error) {
	if defaultVal <= 0 {
		defaultVal = defaultStrength
	}
	t := &StrengthTable{
		strengths: make(map[pairKey]float64, len(pairs)),
		def:       defaultVal,
	}
	for _, p := range pairs {
		if p.A == "" || p.B == "" || p.A == p.B {
			return nil, fmt.Errorf("%w: pair (%q, %q)", ErrInvalidTable, p.A, p.B)
		}
		if p.Strength <= 0 {
			return nil, fmt.Errorf("%w: non-positive strength for (%s, %s)", ErrInvalidTable, p.A, p.B)
		}
		t.strengths[keyOf(p.A, p.B)] = p.Strength
	}
	return t, nil
}

// DefaultStrengthTable covers the built-in signal families. Trend,
// efficiency and variance all read the same production series, so their
// pairings run hot; environment barely overlaps with anything.
func DefaultStrengthTable() *StrengthTable {
	t, err := NewStrengthTable([]PairStrength{
		{A: "trend", B: "efficiency", Strength: 1.3},
		{A: "trend", B: "variance", Strength: 1.5},
		{A: "efficiency", B: "variance", Strength: 1.2},
		{A: "usage", B: "efficiency", Strength: 1.1},
		{A: "usage", B: "gameflow", Strength: 0.9},
		{A: "gameflow", B: "environment", Strength: 0.6},
		{A: "matchup", B: "gameflow", Strength: 0.8},
		{A: "health", B: "usage", Strength: 0.7},
	}, defaultStrength)
	if err != nil {
		panic(err) // built-in table is statically valid
	}
	return t
}

// LoadStrengthTable reads a strength table from a YAML file.
func LoadStrengthTable(path string) (*StrengthTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strength table: %w", err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return NewStrengthTable(tf.Pairs, tf.Default)
}

// Strength returns the correlation strength for an unordered evaluator
// pair, falling back to the table default for unknown pairs.
func (t *StrengthTable) Strength(a, b string) float64 {
	if s, ok := t.strengths[keyOf(a, b)]; ok {
		return s
	}
	return t.def
}

// Default returns the table's fallback strength.
func (t *StrengthTable) Default() float64 {
	return t.def
}
