package model

// Context is the read-only bundle of statistics an evaluator may need,
// fully materialized before scoring begins. Sections are pointers so a
// missing signal family is distinguishable from a zero-valued one; an
// evaluator whose section is nil must abstain rather than guess.
type Context struct {
	Season      *SeasonStats
	Matchup     *MatchupStats
	Usage       *UsageStats
	GameFlow    *GameFlowStats
	Health      *HealthStats
	Recent      *RecentStats
	Environment *EnvironmentStats
}

// SeasonStats holds per-game season averages and efficiency figures.
type SeasonStats struct {
	PerGame     map[string]float64 // category -> season average
	Efficiency  float64            // composite efficiency rating, 0..1
	GamesPlayed int
}

// MatchupStats describes the opponent's defense against a category.
type MatchupStats struct {
	// DefenseRank ranks the opponent per category, 1 = stingiest of 30.
	DefenseRank map[string]int
	// AllowedPerGame is what the opponent concedes per game per category.
	AllowedPerGame map[string]float64
	Teams          int // league size for rank normalization, usually 30
}

// UsageStats captures the entity's share of team opportunities.
type UsageStats struct {
	Share    float64 // 0..1 usage share
	TrendPct float64 // relative change over the recent window, e.g. +0.08
}

// GameFlowStats carries market expectations about game script.
type GameFlowStats struct {
	Pace   float64 // expected possessions
	Total  float64 // market over/under total
	Spread float64 // positive when the entity's team is the underdog
}

// Health statuses recognized by the health evaluator.
const (
	HealthHealthy      = "healthy"
	HealthQuestionable = "questionable"
	HealthOut          = "out"
)

// HealthStats reflects the entity's availability report.
type HealthStats struct {
	Status             string
	MinutesRestriction bool
	GamesSinceReturn   int
}

// RecentStats is the entity's last-N results for the proposition category.
type RecentStats struct {
	Values []float64 // most recent first
}

// EnvironmentStats describes game conditions around the matchup.
type EnvironmentStats struct {
	Home       bool
	RestDays   int
	BackToBack bool
}
