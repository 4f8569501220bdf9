package simulate

import (
	"fmt"
	"math/rand"

	"github.com/propedge/propedge/internal/domain/model"
)

// Category line and production ranges for generated slates.
const (
	pointsLineMin     = 8.5
	pointsLineRange   = 24.0
	reboundsLineMin   = 3.5
	reboundsLineRange = 9.0
	assistsLineMin    = 2.5
	assistsLineRange  = 8.0
	threesLineMin     = 0.5
	threesLineRange   = 4.0
	stealsLineMin     = 0.5
	stealsLineRange   = 2.0
)

// Context generation ranges.
const (
	gamesPlayedMin   = 5
	gamesPlayedRange = 60
	efficiencyMin    = 0.25
	efficiencyRange  = 0.55
	defenseTeams     = 30
	usageShareMin    = 0.10
	usageShareRange  = 0.25
	usageTrendRange  = 0.30
	paceMin          = 94.0
	paceRange        = 12.0
	totalMin         = 205.0
	totalRange       = 35.0
	spreadRange      = 14.0
	recentGames      = 8
	restDaysMax      = 3
)

// Outcome shaping: how strongly the player's generated edge drives the
// realized value past or short of the line.
const (
	edgeJitter    = 0.35
	healthyShare  = 0.80
	questionShare = 0.12
)

var categories = []string{"points", "rebounds", "assists", "threes", "steals"}

var entityPool = []string{
	"J. Carter", "M. Okafor", "D. Reyes", "T. Lindqvist", "A. Bogdanov",
	"K. Mitchell", "R. Tanaka", "S. Dubois", "L. Martins", "C. Adeyemi",
	"P. Kovacs", "E. Johansson", "N. Petrov", "W. Oduya", "B. Fernandez",
	"H. Almeida", "G. Novak", "V. Silva", "F. Moreau", "O. Diallo",
}

var teamPool = []string{
	"Wolves", "Hawks", "Titans", "Comets", "Rhinos", "Storm",
	"Pioneers", "Sentinels", "Vipers", "Monarchs", "Raptors", "Drifters",
}

// Slate is one generated round of propositions plus the truth needed to
// settle them later.
type Slate struct {
	Propositions []model.Proposition
	Contexts     map[string]model.Context
	Outcomes     map[string]model.Outcome
}

// Generator produces deterministic slates from a seed. The same seed and
// parameters always yield the same propositions, contexts and outcomes.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a seeded slate generator.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds a slate of the given size spread across games.
func (g *Generator) Generate(size, games int) *Slate {
	if size <= 0 {
		size = 1
	}
	if games <= 0 {
		games = 1
	}

	slate := &Slate{
		Propositions: make([]model.Proposition, 0, size),
		Contexts:     make(map[string]model.Context, size),
		Outcomes:     make(map[string]model.Outcome, size),
	}

	gameIDs := make([]string, games)
	for i := range gameIDs {
		home := teamPool[g.rng.Intn(len(teamPool))]
		away := teamPool[g.rng.Intn(len(teamPool))]
		for away == home {
			away = teamPool[g.rng.Intn(len(teamPool))]
		}
		gameIDs[i] = fmt.Sprintf("game-%02d-%s-%s", i+1, home, away)
	}

	for i := 0; i < size; i++ {
		entity := entityPool[g.rng.Intn(len(entityPool))]
		category := categories[g.rng.Intn(len(categories))]
		line := g.lineFor(category)
		side := model.SideOver
		if g.rng.Intn(2) == 1 {
			side = model.SideUnder
		}
		gameID := gameIDs[i%len(gameIDs)]

		prop := model.Proposition{
			ID:       fmt.Sprintf("prop-%03d", i+1),
			Entity:   entity,
			Category: category,
			Line:     line,
			Side:     side,
			Opponent: teamPool[g.rng.Intn(len(teamPool))],
			GameID:   gameID,
		}

		// edge > 0 means the player genuinely produces above the line.
		edge := (g.rng.Float64()*2 - 1) * line * 0.25
		slate.Propositions = append(slate.Propositions, prop)
		slate.Contexts[prop.ID] = g.contextFor(category, line, edge)
		slate.Outcomes[prop.ID] = g.outcomeFor(prop, edge)
	}
	return slate
}

// lineFor draws a category-appropriate line.
func (g *Generator) lineFor(category string) float64 {
	var min, span float64
	switch category {
	case "points":
		min, span = pointsLineMin, pointsLineRange
	case "rebounds":
		min, span = reboundsLineMin, reboundsLineRange
	case "assists":
		min, span = assistsLineMin, assistsLineRange
	case "threes":
		min, span = threesLineMin, threesLineRange
	default:
		min, span = stealsLineMin, stealsLineRange
	}
	// Half-point lines only, so outcomes never push.
	steps := int(span * 2)
	return min + float64(g.rng.Intn(steps+1))
}

// contextFor materializes a plausible context whose season and recent
// production are centered on line+edge, so evaluators can actually find
// the signal the outcome generator planted.
func (g *Generator) contextFor(category string, line, edge float64) model.Context {
	trueMean := line + edge
	if trueMean < 0.1 {
		trueMean = 0.1
	}

	season := &model.SeasonStats{
		PerGame:     map[string]float64{category: trueMean + (g.rng.Float64()*2-1)*line*0.05},
		Efficiency:  efficiencyMin + g.rng.Float64()*efficiencyRange,
		GamesPlayed: gamesPlayedMin + g.rng.Intn(gamesPlayedRange),
	}

	recent := &model.RecentStats{Values: make([]float64, recentGames)}
	for i := range recent.Values {
		v := trueMean + (g.rng.Float64()*2-1)*trueMean*edgeJitter
		if v < 0 {
			v = 0
		}
		recent.Values[i] = v
	}

	health := &model.HealthStats{Status: model.HealthHealthy}
	switch roll := g.rng.Float64(); {
	case roll > healthyShare+questionShare:
		health.Status = model.HealthQuestionable
	case roll > healthyShare:
		health.MinutesRestriction = true
	}

	return model.Context{
		Season: season,
		Matchup: &model.MatchupStats{
			DefenseRank:    map[string]int{category: 1 + g.rng.Intn(defenseTeams)},
			AllowedPerGame: map[string]float64{category: trueMean + (g.rng.Float64()*2-1)*line*0.10},
			Teams:          defenseTeams,
		},
		Usage: &model.UsageStats{
			Share:    usageShareMin + g.rng.Float64()*usageShareRange,
			TrendPct: (g.rng.Float64()*2 - 1) * usageTrendRange,
		},
		GameFlow: &model.GameFlowStats{
			Pace:   paceMin + g.rng.Float64()*paceRange,
			Total:  totalMin + g.rng.Float64()*totalRange,
			Spread: (g.rng.Float64()*2 - 1) * spreadRange,
		},
		Health: health,
		Recent: recent,
		Environment: &model.EnvironmentStats{
			Home:       g.rng.Intn(2) == 0,
			RestDays:   g.rng.Intn(restDaysMax + 1),
			BackToBack: g.rng.Intn(5) == 0,
		},
	}
}

// outcomeFor settles a proposition from the planted edge plus noise.
func (g *Generator) outcomeFor(prop model.Proposition, edge float64) model.Outcome {
	actual := prop.Line + edge + (g.rng.Float64()*2-1)*prop.Line*edgeJitter
	if actual < 0 {
		actual = 0
	}
	hit := actual > prop.Line
	if prop.Side == model.SideUnder {
		hit = actual < prop.Line
	}
	return model.Outcome{
		PropositionID: prop.ID,
		ActualValue:   actual,
		Hit:           hit,
	}
}
