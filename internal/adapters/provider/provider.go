// Package provider defines the external data contracts the engine
// consumes. How contexts and outcomes are sourced (files, APIs, scrapes)
// is irrelevant to the core.
package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/propedge/propedge/internal/domain/model"
)

// Sentinel kinds for provider errors.
var (
	ErrNoContext = errors.New("no context for proposition")
	ErrNoOutcome = errors.New("no outcome for proposition")
)

// DataProvider resolves the read-only stat bundle for a proposition.
type DataProvider interface {
	GetContext(ctx context.Context, propositionID string) (model.Context, error)
}

// OutcomeProvider resolves the realized result for a proposition. Used
// only during calibration.
type OutcomeProvider interface {
	GetOutcome(ctx context.Context, propositionID string) (model.Outcome, error)
}

// StaticProvider implements both provider contracts over in-memory maps.
// It backs tests and the simulation harness.
type StaticProvider struct {
	mu       sync.RWMutex
	contexts map[string]model.Context
	outcomes map[string]model.Outcome
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		contexts: make(map[string]model.Context),
		outcomes: make(map[string]model.Outcome),
	}
}

// SetContext registers the context for a proposition id.
func (p *StaticProvider) SetContext(propositionID string, data model.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contexts[propositionID] = data
}

// SetOutcome registers the outcome for a proposition id.
func (p *StaticProvider) SetOutcome(propositionID string, outcome model.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes[propositionID] = outcome
}

// GetContext implements DataProvider.
func (p *StaticProvider) GetContext(_ context.Context, propositionID string) (model.Context, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.contexts[propositionID]
	if !ok {
		return model.Context{}, ErrNoContext
	}
	return data, nil
}

// GetOutcome implements OutcomeProvider.
func (p *StaticProvider) GetOutcome(_ context.Context, propositionID string) (model.Outcome, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	outcome, ok := p.outcomes[propositionID]
	if !ok {
		return model.Outcome{}, ErrNoOutcome
	}
	return outcome, nil
}
