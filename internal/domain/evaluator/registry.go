package evaluator

// Registry holds the evaluators consulted during a scoring run. Adding a
// signal family means implementing Evaluator and registering it here; the
// orchestrator never changes.
type Registry struct {
	evaluators []Evaluator
}

// NewRegistry builds a registry from the given evaluators.
func NewRegistry(evaluators ...Evaluator) *Registry {
	return &Registry{evaluators: evaluators}
}

// DefaultRegistry returns a registry with every built-in signal family.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewEfficiency(),
		NewMatchup(),
		NewUsage(),
		NewGameFlow(),
		NewHealth(),
		NewTrend(),
		NewVariance(),
		NewEnvironment(),
	)
}

// All returns the registered evaluators in registration order.
func (r *Registry) All() []Evaluator {
	return r.evaluators
}

// Names returns the registered evaluator names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.evaluators))
	for i, e := range r.evaluators {
		names[i] = e.Name()
	}
	return names
}

// Len returns the number of registered evaluators.
func (r *Registry) Len() int {
	return len(r.evaluators)
}
