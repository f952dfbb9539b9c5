package badge

import (
	"github.com/jobquest/jobquest/internal/domain/progress"
)

// Evaluator runs the registry's criteria against a state.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator creates an evaluator over r. A nil registry means DefaultRegistry.
func NewEvaluator(r *Registry) *Evaluator {
	if r == nil {
		r = DefaultRegistry()
	}
	return &Evaluator{registry: r}
}

// Registry returns the evaluator's registry.
func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// Evaluate returns the state with every newly earned badge appended, plus the
// definitions of those new badges in registry order. Badges already held are
// never re-evaluated.
func (e *Evaluator) Evaluate(c Context) (progress.GameState, []Definition) {
	var unlocked []Definition
	for _, d := range e.registry.defs {
		if c.State.HasBadge(d.ID) {
			continue
		}
		if d.Criterion(c) {
			unlocked = append(unlocked, d)
		}
	}
	if len(unlocked) == 0 {
		return c.State, nil
	}

	ids := make([]string, len(unlocked))
	for i, d := range unlocked {
		ids[i] = d.ID
	}
	return c.State.WithBadges(ids...), unlocked
}
