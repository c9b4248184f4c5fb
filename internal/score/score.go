// Package score implements the score engine: given the current working
// solution, it computes the total (hard, soft) score as the sum of
// sign × weight × |matches| across every registered constraint
// pipeline, walked in registration order so the result is deterministic
// for a fixed solution.
package score

import (
	"github.com/solvecore/solvecore"
	"github.com/solvecore/solvecore/internal/constraint"
	"github.com/solvecore/solvecore/internal/entitystore"
)

// Engine holds the registration-ordered list of constraint pipelines
// for one session and evaluates them against a store.
type Engine struct {
	pipelines []*constraint.Pipeline
}

// NewEngine creates an engine with no registered pipelines.
func NewEngine() *Engine {
	return &Engine{}
}

// Register appends a pipeline, preserving registration order.
func (e *Engine) Register(p *constraint.Pipeline) {
	e.pipelines = append(e.pipelines, p)
}

// Pipelines returns the registered pipelines in registration order.
func (e *Engine) Pipelines() []*constraint.Pipeline {
	return e.pipelines
}

// Evaluate computes the total score by executing every registered
// pipeline against the store's current contents. A weight-0 pipeline
// contributes exactly zero regardless of match count.
func (e *Engine) Evaluate(store *entitystore.Store) (solvecore.Score, error) {
	var total solvecore.Score
	for _, p := range e.pipelines {
		n, err := p.Count(store)
		if err != nil {
			return solvecore.Score{}, err
		}
		contribution := p.Sign() * p.Weight * n
		if p.Hard {
			total.Hard += contribution
		} else {
			total.Soft += contribution
		}
	}
	return total, nil
}
