// Package solver implements the local-search solver: move generation
// over a single planning variable at a time, a best-improving /
// best-non-worsening acceptance policy, and deadline/optimum/unimproved-
// step termination conditions. It is strictly single-threaded and
// cooperative — the only suspension point is the deadline check between
// steps.
package solver

import (
	"context"
	"time"

	"github.com/solvecore/solvecore"
	"github.com/solvecore/solvecore/internal/entitystore"
	"github.com/solvecore/solvecore/internal/schema"
	"github.com/solvecore/solvecore/internal/score"
)

// planningEntity is one entity's planning field and the range it draws
// from, resolved once before the main loop begins.
type planningEntity struct {
	class  *schema.ClassDef
	rng    schema.ValueRange
	handle entitystore.Handle
}

// Options configures optional termination conditions beyond the
// deadline.
type Options struct {
	UnimprovedStepLimit int64 // 0 = disabled
	KnownOptimum        *solvecore.Score
}

// Option mutates an Options value.
type Option func(*Options)

// WithUnimprovedStepLimit terminates the search after n consecutive
// loop iterations (each visiting one planning variable, whether or not
// a move is accepted) with no improvement to best-so-far.
func WithUnimprovedStepLimit(n int64) Option {
	return func(o *Options) { o.UnimprovedStepLimit = n }
}

// WithKnownOptimum terminates the search as soon as best-so-far reaches
// or exceeds the given score.
func WithKnownOptimum(hard, soft int64) Option {
	return func(o *Options) { o.KnownOptimum = &solvecore.Score{Hard: hard, Soft: soft} }
}

// Outcome reports the statistics of one Solve call.
type Outcome struct {
	Best           solvecore.Score
	Steps          int64
	MovesEvaluated int64
	Duration       time.Duration
}

// Solver owns the working solution for the duration of one Solve call.
type Solver struct {
	registry *schema.Registry
	store    *entitystore.Store
	engine   *score.Engine
}

// New creates a solver over the given registry, store, and score
// engine. The store is mutated in place during Solve.
func New(registry *schema.Registry, store *entitystore.Store, engine *score.Engine) *Solver {
	return &Solver{registry: registry, store: store, engine: engine}
}

// Solve runs the main search loop until the deadline expires, an
// optional unimproved-steps bound is reached, an optional known optimum
// is reached, or the context is cancelled — whichever comes first. On
// return, the store holds the best-so-far solution.
func (s *Solver) Solve(ctx context.Context, timeLimit time.Duration, opts ...Option) (Outcome, error) {
	start := time.Now()
	var options Options
	for _, o := range opts {
		o(&options)
	}

	classNames := s.registry.ClassNames()
	classes := make([]*schema.ClassDef, 0, len(classNames))
	var entities []planningEntity

	for _, name := range classNames {
		class, _ := s.registry.Class(name)
		classes = append(classes, class)
		idx := class.PlanningFieldIndex()
		if idx == -1 {
			continue
		}
		rng, _ := s.registry.Range(class.Fields[idx].ValueRange)
		for _, rec := range s.store.Iterate(class.Name) {
			entities = append(entities, planningEntity{class: class, rng: rng, handle: rec.Handle})
		}
	}

	// Deterministic round-robin initialization.
	for i, pe := range entities {
		v := pe.rng.Lo + int64(i%int(pe.rng.Size()))
		if err := s.store.SetPlanning(pe.class, pe.rng, pe.handle, v); err != nil {
			return Outcome{}, err
		}
	}

	workingScore, err := s.engine.Evaluate(s.store)
	if err != nil {
		return Outcome{}, err
	}
	bestScore := workingScore
	bestSnapshot := s.store.Snapshot(classes)

	var steps, movesEvaluated int64
	var unimprovedSteps int64
	deadline := start.Add(timeLimit)
	cursor := 0

	for len(entities) > 0 {
		if ctx.Err() != nil {
			break
		}
		if !time.Now().Before(deadline) {
			break
		}

		pe := entities[cursor%len(entities)]
		cursor++

		currentVal := s.store.PlanningValue(pe.class, pe.handle)

		var haveCandidate bool
		var bestVal int64
		var bestCandidateScore solvecore.Score

		for v := pe.rng.Lo; v < pe.rng.Hi; v++ {
			if v == currentVal {
				continue
			}
			if err := s.store.SetPlanning(pe.class, pe.rng, pe.handle, v); err != nil {
				return Outcome{}, err
			}
			candidateScore, err := s.engine.Evaluate(s.store)
			movesEvaluated++
			if err != nil {
				return Outcome{}, err
			}
			if !haveCandidate || candidateScore.Compare(bestCandidateScore) > 0 {
				haveCandidate = true
				bestVal = v
				bestCandidateScore = candidateScore
			}
		}

		finalVal := currentVal
		finalScore := workingScore
		changed := false

		if haveCandidate {
			switch {
			case bestCandidateScore.Compare(workingScore) > 0:
				finalVal = bestVal
				finalScore = bestCandidateScore
				changed = true
				steps++
			case bestCandidateScore.Compare(workingScore) == 0:
				// Sideways move to escape plateaus; ties already
				// broken toward the lowest candidate value by the
				// Compare(...) > 0 strictness above, since ascending
				// scan order means the first-seen max is the lowest v.
				finalVal = bestVal
				finalScore = bestCandidateScore
				changed = true
				steps++
			}
		}

		if err := s.store.SetPlanning(pe.class, pe.rng, pe.handle, finalVal); err != nil {
			return Outcome{}, err
		}
		workingScore = finalScore
		_ = changed

		if workingScore.Compare(bestScore) > 0 {
			bestScore = workingScore
			bestSnapshot = s.store.Snapshot(classes)
			unimprovedSteps = 0
		} else {
			unimprovedSteps++
		}

		if options.UnimprovedStepLimit > 0 && unimprovedSteps >= options.UnimprovedStepLimit {
			break
		}
		if options.KnownOptimum != nil && bestScore.Compare(*options.KnownOptimum) >= 0 {
			break
		}
	}

	s.store.Restore(classes, bestSnapshot)

	return Outcome{
		Best:           bestScore,
		Steps:          steps,
		MovesEvaluated: movesEvaluated,
		Duration:       time.Since(start),
	}, nil
}
