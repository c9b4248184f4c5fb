// Package session is the surface a caller uses to declare entity
// classes and value ranges, add entity instances, build and register
// constraints, and run a solve. It wires together schema, entitystore,
// constraint (and through it predicate), score, solver, and result.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/solvecore/solvecore"
	"github.com/solvecore/solvecore/internal/constraint"
	"github.com/solvecore/solvecore/internal/entitystore"
	"github.com/solvecore/solvecore/internal/result"
	"github.com/solvecore/solvecore/internal/schema"
	"github.com/solvecore/solvecore/internal/score"
	"github.com/solvecore/solvecore/internal/solver"
)

// FieldType re-exports schema.FieldType so callers need not import the
// internal schema package directly.
type FieldType = schema.FieldType

const (
	TypeInt    = schema.TypeInt
	TypeString = schema.TypeString
)

// Field re-exports schema.FieldDef under the session-facing name: each
// field is (name, type) or (name, type, attrs).
type Field = schema.FieldDef

// Option re-exports solver.Option so callers can pass solver tuning
// knobs to Solve without importing the internal solver package.
type Option = solver.Option

var (
	WithUnimprovedStepLimit = solver.WithUnimprovedStepLimit
	WithKnownOptimum        = solver.WithKnownOptimum
)

// Session owns one self-contained constraint-solving problem: its own
// schema, value ranges, entities, and constraints. Nothing here is
// process-global; multiple sessions may coexist.
type Session struct {
	registry *schema.Registry
	store    *entitystore.Store
	engine   *score.Engine

	solving bool
}

// New creates an empty session.
func New() *Session {
	registry := schema.NewRegistry()
	return &Session{
		registry: registry,
		store:    entitystore.New(registry),
		engine:   score.NewEngine(),
	}
}

func (s *Session) checkNotSolving(op string) error {
	if s.solving {
		return &solvecore.UsageError{Msg: fmt.Sprintf("%s: cannot mutate session while solve is in progress", op)}
	}
	return nil
}

// EntityClass registers a new entity class with an ordered field list.
func (s *Session) EntityClass(name string, fields []Field) error {
	if err := s.checkNotSolving("entity_class"); err != nil {
		return err
	}
	_, err := s.registry.RegisterClass(name, fields)
	return err
}

// IntRange registers a named half-open integer range [lo, hi).
func (s *Session) IntRange(name string, lo, hi int64) error {
	if err := s.checkNotSolving("int_range"); err != nil {
		return err
	}
	return s.registry.RegisterRange(name, lo, hi)
}

// AddEntities adds concrete instances of a registered class. Each
// record is a key→value mapping containing all non-planning fields;
// planning fields default to the range's low bound (the conventional
// "unassigned" value, see DESIGN.md) when omitted. Native Go `int`
// values are widened to int64 for convenience.
func (s *Session) AddEntities(class string, records []map[string]any) error {
	if err := s.checkNotSolving("add_entities"); err != nil {
		return err
	}
	def, ok := s.registry.Class(class)
	if !ok {
		return &solvecore.BindingError{Msg: fmt.Sprintf("add_entities: unknown class %q", class)}
	}

	var rng *schema.ValueRange
	if idx := def.PlanningFieldIndex(); idx != -1 {
		r, ok := s.registry.Range(def.Fields[idx].ValueRange)
		if !ok {
			return &solvecore.SchemaError{Msg: fmt.Sprintf("class %q planning field references undeclared range", class)}
		}
		rng = &r
	}

	for _, rec := range records {
		values := make(map[string]solvecore.Value, len(rec))
		for k, v := range rec {
			values[k] = widen(v)
		}
		if _, err := s.store.Add(def, rng, values); err != nil {
			return err
		}
	}
	return nil
}

func widen(v any) solvecore.Value {
	if i, ok := v.(int); ok {
		return int64(i)
	}
	return v
}

// Constraint starts a fluent constraint builder at the given name and
// level (e.g. "1hard", "3soft"). Call AddConstraint with the built
// pipeline to register it.
func (s *Session) Constraint(name, level string) *constraint.Builder {
	return constraint.NewBuilder(s.registry, name, level)
}

// AddConstraint registers a fully built pipeline.
func (s *Session) AddConstraint(p *constraint.Pipeline) error {
	if err := s.checkNotSolving("add_constraint"); err != nil {
		return err
	}
	s.engine.Register(p)
	return nil
}

// Solve runs the local-search solver until the deadline, an optional
// termination option fires, or ctx is cancelled, and returns the
// resulting read-only view.
func (s *Session) Solve(ctx context.Context, timeLimit time.Duration, opts ...Option) (*result.Result, error) {
	if err := s.checkNotSolving("solve"); err != nil {
		return nil, err
	}
	s.solving = true
	defer func() { s.solving = false }()

	sv := solver.New(s.registry, s.store, s.engine)
	outcome, err := sv.Solve(ctx, timeLimit, opts...)
	if err != nil {
		return nil, err
	}

	return result.New(s.registry, s.store, outcome.Best, outcome.Steps, outcome.MovesEvaluated, outcome.Duration), nil
}
