// Package constraint implements the constraint stream graph: the fluent
// for_each/join/filter/distinct_pair/penalize/reward builder, and
// nested-loop evaluation of a built pipeline against the entity store.
//
// Pipelines are evaluated with a plain nested loop and early predicate
// exit — no hash-join optimization. Every join stage iterates all
// instances of its class, including equality joins against an
// identifier field; the entity store's O(1) Get is not used here.
package constraint

import (
	"fmt"
	"regexp"

	"github.com/solvecore/solvecore"
	"github.com/solvecore/solvecore/internal/entitystore"
	"github.com/solvecore/solvecore/internal/predicate"
	"github.com/solvecore/solvecore/internal/schema"
)

var weightPattern = regexp.MustCompile(`^(\d+)(hard|soft)$`)

// ParseLevel parses a level label like "1hard" or "3soft" into its
// hard/soft flag and magnitude.
func ParseLevel(level string) (hard bool, weight int64, err error) {
	m := weightPattern.FindStringSubmatch(level)
	if m == nil {
		return false, 0, &solvecore.SchemaError{Msg: fmt.Sprintf("invalid constraint level %q, want e.g. \"1hard\" or \"3soft\"", level)}
	}
	var n int64
	if _, err := fmt.Sscanf(m[1], "%d", &n); err != nil {
		return false, 0, &solvecore.SchemaError{Msg: fmt.Sprintf("invalid weight in level %q", level)}
	}
	return m[2] == "hard", n, nil
}

// joinClause is one join() stage: the class bound to the next
// parameter letter, and the predicates that must all hold for a
// candidate tuple to survive.
type joinClause struct {
	param      byte
	class      *schema.ClassDef
	predicates []*predicate.Compiled
}

// Pipeline is an immutable, fully built constraint stream: a source
// class, zero or more joins, zero or more filters, an optional
// distinct_pair dedup, and a terminal sign.
type Pipeline struct {
	Name   string
	Hard   bool
	Weight int64
	Reward bool // true = reward() (add), false = penalize() (subtract)

	source  *schema.ClassDef
	order   []byte // parameter letters in binding order, source first
	joins   []*joinClause
	filters []*predicate.Compiled

	distinctPair bool
}

// Builder implements the fluent chain:
// for_each(Class) -> join(Class, preds...) -> filter(pred) ->
// distinct_pair() -> penalize()|reward().
type Builder struct {
	registry *schema.Registry

	name   string
	hard   bool
	weight int64

	bindings map[byte]*schema.ClassDef
	order    []byte

	source  *schema.ClassDef
	joins   []*joinClause
	filters []*predicate.Compiled

	distinctPair bool

	err error
}

// NewBuilder starts a constraint builder at the given name and level
// (e.g. "1hard", "3soft").
func NewBuilder(registry *schema.Registry, name, level string) *Builder {
	hard, weight, err := ParseLevel(level)
	return &Builder{
		registry: registry,
		name:     name,
		hard:     hard,
		weight:   weight,
		bindings: make(map[byte]*schema.ClassDef),
		err:      err,
	}
}

func (b *Builder) nextParam() byte {
	return byte('A' + len(b.order))
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// ForEach binds parameter A to every instance of the named class; it
// must be the first call in the chain.
func (b *Builder) ForEach(class string) *Builder {
	if b.err != nil {
		return b
	}
	if b.source != nil {
		return b.fail(&solvecore.BindingError{Msg: "for_each already set; pipeline already has a source"})
	}
	def, ok := b.registry.Class(class)
	if !ok {
		return b.fail(&solvecore.BindingError{Msg: fmt.Sprintf("for_each: unknown class %q", class)})
	}
	b.source = def
	param := b.nextParam()
	b.order = append(b.order, param)
	b.bindings[param] = def
	return b
}

// Join binds the next unused parameter letter to every instance of the
// named class, retaining only tuples for which every predicate holds.
// Predicates are textual, compiled against the cumulative parameter
// bindings established so far (including the new one).
func (b *Builder) Join(class string, preds ...string) *Builder {
	if b.err != nil {
		return b
	}
	if b.source == nil {
		return b.fail(&solvecore.BindingError{Msg: "join: pipeline has no for_each source"})
	}
	def, ok := b.registry.Class(class)
	if !ok {
		return b.fail(&solvecore.BindingError{Msg: fmt.Sprintf("join: unknown class %q", class)})
	}
	param := b.nextParam()
	b.bindings[param] = def

	compiled := make([]*predicate.Compiled, 0, len(preds))
	for _, p := range preds {
		c, err := predicate.Compile(p, b.bindings)
		if err != nil {
			return b.fail(err)
		}
		compiled = append(compiled, c)
	}

	b.order = append(b.order, param)
	b.joins = append(b.joins, &joinClause{param: param, class: def, predicates: compiled})
	return b
}

// Filter compiles and appends a predicate applied to the current
// tuple, using all parameter bindings established so far.
func (b *Builder) Filter(pred string) *Builder {
	if b.err != nil {
		return b
	}
	if b.source == nil {
		return b.fail(&solvecore.BindingError{Msg: "filter: pipeline has no for_each source"})
	}
	c, err := predicate.Compile(pred, b.bindings)
	if err != nil {
		return b.fail(err)
	}
	b.filters = append(b.filters, c)
	return b
}

// DistinctPair requires arity 2 and the same class on both ends; it
// retains only tuples where A and B are distinct instances and
// eliminates the symmetric duplicate so each unordered pair counts
// once.
func (b *Builder) DistinctPair() *Builder {
	if b.err != nil {
		return b
	}
	if len(b.order) != 2 {
		return b.fail(&solvecore.BindingError{Msg: fmt.Sprintf("distinct_pair requires arity 2, got %d", len(b.order))})
	}
	if b.bindings[b.order[0]].Name != b.bindings[b.order[1]].Name {
		return b.fail(&solvecore.BindingError{Msg: "distinct_pair requires both parameters to bind the same class"})
	}
	b.distinctPair = true
	return b
}

// Penalize terminates the pipeline: each surviving tuple subtracts
// Weight from the constraint's score component.
func (b *Builder) Penalize() (*Pipeline, error) {
	return b.build(false)
}

// Reward terminates the pipeline: each surviving tuple adds Weight to
// the constraint's score component.
func (b *Builder) Reward() (*Pipeline, error) {
	return b.build(true)
}

func (b *Builder) build(reward bool) (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.source == nil {
		return nil, &solvecore.BindingError{Msg: "pipeline has no for_each source"}
	}
	return &Pipeline{
		Name:         b.name,
		Hard:         b.hard,
		Weight:       b.weight,
		Reward:       reward,
		source:       b.source,
		order:        b.order,
		joins:        b.joins,
		filters:      b.filters,
		distinctPair: b.distinctPair,
	}, nil
}

// Sign returns +1 for reward() pipelines and -1 for penalize() ones.
func (p *Pipeline) Sign() int64 {
	if p.Reward {
		return 1
	}
	return -1
}

// Count evaluates the pipeline against the current store contents and
// returns the number of surviving tuples, visiting source entities in
// insertion order and joined entities by nested loop with early exit
// on the first failing predicate.
func (p *Pipeline) Count(store *entitystore.Store) (int64, error) {
	var count int64
	tuples := make(map[byte]entitystore.Record, len(p.order))

	var walk func(depth int) error
	walk = func(depth int) error {
		if depth == len(p.order) {
			for _, f := range p.filters {
				ok, err := f.Eval(tuples)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if p.distinctPair {
				a, b := tuples[p.order[0]].Handle, tuples[p.order[1]].Handle
				if a == b || !a.Less(b) {
					return nil
				}
			}
			count++
			return nil
		}

		param := p.order[depth]
		var class *schema.ClassDef
		var preds []*predicate.Compiled
		if depth == 0 {
			class = p.source
		} else {
			j := p.joins[depth-1]
			class = j.class
			preds = j.predicates
		}

		for _, rec := range store.Iterate(class.Name) {
			tuples[param] = rec
			matched := true
			for _, pr := range preds {
				ok, err := pr.Eval(tuples)
				if err != nil {
					return err
				}
				if !ok {
					matched = false
					break
				}
			}
			if !matched {
				continue
			}
			if err := walk(depth + 1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0); err != nil {
		return 0, err
	}
	return count, nil
}
