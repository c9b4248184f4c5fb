// Package solvecore holds the types and error kinds shared by every layer
// of the constraint-satisfaction / local-search engine: the score pair,
// the primitive value representation, and the taxonomy of setup-time
// errors. Nothing here mutates; it is the vocabulary the other packages
// (schema, entitystore, predicate, constraint, score, solver, result,
// session) build on.
package solvecore

import "fmt"

// Value is any primitive an entity field can hold.
//
// Valid concrete types: int64, string. The planning-variable sentinel
// (the "unassigned" value) is simply an in-range int64, per the
// conventional interpretation adopted in DESIGN.md.
type Value interface{}

// Score is the lexicographic (hard, soft) objective. Hard dominates: a
// Score with a larger (less negative) Hard always outranks one with a
// smaller Hard regardless of Soft.
type Score struct {
	Hard int64
	Soft int64
}

// Feasible reports whether the hard component is exactly zero.
func (s Score) Feasible() bool {
	return s.Hard == 0
}

// Add returns the component-wise sum of two scores.
func (s Score) Add(other Score) Score {
	return Score{Hard: s.Hard + other.Hard, Soft: s.Soft + other.Soft}
}

// Less reports whether s is strictly worse than other under the
// lexicographic (hard, soft) ordering used throughout the solver.
func (s Score) Less(other Score) bool {
	if s.Hard != other.Hard {
		return s.Hard < other.Hard
	}
	return s.Soft < other.Soft
}

// Compare returns -1, 0, or 1 as s is less than, equal to, or greater
// than other, lexicographically.
func (s Score) Compare(other Score) int {
	if s.Hard != other.Hard {
		if s.Hard < other.Hard {
			return -1
		}
		return 1
	}
	switch {
	case s.Soft < other.Soft:
		return -1
	case s.Soft > other.Soft:
		return 1
	default:
		return 0
	}
}

func (s Score) String() string {
	return fmt.Sprintf("%dhard/%dsoft", s.Hard, s.Soft)
}

// SchemaError reports a problem registering a class, field, or value
// range: duplicate names, more than one planning field, a planning
// field with no range, or a range with lo >= hi.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "schema error: " + e.Msg }

// PredicateError reports a problem compiling a textual predicate: parse
// failure, unknown parameter letter, unknown field on the bound class,
// or a type-incompatible comparison.
type PredicateError struct {
	Msg string
}

func (e *PredicateError) Error() string { return "predicate error: " + e.Msg }

// BindingError reports a pipeline that references an unknown class, or
// a distinct_pair() on a non-2-ary or mixed-class pipeline.
type BindingError struct {
	Msg string
}

func (e *BindingError) Error() string { return "binding error: " + e.Msg }

// DataError reports a problem adding or mutating entity data: a missing
// or unknown field, a wrong type, or a planning value outside its range.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string { return "data error: " + e.Msg }

// UsageError reports a registration call attempted while a solve is in
// flight.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return "usage error: " + e.Msg }
