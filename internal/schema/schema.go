// Package schema holds the schema and value-range registries:
// entity-class definitions with typed, ordered fields, and named
// half-open integer ranges used by planning variables. Registration is
// one-shot — once a class or range is registered its layout is fixed,
// so that predicate compilation and entity storage can resolve fields
// by position instead of by name at search time.
package schema

import (
	"fmt"

	"github.com/solvecore/solvecore"
)

// FieldType is the primitive type of a declared field.
type FieldType int

const (
	// TypeInt is a 64-bit signed integer field.
	TypeInt FieldType = iota
	// TypeString is a string field.
	TypeString
)

func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "str"
	default:
		return "unknown"
	}
}

// FieldDef declares one field of an entity class.
type FieldDef struct {
	Name             string
	Type             FieldType
	PlanningVariable bool
	ValueRange       string // required iff PlanningVariable
}

// ValueRange is a named half-open integer interval [Lo, Hi).
type ValueRange struct {
	Name string
	Lo   int64
	Hi   int64
}

// Contains reports whether v lies in [Lo, Hi).
func (r ValueRange) Contains(v int64) bool {
	return v >= r.Lo && v < r.Hi
}

// Size returns the number of distinct values in the range.
func (r ValueRange) Size() int64 {
	return r.Hi - r.Lo
}

// ClassDef is the registered, immutable layout of an entity class.
type ClassDef struct {
	Name   string
	Fields []FieldDef

	// indexOf maps field name to its position in Fields.
	indexOf map[string]int
	// planningField is the index of the planning field, or -1.
	planningField int
	// idField is the index of the field named "id", or -1.
	idField int
}

// FieldIndex returns the position of the named field and whether it exists.
func (c *ClassDef) FieldIndex(name string) (int, bool) {
	i, ok := c.indexOf[name]
	return i, ok
}

// PlanningFieldIndex returns the index of the planning field, or -1 if
// this class has none.
func (c *ClassDef) PlanningFieldIndex() int {
	return c.planningField
}

// IdentifierFieldIndex returns the index of the field named "id", or -1
// if this class has no such field.
func (c *ClassDef) IdentifierFieldIndex() int {
	return c.idField
}

// Registry holds all registered classes and value ranges for one
// session. It is not safe for concurrent mutation; callers own it
// exclusively for the lifetime of a solve.
type Registry struct {
	classes    map[string]*ClassDef
	classOrder []string
	ranges     map[string]ValueRange
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*ClassDef),
		ranges:  make(map[string]ValueRange),
	}
}

// ClassNames returns all registered class names in registration order,
// giving the solver a deterministic order to visit planning variables
// across classes.
func (r *Registry) ClassNames() []string {
	return append([]string(nil), r.classOrder...)
}

// RegisterRange registers a named half-open integer range.
func (r *Registry) RegisterRange(name string, lo, hi int64) error {
	if _, exists := r.ranges[name]; exists {
		return &solvecore.SchemaError{Msg: fmt.Sprintf("range %q already registered", name)}
	}
	if lo >= hi {
		return &solvecore.SchemaError{Msg: fmt.Sprintf("range %q has lo (%d) >= hi (%d)", name, lo, hi)}
	}
	r.ranges[name] = ValueRange{Name: name, Lo: lo, Hi: hi}
	return nil
}

// Range looks up a registered value range by name.
func (r *Registry) Range(name string) (ValueRange, bool) {
	rng, ok := r.ranges[name]
	return rng, ok
}

// RegisterClass registers an entity class with an ordered field list.
// Fails if the class name is duplicated, a field name repeats within
// the class, more than one field is marked planning, or a planning
// field references an undeclared range.
func (r *Registry) RegisterClass(name string, fields []FieldDef) (*ClassDef, error) {
	if _, exists := r.classes[name]; exists {
		return nil, &solvecore.SchemaError{Msg: fmt.Sprintf("class %q already registered", name)}
	}

	def := &ClassDef{
		Name:          name,
		Fields:        append([]FieldDef(nil), fields...),
		indexOf:       make(map[string]int, len(fields)),
		planningField: -1,
		idField:       -1,
	}

	for i, f := range fields {
		if _, dup := def.indexOf[f.Name]; dup {
			return nil, &solvecore.SchemaError{Msg: fmt.Sprintf("class %q has duplicate field %q", name, f.Name)}
		}
		def.indexOf[f.Name] = i

		if f.Name == "id" && def.idField == -1 {
			def.idField = i
		}

		if f.PlanningVariable {
			if def.planningField != -1 {
				return nil, &solvecore.SchemaError{Msg: fmt.Sprintf("class %q declares more than one planning field", name)}
			}
			if f.ValueRange == "" {
				return nil, &solvecore.SchemaError{Msg: fmt.Sprintf("class %q field %q is planning but has no value_range", name, f.Name)}
			}
			if _, ok := r.ranges[f.ValueRange]; !ok {
				return nil, &solvecore.SchemaError{Msg: fmt.Sprintf("class %q field %q references undeclared range %q", name, f.Name, f.ValueRange)}
			}
			def.planningField = i
		}
	}

	r.classes[name] = def
	r.classOrder = append(r.classOrder, name)
	return def, nil
}

// Class looks up a registered class definition by name.
func (r *Registry) Class(name string) (*ClassDef, bool) {
	c, ok := r.classes[name]
	return c, ok
}
