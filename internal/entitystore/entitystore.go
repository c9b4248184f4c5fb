// Package entitystore implements the entity/fact store: dense per-class
// storage for entity tuples, and an identifier index giving O(1) lookup
// by (class, id).
//
// Identity is a 64-bit xxhash of an encoded (class, id) pair: collisions
// are resolved by an equality check against the stored id rather than
// relied upon for uniqueness, so 64 bits is plenty for an in-process
// session.
package entitystore

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/solvecore/solvecore"
	"github.com/solvecore/solvecore/internal/schema"
)

// Handle is a stable reference to one stored entity: the class it
// belongs to and its slot (dense-array index) within that class.
type Handle struct {
	Class string
	Slot  int
}

// Less gives handles the canonical ordering distinct_pair() needs to
// visit each unordered pair exactly once.
func (h Handle) Less(other Handle) bool {
	if h.Class != other.Class {
		return h.Class < other.Class
	}
	return h.Slot < other.Slot
}

// Record is one stored entity instance: its handle and its field values
// in schema-declared order.
type Record struct {
	Handle Handle
	Values []solvecore.Value
}

type idKey struct {
	class string
	id    solvecore.Value
}

// Store holds all entity instances for one session.
type Store struct {
	registry *schema.Registry

	// byClass holds, per class name, the dense array of field-value
	// tuples in insertion order.
	byClass map[string][]Record

	// byIdentifier maps a 64-bit hash of (class, id) to the candidate
	// handles sharing that hash, resolved by exact id comparison.
	byIdentifier map[uint64][]idEntry
}

type idEntry struct {
	key    idKey
	handle Handle
}

// New creates an empty store bound to a schema registry.
func New(registry *schema.Registry) *Store {
	return &Store{
		registry:     registry,
		byClass:      make(map[string][]Record),
		byIdentifier: make(map[uint64][]idEntry),
	}
}

func hashIdKey(k idKey) uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte(k.class))
	_ = h.WriteByte(0)
	switch v := k.id.(type) {
	case int64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	case string:
		_, _ = h.Write([]byte(v))
	default:
		_, _ = h.Write([]byte(fmt.Sprintf("%v", v)))
	}
	return h.Sum64()
}

// Add stores a new entity instance, conforming to class's declared
// field order, and returns its stable handle. Fails with a DataError if
// a field is missing, unknown, of the wrong primitive type, or if the
// planning field's initial value falls outside its declared range.
func (s *Store) Add(class *schema.ClassDef, rng *schema.ValueRange, values map[string]solvecore.Value) (Handle, error) {
	tuple := make([]solvecore.Value, len(class.Fields))

	for i, f := range class.Fields {
		v, ok := values[f.Name]
		if !ok {
			if f.PlanningVariable {
				// Planning fields default to the range's low bound
				// (the conventional "unassigned" value) when omitted.
				tuple[i] = rng.Lo
				continue
			}
			return Handle{}, &solvecore.DataError{Msg: fmt.Sprintf("class %q: missing field %q", class.Name, f.Name)}
		}
		if err := checkType(f, v); err != nil {
			return Handle{}, err
		}
		if f.PlanningVariable {
			iv := v.(int64)
			if rng == nil || !rng.Contains(iv) {
				return Handle{}, &solvecore.DataError{Msg: fmt.Sprintf("class %q field %q: value %d outside range %q", class.Name, f.Name, iv, f.ValueRange)}
			}
		}
		tuple[i] = v
	}

	for name := range values {
		if _, ok := class.FieldIndex(name); !ok {
			return Handle{}, &solvecore.DataError{Msg: fmt.Sprintf("class %q: unknown field %q", class.Name, name)}
		}
	}

	slot := len(s.byClass[class.Name])
	handle := Handle{Class: class.Name, Slot: slot}
	s.byClass[class.Name] = append(s.byClass[class.Name], Record{Handle: handle, Values: tuple})

	if idx := class.IdentifierFieldIndex(); idx != -1 {
		key := idKey{class: class.Name, id: tuple[idx]}
		h := hashIdKey(key)
		s.byIdentifier[h] = append(s.byIdentifier[h], idEntry{key: key, handle: handle})
	}

	return handle, nil
}

func checkType(f schema.FieldDef, v solvecore.Value) error {
	switch f.Type {
	case schema.TypeInt:
		if _, ok := v.(int64); !ok {
			return &solvecore.DataError{Msg: fmt.Sprintf("field %q: expected int, got %T", f.Name, v)}
		}
	case schema.TypeString:
		if _, ok := v.(string); !ok {
			return &solvecore.DataError{Msg: fmt.Sprintf("field %q: expected str, got %T", f.Name, v)}
		}
	}
	return nil
}

// Get performs an O(1) lookup of the entity with the given identifier
// value in the given class.
func (s *Store) Get(class string, id solvecore.Value) (Record, bool) {
	key := idKey{class: class, id: id}
	h := hashIdKey(key)
	for _, e := range s.byIdentifier[h] {
		if e.key.class == class && e.key.id == id {
			return s.at(e.handle), true
		}
	}
	return Record{}, false
}

// Iterate returns all records of a class in insertion order. The
// returned slice must not be mutated by callers; use Record.Values as
// read-only except through SetPlanning.
func (s *Store) Iterate(class string) []Record {
	return s.byClass[class]
}

func (s *Store) at(h Handle) Record {
	return s.byClass[h.Class][h.Slot]
}

// At returns the record for a handle.
func (s *Store) At(h Handle) Record {
	return s.at(h)
}

// SetPlanning mutates a handle's planning-field value in place. The
// value must lie within the class's declared range. The identifier
// index is untouched: planning mutation never changes identifier-field
// values.
func (s *Store) SetPlanning(class *schema.ClassDef, rng schema.ValueRange, h Handle, value int64) error {
	if !rng.Contains(value) {
		return &solvecore.DataError{Msg: fmt.Sprintf("value %d outside range %q", value, rng.Name)}
	}
	idx := class.PlanningFieldIndex()
	if idx == -1 {
		return &solvecore.DataError{Msg: fmt.Sprintf("class %q has no planning field", class.Name)}
	}
	s.byClass[h.Class][h.Slot].Values[idx] = value
	return nil
}

// PlanningValue returns the current planning-field value of a handle.
func (s *Store) PlanningValue(class *schema.ClassDef, h Handle) int64 {
	idx := class.PlanningFieldIndex()
	return s.byClass[h.Class][h.Slot].Values[idx].(int64)
}

// Snapshot captures every planning-field value across all classes, for
// the solver's best-so-far bookkeeping.
type Snapshot map[Handle]int64

// Snapshot returns the current planning-field values of every entity in
// the given classes that carries a planning field.
func (s *Store) Snapshot(classes []*schema.ClassDef) Snapshot {
	snap := make(Snapshot)
	for _, c := range classes {
		idx := c.PlanningFieldIndex()
		if idx == -1 {
			continue
		}
		for _, rec := range s.byClass[c.Name] {
			snap[rec.Handle] = rec.Values[idx].(int64)
		}
	}
	return snap
}

// Restore writes a previously captured snapshot back into the store.
func (s *Store) Restore(classes []*schema.ClassDef, snap Snapshot) {
	byName := make(map[string]*schema.ClassDef, len(classes))
	for _, c := range classes {
		byName[c.Name] = c
	}
	for h, v := range snap {
		c := byName[h.Class]
		idx := c.PlanningFieldIndex()
		s.byClass[h.Class][h.Slot].Values[idx] = v
	}
}
