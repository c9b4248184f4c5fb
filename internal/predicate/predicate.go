// Package predicate compiles a textual predicate over one or two bound
// parameters into a callable with statically resolved field offsets.
// Compilation happens once, when the constraint builder's Join or
// Filter is called, resolving every
// PARAM.field reference to a (param, field-index) pair so that no
// lookup by name happens once a predicate is compiled; no string work
// happens during search.
package predicate

import (
	"fmt"

	"github.com/solvecore/solvecore"
	"github.com/solvecore/solvecore/internal/entitystore"
	"github.com/solvecore/solvecore/internal/schema"
)

type term struct {
	isLit bool
	lit   int64

	param      byte
	fieldName  string
	fieldIndex int
	fieldType  schema.FieldType
}

func (t term) staticType() schema.FieldType {
	if t.isLit {
		return schema.TypeInt
	}
	return t.fieldType
}

// exprNode is a chain of terms combined left-to-right by + and -. A
// chain of length 1 may be string-typed; a chain of length > 1 must be
// entirely int-typed (arithmetic is only defined over int).
type exprNode struct {
	terms []term
	ops   []byte // ops[i] combines terms[i] and terms[i+1]; '+' or '-'
}

func (e exprNode) staticType() schema.FieldType {
	return e.terms[0].staticType()
}

func (e exprNode) eval(tuples map[byte]entitystore.Record) (solvecore.Value, error) {
	first, err := evalTerm(e.terms[0], tuples)
	if err != nil {
		return nil, err
	}
	if len(e.terms) == 1 {
		return first, nil
	}
	acc := first.(int64)
	for i, op := range e.ops {
		v, err := evalTerm(e.terms[i+1], tuples)
		if err != nil {
			return nil, err
		}
		iv := v.(int64)
		if op == '+' {
			acc += iv
		} else {
			acc -= iv
		}
	}
	return acc, nil
}

func evalTerm(t term, tuples map[byte]entitystore.Record) (solvecore.Value, error) {
	if t.isLit {
		return t.lit, nil
	}
	rec, ok := tuples[t.param]
	if !ok {
		return nil, fmt.Errorf("predicate: no tuple bound for parameter %c", t.param)
	}
	return rec.Values[t.fieldIndex], nil
}

// comparison is one `expr cmp expr` term in the implicit AND chain.
type comparison struct {
	left, right exprNode
	op          string
}

func (c comparison) eval(tuples map[byte]entitystore.Record) (bool, error) {
	lv, err := c.left.eval(tuples)
	if err != nil {
		return false, err
	}
	rv, err := c.right.eval(tuples)
	if err != nil {
		return false, err
	}

	switch c.op {
	case "==":
		return valuesEqual(lv, rv), nil
	case "!=":
		return !valuesEqual(lv, rv), nil
	default:
		li, lok := lv.(int64)
		ri, rok := rv.(int64)
		if !lok || !rok {
			return false, fmt.Errorf("predicate: ordering comparison on non-int values")
		}
		switch c.op {
		case "<":
			return li < ri, nil
		case "<=":
			return li <= ri, nil
		case ">":
			return li > ri, nil
		case ">=":
			return li >= ri, nil
		}
		return false, fmt.Errorf("predicate: unknown operator %q", c.op)
	}
}

func valuesEqual(a, b solvecore.Value) bool {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	default:
		return a == b
	}
}

// Compiled is a compiled predicate: an implicit AND of one or more
// comparisons, ready to be evaluated against bound tuples with no
// further string work.
type Compiled struct {
	comparisons []comparison
	params      map[byte]bool
}

// RequiredParams returns the set of parameter letters this predicate
// reads from.
func (c *Compiled) RequiredParams() []byte {
	out := make([]byte, 0, len(c.params))
	for p := range c.params {
		out = append(out, p)
	}
	return out
}

// Eval evaluates the compiled predicate against one or two bound
// tuples, keyed by parameter letter.
func (c *Compiled) Eval(tuples map[byte]entitystore.Record) (bool, error) {
	for _, cmp := range c.comparisons {
		ok, err := cmp.eval(tuples)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Compile compiles a textual predicate against the classes currently
// bound to each parameter letter, the association established by the
// enclosing for_each/join: a field name is resolved against the class
// bound to its parameter, not by a global name lookup. Multiple
// predicate strings at one join are ANDed together by the caller
// (constraint.Builder.Join).
func Compile(predStr string, bindings map[byte]*schema.ClassDef) (*Compiled, error) {
	p := &parser{lex: newLexer(predStr), bindings: bindings}
	if err := p.advance(); err != nil {
		return nil, &solvecore.PredicateError{Msg: err.Error()}
	}

	comparisons, err := p.parsePred()
	if err != nil {
		return nil, &solvecore.PredicateError{Msg: err.Error()}
	}
	if p.cur.kind != tokEOF {
		return nil, &solvecore.PredicateError{Msg: fmt.Sprintf("unexpected trailing token %q", p.cur.text)}
	}

	params := make(map[byte]bool)
	for _, c := range comparisons {
		for _, t := range c.left.terms {
			if !t.isLit {
				params[t.param] = true
			}
		}
		for _, t := range c.right.terms {
			if !t.isLit {
				params[t.param] = true
			}
		}
	}

	return &Compiled{comparisons: comparisons, params: params}, nil
}
