package predicate

import (
	"fmt"

	"github.com/solvecore/solvecore/internal/schema"
)

type parser struct {
	lex      *lexer
	cur      token
	bindings map[byte]*schema.ClassDef
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// parsePred parses `pred := expr cmp expr | pred 'and' pred`.
func (p *parser) parsePred() ([]comparison, error) {
	first, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	out := []comparison{first}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		out = append(out, next)
	}
	return out, nil
}

func (p *parser) parseComparison() (comparison, error) {
	left, err := p.parseExpr()
	if err != nil {
		return comparison{}, err
	}
	if p.cur.kind != tokCmp {
		return comparison{}, fmt.Errorf("expected comparison operator, got %q", p.cur.text)
	}
	op := p.cur.text
	if err := p.advance(); err != nil {
		return comparison{}, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return comparison{}, err
	}

	if err := checkComparisonTypes(op, left, right); err != nil {
		return comparison{}, err
	}

	return comparison{left: left, right: right, op: op}, nil
}

func checkComparisonTypes(op string, left, right exprNode) error {
	lt, rt := left.staticType(), right.staticType()
	if op == "==" || op == "!=" {
		if lt != rt {
			return fmt.Errorf("type mismatch: cannot compare %s to %s", lt, rt)
		}
		return nil
	}
	if lt != schema.TypeInt || rt != schema.TypeInt {
		return fmt.Errorf("type mismatch: operator %q requires int operands", op)
	}
	return nil
}

// parseExpr parses `expr := term (op term)*`.
func (p *parser) parseExpr() (exprNode, error) {
	first, err := p.parseTerm()
	if err != nil {
		return exprNode{}, err
	}
	node := exprNode{terms: []term{first}}

	for {
		// The lexer turns a '-' glued to a digit into a negative literal;
		// after a term it is a binary minus on the positive literal.
		if p.cur.kind == tokInt && p.cur.text[0] == '-' {
			node.terms = append(node.terms, term{isLit: true, lit: -p.cur.num})
			node.ops = append(node.ops, '-')
			if err := p.advance(); err != nil {
				return exprNode{}, err
			}
			continue
		}
		if p.cur.kind != tokPlus && p.cur.kind != tokMinus {
			break
		}
		op := byte('+')
		if p.cur.kind == tokMinus {
			op = '-'
		}
		if err := p.advance(); err != nil {
			return exprNode{}, err
		}
		next, err := p.parseTerm()
		if err != nil {
			return exprNode{}, err
		}
		node.terms = append(node.terms, next)
		node.ops = append(node.ops, op)
	}

	if len(node.terms) > 1 {
		for _, t := range node.terms {
			if t.staticType() != schema.TypeInt {
				return exprNode{}, fmt.Errorf("arithmetic requires int operands, got %s", t.staticType())
			}
		}
	}

	return node, nil
}

// parseTerm parses `term := LIT_INT | PARAM '.' IDENT`.
func (p *parser) parseTerm() (term, error) {
	switch p.cur.kind {
	case tokInt:
		v := p.cur.num
		if err := p.advance(); err != nil {
			return term{}, err
		}
		return term{isLit: true, lit: v}, nil

	case tokParam:
		param := p.cur.text[0]
		if err := p.advance(); err != nil {
			return term{}, err
		}
		if p.cur.kind != tokDot {
			return term{}, fmt.Errorf("expected '.' after parameter %c", param)
		}
		if err := p.advance(); err != nil {
			return term{}, err
		}
		if p.cur.kind != tokIdent {
			return term{}, fmt.Errorf("expected field name after %c.", param)
		}
		field := p.cur.text
		if err := p.advance(); err != nil {
			return term{}, err
		}

		class, ok := p.bindings[param]
		if !ok {
			return term{}, fmt.Errorf("unknown parameter letter %c", param)
		}
		idx, ok := class.FieldIndex(field)
		if !ok {
			return term{}, fmt.Errorf("class %q has no field %q (referenced as %c.%s)", class.Name, field, param, field)
		}

		return term{
			param:      param,
			fieldName:  field,
			fieldIndex: idx,
			fieldType:  class.Fields[idx].Type,
		}, nil

	default:
		return term{}, fmt.Errorf("expected integer literal or PARAM.field, got %q", p.cur.text)
	}
}
