package predicate

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokParam // single capital letter, e.g. A
	tokDot
	tokIdent
	tokPlus
	tokMinus
	tokCmp  // == != < <= > >=
	tokAnd  // 'and'
)

type token struct {
	kind tokenKind
	text string
	num  int64
}

// lexer tokenizes a predicate string for the following grammar:
//
//	expr := term (op term)*
//	term := LIT_INT | PARAM '.' IDENT | term ('+'|'-') term
//	cmp  := '==' | '!=' | '<' | '<=' | '>' | '>='
//	pred := expr cmp expr | pred 'and' pred
type lexer struct {
	src []rune
	pos int
}

func newLexer(s string) *lexer {
	return &lexer{src: []rune(s)}
}

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) skipSpace() {
	for {
		r, ok := l.peekRune()
		if !ok || !isSpace(r) {
			return
		}
		l.pos++
	}
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
func isIdentPart(r rune) bool { return isIdentStart(r) || isDigit(r) }

func (l *lexer) next() (token, error) {
	l.skipSpace()
	r, ok := l.peekRune()
	if !ok {
		return token{kind: tokEOF}, nil
	}

	switch {
	case r == '.':
		l.pos++
		return token{kind: tokDot, text: "."}, nil
	case r == '+':
		l.pos++
		return token{kind: tokPlus, text: "+"}, nil
	case r == '-':
		// Could be a unary-minus on an int literal, or a binary minus.
		// Disambiguated by the parser; here we just check whether a
		// digit follows with no space, forming a negative literal.
		if l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			start := l.pos
			l.pos++
			for {
				r2, ok := l.peekRune()
				if !ok || !isDigit(r2) {
					break
				}
				l.pos++
			}
			lit := string(l.src[start:l.pos])
			var n int64
			if _, err := fmt.Sscanf(lit, "%d", &n); err != nil {
				return token{}, fmt.Errorf("invalid integer literal %q", lit)
			}
			return token{kind: tokInt, text: lit, num: n}, nil
		}
		l.pos++
		return token{kind: tokMinus, text: "-"}, nil
	case isDigit(r):
		start := l.pos
		for {
			r2, ok := l.peekRune()
			if !ok || !isDigit(r2) {
				break
			}
			l.pos++
		}
		lit := string(l.src[start:l.pos])
		var n int64
		if _, err := fmt.Sscanf(lit, "%d", &n); err != nil {
			return token{}, fmt.Errorf("invalid integer literal %q", lit)
		}
		return token{kind: tokInt, text: lit, num: n}, nil
	case r == '=' || r == '!' || r == '<' || r == '>':
		start := l.pos
		l.pos++
		if r2, ok := l.peekRune(); ok && r2 == '=' {
			l.pos++
		}
		op := string(l.src[start:l.pos])
		switch op {
		case "==", "!=", "<", "<=", ">", ">=":
			return token{kind: tokCmp, text: op}, nil
		default:
			return token{}, fmt.Errorf("invalid comparison operator %q", op)
		}
	case isUpper(r):
		// A lone capital letter is a PARAM (A, B, C, ...); per the
		// grammar it is always immediately followed by '.'.
		if l.pos+1 >= len(l.src) || !isIdentPart(l.src[l.pos+1]) {
			l.pos++
			return token{kind: tokParam, text: string(r)}, nil
		}
		fallthrough
	case isIdentStart(r):
		start := l.pos
		for {
			r2, ok := l.peekRune()
			if !ok || !isIdentPart(r2) {
				break
			}
			l.pos++
		}
		text := string(l.src[start:l.pos])
		if strings.EqualFold(text, "and") {
			return token{kind: tokAnd, text: text}, nil
		}
		return token{kind: tokIdent, text: text}, nil
	default:
		return token{}, fmt.Errorf("unexpected character %q", r)
	}
}
