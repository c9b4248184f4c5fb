package predicate

import "testing"

func tokenKinds(t *testing.T, src string) []tokenKind {
	t.Helper()
	l := newLexer(src)
	var kinds []tokenKind
	for {
		tok, err := l.next()
		if err != nil {
			t.Fatal(err)
		}
		kinds = append(kinds, tok.kind)
		if tok.kind == tokEOF {
			return kinds
		}
	}
}

func TestLexerTokenizesParamDotFieldComparison(t *testing.T) {
	got := tokenKinds(t, "A.row==B.row")
	want := []tokenKind{tokParam, tokDot, tokIdent, tokCmp, tokParam, tokDot, tokIdent, tokEOF}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestLexerRecognizesAndKeyword(t *testing.T) {
	got := tokenKinds(t, "A.row<B.row and A.column<B.column")
	var hasAnd bool
	for _, k := range got {
		if k == tokAnd {
			hasAnd = true
		}
	}
	if !hasAnd {
		t.Fatal("expected 'and' to lex as tokAnd")
	}
}

func TestLexerSingleUppercaseLetterIsParamNotIdent(t *testing.T) {
	l := newLexer("A.row")
	tok, err := l.next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.kind != tokParam || tok.text != "A" {
		t.Fatalf("expected PARAM 'A', got %v %q", tok.kind, tok.text)
	}
}

func TestLexerMultiCharUppercaseIdentIsNotParam(t *testing.T) {
	// A bare multi-letter word beginning with a capital (not followed
	// by '.') must lex as one whole word, not a PARAM plus leftover
	// letters; "AND" is that whole word and lexes as the and keyword.
	l := newLexer("AND")
	tok, err := l.next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.kind != tokAnd {
		t.Fatalf("expected AND keyword, got %v %q", tok.kind, tok.text)
	}
}

func TestLexerNegativeIntegerLiteral(t *testing.T) {
	l := newLexer("-5")
	tok, err := l.next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.kind != tokInt || tok.num != -5 {
		t.Fatalf("expected int -5, got %v %d", tok.kind, tok.num)
	}
}

func TestLexerRejectsUnexpectedCharacter(t *testing.T) {
	l := newLexer("A.row@B.row")
	for {
		tok, err := l.next()
		if err != nil {
			return
		}
		if tok.kind == tokEOF {
			t.Fatal("expected lexer to error on '@'")
		}
	}
}
