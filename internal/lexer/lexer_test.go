package lexer

import "testing"

func TestNextTokenCoreSymbols(t *testing.T) {
	input := `MODULE main { VAR x : unsigned[4]; INIT x = 0; TRANS next(x) = (x + 1) % 16; }`

	want := []TokenType{
		MODULE, IDENT, LBRACE,
		VAR, IDENT, COLON, UNSIGNED, LBRACKET, INT, RBRACKET, SEMI,
		INIT, IDENT, EQ, INT, SEMI,
		TRANS, NEXT, LPAREN, IDENT, RPAREN, EQ, LPAREN, IDENT, PLUS, INT, RPAREN, PERCENT, INT, SEMI,
		RBRACE, EOF,
	}

	l := New(input, "test.model")
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s (literal %q)", i, tok.Type, tt, tok.Literal)
		}
	}
}

func TestNextTokenOperators(t *testing.T) {
	input := `-> <-> << >> <= >= != && || xnor`
	want := []TokenType{ARROW, DARROW, LSHIFT, RSHIFT, LTE, GTE, NEQ, ANDAND, OROR, XNOR, EOF}

	l := New(input, "test.model")
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, tt)
		}
	}
}

func TestNextTokenLTLOperatorsVersusIdents(t *testing.T) {
	l := New("G F X U R Foo", "test.model")
	want := []TokenType{LTL_G, LTL_F, LTL_X, LTL_U, LTL_R, IDENT, EOF}
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, tt)
		}
	}
}

func TestNextTokenSkipsLineComments(t *testing.T) {
	l := New("-- a comment\nVAR -- trailing\nx", "test.model")
	want := []TokenType{VAR, IDENT, EOF}
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, tt)
		}
	}
}

func TestNextTokenHexLiteral(t *testing.T) {
	l := New("0xFF", "test.model")
	tok := l.NextToken()
	if tok.Type != INT || tok.Literal != "0xFF" {
		t.Fatalf("got %s %q, want INT \"0xFF\"", tok.Type, tok.Literal)
	}
}

func TestNextTokenTracksLineAndColumn(t *testing.T) {
	l := New("VAR\nx", "test.model")
	first := l.NextToken()
	if first.Line != 1 {
		t.Fatalf("first token line = %d, want 1", first.Line)
	}
	second := l.NextToken()
	if second.Line != 2 {
		t.Fatalf("second token line = %d, want 2", second.Line)
	}
}
