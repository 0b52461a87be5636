package spreadsheet

import "testing"

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexerTokenizesArithmetic(t *testing.T) {
	tokens, err := NewLexer("1+2*3-A1/(4)").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}

	want := []TokenType{
		TokenNumber, TokenPlus, TokenNumber, TokenStar, TokenNumber,
		TokenMinus, TokenCell, TokenSlash, TokenLParen, TokenNumber, TokenRParen,
		TokenEOF,
	}
	got := tokenTypes(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerSkipsWhitespace(t *testing.T) {
	tokens, err := NewLexer(" 1 + 2 ").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if len(tokens) != 4 { // NUMBER PLUS NUMBER EOF
		t.Fatalf("got %d tokens, want 4: %v", len(tokens), tokens)
	}
}

func TestLexerRejectsUnknownCharacter(t *testing.T) {
	if _, err := NewLexer("1+$2").Tokenize(); err == nil {
		t.Errorf("expected an error for an unrecognized character")
	}
}

func TestLexerScansDecimalNumbers(t *testing.T) {
	tokens, err := NewLexer("3.140").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if tokens[0].Type != TokenNumber || tokens[0].Value != "3.140" {
		t.Errorf("got %+v, want NUMBER %q", tokens[0], "3.140")
	}
}

func TestLexerScansExponentNumbers(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"1e5", "1e5"},
		{"2.5E-3", "2.5E-3"},
		{"1E+2", "1E+2"},
	}
	for _, c := range cases {
		t.Run(c.body, func(t *testing.T) {
			tokens, err := NewLexer(c.body).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize returned error: %v", err)
			}
			if tokens[0].Type != TokenNumber || tokens[0].Value != c.want {
				t.Errorf("got %+v, want NUMBER %q", tokens[0], c.want)
			}
			if tokens[1].Type != TokenEOF {
				t.Errorf("expected the exponent to be consumed as one token, got trailing %+v", tokens[1])
			}
		})
	}
}

func TestLexerBacktracksOnDanglingExponent(t *testing.T) {
	// "1E" alone (no sign, no digits after E) is not a valid exponent
	// suffix, so scanNumber backtracks and the trailing 'E' lexes as its
	// own CELL token instead of being swallowed into a malformed number.
	tokens, err := NewLexer("1E").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	want := []TokenType{TokenNumber, TokenCell, TokenEOF}
	got := tokenTypes(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if tokens[0].Value != "1" || tokens[1].Value != "E" {
		t.Errorf("got values %q, %q, want \"1\", \"E\"", tokens[0].Value, tokens[1].Value)
	}
}

func TestLexerScansCellReferences(t *testing.T) {
	tokens, err := NewLexer("AAAA1").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if tokens[0].Type != TokenCell || tokens[0].Value != "AAAA1" {
		t.Errorf("got %+v, want CELL %q", tokens[0], "AAAA1")
	}
}
