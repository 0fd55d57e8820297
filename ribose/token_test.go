package ribose

import (
	"bytes"
	"testing"
)

func TestParseTokenSigils(t *testing.T) {
	cases := []struct {
		raw  string
		kind TokenKind
		name string
	}{
		{"!nul", TokenSignal, "nul"},
		{"~field", TokenField, "field"},
		{"@sub", TokenTransducer, "sub"},
		{"plain", TokenLiteral, ""},
	}
	for _, c := range cases {
		tok := ParseToken([]byte(c.raw))
		if tok.Kind != c.kind {
			t.Fatalf("ParseToken(%q).Kind = %v, want %v", c.raw, tok.Kind, c.kind)
		}
		if c.kind != TokenLiteral && tok.Name != c.name {
			t.Fatalf("ParseToken(%q).Name = %q, want %q", c.raw, tok.Name, c.name)
		}
		if tok.IsSymbolic() != (c.kind != TokenLiteral) {
			t.Fatalf("ParseToken(%q).IsSymbolic() = %v", c.raw, tok.IsSymbolic())
		}
	}
}

func TestParseTokenDoubledSigilIsEscapedLiteral(t *testing.T) {
	tok := ParseToken([]byte("!!nul"))
	if tok.Kind != TokenLiteral {
		t.Fatalf("doubled sigil Kind = %v, want TokenLiteral", tok.Kind)
	}
	if !bytes.Equal(tok.Literal, []byte("!nul")) {
		t.Fatalf("doubled sigil Literal = %q, want %q", tok.Literal, "!nul")
	}
}

func TestParseTokenEmpty(t *testing.T) {
	tok := ParseToken(nil)
	if tok.Kind != TokenLiteral || len(tok.Literal) != 0 {
		t.Fatalf("ParseToken(nil) = %+v, want empty literal", tok)
	}
}

func TestTokenKindString(t *testing.T) {
	if TokenSignal.String() != "signal" {
		t.Fatalf("TokenSignal.String() = %q", TokenSignal.String())
	}
	if TokenKind(99).String() == "" {
		t.Fatalf("unknown TokenKind.String() returned empty")
	}
}
