package ebnflex

import (
	"strings"
	"testing"

	"github.com/dhamidi/caret/token"
	"golang.org/x/exp/ebnf"
)

const testGrammar = `
Program = { STATE | ID | "{" } .
STATE = "state" .
ID = letter { letter | digit } .
WS = " " | "\n" .
letter = "a" … "z" | "A" … "Z" .
digit = "0" … "9" .
`

const (
	typeState = iota + 1
	typeID
	typeWS
	typeLBrace
)

func newTestLexer(t *testing.T, input string) *Lexer {
	t.Helper()
	g, err := ebnf.Parse("test.ebnf", strings.NewReader(testGrammar))
	if err != nil {
		t.Fatalf("parse grammar: %v", err)
	}
	rules := []Rule{
		{Name: "ID", Type: typeID, Expr: g["ID"].Expr},
		{Name: "STATE", Type: typeState, Expr: g["STATE"].Expr, Literal: true},
		{Name: "WS", Type: typeWS, Expr: g["WS"].Expr, Hidden: true},
		{Name: "'{'", Type: typeLBrace, Expr: &ebnf.Token{String: "{"}, Literal: true},
	}
	return NewLexer(g, rules, []byte(input), "test.sm")
}

func TestLexerTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"", []int{token.EOF}},
		{"state", []int{typeState, token.EOF}},
		{"states", []int{typeID, token.EOF}},
		{"a", []int{typeID, token.EOF}},
		{"state S1 {", []int{typeState, typeWS, typeID, typeWS, typeLBrace, token.EOF}},
		{"x#", []int{typeID, token.Invalid, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := newTestLexer(t, tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			if len(tokens) != len(tt.want) {
				t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(tt.want))
			}
			for i, tok := range tokens {
				if tok.Type != tt.want[i] {
					t.Errorf("token %d type = %d, want %d", i, tok.Type, tt.want[i])
				}
				if tok.Index != i {
					t.Errorf("token %d index = %d", i, tok.Index)
				}
			}
		})
	}
}

func TestLexerPositionsAndChannels(t *testing.T) {
	tokens, err := newTestLexer(t, "state\n  Foo").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	// state, "\n", " ", " ", Foo, EOF
	if len(tokens) != 6 {
		t.Fatalf("got %d tokens, want 6", len(tokens))
	}

	foo := tokens[4]
	if foo.Text != "Foo" {
		t.Errorf("Text = %q, want %q", foo.Text, "Foo")
	}
	if foo.Line != 2 || foo.Column != 3 {
		t.Errorf("Line:Column = %d:%d, want 2:3", foo.Line, foo.Column)
	}
	if foo.Start != 8 || foo.End != 11 {
		t.Errorf("Start/End = %d/%d, want 8/11", foo.Start, foo.End)
	}
	if tokens[1].Channel != token.HiddenChannel {
		t.Errorf("whitespace channel = %d, want hidden", tokens[1].Channel)
	}
	if tokens[0].Channel != token.DefaultChannel {
		t.Errorf("keyword channel = %d, want default", tokens[0].Channel)
	}

	eof := tokens[5]
	if eof.Start != 11 || eof.End != 11 {
		t.Errorf("EOF Start/End = %d/%d, want 11/11", eof.Start, eof.End)
	}
}

func TestPositionString(t *testing.T) {
	p := Position{Filename: "a.sm", Line: 3, Column: 4}
	if got := p.String(); got != "a.sm:3:4" {
		t.Errorf("String() = %q, want %q", got, "a.sm:3:4")
	}
	p.Filename = ""
	if got := p.String(); got != "3:4" {
		t.Errorf("String() = %q, want %q", got, "3:4")
	}
}
