package grammar

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/token"
	"github.com/google/go-cmp/cmp"
)

const statemachine = `
Definitions = { Machine | State | Transition } .
Machine = STATEMACHINE ID "{" { State | Transition } "}" .
State = STATE ID "{" "}" .
Transition = TRANSITION "{" [ SOURCE ID ";" TARGET ID ";" ] "}" .

STATEMACHINE = "statemachine" .
STATE = "state" .
TRANSITION = "transition" .
SOURCE = "source" .
TARGET = "target" .
ID = letter { letter | digit | "_" } .
WS = " " | "\t" | "\n" | "\r" .

letter = "a" … "z" | "A" … "Z" | "_" .
digit = "0" … "9" .
`

func parseStatemachine(t *testing.T) *Grammar {
	t.Helper()
	g, err := Parse("statemachine.ebnf", []byte(statemachine), "Definitions", "WS")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return g
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"Definitions", ParserRule},
		{"State", ParserRule},
		{"ID", Token},
		{"STATE_MACHINE", Token},
		{"X1", Token},
		{"letter", Fragment},
		{"digit", Fragment},
	}
	for _, tt := range tests {
		if got := KindOf(tt.name); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseVocabulary(t *testing.T) {
	g := parseStatemachine(t)

	var names []string
	for typ := token.MinUserType; typ <= g.ATN.MaxTokenType; typ++ {
		names = append(names, g.Vocabulary.DisplayName(typ))
	}
	want := []string{"STATEMACHINE", "STATE", "TRANSITION", "SOURCE", "TARGET", "ID", "WS", "'{'", "'}'", "';'"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("token names mismatch (-want +got):\n%s", diff)
	}

	if got := g.Vocabulary.LiteralNames[2]; got != "'state'" {
		t.Errorf("literal name of STATE = %q, want %q", got, "'state'")
	}
	if typ, ok := g.Vocabulary.Type("';'"); !ok || typ != 10 {
		t.Errorf("Type(';') = %d, %v, want 10, true", typ, ok)
	}
}

func TestParseRules(t *testing.T) {
	g := parseStatemachine(t)

	want := []string{"Definitions", "Machine", "State", "Transition"}
	if diff := cmp.Diff(want, g.ATN.RuleNames()); diff != "" {
		t.Errorf("rule names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"STATEMACHINE", "STATE", "TRANSITION", "SOURCE", "TARGET", "ID", "WS"}, g.Productions(Token)); diff != "" {
		t.Errorf("token productions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"letter", "digit"}, g.Productions(Fragment)); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}

	for _, r := range g.ATN.Rules {
		if r.Start.Kind != atn.RuleStart || r.Stop.Kind != atn.RuleStop {
			t.Errorf("rule %s: start %v stop %v", r.Name, r.Start, r.Stop)
		}
		if r.Start.RuleIndex != r.Index {
			t.Errorf("rule %s: start state rule index = %d, want %d", r.Name, r.Start.RuleIndex, r.Index)
		}
	}
}

func TestParseStartRuleFirst(t *testing.T) {
	g, err := Parse("test.ebnf", []byte(`
Item = ID .
List = Item { "," Item } .
ID = "x" .
`), "List")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff([]string{"List", "Item"}, g.ATN.RuleNames()); diff != "" {
		t.Errorf("rule names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		start string
		skip  []string
		want  string
		is    error
	}{
		{
			name:  "syntax",
			src:   `A = "a" `,
			start: "A",
			want:  "parse grammar",
		},
		{
			name:  "undefined",
			src:   `Program = Missing .`,
			start: "Program",
			want:  "verify grammar",
		},
		{
			name:  "start is a token",
			src:   `ID = "x" .`,
			start: "ID",
			want:  "not a parser rule",
		},
		{
			name:  "skip is not a token",
			src:   `Program = "x" .`,
			start: "Program",
			skip:  []string{"space"},
			want:  "not a token",
		},
		{
			name:  "unknown skip",
			src:   `Program = "x" .`,
			start: "Program",
			skip:  []string{"WS"},
			is:    ErrUnknownProduction,
		},
		{
			name:  "fragment in parser rule",
			src:   "Program = letter .\nletter = \"a\" … \"z\" .",
			start: "Program",
			is:    ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.ebnf", []byte(tt.src), tt.start, tt.skip...)
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Parse error = %v, want %v", err, tt.is)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestGrammarLexer(t *testing.T) {
	g := parseStatemachine(t)

	tokens, err := g.Lexer([]byte("state S1 {}"), "test.sm").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	var visible []string
	for _, tok := range tokens {
		if tok.Channel == token.DefaultChannel {
			visible = append(visible, g.Vocabulary.DisplayName(tok.Type))
		}
	}
	want := []string{"STATE", "ID", "'{'", "'}'", "<EOF>"}
	if diff := cmp.Diff(want, visible); diff != "" {
		t.Errorf("visible tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestIDChangesWithSource(t *testing.T) {
	a, err := Parse("a.ebnf", []byte(`Prog = "x" .`), "Prog")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse("a.ebnf", []byte(`Prog = "y" .`), "Prog")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("ID = %q for both sources, want different IDs", a.ID)
	}
	if !strings.HasPrefix(a.ID, "a.ebnf@") {
		t.Errorf("ID = %q, want prefix %q", a.ID, "a.ebnf@")
	}
}
