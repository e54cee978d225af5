package completion_test

import (
	"errors"
	"testing"

	"github.com/dhamidi/caret/completion"
	"github.com/dhamidi/caret/grammar"
	"github.com/dhamidi/caret/token"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func loadGrammar(t *testing.T, path, start string) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Load(path, start, "WS")
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	return g
}

func lex(t *testing.T, g *grammar.Grammar, input string) *token.BufferedStream {
	t.Helper()
	tokens, err := g.Lexer([]byte(input), "input").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", input, err)
	}
	return token.NewBufferedStream(tokens)
}

// lastVisible returns the index of the last visible token before EOF, or
// EOF's index for empty input.
func lastVisible(s *token.BufferedStream) int {
	tokens := s.Tokens()
	for i := len(tokens) - 2; i >= 0; i-- {
		if tokens[i].Channel == token.DefaultChannel {
			return i
		}
	}
	return len(tokens) - 1
}

func eofIndex(s *token.BufferedStream) int {
	return s.Size() - 1
}

func ruleIndexes(t *testing.T, g *grammar.Grammar, names ...string) []int {
	t.Helper()
	var indexes []int
	for _, name := range names {
		r := g.ATN.RuleByName(name)
		if r == nil {
			t.Fatalf("no rule %s", name)
		}
		indexes = append(indexes, r.Index)
	}
	return indexes
}

func tokenTypes(t *testing.T, g *grammar.Grammar, names ...string) []int {
	t.Helper()
	var types []int
	for _, name := range names {
		typ, ok := g.Vocabulary.Type(name)
		if !ok {
			t.Fatalf("no token %s", name)
		}
		types = append(types, typ)
	}
	return types
}

func TestCollectCandidatesEmptyInput(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	preferred := ruleIndexes(t, g, "Machine", "State", "Transition")
	e := completion.NewEngine(g.ATN, completion.WithPreferredRules(preferred...))

	stream := lex(t, g, "")
	got, err := e.CollectCandidates(stream, 0, nil, nil)
	if err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}

	root := g.ATN.RuleByName("Definitions").Index
	want := map[int][]int{
		preferred[0]: {root},
		preferred[1]: {root},
		preferred[2]: {root},
	}
	if diff := cmp.Diff(want, got.Rules); diff != "" {
		t.Errorf("Rules mismatch (-want +got):\n%s", diff)
	}
	if len(got.Tokens) != 0 {
		t.Errorf("Tokens = %v, want none", got.Tokens)
	}
}

func TestCollectCandidatesInsideTransition(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	e := completion.NewEngine(g.ATN)

	stream := lex(t, g, "state S1 {} state S2 {} transition { source")
	got, err := e.CollectCandidates(stream, lastVisible(stream), nil, nil)
	if err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}

	types := tokenTypes(t, g, "'}'", "SOURCE", "TARGET", "ID", "';'")
	rbrace, source, target, id, semi := types[0], types[1], types[2], types[3], types[4]

	want := map[int][]int{
		rbrace: {},
		source: {id, semi, target, id, semi, rbrace},
	}
	if diff := cmp.Diff(want, got.Tokens); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}

	wantSymbols := []int{source, target, id, rbrace, semi}
	if diff := cmp.Diff(wantSymbols, got.Symbols()); diff != "" {
		t.Errorf("Symbols mismatch (-want +got):\n%s", diff)
	}
	if len(got.Rules) != 0 {
		t.Errorf("Rules = %v, want none", got.Rules)
	}
}

func TestCollectCandidatesRuleContext(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	e := completion.NewEngine(g.ATN)

	input := "state S1 {} transition { source"
	stream := lex(t, g, input)

	start := -1
	transition, _ := g.Vocabulary.Type("TRANSITION")
	for _, tok := range stream.Tokens() {
		if tok.Type == transition {
			start = tok.Index
		}
	}
	ctx := &completion.RuleContext{
		RuleIndex:       g.ATN.RuleByName("Transition").Index,
		StartTokenIndex: start,
	}

	fromContext, err := e.CollectCandidates(stream, lastVisible(stream), ctx, nil)
	if err != nil {
		t.Fatalf("CollectCandidates with context: %v", err)
	}
	fromRoot, err := e.CollectCandidates(stream, lastVisible(stream), nil, nil)
	if err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}
	if diff := cmp.Diff(fromRoot.Tokens, fromContext.Tokens); diff != "" {
		t.Errorf("Tokens mismatch (-root +context):\n%s", diff)
	}
	if stream.Index() != 0 {
		t.Errorf("stream Index() = %d after CollectCandidates, want 0", stream.Index())
	}
}

func TestCollectCandidatesRepeated(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	e := completion.NewEngine(g.ATN)
	stream := lex(t, g, "state S1 {} state S2 {} transition { source")

	first, err := e.CollectCandidates(stream, lastVisible(stream), nil, nil)
	if err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}
	before := e.Cache().Stats()

	second, err := e.CollectCandidates(stream, lastVisible(stream), nil, nil)
	if err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}
	after := e.Cache().Stats()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second call mismatch (-first +second):\n%s", diff)
	}
	if after.Computations != before.Computations {
		t.Errorf("Computations = %d after second call, want %d", after.Computations, before.Computations)
	}
	if after.StatesVisited != before.StatesVisited {
		t.Errorf("StatesVisited = %d after second call, want %d", after.StatesVisited, before.StatesVisited)
	}
	if before.Computations == 0 || int64(before.Holders) != before.Computations {
		t.Errorf("Stats() = %+v, want one computation per holder", before)
	}
}

func TestCollectCandidatesDeterministic(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	inputs := []string{
		"",
		"state",
		"statemachine M {",
		"statemachine M { state A {} transition {",
		"transition { source A ; target",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			stream := lex(t, g, input)
			caret := eofIndex(stream)

			a, err := completion.NewEngine(g.ATN).CollectCandidates(stream, caret, nil, nil)
			if err != nil {
				t.Fatalf("CollectCandidates: %v", err)
			}
			b, err := completion.NewEngine(g.ATN).CollectCandidates(stream, caret, nil, nil)
			if err != nil {
				t.Fatalf("CollectCandidates: %v", err)
			}
			if diff := cmp.Diff(a, b); diff != "" {
				t.Errorf("candidates differ between engines (-a +b):\n%s", diff)
			}
		})
	}
}

func TestCollectCandidatesAfterInput(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")

	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"STATEMACHINE", "STATE", "TRANSITION"}},
		{"state ", []string{"ID"}},
		{"state S1 ", []string{"'{'"}},
		{"state S1 {} ", []string{"STATEMACHINE", "STATE", "TRANSITION"}},
		{"statemachine M { ", []string{"STATE", "TRANSITION", "'}'"}},
		{"transition { source A ; ", []string{"TARGET"}},
		{"state {", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stream := lex(t, g, tt.input)
			got, err := completion.NewEngine(g.ATN).CollectCandidates(stream, eofIndex(stream), nil, nil)
			if err != nil {
				t.Fatalf("CollectCandidates: %v", err)
			}
			var names []string
			for _, typ := range got.TokenTypes() {
				names = append(names, g.Vocabulary.DisplayName(typ))
			}
			want := append([]string(nil), tt.want...)
			sortByType(t, g, want)
			if diff := cmp.Diff(want, names); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func sortByType(t *testing.T, g *grammar.Grammar, names []string) {
	types := tokenTypes(t, g, names...)
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if types[j] < types[i] {
				types[i], types[j] = types[j], types[i]
				names[i], names[j] = names[j], names[i]
			}
		}
	}
}

func TestCollectCandidatesLeftRecursion(t *testing.T) {
	g := loadGrammar(t, "testdata/expr.ebnf", "Expr")
	num, _ := g.Vocabulary.Type("NUM")
	plus, _ := g.Vocabulary.Type("'+'")

	tests := []struct {
		input string
		want  []int
	}{
		{"", []int{num}},
		{"1 +", []int{num}},
		{"1 + 2 +", []int{num}},
		{"1 + 2 ", []int{plus}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stream := lex(t, g, tt.input)
			got, err := completion.NewEngine(g.ATN).CollectCandidates(stream, eofIndex(stream), nil, nil)
			if err != nil {
				t.Fatalf("CollectCandidates: %v", err)
			}
			if diff := cmp.Diff(tt.want, got.TokenTypes()); diff != "" {
				t.Errorf("TokenTypes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollectCandidatesEpsilonLoop(t *testing.T) {
	g := loadGrammar(t, "testdata/repeat.ebnf", "Program")
	x, _ := g.Vocabulary.Type("'x'")

	stream := lex(t, g, "x x")
	got, err := completion.NewEngine(g.ATN).CollectCandidates(stream, eofIndex(stream), nil, nil)
	if err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}
	want := map[int][]int{x: {}}
	if diff := cmp.Diff(want, got.Tokens); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectCandidatesConcurrent(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	cache := completion.NewCache()
	e := completion.NewEngine(g.ATN, completion.WithCache(cache), completion.WithGrammarID(g.ID))

	inputs := []string{
		"state S1 {} state S2 {} transition { source",
		"statemachine M { state A {} ",
		"transition { source A ; target",
	}
	want := make([]*completion.Candidates, len(inputs))
	lexed := make([][]token.Token, len(inputs))
	for i, input := range inputs {
		stream := lex(t, g, input)
		lexed[i] = stream.Tokens()
		c, err := completion.NewEngine(g.ATN).CollectCandidates(stream, eofIndex(stream), nil, nil)
		if err != nil {
			t.Fatalf("CollectCandidates(%q): %v", input, err)
		}
		want[i] = c
	}

	var eg errgroup.Group
	got := make([]*completion.Candidates, 8*len(inputs))
	for i := range got {
		eg.Go(func() error {
			stream := token.NewBufferedStream(lexed[i%len(inputs)])
			c, err := e.CollectCandidates(stream, eofIndex(stream), nil, nil)
			got[i] = c
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}

	for i, c := range got {
		if diff := cmp.Diff(want[i%len(inputs)].Tokens, c.Tokens); diff != "" {
			t.Errorf("call %d tokens mismatch (-want +got):\n%s", i, diff)
		}
	}
	stats := cache.Stats()
	if int64(stats.Holders) != stats.Computations {
		t.Errorf("Stats() = %+v, want one computation per holder", stats)
	}
}

func TestCollectCandidatesInvalidArgument(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	stream := lex(t, g, "state S1")
	e := completion.NewEngine(g.ATN)

	tests := []struct {
		name  string
		caret int
		ctx   *completion.RuleContext
	}{
		{"rule out of range", 0, &completion.RuleContext{RuleIndex: 99}},
		{"negative rule", 0, &completion.RuleContext{RuleIndex: -1}},
		{"negative start", 0, &completion.RuleContext{StartTokenIndex: -1}},
		{"start past stream", 10, &completion.RuleContext{StartTokenIndex: 10}},
		{"caret before start", 0, &completion.RuleContext{StartTokenIndex: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CollectCandidates(stream, tt.caret, tt.ctx, nil)
			if !errors.Is(err, completion.ErrInvalidArgument) {
				t.Errorf("CollectCandidates error = %v, want %v", err, completion.ErrInvalidArgument)
			}
		})
	}
	if stats := e.Cache().Stats(); stats.Computations != 0 {
		t.Errorf("Computations = %d, want 0", stats.Computations)
	}
}

func TestEngineOptions(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	e := completion.NewEngine(g.ATN,
		completion.WithPreferredRules(3, 1),
		completion.WithIgnoredTokens(7, 2, 7),
	)
	if diff := cmp.Diff([]int{1, 3}, e.PreferredRules()); diff != "" {
		t.Errorf("PreferredRules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 7}, e.IgnoredTokens()); diff != "" {
		t.Errorf("IgnoredTokens mismatch (-want +got):\n%s", diff)
	}
	if e.ATN() != g.ATN {
		t.Errorf("ATN() = %p, want %p", e.ATN(), g.ATN)
	}
}

func TestIgnoredTokens(t *testing.T) {
	g := loadGrammar(t, "testdata/statemachine.ebnf", "Definitions")
	state, _ := g.Vocabulary.Type("STATE")
	e := completion.NewEngine(g.ATN, completion.WithIgnoredTokens(state))

	stream := lex(t, g, "")
	got, err := e.CollectCandidates(stream, 0, nil, nil)
	if err != nil {
		t.Fatalf("CollectCandidates: %v", err)
	}
	want := tokenTypes(t, g, "STATEMACHINE", "TRANSITION")
	if diff := cmp.Diff(want, got.TokenTypes()); diff != "" {
		t.Errorf("TokenTypes mismatch (-want +got):\n%s", diff)
	}
}
