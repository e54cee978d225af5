// Package grammar compiles EBNF grammars into the automaton walked by the
// completion engine, together with the vocabulary and a lexer for the
// grammar's tokens.
//
// Production names follow three conventions:
//
//	Statement = ...   parser rule (capitalized, contains lower-case letters)
//	ID = ...          token (all capitals, digits and underscores)
//	letter = ...      lexical fragment, only referenced by tokens
//
// String literals used inside parser rules become tokens as well: the token
// whose whole definition is that literal, or an implicit token displayed as
// the quoted literal.
package grammar

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"unicode"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/ebnflex"
	"golang.org/x/exp/ebnf"
)

var (
	ErrUnknownProduction = errors.New("unknown production")
	ErrUnsupported       = errors.New("unsupported expression")
)

// Grammar is a compiled EBNF grammar.
type Grammar struct {
	// ID identifies the grammar source; it changes whenever the source does.
	ID         string
	Name       string
	Start      string
	ATN        *atn.ATN
	Vocabulary *atn.Vocabulary

	source     ebnf.Grammar
	lexerRules []ebnflex.Rule
}

// Kind classifies a production name.
type Kind int

const (
	Fragment Kind = iota
	Token
	ParserRule
)

// KindOf classifies a production name by its spelling.
func KindOf(name string) Kind {
	upper, lower := false, false
	for i, r := range name {
		if i == 0 && !unicode.IsUpper(r) {
			return Fragment
		}
		if unicode.IsUpper(r) {
			upper = true
		}
		if unicode.IsLower(r) {
			lower = true
		}
	}
	if upper && !lower {
		return Token
	}
	return ParserRule
}

// Load reads and compiles the grammar file at path.
func Load(path, start string, skip ...string) (*Grammar, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return Parse(path, src, start, skip...)
}

// Parse compiles src. start names the top parser rule, skip names token
// productions whose tokens the lexer puts on the hidden channel.
func Parse(name string, src []byte, start string, skip ...string) (*Grammar, error) {
	source, err := ebnf.Parse(name, bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	if err := verify(source, start, skip); err != nil {
		return nil, err
	}

	c := newCompiler(source, skip)
	if err := c.compile(start); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(src)
	return &Grammar{
		ID:         name + "@" + hex.EncodeToString(sum[:6]),
		Name:       name,
		Start:      start,
		ATN:        c.atn,
		Vocabulary: c.vocabulary(),
		source:     source,
		lexerRules: c.lexerRules,
	}, nil
}

// verify runs ebnf.Verify from a synthetic root that reaches both the start
// production and the skip tokens, which no parser rule references.
func verify(source ebnf.Grammar, start string, skip []string) error {
	if KindOf(start) != ParserRule {
		return fmt.Errorf("start production %q is not a parser rule", start)
	}
	for _, name := range skip {
		if KindOf(name) != Token {
			return fmt.Errorf("skip production %q is not a token", name)
		}
		if _, ok := source[name]; !ok {
			return fmt.Errorf("%w: skip token %q", ErrUnknownProduction, name)
		}
	}

	root := start + "·"
	alts := ebnf.Alternative{&ebnf.Name{String: start}}
	for _, name := range skip {
		alts = append(alts, &ebnf.Name{String: name})
	}

	check := make(ebnf.Grammar, len(source)+1)
	for name, prod := range source {
		check[name] = prod
	}
	check[root] = &ebnf.Production{Name: &ebnf.Name{String: root}, Expr: alts}

	if err := ebnf.Verify(check, root); err != nil {
		return fmt.Errorf("verify grammar: %w", err)
	}
	return nil
}

// Productions returns the names of all productions of kind k in
// declaration order.
func (g *Grammar) Productions(k Kind) []string {
	return productions(g.source, k)
}

func productions(source ebnf.Grammar, k Kind) []string {
	var names []string
	for name := range source {
		if KindOf(name) == k {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return source[names[i]].Pos().Offset < source[names[j]].Pos().Offset
	})
	return names
}

// Lexer returns a lexer for input producing this grammar's token types.
func (g *Grammar) Lexer(input []byte, filename string) *ebnflex.Lexer {
	return ebnflex.NewLexer(g.source, g.lexerRules, input, filename)
}
