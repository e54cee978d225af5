// Package ebnflex provides lexical scanning based on EBNF grammars.
package ebnflex

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dhamidi/caret/token"
	"golang.org/x/exp/ebnf"
)

// Position represents a location in source code.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Rule is a token the lexer can produce. Expr is matched against the input;
// names it references are resolved in the lexer's grammar.
type Rule struct {
	Name string
	Type int
	Expr ebnf.Expression

	// Literal rules match a fixed string and win ties against other rules.
	Literal bool
	// Hidden rules produce tokens on the hidden channel.
	Hidden bool
}

// memoKey is used for memoization of match results.
type memoKey struct {
	name   string
	offset int
}

// Lexer tokenizes input based on an EBNF grammar.
type Lexer struct {
	grammar  ebnf.Grammar
	rules    []Rule
	input    []byte
	filename string
	pos      int
	line     int
	column   int
	index    int
	memo     map[memoKey]int  // memoization cache: key -> match length (-1 = no match)
	visiting map[memoKey]bool // cycle detection
}

// NewLexer creates a lexer producing the given rules over input.
func NewLexer(grammar ebnf.Grammar, rules []Rule, input []byte, filename string) *Lexer {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Literal && !ordered[j].Literal
	})

	return &Lexer{
		grammar:  grammar,
		rules:    ordered,
		input:    input,
		filename: filename,
		pos:      0,
		line:     1,
		column:   1,
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
}

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	grammar, err := ebnf.Parse(filename, f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	return grammar, nil
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) newToken(typ int, start Position, literal string, hidden bool) token.Token {
	tok := token.Token{
		Index:  l.index,
		Type:   typ,
		Text:   literal,
		Start:  start.Offset,
		End:    l.pos,
		Line:   start.Line,
		Column: start.Column,
	}
	if hidden {
		tok.Channel = token.HiddenChannel
	}
	l.index++
	return tok
}

// NextToken returns the next token from the input, or an EOF token and
// io.EOF at the end. Of all rules the longest match wins; on equal length
// literal rules come first, then declaration order.
func (l *Lexer) NextToken() (token.Token, error) {
	if l.pos >= len(l.input) {
		return l.newToken(token.EOF, l.Position(), "", false), io.EOF
	}

	startPos := l.Position()
	startOffset := l.pos

	// Clear memoization cache for each new token
	l.memo = make(map[memoKey]int)

	var best *Rule
	var bestLen int

	for i := range l.rules {
		rule := &l.rules[i]
		if rule.Expr == nil {
			continue
		}

		l.visiting = make(map[memoKey]bool)
		matchLen := l.tryMatch(rule.Expr, startOffset)
		if matchLen > bestLen {
			bestLen = matchLen
			best = rule
		}
	}

	if best == nil {
		// No match - emit single character as invalid token
		ch := l.advance()
		return l.newToken(token.Invalid, startPos, string(ch), false), nil
	}

	// Advance past the match
	for i := 0; i < bestLen; i++ {
		l.advance()
	}

	return l.newToken(best.Type, startPos, string(l.input[startOffset:startOffset+bestLen]), best.Hidden), nil
}

// tryMatch attempts to match an expression at the given offset.
// Returns the length of the match, or 0 if no match.
func (l *Lexer) tryMatch(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		return l.tryMatchToken(e.String, offset)

	case *ebnf.Range:
		return l.tryMatchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		total := 0
		pos := offset
		for _, item := range e {
			n := l.tryMatch(item, pos)
			if n == 0 && !l.canBeEmpty(item) {
				return 0
			}
			total += n
			pos += n
		}
		return total

	case ebnf.Alternative:
		best := 0
		for _, alt := range e {
			n := l.tryMatch(alt, offset)
			if n > best {
				best = n
			}
		}
		return best

	case *ebnf.Repetition:
		total := 0
		pos := offset
		for {
			n := l.tryMatch(e.Body, pos)
			if n == 0 {
				break
			}
			total += n
			pos += n
		}
		return total

	case *ebnf.Option:
		// Option always succeeds (returns 0 if body doesn't match)
		return l.tryMatch(e.Body, offset)

	case *ebnf.Group:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Name:
		return l.tryMatchName(e.String, offset)

	default:
		return 0
	}
}

// canBeEmpty reports whether a zero-length match of expr is a success.
func (l *Lexer) canBeEmpty(expr ebnf.Expression) bool {
	switch expr.(type) {
	case *ebnf.Repetition, *ebnf.Option:
		return true
	}
	return false
}

// tryMatchName matches a named production with memoization and cycle detection.
func (l *Lexer) tryMatchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}

	// Check memo cache
	if result, ok := l.memo[key]; ok {
		if result == -1 {
			return 0
		}
		return result
	}

	// Cycle detection - if we're already visiting this production at this offset,
	// return 0 to break the cycle (left recursion)
	if l.visiting[key] {
		return 0
	}

	prod, ok := l.grammar[name]
	if !ok || prod.Expr == nil {
		l.memo[key] = -1
		return 0
	}

	// Mark as visiting
	l.visiting[key] = true

	result := l.tryMatch(prod.Expr, offset)

	// Unmark visiting
	delete(l.visiting, key)

	// Cache result
	if result == 0 {
		l.memo[key] = -1
	} else {
		l.memo[key] = result
	}

	return result
}

// tryMatchToken matches a literal string token.
func (l *Lexer) tryMatchToken(s string, offset int) int {
	if s == "" || offset+len(s) > len(l.input) {
		return 0
	}
	if string(l.input[offset:offset+len(s)]) == s {
		return len(s)
	}
	return 0
}

// tryMatchRange matches a character range (e.g., "a"…"z").
func (l *Lexer) tryMatchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return 0
	}
	if len(begin) != 1 || len(end) != 1 {
		return 0
	}
	ch := l.input[offset]
	if ch >= begin[0] && ch <= end[0] {
		return 1
	}
	return 0
}

// Tokenize reads all tokens from input. The last token is always EOF.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err == io.EOF {
			tokens = append(tokens, tok)
			break
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
