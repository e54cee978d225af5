package completion

import (
	"fmt"
	"slices"
	"sort"
)

// Candidates is the result of a completion request.
type Candidates struct {
	// Tokens maps each candidate token type to the tokens that would follow
	// it. An empty list means no single continuation is known.
	Tokens map[int][]int

	// Rules maps each preferred rule candidate to the rule path, root first,
	// through which it was first reached.
	Rules map[int][]int

	// StatesProcessed counts automaton states expanded by the walk.
	StatesProcessed int
}

func newCandidates() *Candidates {
	return &Candidates{
		Tokens: make(map[int][]int),
		Rules:  make(map[int][]int),
	}
}

// addToken records symbol with its following hint. Conflicting hints for one
// symbol leave it without a hint.
func (c *Candidates) addToken(symbol int, following []int) bool {
	existing, ok := c.Tokens[symbol]
	if !ok {
		c.Tokens[symbol] = append([]int{}, following...)
		return true
	}
	if !slices.Equal(existing, following) {
		c.Tokens[symbol] = []int{}
	}
	return false
}

// addRule records rule reached through path unless it is already recorded.
// A rule keeps the first path it was recorded with.
func (c *Candidates) addRule(rule int, path []int) bool {
	if _, ok := c.Rules[rule]; ok {
		return false
	}
	c.Rules[rule] = slices.Clone(path)
	return true
}

// TokenTypes returns the candidate token types in ascending order.
func (c *Candidates) TokenTypes() []int {
	return sortedKeys(c.Tokens)
}

// RuleIndexes returns the candidate rules in ascending order.
func (c *Candidates) RuleIndexes() []int {
	return sortedKeys(c.Rules)
}

// Symbols returns every token type that is a candidate or appears in a
// candidate's following hint, ascending.
func (c *Candidates) Symbols() []int {
	seen := make(map[int][]int, len(c.Tokens))
	for t, following := range c.Tokens {
		seen[t] = nil
		for _, f := range following {
			seen[f] = nil
		}
	}
	return sortedKeys(seen)
}

func (c *Candidates) String() string {
	return fmt.Sprintf("Candidates{tokens=%v, rules=%v}", c.Tokens, c.Rules)
}

func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
