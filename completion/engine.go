// Package completion computes code-completion candidates by walking the
// automaton of a grammar along the tokens before the caret.
//
// The walk follows the approach of antlr4-c3: every rule entry consults a
// cached follow set to prune dead branches early, and rules the caller
// prefers are reported as a whole instead of being expanded into tokens.
package completion

import (
	"fmt"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/token"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/tliron/commonlog"
)

// RuleContext limits the walk to one rule starting at a token. It is
// usually the innermost parse context around the caret.
type RuleContext struct {
	RuleIndex       int
	StartTokenIndex int
}

// Engine collects completion candidates for one automaton. An Engine is
// safe for concurrent use; every call works on its own session.
type Engine struct {
	atn       *atn.ATN
	grammarID string
	cache     *Cache
	preferred *hashset.Set
	ignored   *hashset.Set
	log       commonlog.Logger
}

type Option func(*Engine)

// WithPreferredRules reports the given rules as rule candidates instead of
// expanding them into the tokens they start with.
func WithPreferredRules(rules ...int) Option {
	return func(e *Engine) {
		for _, r := range rules {
			e.preferred.Add(r)
		}
	}
}

// WithIgnoredTokens keeps the given token types out of the candidates.
func WithIgnoredTokens(types ...int) Option {
	return func(e *Engine) {
		for _, t := range types {
			e.ignored.Add(t)
		}
	}
}

// WithCache shares a follow-set cache between engines. Engines sharing a
// cache must agree on their ignored tokens for a given grammar identity.
// Without WithGrammarID, follow sets are shared only by engines of the same
// automaton.
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithGrammarID sets the identity under which follow sets are cached.
// Engines for the same grammar should use the same identity; engines for
// different grammars must not.
func WithGrammarID(id string) Option {
	return func(e *Engine) {
		e.grammarID = id
	}
}

func WithLogger(log commonlog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func NewEngine(a *atn.ATN, options ...Option) *Engine {
	e := &Engine{
		atn:       a,
		preferred: hashset.New(),
		ignored:   hashset.New(),
		log:       commonlog.GetLogger("caret.completion"),
	}
	for _, o := range options {
		o(e)
	}
	if e.cache == nil {
		e.cache = NewCache()
	}
	return e
}

// PreferredRules returns the preferred rule indexes in ascending order.
func (e *Engine) PreferredRules() []int {
	return intValues(e.preferred)
}

// IgnoredTokens returns the ignored token types in ascending order.
func (e *Engine) IgnoredTokens() []int {
	return intValues(e.ignored)
}

func (e *Engine) Cache() *Cache {
	return e.cache
}

func (e *Engine) ATN() *atn.ATN {
	return e.atn
}

// CollectCandidates returns the candidates at the token with index caret in
// stream. The caret token is the one covering the caret position. ctx
// names the rule to start from and its first token; nil means rule 0 from
// the start of the stream. preds decides predicated transitions; nil lets
// every predicate pass.
//
// The stream position is left unchanged.
func (e *Engine) CollectCandidates(stream token.Stream, caret int, ctx *RuleContext, preds PredicateEvaluator) (*Candidates, error) {
	if ctx == nil {
		ctx = &RuleContext{}
	}
	rule := e.atn.Rule(ctx.RuleIndex)
	if rule == nil {
		return nil, fmt.Errorf("%w: rule index %d outside automaton of %d rules", ErrInvalidArgument, ctx.RuleIndex, len(e.atn.Rules))
	}
	window, err := token.Window(stream, ctx.StartTokenIndex, caret)
	if err != nil {
		return nil, err
	}

	s := newSession(e, window, preds)
	if _, err := s.processRule(rule.Start, 0); err != nil {
		return nil, err
	}
	s.candidates.StatesProcessed = s.statesProcessed

	e.log.Debugf("states processed: %d", s.statesProcessed)
	for _, r := range s.candidates.RuleIndexes() {
		e.log.Debugf("collected rule %s, path %v", e.atn.Rules[r].Name, s.candidates.Rules[r])
	}
	for _, t := range s.candidates.TokenTypes() {
		e.log.Debugf("collected token %d, following %v", t, s.candidates.Tokens[t])
	}
	return s.candidates, nil
}

func intValues(s *hashset.Set) []int {
	sorted := treeset.NewWithIntComparator(s.Values()...)
	values := make([]int, 0, sorted.Size())
	for _, v := range sorted.Values() {
		values = append(values, v.(int))
	}
	return values
}
