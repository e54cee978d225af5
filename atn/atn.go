// Package atn models the augmented transition network a grammar compiles
// to: one sub-graph per rule, connected by rule-call transitions.
package atn

import (
	"fmt"

	"github.com/dhamidi/caret/interval"
	"github.com/dhamidi/caret/token"
)

type StateKind int

const (
	Invalid StateKind = iota
	Basic
	RuleStart
	BlockStart
	PlusBlockStart
	StarBlockStart
	RuleStop
	BlockEnd
	StarLoopBack
	StarLoopEntry
	PlusLoopBack
	LoopEnd
)

var stateKindNames = []string{
	"invalid",
	"basic",
	"rule start",
	"block start",
	"plus block start",
	"star block start",
	"rule stop",
	"block end",
	"star loop back",
	"star loop entry",
	"plus loop back",
	"loop end",
}

func (k StateKind) String() string {
	if int(k) < 0 || int(k) >= len(stateKindNames) {
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
	return stateKindNames[k]
}

type TransitionKind int

const (
	Epsilon TransitionKind = iota
	Atom
	Set
	NotSet
	Wildcard
	RuleCall
	Predicate
)

func (k TransitionKind) String() string {
	switch k {
	case Epsilon:
		return "epsilon"
	case Atom:
		return "atom"
	case Set:
		return "set"
	case NotSet:
		return "not set"
	case Wildcard:
		return "wildcard"
	case RuleCall:
		return "rule"
	case Predicate:
		return "predicate"
	}
	return fmt.Sprintf("TransitionKind(%d)", int(k))
}

// State is a node of the network. Every state belongs to exactly one rule.
type State struct {
	Number      int
	Kind        StateKind
	RuleIndex   int
	Transitions []*Transition
}

func (s *State) String() string {
	return fmt.Sprintf("[%d %s]", s.Number, s.Kind)
}

// Transition is an edge between two states.
//
// For RuleCall transitions Target is the start state of the called rule and
// FollowState is where the caller resumes once the callee reaches its stop
// state. For Predicate transitions PredRule and PredIndex identify the
// predicate handed to the evaluator.
type Transition struct {
	Kind   TransitionKind
	Target *State
	Label  *interval.Set

	Rule        int
	FollowState *State

	PredRule  int
	PredIndex int
}

// IsEpsilon reports whether following t consumes no input.
func (t *Transition) IsEpsilon() bool {
	switch t.Kind {
	case Epsilon, RuleCall, Predicate:
		return true
	}
	return false
}

// Rule is a named sub-graph with one start and one stop state.
type Rule struct {
	Index int
	Name  string
	Start *State
	Stop  *State
}

// ATN is a compiled grammar. Token types range over
// [token.MinUserType, MaxTokenType].
type ATN struct {
	States       []*State
	Rules        []*Rule
	MaxTokenType int
}

// Alphabet returns every token type the grammar can match.
func (a *ATN) Alphabet() *interval.Set {
	return interval.Range(token.MinUserType, a.MaxTokenType)
}

// SymbolLabel returns the set of token types t matches. NotSet labels are
// complemented against the alphabet; epsilon-like transitions return nil.
func (a *ATN) SymbolLabel(t *Transition) *interval.Set {
	switch t.Kind {
	case Atom, Set:
		return t.Label
	case NotSet:
		return t.Label.Complement(token.MinUserType, a.MaxTokenType)
	case Wildcard:
		return a.Alphabet()
	}
	return nil
}

// Rule returns the rule at index i or nil.
func (a *ATN) Rule(i int) *Rule {
	if i < 0 || i >= len(a.Rules) {
		return nil
	}
	return a.Rules[i]
}

// RuleByName returns the rule called name or nil.
func (a *ATN) RuleByName(name string) *Rule {
	for _, r := range a.Rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RuleNames returns the rule names indexed by rule index.
func (a *ATN) RuleNames() []string {
	names := make([]string, len(a.Rules))
	for i, r := range a.Rules {
		names[i] = r.Name
	}
	return names
}
