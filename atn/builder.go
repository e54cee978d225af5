package atn

import "github.com/dhamidi/caret/interval"

// Builder assembles an ATN state by state. Rules must be declared before
// states are added to them.
type Builder struct {
	atn *ATN
}

func NewBuilder() *Builder {
	return &Builder{atn: &ATN{}}
}

// Rule declares a rule and creates its start and stop states.
func (b *Builder) Rule(name string) *Rule {
	r := &Rule{Index: len(b.atn.Rules), Name: name}
	b.atn.Rules = append(b.atn.Rules, r)
	r.Start = b.State(r, RuleStart)
	r.Stop = b.State(r, RuleStop)
	return r
}

// State adds a state of the given kind to r.
func (b *Builder) State(r *Rule, kind StateKind) *State {
	s := &State{Number: len(b.atn.States), Kind: kind, RuleIndex: r.Index}
	b.atn.States = append(b.atn.States, s)
	return s
}

func (b *Builder) add(from *State, t *Transition) *Transition {
	from.Transitions = append(from.Transitions, t)
	return t
}

func (b *Builder) Epsilon(from, to *State) *Transition {
	return b.add(from, &Transition{Kind: Epsilon, Target: to})
}

// Atom adds a transition matching the single token type symbol.
func (b *Builder) Atom(from, to *State, symbol int) *Transition {
	b.grow(symbol)
	return b.add(from, &Transition{Kind: Atom, Target: to, Label: interval.Of(symbol)})
}

// Set adds a transition matching any type in set.
func (b *Builder) Set(from, to *State, set *interval.Set) *Transition {
	b.growSet(set)
	return b.add(from, &Transition{Kind: Set, Target: to, Label: set})
}

// NotSet adds a transition matching any type of the alphabet not in set.
func (b *Builder) NotSet(from, to *State, set *interval.Set) *Transition {
	b.growSet(set)
	return b.add(from, &Transition{Kind: NotSet, Target: to, Label: set})
}

func (b *Builder) Wildcard(from, to *State) *Transition {
	return b.add(from, &Transition{Kind: Wildcard, Target: to})
}

// Call adds a rule-call from from into callee, resuming at follow.
func (b *Builder) Call(from *State, callee *Rule, follow *State) *Transition {
	return b.add(from, &Transition{
		Kind:        RuleCall,
		Target:      callee.Start,
		Rule:        callee.Index,
		FollowState: follow,
	})
}

// Predicate adds a transition guarded by the predicate (rule, index).
func (b *Builder) Predicate(from, to *State, rule, index int) *Transition {
	return b.add(from, &Transition{Kind: Predicate, Target: to, PredRule: rule, PredIndex: index})
}

// SetMaxTokenType widens the alphabet to at least max.
func (b *Builder) SetMaxTokenType(max int) {
	b.grow(max)
}

func (b *Builder) grow(symbol int) {
	if symbol > b.atn.MaxTokenType {
		b.atn.MaxTokenType = symbol
	}
}

func (b *Builder) growSet(set *interval.Set) {
	ivs := set.Intervals()
	if len(ivs) > 0 {
		b.grow(ivs[len(ivs)-1].Hi)
	}
}

// Build returns the assembled network. The builder must not be used after.
func (b *Builder) Build() *ATN {
	a := b.atn
	b.atn = nil
	return a
}
