package completion

import (
	"slices"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/interval"
	"github.com/dhamidi/caret/token"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/stacks/arraystack"
)

type memoKey struct {
	rule  int
	index int
}

type pipelineEntry struct {
	state *atn.State
	index int
}

// session holds the state of one CollectCandidates call. Indexes are
// positions in tokens; the last token is the caret token.
type session struct {
	engine *Engine
	tokens []token.Token
	preds  PredicateEvaluator

	callStack  []int
	candidates *Candidates

	memo      map[memoKey]*treeset.Set
	memoOrder []memoKey

	// active rule entries and the seeds that grow them when a rule is
	// re-entered at the same token without consuming input
	active    map[memoKey]bool
	seeds     map[memoKey]*treeset.Set
	recursive map[memoKey]bool

	statesProcessed int
}

func newSession(e *Engine, tokens []token.Token, preds PredicateEvaluator) *session {
	return &session{
		engine:     e,
		tokens:     tokens,
		preds:      preds,
		candidates: newCandidates(),
		memo:       make(map[memoKey]*treeset.Set),
		active:     make(map[memoKey]bool),
		seeds:      make(map[memoKey]*treeset.Set),
		recursive:  make(map[memoKey]bool),
	}
}

func (s *session) atCaret(index int) bool {
	return index >= len(s.tokens)-1
}

func (s *session) followSets(start *atn.State) (*FollowSetsHolder, error) {
	e := s.engine
	rule := e.atn.Rules[start.RuleIndex]
	key := cacheKey{grammar: e.grammarID, state: start.Number}
	if e.grammarID == "" {
		key.automaton = e.atn
	}
	return e.cache.get(key, func() (*FollowSetsHolder, error) {
		holder, visited, err := determineFollowSets(e.atn, e.ignored, s.preds, start, rule.Stop)
		e.cache.statesVisited.Add(visited)
		return holder, err
	})
}

// processRule walks the rule starting at start from the token at index and
// returns the indexes at which the rule can end. Candidates found at the
// caret are collected on the way.
func (s *session) processRule(start *atn.State, index int) (*treeset.Set, error) {
	key := memoKey{rule: start.RuleIndex, index: index}
	if result, ok := s.memo[key]; ok {
		s.engine.log.Debugf("shortcut %s at %d", s.ruleName(key.rule), index)
		return result, nil
	}
	if s.active[key] {
		s.recursive[key] = true
		if seed, ok := s.seeds[key]; ok {
			return seed, nil
		}
		return treeset.NewWithIntComparator(), nil
	}

	holder, err := s.followSets(start)
	if err != nil {
		return nil, err
	}

	s.callStack = append(s.callStack, start.RuleIndex)
	defer func() {
		s.callStack = s.callStack[:len(s.callStack)-1]
	}()

	if s.atCaret(index) {
		s.collectFollowSets(start.RuleIndex, holder)
		// a rule that can end without input lets the caller go on to what
		// follows the call
		if holder.Combined.Contains(token.Epsilon) {
			return treeset.NewWithIntComparator(index), nil
		}
		return treeset.NewWithIntComparator(), nil
	}

	symbol := s.tokens[index].Type
	if !holder.Combined.Contains(token.Epsilon) && !holder.Combined.Contains(symbol) {
		return treeset.NewWithIntComparator(), nil
	}

	s.active[key] = true
	defer func() {
		delete(s.active, key)
		delete(s.seeds, key)
		delete(s.recursive, key)
	}()

	var result *treeset.Set
	for {
		mark := len(s.memoOrder)
		result, err = s.walk(start, index)
		if err != nil {
			return nil, err
		}
		if !s.recursive[key] {
			break
		}

		// The rule called itself at this token. Walk again with what was
		// found so far until no more end positions turn up.
		seed, seeded := s.seeds[key]
		if seeded {
			result.Add(seed.Values()...)
			if result.Size() == seed.Size() {
				break
			}
		}
		s.seeds[key] = result
		s.forget(mark)
	}

	s.memo[key] = result
	s.memoOrder = append(s.memoOrder, key)
	return result, nil
}

// forget drops memo entries stored after mark; they may depend on a seed
// that is about to grow.
func (s *session) forget(mark int) {
	for _, key := range s.memoOrder[mark:] {
		delete(s.memo, key)
	}
	s.memoOrder = s.memoOrder[:mark]
}

// collectFollowSets turns the follow sets of a rule entered at the caret
// into candidates.
func (s *session) collectFollowSets(rule int, holder *FollowSetsHolder) {
	if s.engine.preferred.Contains(rule) {
		s.translate(s.callStack)
		return
	}
	for _, set := range holder.Sets {
		path := append(slices.Clone(s.callStack), set.Path...)
		if !s.translate(path) {
			s.addTokens(set.Intervals, set.Following)
		}
	}
}

func (s *session) walk(start *atn.State, index int) (*treeset.Set, error) {
	result := treeset.NewWithIntComparator()
	expanded := make(map[pipelineEntry]bool)

	pipeline := arraystack.New()
	pipeline.Push(pipelineEntry{state: start, index: index})

	for !pipeline.Empty() {
		v, _ := pipeline.Pop()
		entry := v.(pipelineEntry)
		if expanded[entry] {
			continue
		}
		expanded[entry] = true
		s.statesProcessed++

		if entry.state.Kind == atn.RuleStop {
			result.Add(entry.index)
			continue
		}

		atCaret := s.atCaret(entry.index)
		symbol := s.tokens[entry.index].Type

		for _, t := range entry.state.Transitions {
			switch t.Kind {
			case atn.RuleCall:
				ends, err := s.processRule(t.Target, entry.index)
				if err != nil {
					return nil, err
				}
				for _, end := range ends.Values() {
					pipeline.Push(pipelineEntry{state: t.FollowState, index: end.(int)})
				}

			case atn.Predicate:
				ok, err := evalPredicate(s.preds, t)
				if err != nil {
					return nil, err
				}
				if ok {
					pipeline.Push(pipelineEntry{state: t.Target, index: entry.index})
				}

			case atn.Wildcard:
				if !atCaret {
					pipeline.Push(pipelineEntry{state: t.Target, index: entry.index + 1})
				} else if !s.translate(s.callStack) {
					s.addTokens(s.engine.atn.Alphabet(), []int{})
				}

			case atn.Epsilon:
				if atCaret {
					s.translate(s.callStack)
				}
				pipeline.Push(pipelineEntry{state: t.Target, index: entry.index})

			default:
				label := s.engine.atn.SymbolLabel(t)
				if label.IsEmpty() {
					continue
				}
				if !atCaret {
					if label.Contains(symbol) {
						pipeline.Push(pipelineEntry{state: t.Target, index: entry.index + 1})
					}
					continue
				}
				if s.translate(s.callStack) {
					continue
				}
				following := []int{}
				if _, single := label.Single(); single {
					following = followingTokens(t, s.engine.ignored)
				}
				s.addTokens(label, following)
			}
		}
	}
	return result, nil
}

// translate looks for the outermost preferred rule in stack and records it
// as a rule candidate with the rules above it as its path.
func (s *session) translate(stack []int) bool {
	if s.engine.preferred.Empty() {
		return false
	}
	for i, rule := range stack {
		if !s.engine.preferred.Contains(rule) {
			continue
		}
		if s.candidates.addRule(rule, stack[:i]) {
			s.engine.log.Debugf("collected rule %s", s.ruleName(rule))
		}
		return true
	}
	return false
}

func (s *session) addTokens(set *interval.Set, following []int) {
	for _, symbol := range set.Values() {
		if symbol == token.Epsilon || s.engine.ignored.Contains(symbol) {
			continue
		}
		s.candidates.addToken(symbol, following)
	}
}

func (s *session) ruleName(rule int) string {
	return s.engine.atn.Rules[rule].Name
}
