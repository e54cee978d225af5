package completion

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/interval"
	"github.com/dhamidi/caret/token"
	"github.com/emirpasic/gods/sets/hashset"
	"golang.org/x/sync/singleflight"
)

// FollowSetWithPath is one way of getting from a rule's start to its stop
// state: the symbols that can come first, the rules entered to reach them,
// and for a single symbol the tokens that always follow it.
type FollowSetWithPath struct {
	Intervals *interval.Set
	Path      []int
	Following []int
}

// FollowSetsHolder holds all follow sets of a rule start state and their
// union for quick reachability checks.
type FollowSetsHolder struct {
	Sets     []FollowSetWithPath
	Combined *interval.Set
}

// cacheKey identifies a rule start state. Automata without an explicit
// grammar identity are keyed by the automaton itself, which the cache then
// keeps alive.
type cacheKey struct {
	grammar   string
	automaton *atn.ATN
	state     int
}

// CacheStats describes the work a Cache has done.
type CacheStats struct {
	// Holders is the number of cached rule start states.
	Holders int
	// Computations counts follow-set computations, one per cache miss.
	Computations int64
	// StatesVisited counts automaton states visited by those computations.
	StatesVisited int64
}

// Cache stores follow sets per grammar and rule start state. Entries are
// computed once and never change; a Cache is safe for concurrent use and may
// be shared by engines of different grammars.
type Cache struct {
	mu      sync.RWMutex
	holders map[cacheKey]*FollowSetsHolder
	group   singleflight.Group

	computations  atomic.Int64
	statesVisited atomic.Int64
}

func NewCache() *Cache {
	return &Cache{holders: make(map[cacheKey]*FollowSetsHolder)}
}

func (c *Cache) lookup(key cacheKey) (*FollowSetsHolder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.holders[key]
	return h, ok
}

// get returns the holder for key, running compute on a miss. Concurrent
// misses for one key share a single computation. A failed computation is
// not stored, and callers that joined it compute again with their own
// compute function.
func (c *Cache) get(key cacheKey, compute func() (*FollowSetsHolder, error)) (*FollowSetsHolder, error) {
	if h, ok := c.lookup(key); ok {
		return h, nil
	}

	ran := false
	v, err, _ := c.group.Do(fmt.Sprintf("%s/%p/%d", key.grammar, key.automaton, key.state), func() (any, error) {
		ran = true
		return c.fill(key, compute)
	})
	if err != nil && !ran {
		return c.fill(key, compute)
	}
	if err != nil {
		return nil, err
	}
	return v.(*FollowSetsHolder), nil
}

func (c *Cache) fill(key cacheKey, compute func() (*FollowSetsHolder, error)) (*FollowSetsHolder, error) {
	if h, ok := c.lookup(key); ok {
		return h, nil
	}
	h, err := compute()
	if err != nil {
		return nil, err
	}
	c.computations.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.holders[key]; ok {
		return existing, nil
	}
	c.holders[key] = h
	return h, nil
}

func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.holders)
	c.mu.RUnlock()
	return CacheStats{
		Holders:       n,
		Computations:  c.computations.Load(),
		StatesVisited: c.statesVisited.Load(),
	}
}

// followSetCollector walks the automaton, not the input, from a rule start
// state to its stop state.
type followSetCollector struct {
	atn     *atn.ATN
	ignored *hashset.Set
	preds   PredicateEvaluator

	seen      map[*atn.State]bool
	nullable  map[int]bool
	ruleStack []int
	sets      []FollowSetWithPath
	visited   int64
}

func determineFollowSets(a *atn.ATN, ignored *hashset.Set, preds PredicateEvaluator, start, stop *atn.State) (*FollowSetsHolder, int64, error) {
	c := &followSetCollector{
		atn:      a,
		ignored:  ignored,
		preds:    preds,
		seen:     make(map[*atn.State]bool),
		nullable: make(map[int]bool),
	}
	if err := c.collect(start, stop); err != nil {
		return nil, c.visited, err
	}

	// Sets are split by path for preferred-rule translation; the union
	// serves quick hit tests.
	combined := &interval.Set{}
	for _, set := range c.sets {
		combined.AddSet(set.Intervals)
	}
	return &FollowSetsHolder{Sets: c.sets, Combined: combined}, c.visited, nil
}

func (c *followSetCollector) record(set *interval.Set, following []int) {
	c.sets = append(c.sets, FollowSetWithPath{
		Intervals: set,
		Path:      slices.Clone(c.ruleStack),
		Following: following,
	})
}

func (c *followSetCollector) collect(s, stop *atn.State) error {
	if c.seen[s] {
		return nil
	}
	c.seen[s] = true
	c.visited++

	if s == stop {
		c.record(interval.Of(token.Epsilon), nil)
		return nil
	}
	if s.Kind == atn.RuleStop {
		// a called rule can end here; the caller continues at its follow state
		c.nullable[s.RuleIndex] = true
		return nil
	}

	for _, t := range s.Transitions {
		switch t.Kind {
		case atn.RuleCall:
			if slices.Contains(c.ruleStack, t.Rule) {
				continue
			}
			c.ruleStack = append(c.ruleStack, t.Rule)
			err := c.collect(t.Target, stop)
			c.ruleStack = c.ruleStack[:len(c.ruleStack)-1]
			if err != nil {
				return err
			}
			if c.nullable[t.Rule] {
				if err := c.collect(t.FollowState, stop); err != nil {
					return err
				}
			}

		case atn.Predicate:
			ok, err := evalPredicate(c.preds, t)
			if err != nil {
				return err
			}
			if ok {
				if err := c.collect(t.Target, stop); err != nil {
					return err
				}
			}

		case atn.Epsilon:
			if err := c.collect(t.Target, stop); err != nil {
				return err
			}

		case atn.Wildcard:
			c.record(c.atn.Alphabet(), nil)

		default:
			label := c.atn.SymbolLabel(t)
			if label.IsEmpty() {
				continue
			}
			var following []int
			if _, single := label.Single(); single {
				following = followingTokens(t, c.ignored)
			}
			c.record(label, following)
		}
	}
	return nil
}

// followingTokens collects the single tokens that must come after t within
// its rule: it follows epsilon and single-token transitions from t's target
// while each state has exactly one way out.
func followingTokens(t *atn.Transition, ignored *hashset.Set) []int {
	result := []int{}
	seen := make(map[*atn.State]bool)

	for s := t.Target; s != nil && !seen[s]; {
		seen[s] = true
		if s.Kind == atn.RuleStop || len(s.Transitions) != 1 {
			break
		}

		next := s.Transitions[0]
		switch next.Kind {
		case atn.Epsilon:
			s = next.Target
		case atn.Atom:
			symbol, ok := next.Label.Single()
			if !ok || ignored.Contains(symbol) {
				return result
			}
			result = append(result, symbol)
			s = next.Target
		default:
			return result
		}
	}
	return result
}
