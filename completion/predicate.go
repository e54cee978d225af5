package completion

import (
	"fmt"

	"github.com/dhamidi/caret/atn"
)

// PredicateEvaluator decides predicated transitions against the caller's
// parser state. A false result makes the transition unreachable; an error
// aborts the completion request.
type PredicateEvaluator interface {
	EvalPredicate(ruleIndex, predIndex int) (bool, error)
}

// PredicateFunc adapts a function to PredicateEvaluator.
type PredicateFunc func(ruleIndex, predIndex int) (bool, error)

func (f PredicateFunc) EvalPredicate(ruleIndex, predIndex int) (bool, error) {
	return f(ruleIndex, predIndex)
}

// evalPredicate treats a nil evaluator as one where every predicate holds.
func evalPredicate(preds PredicateEvaluator, t *atn.Transition) (bool, error) {
	if preds == nil {
		return true, nil
	}
	ok, err := preds.EvalPredicate(t.PredRule, t.PredIndex)
	if err != nil {
		return false, fmt.Errorf("%w: rule %d predicate %d: %w", ErrEvaluationFailure, t.PredRule, t.PredIndex, err)
	}
	return ok, nil
}
