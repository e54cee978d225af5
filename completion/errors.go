package completion

import (
	"errors"

	"github.com/dhamidi/caret/token"
)

var (
	// ErrInvalidArgument reports caret or context indices that do not fit
	// the token stream or automaton. No walk is performed.
	ErrInvalidArgument = token.ErrInvalidArgument

	// ErrEvaluationFailure reports a predicate evaluator error. It aborts the
	// whole CollectCandidates call.
	ErrEvaluationFailure = errors.New("predicate evaluation failed")
)
