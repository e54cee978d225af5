package atn

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a readable listing of every rule and its states to w.
func Dump(w io.Writer, a *ATN, voc *Vocabulary) error {
	byRule := make([][]*State, len(a.Rules))
	for _, s := range a.States {
		if s.RuleIndex >= 0 && s.RuleIndex < len(byRule) {
			byRule[s.RuleIndex] = append(byRule[s.RuleIndex], s)
		}
	}

	for _, r := range a.Rules {
		if _, err := fmt.Fprintf(w, "rule %d %s start=%d stop=%d\n", r.Index, r.Name, r.Start.Number, r.Stop.Number); err != nil {
			return err
		}
		for _, s := range byRule[r.Index] {
			if _, err := fmt.Fprintf(w, "  %s\n", s); err != nil {
				return err
			}
			for _, t := range s.Transitions {
				if _, err := fmt.Fprintf(w, "    -%s-> %d\n", describe(a, voc, t), t.Target.Number); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func describe(a *ATN, voc *Vocabulary, t *Transition) string {
	switch t.Kind {
	case Epsilon:
		return "ε"
	case RuleCall:
		name := fmt.Sprintf("%d", t.Rule)
		if r := a.Rule(t.Rule); r != nil {
			name = r.Name
		}
		return fmt.Sprintf("call %s follow=%d", name, t.FollowState.Number)
	case Predicate:
		return fmt.Sprintf("pred %d:%d", t.PredRule, t.PredIndex)
	case Wildcard:
		return "."
	}

	values := t.Label.Values()
	names := make([]string, 0, len(values))
	if len(values) > 2 {
		// first and last only, large sets would flood the listing
		names = append(names, voc.DisplayName(values[0])+" .. "+voc.DisplayName(values[len(values)-1]))
	} else {
		for _, v := range values {
			names = append(names, voc.DisplayName(v))
		}
	}
	label := strings.Join(names, ", ")
	if t.Kind == NotSet {
		return "~(" + label + ")"
	}
	return label
}
