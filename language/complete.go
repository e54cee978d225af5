package language

import (
	"fmt"
	"strings"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/completion"
	"github.com/dhamidi/caret/token"
)

type ProposalKind int

const (
	// TokenProposal is a token that can appear at the caret.
	TokenProposal ProposalKind = iota
	// RuleProposal is a preferred rule that can start at the caret.
	RuleProposal
	// FollowingProposal is a token that comes right after a token
	// proposal.
	FollowingProposal
)

func (k ProposalKind) String() string {
	switch k {
	case TokenProposal:
		return "token"
	case RuleProposal:
		return "rule"
	case FollowingProposal:
		return "following"
	}
	return fmt.Sprintf("ProposalKind(%d)", int(k))
}

func (k ProposalKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ProposalKind) UnmarshalText(text []byte) error {
	for _, kind := range []ProposalKind{TokenProposal, RuleProposal, FollowingProposal} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown proposal kind %q", text)
}

// Proposal is one completion entry for display.
type Proposal struct {
	Label  string       `json:"label"`
	Kind   ProposalKind `json:"kind"`
	Detail string       `json:"detail,omitempty"`
	// Insert is the text to insert, set for tokens that match fixed text.
	Insert string `json:"insert,omitempty"`
}

// Result is the outcome of a completion request.
type Result struct {
	Language   string
	Offset     int
	Caret      token.Token
	Candidates *completion.Candidates
	Proposals  []Proposal

	// Vocabulary and RuleNames name the token types and rule indexes
	// of Candidates.
	Vocabulary *atn.Vocabulary
	RuleNames  []string
}

// Labels returns the labels of all proposals.
func (r *Result) Labels() []string {
	labels := make([]string, len(r.Proposals))
	for i, p := range r.Proposals {
		labels[i] = p.Label
	}
	return labels
}

// Complete proposes what can be typed at byte offset of text. The caret
// token is the first visible token ending at or after offset, so a
// partially typed word is completed rather than followed.
func (l *Language) Complete(text []byte, offset int, preds completion.PredicateEvaluator) (*Result, error) {
	if offset < 0 || offset > len(text) {
		return nil, fmt.Errorf("%w: offset %d outside text of %d bytes", completion.ErrInvalidArgument, offset, len(text))
	}

	tokens, err := l.Grammar.Lexer(text, l.Config.Name).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	stream := token.NewBufferedStream(tokens)
	caret := caretToken(stream, offset)

	candidates, err := l.engine.CollectCandidates(stream, caret.Index, nil, preds)
	if err != nil {
		return nil, err
	}
	l.log.Debugf("completion at offset %d, caret token %d %q: %d states", offset, caret.Index, caret.Text, candidates.StatesProcessed)

	return &Result{
		Language:   l.Config.Name,
		Offset:     offset,
		Caret:      caret,
		Candidates: candidates,
		Proposals:  l.proposals(candidates),
		Vocabulary: l.Grammar.Vocabulary,
		RuleNames:  l.Grammar.ATN.RuleNames(),
	}, nil
}

func caretToken(s *token.BufferedStream, offset int) token.Token {
	for _, tok := range s.Tokens() {
		if tok.Channel == token.DefaultChannel && tok.End >= offset {
			return tok
		}
	}
	return s.Get(s.Size() - 1)
}

// proposals lists token candidates, then rule candidates, then the tokens
// of following hints that are not candidates themselves.
func (l *Language) proposals(c *completion.Candidates) []Proposal {
	voc := l.Grammar.Vocabulary
	var proposals []Proposal

	for _, t := range c.TokenTypes() {
		var preview []string
		for _, f := range c.Tokens[t] {
			preview = append(preview, voc.DisplayName(f))
		}
		insert, _ := voc.Literal(t)
		proposals = append(proposals, Proposal{
			Label:  voc.DisplayName(t),
			Kind:   TokenProposal,
			Detail: strings.Join(preview, " "),
			Insert: insert,
		})
	}

	for _, r := range c.RuleIndexes() {
		var path []string
		for _, p := range c.Rules[r] {
			path = append(path, l.Grammar.ATN.Rules[p].Name)
		}
		proposals = append(proposals, Proposal{
			Label:  l.Grammar.ATN.Rules[r].Name,
			Kind:   RuleProposal,
			Detail: strings.Join(path, " > "),
		})
	}

	for _, t := range c.Symbols() {
		if _, ok := c.Tokens[t]; ok {
			continue
		}
		insert, _ := voc.Literal(t)
		proposals = append(proposals, Proposal{
			Label:  voc.DisplayName(t),
			Kind:   FollowingProposal,
			Insert: insert,
		})
	}
	return proposals
}
