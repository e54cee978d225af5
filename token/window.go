package token

import "fmt"

// Window returns the visible tokens from start up to and including the first
// token whose index reaches caret, or up to EOF when the caret lies beyond
// the input. The stream position is restored before returning.
func Window(s Stream, start, caret int) ([]Token, error) {
	if start < 0 || start > s.Size() {
		return nil, fmt.Errorf("%w: context start %d outside stream of %d tokens", ErrInvalidArgument, start, s.Size())
	}
	if caret < start {
		return nil, fmt.Errorf("%w: caret %d before context start %d", ErrInvalidArgument, caret, start)
	}

	current := s.Index()
	defer s.Seek(current)

	s.Seek(start)
	var tokens []Token
	for offset := 1; ; offset++ {
		tok := s.LT(offset)
		tokens = append(tokens, tok)
		if tok.Index >= caret || tok.Type == EOF {
			break
		}
	}
	return tokens, nil
}
