package token

// Stream gives random access to the tokens of an input. LT looks ahead from
// the current position and skips tokens that are not on the default channel.
type Stream interface {
	// Index returns the current position.
	Index() int
	// Seek moves to the token at index i, or the next visible token after it.
	Seek(i int)
	// LT returns the k-th visible token starting at the current position,
	// k >= 1. Past the end it returns the EOF token.
	LT(k int) Token
	// Size returns the number of tokens including EOF.
	Size() int
	// Get returns the token at index i regardless of its channel.
	Get(i int) Token
}

// BufferedStream is a Stream over a fully lexed token slice. The slice is
// expected to end with an EOF token; one is appended if it does not.
type BufferedStream struct {
	tokens []Token
	pos    int
}

func NewBufferedStream(tokens []Token) *BufferedStream {
	ts := make([]Token, len(tokens), len(tokens)+1)
	copy(ts, tokens)
	if len(ts) == 0 || ts[len(ts)-1].Type != EOF {
		eof := Token{Type: EOF}
		if len(ts) > 0 {
			last := ts[len(ts)-1]
			eof.Start, eof.End, eof.Line, eof.Column = last.End, last.End, last.Line, last.Column
		}
		ts = append(ts, eof)
	}
	for i := range ts {
		ts[i].Index = i
	}
	s := &BufferedStream{tokens: ts}
	s.pos = s.skipHidden(0)
	return s
}

func (s *BufferedStream) Index() int {
	return s.pos
}

func (s *BufferedStream) Seek(i int) {
	if i < 0 {
		i = 0
	}
	s.pos = s.skipHidden(i)
}

func (s *BufferedStream) LT(k int) Token {
	if k < 1 {
		return s.eof()
	}
	i := s.skipHidden(s.pos)
	for n := 1; n < k && i < len(s.tokens)-1; n++ {
		i = s.skipHidden(i + 1)
	}
	if i >= len(s.tokens) {
		return s.eof()
	}
	return s.tokens[i]
}

func (s *BufferedStream) Size() int {
	return len(s.tokens)
}

func (s *BufferedStream) Get(i int) Token {
	if i < 0 || i >= len(s.tokens) {
		return s.eof()
	}
	return s.tokens[i]
}

// Tokens returns every token in the stream, hidden ones included.
func (s *BufferedStream) Tokens() []Token {
	return s.tokens
}

func (s *BufferedStream) skipHidden(i int) int {
	for i < len(s.tokens)-1 && s.tokens[i].Channel != DefaultChannel {
		i++
	}
	if i >= len(s.tokens) {
		return len(s.tokens) - 1
	}
	return i
}

func (s *BufferedStream) eof() Token {
	return s.tokens[len(s.tokens)-1]
}
