// Package token defines the tokens consumed by the completion engine, a
// buffered token stream and the extraction of the token window that ends at
// the caret.
package token

import (
	"errors"
	"fmt"
)

// Reserved symbol types.
const (
	// Invalid is the type of input the lexer could not match.
	Invalid = 0
	// EOF terminates every token stream.
	EOF = -1
	// Epsilon marks "nothing more required" in follow sets. It is never the
	// type of a real token.
	Epsilon = -2
	// MinUserType is the smallest type a grammar may assign.
	MinUserType = 1
)

// Channels.
const (
	DefaultChannel = 0
	HiddenChannel  = 1
)

var ErrInvalidArgument = errors.New("invalid argument")

// Token is a lexed symbol together with its location in the source.
type Token struct {
	Index   int
	Type    int
	Text    string
	Channel int

	// Start and End are byte offsets, End is exclusive.
	Start  int
	End    int
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("[@%d %d:%d type=%d %q]", t.Index, t.Line, t.Column, t.Type, t.Text)
}
