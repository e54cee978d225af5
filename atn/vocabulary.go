package atn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhamidi/caret/token"
)

// Vocabulary maps token types to names. LiteralNames hold quoted literals
// such as "'{'", SymbolicNames hold token production names such as "ID".
type Vocabulary struct {
	LiteralNames  []string
	SymbolicNames []string
}

// DisplayName prefers the symbolic name and falls back to the literal.
func (v *Vocabulary) DisplayName(t int) string {
	switch t {
	case token.EOF:
		return "<EOF>"
	case token.Epsilon:
		return "<EPSILON>"
	}
	if v != nil {
		if t >= 0 && t < len(v.SymbolicNames) && v.SymbolicNames[t] != "" {
			return v.SymbolicNames[t]
		}
		if t >= 0 && t < len(v.LiteralNames) && v.LiteralNames[t] != "" {
			return v.LiteralNames[t]
		}
	}
	return fmt.Sprintf("%d", t)
}

// Type returns the token type whose symbolic or literal name is name.
func (v *Vocabulary) Type(name string) (int, bool) {
	for t, n := range v.SymbolicNames {
		if n != "" && n == name {
			return t, true
		}
	}
	for t, n := range v.LiteralNames {
		if n != "" && n == name {
			return t, true
		}
	}
	if name == "EOF" || name == "<EOF>" {
		return token.EOF, true
	}
	return 0, false
}

// Literal returns the text a literal token type always matches.
func (v *Vocabulary) Literal(t int) (string, bool) {
	if v == nil || t < 0 || t >= len(v.LiteralNames) {
		return "", false
	}
	quoted, ok := strings.CutPrefix(v.LiteralNames[t], "'")
	if !ok {
		return "", false
	}
	quoted, ok = strings.CutSuffix(quoted, "'")
	if !ok {
		return "", false
	}
	text, err := strconv.Unquote(`"` + quoted + `"`)
	if err != nil {
		return "", false
	}
	return text, true
}
