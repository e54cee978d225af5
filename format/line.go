package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/caret/language"
)

// LineEncoder writes one tab-separated line per proposal:
// kind, label and detail.
type LineEncoder struct {
	w      io.Writer
	result *language.Result
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(result *language.Result) error {
	e.result = result
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, p := range e.result.Proposals {
		if p.Detail == "" {
			fmt.Fprintf(&sb, "%s\t%s\n", p.Kind, p.Label)
			continue
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\n", p.Kind, p.Label, p.Detail)
	}
	return []byte(sb.String()), nil
}

// namer resolves token types and rule indexes of a result.
type namer struct {
	result *language.Result
}

func newNamer(r *language.Result) namer {
	return namer{result: r}
}

func (n namer) token(t int) string {
	return n.result.Vocabulary.DisplayName(t)
}

func (n namer) tokens(types []int) []string {
	if len(types) == 0 {
		return nil
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = n.token(t)
	}
	return names
}

func (n namer) rule(r int) string {
	if r >= 0 && r < len(n.result.RuleNames) {
		return n.result.RuleNames[r]
	}
	return fmt.Sprintf("rule%d", r)
}

func (n namer) rules(indexes []int) []string {
	if len(indexes) == 0 {
		return nil
	}
	names := make([]string, len(indexes))
	for i, r := range indexes {
		names[i] = n.rule(r)
	}
	return names
}
