// Package format encodes completion results for the command line.
package format

import (
	"encoding"

	"github.com/dhamidi/caret/language"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(result *language.Result) error
}
