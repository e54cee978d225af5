package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/caret/language"
)

type JSONEncoder struct {
	w      io.Writer
	result *language.Result
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(result *language.Result) error {
	e.result = result
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data := e.buildResultData()
	return json.MarshalIndent(data, "", "  ")
}

type jsonResult struct {
	Language        string              `json:"language"`
	Offset          int                 `json:"offset"`
	Caret           jsonToken           `json:"caret"`
	Tokens          []jsonCandidate     `json:"tokens"`
	Rules           []jsonRule          `json:"rules"`
	Proposals       []language.Proposal `json:"proposals"`
	StatesProcessed int                 `json:"statesProcessed"`
}

type jsonToken struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Line  int    `json:"line"`
	Col   int    `json:"column"`
}

type jsonCandidate struct {
	Type      string   `json:"type"`
	Following []string `json:"following,omitempty"`
}

type jsonRule struct {
	Name string   `json:"name"`
	Path []string `json:"path,omitempty"`
}

func (e *JSONEncoder) buildResultData() jsonResult {
	r := e.result
	names := newNamer(r)
	data := jsonResult{
		Language: r.Language,
		Offset:   r.Offset,
		Caret: jsonToken{
			Index: r.Caret.Index,
			Type:  names.token(r.Caret.Type),
			Text:  r.Caret.Text,
			Line:  r.Caret.Line,
			Col:   r.Caret.Column,
		},
		Tokens:          e.buildTokens(names),
		Rules:           e.buildRules(names),
		Proposals:       r.Proposals,
		StatesProcessed: r.Candidates.StatesProcessed,
	}
	if data.Proposals == nil {
		data.Proposals = []language.Proposal{}
	}
	return data
}

func (e *JSONEncoder) buildTokens(names namer) []jsonCandidate {
	c := e.result.Candidates
	result := make([]jsonCandidate, 0, len(c.Tokens))
	for _, t := range c.TokenTypes() {
		result = append(result, jsonCandidate{
			Type:      names.token(t),
			Following: names.tokens(c.Tokens[t]),
		})
	}
	return result
}

func (e *JSONEncoder) buildRules(names namer) []jsonRule {
	c := e.result.Candidates
	result := make([]jsonRule, 0, len(c.Rules))
	for _, r := range c.RuleIndexes() {
		result = append(result, jsonRule{
			Name: names.rule(r),
			Path: names.rules(c.Rules[r]),
		})
	}
	return result
}
