package grammar

import (
	"fmt"
	"strconv"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/ebnflex"
	"golang.org/x/exp/ebnf"
)

type compiler struct {
	source ebnf.Grammar
	skip   map[string]bool

	b     *atn.Builder
	atn   *atn.ATN
	rules map[string]*atn.Rule

	tokenTypes   map[string]int // token production name -> type
	literalTypes map[string]int // literal text -> type
	symbolic     []string
	literal      []string
	lexerRules   []ebnflex.Rule
}

// handle is the entry and exit state of a compiled expression.
type handle struct {
	left  *atn.State
	right *atn.State
}

func newCompiler(source ebnf.Grammar, skip []string) *compiler {
	c := &compiler{
		source:       source,
		skip:         make(map[string]bool),
		b:            atn.NewBuilder(),
		rules:        make(map[string]*atn.Rule),
		tokenTypes:   make(map[string]int),
		literalTypes: make(map[string]int),
		symbolic:     []string{""},
		literal:      []string{""},
	}
	for _, name := range skip {
		c.skip[name] = true
	}
	return c
}

func (c *compiler) compile(start string) error {
	c.declareTokens()

	// start rule first so that rule 0 is the default context
	names := []string{start}
	for _, name := range productions(c.source, ParserRule) {
		if name != start {
			names = append(names, name)
		}
	}
	for _, name := range names {
		c.rules[name] = c.b.Rule(name)
	}
	for _, name := range names {
		if err := c.compileRule(c.rules[name], c.source[name]); err != nil {
			return err
		}
	}

	c.b.SetMaxTokenType(len(c.symbolic) - 1)
	c.atn = c.b.Build()
	return nil
}

// declareTokens assigns types to token productions in declaration order
// and then to literals used by parser rules in order of appearance.
func (c *compiler) declareTokens() {
	for _, name := range productions(c.source, Token) {
		prod := c.source[name]
		typ := len(c.symbolic)
		c.tokenTypes[name] = typ
		c.symbolic = append(c.symbolic, name)

		lit, isLiteral := prod.Expr.(*ebnf.Token)
		if isLiteral {
			c.literal = append(c.literal, quote(lit.String))
			if _, dup := c.literalTypes[lit.String]; !dup {
				c.literalTypes[lit.String] = typ
			}
		} else {
			c.literal = append(c.literal, "")
		}

		c.lexerRules = append(c.lexerRules, ebnflex.Rule{
			Name:    name,
			Type:    typ,
			Expr:    prod.Expr,
			Literal: isLiteral,
			Hidden:  c.skip[name],
		})
	}

	for _, name := range productions(c.source, ParserRule) {
		walk(c.source[name].Expr, func(lit *ebnf.Token) {
			if _, ok := c.literalTypes[lit.String]; ok {
				return
			}
			typ := len(c.symbolic)
			c.literalTypes[lit.String] = typ
			c.symbolic = append(c.symbolic, "")
			c.literal = append(c.literal, quote(lit.String))
			c.lexerRules = append(c.lexerRules, ebnflex.Rule{
				Name:    quote(lit.String),
				Type:    typ,
				Expr:    lit,
				Literal: true,
			})
		})
	}
}

func walk(expr ebnf.Expression, fn func(*ebnf.Token)) {
	switch e := expr.(type) {
	case *ebnf.Token:
		fn(e)
	case ebnf.Sequence:
		for _, x := range e {
			walk(x, fn)
		}
	case ebnf.Alternative:
		for _, x := range e {
			walk(x, fn)
		}
	case *ebnf.Group:
		walk(e.Body, fn)
	case *ebnf.Option:
		walk(e.Body, fn)
	case *ebnf.Repetition:
		walk(e.Body, fn)
	}
}

func quote(s string) string {
	q := strconv.Quote(s)
	return "'" + q[1:len(q)-1] + "'"
}

func (c *compiler) compileRule(r *atn.Rule, prod *ebnf.Production) error {
	h, err := c.expr(r, prod.Expr)
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.Name, err)
	}
	c.b.Epsilon(r.Start, h.left)
	c.b.Epsilon(h.right, r.Stop)
	return nil
}

func (c *compiler) expr(r *atn.Rule, expr ebnf.Expression) (handle, error) {
	switch e := expr.(type) {
	case nil:
		s := c.b.State(r, atn.Basic)
		return handle{s, s}, nil

	case *ebnf.Token:
		left, right := c.b.State(r, atn.Basic), c.b.State(r, atn.Basic)
		c.b.Atom(left, right, c.literalTypes[e.String])
		return handle{left, right}, nil

	case *ebnf.Name:
		left, right := c.b.State(r, atn.Basic), c.b.State(r, atn.Basic)
		switch KindOf(e.String) {
		case Token:
			typ, ok := c.tokenTypes[e.String]
			if !ok {
				return handle{}, fmt.Errorf("%w %s", ErrUnknownProduction, e.String)
			}
			c.b.Atom(left, right, typ)
		case ParserRule:
			callee, ok := c.rules[e.String]
			if !ok {
				return handle{}, fmt.Errorf("%w %s", ErrUnknownProduction, e.String)
			}
			c.b.Call(left, callee, right)
		default:
			return handle{}, fmt.Errorf("%w: fragment %s referenced from a parser rule", ErrUnsupported, e.String)
		}
		return handle{left, right}, nil

	case ebnf.Sequence:
		var h handle
		for i, x := range e {
			xh, err := c.expr(r, x)
			if err != nil {
				return handle{}, err
			}
			if i == 0 {
				h = xh
				continue
			}
			c.b.Epsilon(h.right, xh.left)
			h.right = xh.right
		}
		if h.left == nil {
			return c.expr(r, nil)
		}
		return h, nil

	case ebnf.Alternative:
		start, end := c.b.State(r, atn.BlockStart), c.b.State(r, atn.BlockEnd)
		for _, x := range e {
			xh, err := c.expr(r, x)
			if err != nil {
				return handle{}, err
			}
			c.b.Epsilon(start, xh.left)
			c.b.Epsilon(xh.right, end)
		}
		return handle{start, end}, nil

	case *ebnf.Group:
		return c.expr(r, e.Body)

	case *ebnf.Option:
		body, err := c.expr(r, e.Body)
		if err != nil {
			return handle{}, err
		}
		start, end := c.b.State(r, atn.BlockStart), c.b.State(r, atn.BlockEnd)
		c.b.Epsilon(start, body.left)
		c.b.Epsilon(start, end)
		c.b.Epsilon(body.right, end)
		return handle{start, end}, nil

	case *ebnf.Repetition:
		// entry -> block start -> body -> block end -> loop back -> entry
		//       \-> loop end
		entry := c.b.State(r, atn.StarLoopEntry)
		blockStart := c.b.State(r, atn.StarBlockStart)
		blockEnd := c.b.State(r, atn.BlockEnd)
		loopBack := c.b.State(r, atn.StarLoopBack)
		loopEnd := c.b.State(r, atn.LoopEnd)

		body, err := c.expr(r, e.Body)
		if err != nil {
			return handle{}, err
		}
		c.b.Epsilon(entry, blockStart)
		c.b.Epsilon(entry, loopEnd)
		c.b.Epsilon(blockStart, body.left)
		c.b.Epsilon(body.right, blockEnd)
		c.b.Epsilon(blockEnd, loopBack)
		c.b.Epsilon(loopBack, entry)
		return handle{entry, loopEnd}, nil

	case *ebnf.Range:
		return handle{}, fmt.Errorf("%w: character range in a parser rule", ErrUnsupported)

	case *ebnf.Bad:
		return handle{}, fmt.Errorf("%w: %s", ErrUnsupported, e.Error)
	}
	return handle{}, fmt.Errorf("%w: %T", ErrUnsupported, expr)
}

func (c *compiler) vocabulary() *atn.Vocabulary {
	return &atn.Vocabulary{
		LiteralNames:  c.literal,
		SymbolicNames: c.symbolic,
	}
}
