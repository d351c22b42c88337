package expr

import (
	"errors"
	"strconv"
	"strings"
)

type node interface {
	position() int
}

type (
	numberNode struct {
		pos int
		val Value
	}
	stringNode struct {
		pos  int
		text string
	}
	argNode struct {
		pos   int
		index int
	}
	callNode struct {
		pos  int
		name string
		fn   *function
		args []node
	}
	// refNode without explicit argument list passes caller arguments through.
	refNode struct {
		pos      int
		key      string
		args     []node
		explicit bool
	}
	binaryNode struct {
		pos         int
		op          tokenKind
		left, right node
	}
	negNode struct {
		pos int
		x   node
	}
)

// subTemplates parses literal branches of plural and select.
func (n *callNode) subTemplates() ([]*Template, *Error) {
	if n.fn.branches == nil {
		return nil, nil
	}
	var out []*Template
	for _, i := range n.fn.branches(len(n.args)) {
		lit, ok := n.args[i].(*stringNode)
		if !ok {
			continue
		}
		t, err := cachedParse(lit.text)
		if err != nil {
			return nil, &Error{Pos: lit.pos, Msg: n.name + " branch", Err: err}
		}
		out = append(out, t)
	}
	return out, nil
}

func (n *callNode) checkBranches() *Error {
	_, err := n.subTemplates()
	return err
}

func (n *numberNode) position() int { return n.pos }
func (n *stringNode) position() int { return n.pos }
func (n *argNode) position() int    { return n.pos }
func (n *callNode) position() int   { return n.pos }
func (n *refNode) position() int    { return n.pos }
func (n *binaryNode) position() int { return n.pos }
func (n *negNode) position() int    { return n.pos }

// segment is either literal text or an expression to interpolate.
type segment struct {
	text string
	expr node
}

// Template is a parsed message template. It is immutable and safe for
// concurrent use.
type Template struct {
	segments []segment
}

// Refs returns keys of nested references with static keys in order of
// appearance. Keys computed with ref() are not included.
func (t *Template) Refs() []string {
	var (
		refs []string
		walk func(n node)
	)
	walk = func(n node) {
		switch n := n.(type) {
		case *refNode:
			refs = append(refs, n.key)
			for _, a := range n.args {
				walk(a)
			}
		case *callNode:
			for _, a := range n.args {
				walk(a)
			}
			subs, _ := n.subTemplates()
			for _, sub := range subs {
				refs = append(refs, sub.Refs()...)
			}
		case *binaryNode:
			walk(n.left)
			walk(n.right)
		case *negNode:
			walk(n.x)
		}
	}
	for _, seg := range t.segments {
		if seg.expr != nil {
			walk(seg.expr)
		}
	}
	return refs
}

// Parse parses template text. Returned error is always *Error.
func Parse(src string) (*Template, error) {
	t, err := parse(src)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parse(src string) (*Template, *Error) {
	t := &Template{}

	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			t.segments = append(t.segments, segment{text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '{' && i+1 < len(src) && src[i+1] == '{':
			text.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(src) && src[i+1] == '}':
			text.WriteByte('}')
			i += 2
		case c == '{':
			p := &parser{lex: lexer{src: src, pos: i + 1}}
			n, end, err := p.interpolation(i)
			if err != nil {
				return nil, err
			}
			flush()
			t.segments = append(t.segments, segment{expr: n})
			i = end
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()
	return t, nil
}

type parser struct {
	lex lexer
	tok token
}

func (p *parser) advance() *Error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) unexpected() *Error {
	if p.tok.kind == tokEOF {
		return p.lex.errorf(p.tok.pos, "unexpected end of template")
	}
	return p.lex.errorf(p.tok.pos, "unexpected %s", p.tok.kind)
}

func (p *parser) expect(kind tokenKind) *Error {
	if p.tok.kind != kind {
		return p.unexpected()
	}
	return p.advance()
}

// interpolation parses expression between braces, open is the offset of the
// opening brace. It returns expression and offset right after closing brace.
func (p *parser) interpolation(open int) (node, int, *Error) {
	if err := p.advance(); err != nil {
		return nil, 0, err
	}
	switch p.tok.kind {
	case tokRBrace:
		return nil, 0, p.lex.errorf(open, "empty expression")
	case tokEOF:
		return nil, 0, p.lex.errorf(open, "unterminated expression")
	}

	// {N} is a shorthand for {$N}
	if p.tok.kind == tokNumber && !strings.Contains(p.tok.text, ".") {
		save, first := p.lex, p.tok
		if err := p.advance(); err == nil && p.tok.kind == tokRBrace {
			index, err := strconv.Atoi(first.text)
			if err != nil {
				return nil, 0, p.lex.errorf(first.pos, "argument index %s out of range", first.text)
			}
			return &argNode{pos: first.pos, index: index}, p.tok.pos + 1, nil
		}
		p.lex, p.tok = save, first
	}

	n, err := p.expr()
	if err != nil {
		return nil, 0, err
	}
	switch p.tok.kind {
	case tokRBrace:
		return n, p.tok.pos + 1, nil
	case tokEOF:
		return nil, 0, p.lex.errorf(open, "unterminated expression")
	}
	return nil, 0, p.unexpected()
}

func (p *parser) expr() (node, *Error) {
	left, err := p.mult()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.mult()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{pos: op.pos, op: op.kind, left: left, right: right}
	}
	return left, nil
}

func (p *parser) mult() (node, *Error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash || p.tok.kind == tokPercent {
		op := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{pos: op.pos, op: op.kind, left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, *Error) {
	if p.tok.kind != tokMinus {
		return p.primary()
	}
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &negNode{pos: pos, x: x}, nil
}

func (p *parser) primary() (node, *Error) {
	tok := p.tok
	switch tok.kind {
	case tokNumber:
		val, err := parseNumber(tok.text)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return nil, p.lex.errorf(tok.pos, "number %s out of range", tok.text)
			}
			return nil, p.lex.errorf(tok.pos, "bad number %s", tok.text)
		}
		return &numberNode{pos: tok.pos, val: val}, p.advance()

	case tokString:
		return &stringNode{pos: tok.pos, text: tok.text}, p.advance()

	case tokArg:
		index, err := strconv.Atoi(tok.text)
		if err != nil {
			return nil, p.lex.errorf(tok.pos, "argument index %s out of range", tok.text)
		}
		return &argNode{pos: tok.pos, index: index}, p.advance()

	case tokIdent:
		fn, ok := lookupFunction(tok.text)
		if !ok {
			return nil, p.lex.errorf(tok.pos, "unknown function %q", tok.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokLParen {
			return nil, p.lex.errorf(p.tok.pos, "'(' expected after %s", tok.text)
		}
		args, err := p.arguments()
		if err != nil {
			return nil, err
		}
		if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
			return nil, p.lex.errorf(tok.pos, "%s: %s", tok.text, fn.arity())
		}
		if fn.check != nil {
			if msg := fn.check(len(args)); msg != "" {
				return nil, p.lex.errorf(tok.pos, "%s: %s", tok.text, msg)
			}
		}
		n := &callNode{pos: tok.pos, name: tok.text, fn: fn, args: args}
		if err := n.checkBranches(); err != nil {
			return nil, err
		}
		return n, nil

	case tokRef:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n := &refNode{pos: tok.pos, key: tok.text}
		if p.tok.kind == tokLParen {
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			n.args, n.explicit = args, true
		}
		return n, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, p.unexpected()
}

// arguments parses parenthesized comma separated list, current token is '('.
func (p *parser) arguments() ([]node, *Error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var args []node
	if p.tok.kind == tokRParen {
		return args, p.advance()
	}
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.tok.kind {
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokRParen:
			return args, p.advance()
		default:
			return nil, p.unexpected()
		}
	}
}

// parseNumber never turns integer literal into float: too large integers are
// rejected rather than rounded.
func parseNumber(text string) (Value, error) {
	if !strings.Contains(text, ".") {
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return intValue(i), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, err
	}
	return floatValue(f), nil
}
