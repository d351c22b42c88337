// Package expr implements small closed template language used by string
// resources: argument substitution, pluralization, nested references,
// arithmetic and concatenation.
package expr

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"rsrc/common"
)

// Error describes template failure. Pos is byte offset in template text.
type Error struct {
	Pos int
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("offset %d: %s", e.Pos, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Diagnostic returns text substituted for resource which failed to evaluate.
func (e *Error) Diagnostic() string {
	return "!" + e.Error() + "!"
}

// Result of template evaluation. When Err is set Text is empty.
type Result struct {
	Text string
	Err  *Error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// String returns evaluated text or diagnostic string on failure.
func (r Result) String() string {
	if r.Err != nil {
		return r.Err.Diagnostic()
	}
	return r.Text
}

// Lookup resolves nested reference and returns fully evaluated text.
type Lookup func(key string, args []any) (string, error)

var templates common.LazyMap[string, *Template]

// cachedParse keeps parsed templates for the life of the process. Only text
// coming from resource tables or template literals goes through here.
func cachedParse(src string) (*Template, *Error) {
	t, err := templates.Get(src, func() (*Template, error) {
		t, perr := parse(src)
		if perr != nil {
			return nil, perr
		}
		return t, nil
	})
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, &Error{Msg: "parse", Err: err}
	}
	return t, nil
}

// Evaluate renders template with arguments. Failures never escape: they are
// returned inside Result, panics included.
func Evaluate(tmpl string, args []any, tag language.Tag, lookup Lookup) Result {
	if !strings.ContainsAny(tmpl, "{}") {
		return Result{Text: tmpl}
	}
	t, err := cachedParse(tmpl)
	if err != nil {
		return Result{Err: err}
	}
	return t.Execute(args, tag, lookup)
}

// Execute renders parsed template.
func (t *Template) Execute(args []any, tag language.Tag, lookup Lookup) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &Error{Msg: fmt.Sprintf("panic: %v", r)}}
		}
	}()

	in := &interp{
		raw:    args,
		args:   make([]Value, len(args)),
		tag:    tag,
		lookup: lookup,
	}
	for i, a := range args {
		in.args[i] = valueOf(a)
	}

	text, err := in.execute(t)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Text: text}
}

type interp struct {
	raw    []any
	args   []Value
	tag    language.Tag
	lookup Lookup
}

func (in *interp) execute(t *Template) (string, *Error) {
	var sb strings.Builder
	for _, seg := range t.segments {
		if seg.expr == nil {
			sb.WriteString(seg.text)
			continue
		}
		v, err := in.eval(seg.expr)
		if err != nil {
			return "", err
		}
		sb.WriteString(v.String())
	}
	return sb.String(), nil
}

// render evaluates branch selected by plural or select. String literal
// branches are sub-templates sharing arguments of the enclosing one, any
// other expression is used as is.
func (in *interp) render(name string, branch node) (Value, *Error) {
	lit, ok := branch.(*stringNode)
	if !ok {
		return in.eval(branch)
	}
	t, err := cachedParse(lit.text)
	if err != nil {
		return Value{}, &Error{Pos: lit.pos, Msg: name + " branch", Err: err}
	}
	text, err := in.execute(t)
	if err != nil {
		return Value{}, &Error{Pos: lit.pos, Msg: name + " branch", Err: err}
	}
	return stringValue(text), nil
}

func (in *interp) eval(n node) (Value, *Error) {
	switch n := n.(type) {
	case *numberNode:
		return n.val, nil

	case *stringNode:
		return stringValue(n.text), nil

	case *argNode:
		if n.index < 0 || n.index >= len(in.args) {
			return Value{}, &Error{Pos: n.pos, Msg: fmt.Sprintf("argument $%d is missing, %d supplied", n.index, len(in.args))}
		}
		return in.args[n.index], nil

	case *negNode:
		x, err := in.eval(n.x)
		if err != nil {
			return Value{}, err
		}
		num, ok := x.number()
		if !ok {
			return Value{}, &Error{Pos: n.pos, Msg: fmt.Sprintf("cannot negate %q", x.String())}
		}
		if num.kind == kindInt {
			return intValue(-num.i), nil
		}
		return floatValue(-num.f), nil

	case *binaryNode:
		l, err := in.eval(n.left)
		if err != nil {
			return Value{}, err
		}
		r, err := in.eval(n.right)
		if err != nil {
			return Value{}, err
		}
		return arith(n.pos, n.op, l, r)

	case *callNode:
		return n.fn.call(in, n)

	case *refNode:
		if !n.explicit {
			return in.ref(n.pos, n.key, in.raw)
		}
		args, err := in.evalAll(n.args)
		if err != nil {
			return Value{}, err
		}
		return in.ref(n.pos, n.key, args)
	}
	return Value{}, &Error{Pos: n.position(), Msg: fmt.Sprintf("unsupported expression %T", n)}
}

func (in *interp) evalAll(nodes []node) ([]any, *Error) {
	out := make([]any, 0, len(nodes))
	for _, a := range nodes {
		v, err := in.eval(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v.native())
	}
	return out, nil
}

func (in *interp) ref(pos int, key string, args []any) (Value, *Error) {
	if in.lookup == nil {
		return Value{}, &Error{Pos: pos, Msg: fmt.Sprintf("reference to %q: nested lookups are not available", key)}
	}
	text, err := in.lookup(key, args)
	if err != nil {
		return Value{}, &Error{Pos: pos, Msg: fmt.Sprintf("reference to %q", key), Err: err}
	}
	return stringValue(text), nil
}
