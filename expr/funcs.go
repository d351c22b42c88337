package expr

import (
	"fmt"

	sprig "github.com/go-task/slim-sprig/v3"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type function struct {
	minArgs int
	// maxArgs < 0 means variadic
	maxArgs int
	// check validates argument count beyond min/max, returns problem description
	check func(n int) string
	// branches returns indexes of arguments rendered as sub-templates
	branches func(n int) []int
	call     func(in *interp, n *callNode) (Value, *Error)
}

func (f *function) arity() string {
	switch {
	case f.minArgs == f.maxArgs:
		return fmt.Sprintf("expects %d argument(s)", f.minArgs)
	case f.maxArgs < 0:
		return fmt.Sprintf("expects at least %d argument(s)", f.minArgs)
	}
	return fmt.Sprintf("expects %d to %d arguments", f.minArgs, f.maxArgs)
}

// sprig helpers exposed to templates, only those which are pure string
// transformations.
var (
	unaryHelpers = []string{"upper", "lower", "title", "untitle", "trim"}
	countHelpers = []string{"trunc", "repeat"}
)

// Limits for count helpers, counts come from caller arguments.
const (
	maxHelperCount  = 1 << 16
	maxHelperOutput = 1 << 16
)

var functions map[string]*function

func init() {
	functions = map[string]*function{
		"plural": {minArgs: 3, maxArgs: 4, call: callPlural, branches: pluralBranches},
		"select": {minArgs: 2, maxArgs: -1, call: callSelect, branches: selectBranches, check: func(n int) string {
			if n%2 != 0 {
				return "expects value, key/template pairs and fallback template"
			}
			return ""
		}},
		"ref": {minArgs: 1, maxArgs: -1, call: callRef},
		"num": {minArgs: 1, maxArgs: 2, call: callNum},
	}

	fm := sprig.TxtFuncMap()
	for _, name := range unaryHelpers {
		if fn, ok := fm[name].(func(string) string); ok {
			functions[name] = &function{minArgs: 1, maxArgs: 1, call: unaryHelper(fn)}
		}
	}
	for _, name := range countHelpers {
		if fn, ok := fm[name].(func(int, string) string); ok {
			functions[name] = &function{minArgs: 2, maxArgs: 2, call: countHelper(fn)}
		}
	}
}

func lookupFunction(name string) (*function, bool) {
	fn, ok := functions[name]
	return fn, ok
}

// Functions returns names of all functions available to templates.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	return names
}

func unaryHelper(fn func(string) string) func(*interp, *callNode) (Value, *Error) {
	return func(in *interp, n *callNode) (Value, *Error) {
		v, err := in.eval(n.args[0])
		if err != nil {
			return Value{}, err
		}
		return stringValue(fn(v.String())), nil
	}
}

func countHelper(fn func(int, string) string) func(*interp, *callNode) (Value, *Error) {
	return func(in *interp, n *callNode) (Value, *Error) {
		count, err := in.evalInt(n.name, n.args[0])
		if err != nil {
			return Value{}, err
		}
		if count < -maxHelperCount || count > maxHelperCount {
			return Value{}, &Error{Pos: n.args[0].position(), Msg: fmt.Sprintf("%s: count %d out of range", n.name, count)}
		}
		v, err := in.eval(n.args[1])
		if err != nil {
			return Value{}, err
		}
		s := v.String()
		if n.name == "repeat" {
			if count < 0 {
				return Value{}, &Error{Pos: n.args[0].position(), Msg: fmt.Sprintf("repeat: negative count %d", count)}
			}
			if int64(len(s))*count > maxHelperOutput {
				return Value{}, &Error{Pos: n.pos, Msg: fmt.Sprintf("repeat: result longer than %d bytes", maxHelperOutput)}
			}
		}
		return stringValue(fn(int(count), s)), nil
	}
}

func (in *interp) evalNumber(name string, arg node) (Value, *Error) {
	v, err := in.eval(arg)
	if err != nil {
		return Value{}, err
	}
	num, ok := v.number()
	if !ok {
		return Value{}, &Error{Pos: arg.position(), Msg: fmt.Sprintf("%s: number expected, got %q", name, v.String())}
	}
	return num, nil
}

func (in *interp) evalInt(name string, arg node) (int64, *Error) {
	num, err := in.evalNumber(name, arg)
	if err != nil {
		return 0, err
	}
	if num.kind != kindInt {
		return 0, &Error{Pos: arg.position(), Msg: fmt.Sprintf("%s: integer expected, got %s", name, num.String())}
	}
	return num.i, nil
}

func pluralBranches(n int) []int {
	out := make([]int, 0, n-1)
	for i := 1; i < n; i++ {
		out = append(out, i)
	}
	return out
}

func selectBranches(n int) []int {
	out := make([]int, 0, n/2)
	for i := 2; i < n-1; i += 2 {
		out = append(out, i)
	}
	return append(out, n-1)
}

// callPlural handles plural(n, one, other) and plural(n, zero, one, other).
func callPlural(in *interp, n *callNode) (Value, *Error) {
	count, err := in.evalNumber(n.name, n.args[0])
	if err != nil {
		return Value{}, err
	}
	c := count.float()

	branches := n.args[1:]
	if len(branches) == 3 {
		if c == 0 {
			return in.render(n.name, branches[0])
		}
		branches = branches[1:]
	}
	if c == 1 {
		return in.render(n.name, branches[0])
	}
	return in.render(n.name, branches[1])
}

// callSelect handles select(v, k1, t1, k2, t2, ..., other), keys compared as text.
func callSelect(in *interp, n *callNode) (Value, *Error) {
	v, err := in.eval(n.args[0])
	if err != nil {
		return Value{}, err
	}
	want := v.String()

	pairs := n.args[1 : len(n.args)-1]
	for i := 0; i+1 < len(pairs); i += 2 {
		k, err := in.eval(pairs[i])
		if err != nil {
			return Value{}, err
		}
		if k.String() == want {
			return in.render(n.name, pairs[i+1])
		}
	}
	return in.render(n.name, n.args[len(n.args)-1])
}

func callRef(in *interp, n *callNode) (Value, *Error) {
	k, err := in.eval(n.args[0])
	if err != nil {
		return Value{}, err
	}
	key := k.String()
	if key == "" {
		return Value{}, &Error{Pos: n.pos, Msg: "ref: empty key"}
	}
	args, err := in.evalAll(n.args[1:])
	if err != nil {
		return Value{}, err
	}
	return in.ref(n.pos, key, args)
}

// callNum formats number according to locale, optional second argument
// limits fraction digits.
func callNum(in *interp, n *callNode) (Value, *Error) {
	x, err := in.evalNumber(n.name, n.args[0])
	if err != nil {
		return Value{}, err
	}
	var opts []number.Option
	if len(n.args) == 2 {
		digits, err := in.evalInt(n.name, n.args[1])
		if err != nil {
			return Value{}, err
		}
		if digits < 0 || digits > 20 {
			return Value{}, &Error{Pos: n.args[1].position(), Msg: fmt.Sprintf("num: fraction digits %d out of range", digits)}
		}
		opts = append(opts, number.MaxFractionDigits(int(digits)))
	}
	p := message.NewPrinter(in.tag)
	return stringValue(p.Sprint(number.Decimal(x.native(), opts...))), nil
}
