package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type kind uint8

const (
	kindString kind = iota
	kindInt
	kindFloat
)

// Value is a result of expression evaluation: integer, float or string.
type Value struct {
	kind kind
	i    int64
	f    float64
	s    string
}

func intValue(i int64) Value     { return Value{kind: kindInt, i: i} }
func floatValue(f float64) Value { return Value{kind: kindFloat, f: f} }
func stringValue(s string) Value { return Value{kind: kindString, s: s} }

func (v Value) String() string {
	switch v.kind {
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
	return v.s
}

func (v Value) isNumber() bool {
	return v.kind == kindInt || v.kind == kindFloat
}

// number coerces value to a numeric one. Strings holding decimal numbers are
// accepted so arguments passed as text still work with arithmetic.
func (v Value) number() (Value, bool) {
	if v.isNumber() {
		return v, true
	}
	s := strings.TrimSpace(v.s)
	if s == "" {
		return Value{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return intValue(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return floatValue(f), true
	}
	return Value{}, false
}

func (v Value) float() float64 {
	if v.kind == kindInt {
		return float64(v.i)
	}
	return v.f
}

// native converts value back for passing to nested lookups.
func (v Value) native() any {
	switch v.kind {
	case kindInt:
		return v.i
	case kindFloat:
		return v.f
	}
	return v.s
}

// valueOf converts caller supplied argument.
func valueOf(a any) Value {
	switch a := a.(type) {
	case nil:
		return stringValue("")
	case Value:
		return a
	case string:
		return stringValue(a)
	case int:
		return intValue(int64(a))
	case int8:
		return intValue(int64(a))
	case int16:
		return intValue(int64(a))
	case int32:
		return intValue(int64(a))
	case int64:
		return intValue(a)
	case uint:
		return unsignedValue(uint64(a))
	case uint8:
		return intValue(int64(a))
	case uint16:
		return intValue(int64(a))
	case uint32:
		return intValue(int64(a))
	case uint64:
		return unsignedValue(a)
	case float32:
		return floatValue(float64(a))
	case float64:
		return floatValue(a)
	case bool:
		return stringValue(strconv.FormatBool(a))
	case fmt.Stringer:
		return stringValue(a.String())
	case error:
		return stringValue(a.Error())
	}
	return stringValue(fmt.Sprint(a))
}

func unsignedValue(u uint64) Value {
	if u > math.MaxInt64 {
		return floatValue(float64(u))
	}
	return intValue(int64(u))
}

func arith(pos int, op tokenKind, l, r Value) (Value, *Error) {
	if op == tokPlus && (!l.isNumber() || !r.isNumber()) {
		return stringValue(l.String() + r.String()), nil
	}

	ln, lok := l.number()
	rn, rok := r.number()
	if !lok || !rok {
		bad := l
		if lok {
			bad = r
		}
		return Value{}, &Error{Pos: pos, Msg: fmt.Sprintf("operator %s needs numbers, got %q", op, bad.String())}
	}

	if ln.kind == kindInt && rn.kind == kindInt {
		a, b := ln.i, rn.i
		switch op {
		case tokPlus:
			return intValue(a + b), nil
		case tokMinus:
			return intValue(a - b), nil
		case tokStar:
			return intValue(a * b), nil
		case tokSlash:
			if b == 0 {
				return Value{}, &Error{Pos: pos, Msg: "division by zero"}
			}
			if a%b == 0 {
				return intValue(a / b), nil
			}
			return floatValue(float64(a) / float64(b)), nil
		case tokPercent:
			if b == 0 {
				return Value{}, &Error{Pos: pos, Msg: "modulo by zero"}
			}
			return intValue(a % b), nil
		}
	}

	a, b := ln.float(), rn.float()
	switch op {
	case tokPlus:
		return floatValue(a + b), nil
	case tokMinus:
		return floatValue(a - b), nil
	case tokStar:
		return floatValue(a * b), nil
	case tokSlash:
		if b == 0 {
			return Value{}, &Error{Pos: pos, Msg: "division by zero"}
		}
		return floatValue(a / b), nil
	case tokPercent:
		if b == 0 {
			return Value{}, &Error{Pos: pos, Msg: "modulo by zero"}
		}
		return floatValue(math.Mod(a, b)), nil
	}
	return Value{}, &Error{Pos: pos, Msg: fmt.Sprintf("unsupported operator %s", op)}
}
