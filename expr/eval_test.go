package expr

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
)

var nested = map[string]string{
	"Common.Name":     "Widget",
	"Common.Greeting": "Hello, {0}",
	"Common.Count":    "{plural($0, 'one item', '{0} items')}",
}

var errMissing = errors.New("no such key")

func testLookup(key string, args []any) (string, error) {
	tmpl, ok := nested[key]
	if !ok {
		return "", errMissing
	}
	res := Evaluate(tmpl, args, language.English, testLookup)
	if res.Err != nil {
		return "", res.Err
	}
	return res.Text, nil
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		args []any
		want string
	}{
		{"plain", "Hello", nil, "Hello"},
		{"empty", "", nil, ""},
		{"shorthand", "Hello, {0}!", []any{"World"}, "Hello, World!"},
		{"dollar", "{$0}{$1}", []any{1, 2}, "12"},
		{"spaces", "{ $0 }", []any{"x"}, "x"},
		{"add numbers", "{$0 + $1}", []any{1, 2}, "3"},
		{"concat", "{'a' + 1}", nil, "a1"},
		{"concat left to right", "{'' + 1 + 2}", nil, "12"},
		{"precedence", "{1 + 2 * 3}", nil, "7"},
		{"parens", "{(1 + 2) * 3}", nil, "9"},
		{"exact division", "{6 / 2}", nil, "3"},
		{"inexact division", "{7 / 2}", nil, "3.5"},
		{"modulo", "{7 % 3}", nil, "1"},
		{"negate", "{-$0}", []any{5}, "-5"},
		{"double negate", "{--$0}", []any{5}, "5"},
		{"float", "{1.5 * 2}", nil, "3"},
		{"numeric string arg", "{$0 * 2}", []any{"21"}, "42"},
		{"uint64", "{$0}", []any{uint64(7)}, "7"},
		{"bool", "{$0}", []any{true}, "true"},
		{"error arg", "{$0}", []any{errors.New("boom")}, "boom"},
		{"nil arg", "[{$0}]", []any{nil}, "[]"},
		{"escaped braces", "{{literal}}", nil, "{literal}"},
		{"lone closing brace", "a } b", nil, "a } b"},
		{"string escapes", `{"a\"b\\c"}`, nil, `a"b\c`},
		{"single quotes", `{'it\'s'}`, nil, "it's"},
		{"utf8 text", "Привет, {0}", []any{"мир"}, "Привет, мир"},
		{"plural one", "{plural($0, 'one file', '{0} files')}", []any{1}, "one file"},
		{"plural other", "{plural($0, 'one file', '{0} files')}", []any{3}, "3 files"},
		{"plural zero as other", "{plural($0, 'one file', '{0} files')}", []any{0}, "0 files"},
		{"plural zero form", "{plural($0, 'none', 'one', '{0} many')}", []any{0}, "none"},
		{"plural zero form one", "{plural($0, 'none', 'one', '{0} many')}", []any{1}, "one"},
		{"plural float", "{plural($0, 'one', 'other')}", []any{1.5}, "other"},
		{"plural expression branch", "{plural($0, $1, $2)}", []any{2, "{a}", "{b}"}, "{b}"},
		{"select", "{select($0, 'm', 'he', 'f', 'she', 'they')}", []any{"f"}, "she"},
		{"select fallback", "{select($0, 'm', 'he', 'f', 'she', 'they')}", []any{"x"}, "they"},
		{"select number key", "{select($0, 1, 'first', 'later')}", []any{1}, "first"},
		{"select only fallback", "{select($0, 'any')}", []any{1}, "any"},
		{"upper", "{upper($0)}", []any{"abc"}, "ABC"},
		{"lower", "{lower('ABC')}", nil, "abc"},
		{"trim", "[{trim($0)}]", []any{"  x  "}, "[x]"},
		{"trunc", "{trunc(3, $0)}", []any{"abcdef"}, "abc"},
		{"repeat", "{repeat(3, $0)}", []any{"ab"}, "ababab"},
		{"largest integer", "{9223372036854775807 + 0}", nil, "9223372036854775807"},
		{"num", "{num($0)}", []any{1234567}, "1,234,567"},
		{"ref", "{@Common.Name}", nil, "Widget"},
		{"ref passes arguments", "{@Common.Greeting}", []any{"Bob"}, "Hello, Bob"},
		{"ref explicit arguments", "{@Common.Greeting('Ann')}", []any{"Bob"}, "Hello, Ann"},
		{"ref in plural", "{@Common.Count($0 + 1)}", []any{0}, "one item"},
		{"computed ref", "{ref('Common.' + $0)}", []any{"Name"}, "Widget"},
		{"computed ref arguments", "{ref('Common.Greeting', upper($0))}", []any{"x"}, "Hello, X"},
		{"mixed", "{0} has {plural($1, 'one item', '{1} items')} ({$1 * 10}%)", []any{"Cart", 2}, "Cart has 2 items (20%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.tmpl, tt.args, language.English, testLookup)
			if !res.OK() {
				t.Fatalf("Evaluate(%q) error = %v", tt.tmpl, res.Err)
			}
			if res.Text != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.tmpl, res.Text, tt.want)
			}
			if res.String() != tt.want {
				t.Errorf("String() = %q, want %q", res.String(), tt.want)
			}
		})
	}
}

func TestEvaluate_Locale(t *testing.T) {
	res := Evaluate("{num($0)}", []any{1234567}, language.German, nil)
	if res.Text != "1.234.567" {
		t.Errorf("German num() = %q, want %q", res.Text, "1.234.567")
	}
	res = Evaluate("{num($0, 0)}", []any{2.5}, language.English, nil)
	if res.Err != nil {
		t.Fatalf("num() with digits error = %v", res.Err)
	}
	if strings.Contains(res.Text, ".") {
		t.Errorf("num() with 0 fraction digits = %q", res.Text)
	}
}

func TestEvaluate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		args    []any
		lookup  Lookup
		contain string
	}{
		{"division by zero", "{1/0}", nil, nil, "division by zero"},
		{"float division by zero", "{1.5/0}", nil, nil, "division by zero"},
		{"modulo by zero", "{1 % 0}", nil, nil, "modulo by zero"},
		{"missing argument", "{$3}", []any{1}, nil, "argument $3 is missing"},
		{"missing shorthand argument", "{0}", nil, nil, "argument $0 is missing"},
		{"unknown function", "{unknown(1)}", nil, nil, `unknown function "unknown"`},
		{"bare identifier", "{name}", nil, nil, `unknown function "name"`},
		{"dangling operator", "{1 +}", nil, nil, "unexpected '}'"},
		{"unterminated", "Hello {0", nil, nil, "unterminated expression"},
		{"empty", "{}", nil, nil, "empty expression"},
		{"unterminated string", "{'abc}", nil, nil, "unterminated string"},
		{"bad escape", `{'\q'}`, nil, nil, "unknown escape sequence"},
		{"nested brace", "{{0} {1 {2}}", nil, nil, "unexpected '{'"},
		{"string arithmetic", "{'a' - 1}", nil, nil, `operator '-' needs numbers, got "a"`},
		{"negate string", "{-'a'}", nil, nil, `cannot negate "a"`},
		{"plural arity", "{plural(1, 'a')}", nil, nil, "plural: expects 3 to 4 arguments"},
		{"plural not a number", "{plural($0, 'a', 'b')}", []any{"many"}, nil, "plural: number expected"},
		{"plural bad branch", "{plural(1, '{', 'b')}", nil, nil, "plural branch"},
		{"select arity", "{select(1, 'a', 'b')}", nil, nil, "select: expects value"},
		{"missing paren", "{upper $0}", nil, nil, "'(' expected after upper"},
		{"unclosed call", "{upper($0}", nil, nil, "unexpected '}'"},
		{"bad reference", "{@A..B}", nil, nil, "malformed reference key"},
		{"missing reference", "{@Nope}", nil, testLookup, `reference to "Nope": no such key`},
		{"no lookup", "{@A}", nil, nil, "nested lookups are not available"},
		{"empty ref", "{ref('')}", nil, testLookup, "ref: empty key"},
		{"num digits", "{num(1, 99)}", nil, nil, "fraction digits 99 out of range"},
		{"repeat huge count", "{repeat($0, '*')}", []any{int64(1) << 42}, nil, "repeat: count 4398046511104 out of range"},
		{"repeat negative count", "{repeat(-1, 'x')}", nil, nil, "repeat: negative count -1"},
		{"repeat long result", "{repeat($0, $1)}", []any{1000, strings.Repeat("x", 100)}, nil, "repeat: result longer than"},
		{"trunc huge count", "{trunc($0, 'abc')}", []any{int64(1) << 40}, nil, "trunc: count"},
		{"integer literal overflow", "{-9223372036854775808}", nil, nil, "number 9223372036854775808 out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.tmpl, tt.args, language.English, tt.lookup)
			if res.OK() {
				t.Fatalf("Evaluate(%q) = %q, want failure", tt.tmpl, res.Text)
			}
			if res.Text != "" {
				t.Errorf("failed Result.Text = %q, want empty", res.Text)
			}
			if !strings.Contains(res.Err.Error(), tt.contain) {
				t.Errorf("error %q does not contain %q", res.Err.Error(), tt.contain)
			}
			diag := res.String()
			if !strings.HasPrefix(diag, "!") || !strings.HasSuffix(diag, "!") {
				t.Errorf("diagnostic %q is not delimited", diag)
			}
		})
	}
}

func TestEvaluate_Diagnostic(t *testing.T) {
	res := Evaluate("{1/0}", nil, language.English, nil)
	if got, want := res.String(), "!offset 2: division by zero!"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	// same input gives same diagnostic
	if again := Evaluate("{1/0}", nil, language.English, nil); again.String() != res.String() {
		t.Errorf("diagnostic not stable: %q vs %q", again.String(), res.String())
	}
}

func TestEvaluate_WrappedLookupError(t *testing.T) {
	res := Evaluate("{@Nope}", nil, language.English, testLookup)
	if !errors.Is(res.Err, errMissing) {
		t.Errorf("errors.Is(%v, errMissing) = false", res.Err)
	}
}

type panicky struct{}

func (panicky) String() string { panic("stringer exploded") }

func TestEvaluate_RecoversPanics(t *testing.T) {
	res := Evaluate("{0}", []any{panicky{}}, language.English, nil)
	if res.Err == nil || !strings.Contains(res.Err.Msg, "stringer exploded") {
		t.Errorf("Evaluate() = %+v, want recovered panic", res)
	}

	res = Evaluate("{@X}", nil, language.English, func(string, []any) (string, error) {
		panic("lookup exploded")
	})
	if res.Err == nil || !strings.Contains(res.Err.Msg, "lookup exploded") {
		t.Errorf("Evaluate() = %+v, want recovered panic", res)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	tmpl := "{0}: {plural($1, 'one', '{1} many')} {upper($0)} {$1 / 3}"
	args := []any{"x", 7}
	first := Evaluate(tmpl, args, language.English, nil)
	for range 10 {
		if got := Evaluate(tmpl, args, language.English, nil); got != first {
			t.Fatalf("Evaluate() = %+v, first %+v", got, first)
		}
	}
}

func TestTemplate_Refs(t *testing.T) {
	tmpl, err := Parse("{@A.B} {plural($0, '{@C}', 'x')} {ref('D')} {@E($0, @F)}")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"A.B", "C", "E", "F"}
	if diff := cmp.Diff(want, tmpl.Refs()); diff != "" {
		t.Errorf("Refs() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Error(t *testing.T) {
	_, err := Parse("text {1 +")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Parse() error = %v, want *Error", err)
	}
	if perr.Pos != 9 || perr.Msg != "unexpected end of template" {
		t.Errorf("Parse() error = %+v, want unexpected end at 9", perr)
	}
}

func TestFunctions(t *testing.T) {
	names := make(map[string]bool)
	for _, n := range Functions() {
		names[n] = true
	}
	for _, n := range []string{"plural", "select", "ref", "num", "upper", "lower", "title", "trim"} {
		if !names[n] {
			t.Errorf("function %q is not available", n)
		}
	}
}
