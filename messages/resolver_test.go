package messages

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"

	"rsrc/common"
	"rsrc/locale"
)

func testBundle() fstest.MapFS {
	return fstest.MapFS{
		"strings/default.yaml": {Data: []byte(`
App:
  Title: Reader
  Greeting: "Hello, {0}!"
  Files: "{plural($0, 'one file', '{0} files')}"
  Broken: "{1/0}"
  Empty: ""
  Nested: "{@App.Title} v{0}"
  Loop: "{@App.Loop2}"
  Loop2: "{@App.Loop}"
  Self: "x{@App.Self}"
  MissingRef: "[{@App.Nope}]"
  BrokenRef: "<{@App.Broken}>"
  Twice: "{@App.Title}/{@App.Title}"
`)},
		"strings/fr.yaml": {Data: []byte(`
App.Title: Lecteur
App.Greeting: "Bonjour, {0} !"
`)},
	}
}

func newTestResolver(t *testing.T, fsys fstest.MapFS, opts ...Option) *Resolver {
	t.Helper()
	log := zaptest.NewLogger(t)
	store, err := locale.NewStore(fsys, locale.WithLogger(log))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return New(store, append([]Option{WithLogger(log)}, opts...)...)
}

func TestGetString(t *testing.T) {
	r := newTestResolver(t, testBundle())

	tests := []struct {
		tag  language.Tag
		key  string
		args []any
		want string
	}{
		{language.English, "App.Title", nil, "Reader"},
		{language.French, "App.Title", nil, "Lecteur"},
		{language.CanadianFrench, "App.Title", nil, "Lecteur"},
		{language.English, "App.Greeting", []any{"Ann"}, "Hello, Ann!"},
		{language.French, "App.Greeting", []any{"Ann"}, "Bonjour, Ann !"},
		{language.English, "App.Files", []any{1}, "one file"},
		{language.English, "App.Files", []any{4}, "4 files"},
		{language.English, "App.Nested", []any{2}, "Reader v2"},
		{language.French, "App.Nested", []any{2}, "Lecteur v2"},
		{language.English, "App.Twice", nil, "Reader/Reader"},
		{language.English, "App.Empty", nil, ""},
		{language.English, "App.MissingRef", nil, "[Nope]"},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String()+"/"+tt.key, func(t *testing.T) {
			got, err := r.GetString(tt.tag, tt.key, tt.args...)
			if err != nil {
				t.Fatalf("GetString() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetString_MissingKey(t *testing.T) {
	lenient := newTestResolver(t, testBundle())
	strict := lenient.WithMode(common.ResolutionModeStrict)

	for key, leaf := range map[string]string{
		"A.B.Missing": "Missing",
		"Missing":     "Missing",
		"A.":          "",
		"":            "",
	} {
		got, err := lenient.GetString(language.English, key)
		if err != nil || got != leaf {
			t.Errorf("lenient GetString(%q) = %q, %v, want %q", key, got, err, leaf)
		}

		got, err = strict.GetString(language.English, key)
		var nf *common.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("strict GetString(%q) error = %v, want NotFoundError", key, err)
		}
		if nf.ID != leaf || got != "" {
			t.Errorf("strict GetString(%q) = %q, ID %q, want ID %q", key, got, nf.ID, leaf)
		}
		if !errors.Is(err, common.ErrNotFound) {
			t.Errorf("errors.Is(%v, ErrNotFound) = false", err)
		}
	}
}

func TestGetString_DefaultModeIsLenient(t *testing.T) {
	r := newTestResolver(t, testBundle(), WithMode(common.ResolutionModeDefault))
	if r.Mode() != common.ResolutionModeLenient {
		t.Errorf("Mode() = %v, want lenient", r.Mode())
	}
	got, err := r.GetString(language.English, "X.Y")
	if err != nil || got != "Y" {
		t.Errorf("GetString() = %q, %v, want leaf", got, err)
	}
}

func TestGetString_Diagnostics(t *testing.T) {
	r := newTestResolver(t, testBundle())
	strict := r.WithMode(common.ResolutionModeStrict)

	tests := []struct {
		key     string
		contain string
	}{
		{"App.Broken", "division by zero"},
		{"App.Loop", "reference cycle App.Loop -> App.Loop2 -> App.Loop"},
		{"App.Self", "reference cycle App.Self -> App.Self"},
		{"App.BrokenRef", "division by zero"},
		{"App.Greeting", "argument $0 is missing"},
	}
	for _, tt := range tests {
		for _, res := range []*Resolver{r, strict} {
			got, err := res.GetString(language.English, tt.key)
			if err != nil {
				t.Fatalf("GetString(%q) error = %v, want diagnostic", tt.key, err)
			}
			if !strings.HasPrefix(got, "!") || !strings.HasSuffix(got, "!") || !strings.Contains(got, tt.contain) {
				t.Errorf("GetString(%q) = %q, want diagnostic with %q", tt.key, got, tt.contain)
			}
			again, _ := res.GetString(language.English, tt.key)
			if again != got {
				t.Errorf("diagnostic not stable: %q vs %q", again, got)
			}
		}
	}

	got, err := r.GetString(language.English, "App.Broken")
	if err != nil || got != "!offset 2: division by zero!" {
		t.Errorf("GetString(App.Broken) = %q, %v", got, err)
	}
}

func TestGetString_StrictNestedMiss(t *testing.T) {
	r := newTestResolver(t, testBundle(), WithMode(common.ResolutionModeStrict))
	got, err := r.GetString(language.English, "App.MissingRef")
	if err != nil {
		t.Fatalf("GetString() error = %v", err)
	}
	if !strings.Contains(got, "resource not found: Nope") {
		t.Errorf("GetString() = %q, want diagnostic for nested miss", got)
	}

	res, err := r.Evaluate(language.English, "App.MissingRef")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !errors.Is(res.Err, common.ErrNotFound) {
		t.Errorf("Evaluate() failure %v does not wrap ErrNotFound", res.Err)
	}
}

func TestGetString_BrokenLocaleTable(t *testing.T) {
	fsys := testBundle()
	fsys["strings/de.yaml"] = &fstest.MapFile{Data: []byte("A: [unterminated")}
	r := newTestResolver(t, fsys)

	tests := []struct {
		tag  language.Tag
		key  string
		want string
	}{
		{language.German, "App.Title", "Reader"},
		{language.MustParse("de-AT"), "Missing.Key", "Key"},
		{language.English, "App.Title", "Reader"},
	}
	for _, tt := range tests {
		if got, err := r.GetString(tt.tag, tt.key); err != nil || got != tt.want {
			t.Errorf("GetString(%s, %s) = %q, %v, want %q", tt.tag, tt.key, got, err, tt.want)
		}
	}

	strict := r.WithMode(common.ResolutionModeStrict)
	if _, err := strict.GetString(language.German, "Missing.Key"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("strict GetString() error = %v, want not found", err)
	}
}

func TestGetString_Concurrent(t *testing.T) {
	r := newTestResolver(t, testBundle())

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag := language.English
			want := "Reader v1"
			if i%2 == 0 {
				tag, want = language.French, "Lecteur v1"
			}
			for range 50 {
				if got, err := r.GetString(tag, "App.Nested", 1); err != nil || got != want {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("concurrent GetString() = %q", got)
	}
}
