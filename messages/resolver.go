// Package messages resolves string resources: locale chain lookup followed
// by template evaluation with nested references.
package messages

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"rsrc/common"
	"rsrc/expr"
	"rsrc/locale"
)

// Resolver is immutable and safe for concurrent use.
type Resolver struct {
	store *locale.Store
	mode  common.ResolutionMode
	log   *zap.Logger
}

type Option func(*Resolver)

// WithMode sets policy for unresolved keys.
func WithMode(mode common.ResolutionMode) Option {
	return func(r *Resolver) {
		r.mode = mode
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

func New(store *locale.Store, opts ...Option) *Resolver {
	r := &Resolver{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns effective resolution mode.
func (r *Resolver) Mode() common.ResolutionMode {
	return r.mode.Resolve()
}

// WithMode returns resolver view sharing caches with r but using different
// resolution mode.
func (r *Resolver) WithMode(mode common.ResolutionMode) *Resolver {
	view := *r
	view.mode = mode
	return &view
}

// GetString resolves key for locale and evaluates it with args.
func (r *Resolver) GetString(tag language.Tag, key string, args ...any) (string, error) {
	return r.Resolve(tag, key, args, r.mode)
}

// Resolve is GetString with explicit mode. Missing key is an error only in
// strict mode, otherwise last key segment is returned. Template failures are
// never errors: diagnostic text is returned instead.
func (r *Resolver) Resolve(tag language.Tag, key string, args []any, mode common.ResolutionMode) (string, error) {
	res, err := r.resolve(tag, key, args, mode.Resolve(), nil)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// Evaluate resolves key and returns evaluation result without collapsing
// failure into diagnostic text.
func (r *Resolver) Evaluate(tag language.Tag, key string, args ...any) (expr.Result, error) {
	return r.resolve(tag, key, args, r.mode.Resolve(), nil)
}

// resolve carries stack of keys being evaluated by current call to detect
// reference cycles.
func (r *Resolver) resolve(tag language.Tag, key string, args []any, mode common.ResolutionMode, stack []string) (expr.Result, error) {
	chain, err := r.store.ChainFor(tag)
	if err != nil {
		return expr.Result{}, fmt.Errorf("unable to resolve %q for %s: %w", key, tag, err)
	}

	tmpl, table, ok := chain.Lookup(key)
	if !ok {
		leaf := common.LeafKey(key)
		r.log.Debug("String resource not found",
			zap.String("key", key), zap.Stringer("locale", tag), zap.Stringer("mode", mode), zap.Strings("chain", chain.IDs()))
		if mode.Strict() {
			return expr.Result{}, &common.NotFoundError{ID: leaf}
		}
		return expr.Result{Text: leaf}, nil
	}

	stack = append(stack, key)
	lookup := func(ref string, refArgs []any) (string, error) {
		if slices.Contains(stack, ref) {
			return "", fmt.Errorf("reference cycle %s -> %s", strings.Join(stack, " -> "), ref)
		}
		res, err := r.resolve(tag, ref, refArgs, mode, stack)
		if err != nil {
			return "", err
		}
		if !res.OK() {
			return "", res.Err
		}
		return res.Text, nil
	}

	res := expr.Evaluate(tmpl, args, tag, lookup)
	if !res.OK() && len(stack) == 1 {
		r.log.Warn("String resource failed to evaluate",
			zap.String("key", key), zap.String("table", table.Source), zap.Error(res.Err))
	}
	return res, nil
}
