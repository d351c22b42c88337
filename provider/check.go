package provider

import (
	"fmt"
	"io/fs"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"rsrc/common"
	"rsrc/config"
	"rsrc/expr"
	"rsrc/images"
	"rsrc/locale"
)

// Check inspects whole bundle and reports every problem found: unreadable
// tables, templates which do not parse, references to keys which cannot be
// resolved, missing placeholder and broken images.
func Check(fsys fs.FS, cfg *config.ResourcesConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	var errs error

	store, err := locale.NewStore(fsys,
		locale.WithDir(cfg.StringsDir),
		locale.WithBaseName(cfg.BaseLocale),
		locale.WithLogger(log.Named("locale")))
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		errs = multierr.Append(errs, checkStrings(store, log))
	}

	index := images.NewIndex(fsys,
		images.WithDir(cfg.ImagesDir),
		images.WithIndexLogger(log.Named("images")))
	if _, ok := index.Catalog(cfg.Placeholder); !ok {
		errs = multierr.Append(errs, &common.ConfigurationError{What: "placeholder image " + cfg.Placeholder + " is missing"})
	}
	errs = multierr.Append(errs, index.Check())

	if errs != nil {
		log.Warn("Bundle check failed", zap.Int("problems", len(multierr.Errors(errs))))
	} else {
		log.Info("Bundle check passed")
	}
	return errs
}

func checkStrings(store *locale.Store, log *zap.Logger) error {
	var errs error
	for _, id := range store.Locales() {
		t, err := store.Table(id)
		if err != nil {
			if id == store.BaseName() {
				err = &common.ConfigurationError{What: "base locale table", Err: err}
			}
			errs = multierr.Append(errs, err)
			continue
		}

		tag := language.Und
		if id != store.BaseName() {
			tag = language.Make(id)
		}
		chain, err := store.ChainFor(tag)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		for _, key := range t.Keys() {
			value, _ := t.Get(key)
			tmpl, err := expr.Parse(value)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: key %s: %w", t.Source, key, err))
				continue
			}
			for _, ref := range tmpl.Refs() {
				if _, _, ok := chain.Lookup(ref); !ok {
					errs = multierr.Append(errs, fmt.Errorf("%s: key %s: reference to unknown key %s", t.Source, key, ref))
				}
			}
		}
		log.Debug("Locale table checked", zap.String("id", id), zap.Int("keys", t.Len()))
	}
	return errs
}
