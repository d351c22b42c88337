// Package provider is the single entry point to bundle resources: locale
// aware strings and size aware images.
package provider

import (
	"fmt"
	"io"
	"io/fs"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"rsrc/archive"
	"rsrc/common"
	"rsrc/config"
	"rsrc/images"
	"rsrc/locale"
	"rsrc/messages"
)

// Provider is safe for concurrent use. Views returned by WithMode share
// all caches with the provider they came from.
type Provider struct {
	cfg    *config.ResourcesConfig
	locale language.Tag

	store   *locale.Store
	index   *images.Index
	strings *messages.Resolver
	images  *images.Resolver

	closer io.Closer
	log    *zap.Logger
}

// New builds provider over bundle file system. Bundle without base locale
// table or placeholder image is rejected with ConfigurationError.
func New(fsys fs.FS, cfg *config.ResourcesConfig, log *zap.Logger) (*Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("bad default locale %q: %w", cfg.Locale, err)
	}

	store, err := locale.NewStore(fsys,
		locale.WithDir(cfg.StringsDir),
		locale.WithBaseName(cfg.BaseLocale),
		locale.WithLogger(log.Named("locale")))
	if err != nil {
		return nil, err
	}
	// base table must be usable before anything is served
	if _, err := store.Table(store.BaseName()); err != nil {
		return nil, &common.ConfigurationError{What: "base locale table", Err: err}
	}

	index := images.NewIndex(fsys,
		images.WithDir(cfg.ImagesDir),
		images.WithIndexLogger(log.Named("images")))
	imgs, err := images.NewResolver(index, cfg.Placeholder,
		images.WithMode(cfg.Mode),
		images.WithLogger(log.Named("images")))
	if err != nil {
		return nil, err
	}

	return &Provider{
		cfg:     cfg,
		locale:  tag,
		store:   store,
		index:   index,
		strings: messages.New(store, messages.WithMode(cfg.Mode), messages.WithLogger(log.Named("strings"))),
		images:  imgs,
		log:     log,
	}, nil
}

// Open opens bundle directory or zip archive at path and builds provider
// over it. Close releases the archive.
func Open(path string, cfg *config.ResourcesConfig, log *zap.Logger) (*Provider, error) {
	fsys, closer, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	p, err := New(fsys, cfg, log)
	if err != nil {
		closer.Close()
		return nil, err
	}
	p.closer = closer
	p.log.Debug("Resource bundle opened", zap.String("path", path))
	return p, nil
}

// Close releases underlying bundle. Views share it with the original
// provider, closing any of them closes it for all.
func (p *Provider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// WithMode returns view with different resolution mode.
func (p *Provider) WithMode(mode common.ResolutionMode) *Provider {
	view := *p
	view.strings = p.strings.WithMode(mode)
	view.images = p.images.WithMode(mode)
	return &view
}

// Mode returns effective resolution mode.
func (p *Provider) Mode() common.ResolutionMode {
	return p.strings.Mode()
}

// DefaultLocale returns locale configured for callers without preference.
func (p *Provider) DefaultLocale() language.Tag {
	return p.locale
}

func (p *Provider) GetString(tag language.Tag, key string, args ...any) (string, error) {
	return p.strings.GetString(tag, key, args...)
}

func (p *Provider) GetImage(name string) (*images.Stream, error) {
	return p.images.GetImage(name)
}

func (p *Provider) GetImageSize(name string, size int) (*images.Stream, error) {
	return p.images.GetImageSize(name, size)
}

func (p *Provider) FindImage(name string, size int) (*images.Stream, error) {
	return p.images.FindImage(name, size)
}

// FindCloseImage returns nil stream and nil error when nothing matches.
func (p *Provider) FindCloseImage(name string, size int) (*images.Stream, error) {
	return p.images.FindCloseImage(name, size)
}

func (p *Provider) GetScalableImage(name string) (*images.Stream, error) {
	return p.images.GetScalableImage(name)
}

// Locales lists locale tables present in the bundle.
func (p *Provider) Locales() []string {
	return p.store.Locales()
}

// Keys lists every key resolvable for tag.
func (p *Provider) Keys(tag language.Tag) ([]string, error) {
	chain, err := p.store.ChainFor(tag)
	if err != nil {
		return nil, err
	}
	return chain.Keys(), nil
}

// ImageNames lists logical names of all images.
func (p *Provider) ImageNames() ([]string, error) {
	return p.index.Names()
}

// Sizes lists declared sizes of raster variants of image.
func (p *Provider) Sizes(name string) []int {
	return p.index.SizesFor(name)
}

// HasScalable reports whether image has vector variant.
func (p *Provider) HasScalable(name string) bool {
	_, ok := p.index.Scalable(name)
	return ok
}
