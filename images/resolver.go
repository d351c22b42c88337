package images

import (
	"io"

	"go.uber.org/zap"

	"rsrc/common"
)

// Stream is opened image content together with description of the variant
// it came from. Caller owns the stream and must close it.
type Stream struct {
	io.ReadCloser
	Asset *Asset
	// Placeholder is set when requested image was substituted.
	Placeholder bool
}

// Resolver answers image requests against index. It is immutable, views with
// different mode share the same index.
type Resolver struct {
	index       *Index
	placeholder string
	mode        common.ResolutionMode
	log         *zap.Logger
}

type Option func(*Resolver)

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

// NewResolver makes sure placeholder image exists: without it lenient
// resolution is impossible and bundle is unusable.
func NewResolver(index *Index, placeholder string, opts ...Option) (*Resolver, error) {
	r := &Resolver{index: index, placeholder: placeholder, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if _, ok := index.Catalog(placeholder); !ok {
		return nil, &common.ConfigurationError{What: "placeholder image " + placeholder + " is missing"}
	}
	return r, nil
}

func (r *Resolver) Index() *Index {
	return r.index
}

// Mode returns effective resolution mode.
func (r *Resolver) Mode() common.ResolutionMode {
	return r.mode.Resolve()
}

// WithMode returns view of r with different resolution mode.
func (r *Resolver) WithMode(mode common.ResolutionMode) *Resolver {
	view := *r
	view.mode = mode
	return &view
}

// GetImage returns unsized variant.
func (r *Resolver) GetImage(name string) (*Stream, error) {
	if a, ok := r.index.ContentAt(name, 0); ok {
		return open(a, false)
	}
	return r.miss(name, 0, false)
}

// GetImageSize returns variant with the largest declared size not exceeding
// size.
func (r *Resolver) GetImageSize(name string, size int) (*Stream, error) {
	if c, ok := r.index.Catalog(name); ok {
		if a, ok := c.Floor(size); ok {
			return open(a, false)
		}
	}
	return r.miss(name, size, false)
}

// FindImage is GetImageSize under a different name kept for callers which
// search for an image rather than request a known one.
func (r *Resolver) FindImage(name string, size int) (*Stream, error) {
	return r.GetImageSize(name, size)
}

// FindCloseImage works as GetImageSize but never falls back: when nothing
// matches it returns nil stream and nil error in every mode.
func (r *Resolver) FindCloseImage(name string, size int) (*Stream, error) {
	if c, ok := r.index.Catalog(name); ok {
		if a, ok := c.Floor(size); ok {
			return open(a, false)
		}
	}
	r.log.Debug("No close image", zap.String("name", name), zap.Int("size", size))
	return nil, nil
}

// GetScalableImage returns vector variant.
func (r *Resolver) GetScalableImage(name string) (*Stream, error) {
	if a, ok := r.index.Scalable(name); ok {
		return open(a, false)
	}
	return r.miss(name, 0, true)
}

func (r *Resolver) miss(name string, size int, scalable bool) (*Stream, error) {
	mode := r.mode.Resolve()
	r.log.Debug("Image not found",
		zap.String("name", name), zap.Int("size", size), zap.Bool("scalable", scalable), zap.Stringer("mode", mode))
	if mode.Strict() {
		return nil, &common.NotFoundError{ID: name}
	}
	return r.placeholderFor(size, scalable)
}

// placeholderFor picks placeholder variant: floor match, then the smallest
// raster, then vector. Vector goes first when scalable image was requested.
func (r *Resolver) placeholderFor(size int, scalable bool) (*Stream, error) {
	c, ok := r.index.Catalog(r.placeholder)
	if !ok {
		return nil, &common.ConfigurationError{What: "placeholder image " + r.placeholder + " is missing"}
	}
	if scalable {
		if a, ok := c.Scalable(); ok {
			return open(a, true)
		}
	}
	if a, ok := c.Floor(size); ok {
		return open(a, true)
	}
	if a, ok := c.Smallest(); ok {
		return open(a, true)
	}
	a, _ := c.Scalable()
	return open(a, true)
}

func open(a *Asset, placeholder bool) (*Stream, error) {
	rc, err := a.Open()
	if err != nil {
		return nil, err
	}
	return &Stream{ReadCloser: rc, Asset: a, Placeholder: placeholder}, nil
}
