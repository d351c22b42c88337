package images

import (
	"errors"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"rsrc/common"
)

// Catalog holds all variants of one logical image.
type Catalog struct {
	Name string

	sizes    []int
	variants map[int]*Asset
	scalable *Asset
}

// Sizes returns declared sizes in ascending order, 0 stands for unsized
// variant.
func (c *Catalog) Sizes() []int {
	return slices.Clone(c.sizes)
}

// At returns variant with exactly declared size.
func (c *Catalog) At(size int) (*Asset, bool) {
	a, ok := c.variants[size]
	return a, ok
}

func (c *Catalog) Scalable() (*Asset, bool) {
	return c.scalable, c.scalable != nil
}

// Floor returns variant with the largest declared size not exceeding
// requested one.
func (c *Catalog) Floor(size int) (*Asset, bool) {
	i := sort.Search(len(c.sizes), func(i int) bool { return c.sizes[i] > size })
	if i == 0 {
		return nil, false
	}
	return c.variants[c.sizes[i-1]], true
}

// Smallest returns variant with the smallest declared size.
func (c *Catalog) Smallest() (*Asset, bool) {
	if len(c.sizes) == 0 {
		return nil, false
	}
	return c.variants[c.sizes[0]], true
}

func (c *Catalog) empty() bool {
	return len(c.sizes) == 0 && c.scalable == nil
}

func (c *Catalog) add(a *Asset, log *zap.Logger) {
	if a.Scalable {
		if c.scalable != nil {
			log.Warn("Duplicate scalable image ignored", zap.String("kept", c.scalable.Path), zap.String("dropped", a.Path))
			return
		}
		c.scalable = a
		return
	}

	have, ok := c.variants[a.Size]
	if !ok {
		c.variants[a.Size] = a
		i := sort.SearchInts(c.sizes, a.Size)
		c.sizes = slices.Insert(c.sizes, i, a.Size)
		return
	}
	keep, drop := have, a
	if rankOf(a) < rankOf(have) {
		keep, drop = a, have
		c.variants[a.Size] = a
	}
	log.Debug("Duplicate image variant ignored", zap.String("kept", keep.Path), zap.String("dropped", drop.Path))
}

func rankOf(a *Asset) int {
	r, _ := rasterRank(a.ext)
	return r
}

// Index maps logical image names to catalogs. Directories are listed on
// first request and never again.
type Index struct {
	fsys fs.FS
	dir  string
	log  *zap.Logger

	// directory relative to images root -> catalogs of images it holds
	dirs common.LazyMap[string, map[string]*Catalog]
}

type IndexOption func(*Index)

// WithDir sets directory inside bundle holding images.
func WithDir(dir string) IndexOption {
	return func(x *Index) {
		x.dir = dir
	}
}

func WithIndexLogger(log *zap.Logger) IndexOption {
	return func(x *Index) {
		if log != nil {
			x.log = log
		}
	}
}

func NewIndex(fsys fs.FS, opts ...IndexOption) *Index {
	x := &Index{fsys: fsys, dir: DefaultDir, log: zap.NewNop()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Dir returns images directory inside bundle.
func (x *Index) Dir() string {
	return x.dir
}

func (x *Index) listDir(rel string) map[string]*Catalog {
	catalogs, _ := x.dirs.Get(rel, func() (map[string]*Catalog, error) {
		out := make(map[string]*Catalog)

		entries, err := fs.ReadDir(x.fsys, path.Join(x.dir, rel))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				x.log.Warn("Unable to list images", zap.String("dir", path.Join(x.dir, rel)), zap.Error(err))
			}
			return out, nil
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			fname := path.Join(rel, e.Name())
			p, reason := parseFileName(fname)
			if reason != "" {
				x.log.Debug("Image file skipped", zap.String("file", fname), zap.String("reason", reason))
				continue
			}
			c, ok := out[p.name]
			if !ok {
				c = &Catalog{Name: p.name, variants: make(map[int]*Asset)}
				out[p.name] = c
			}
			c.add(&Asset{
				Name:     p.name,
				Size:     p.size,
				Path:     path.Join(x.dir, fname),
				MimeType: mimeType(p.ext),
				Scalable: p.scalable,
				fsys:     x.fsys,
				ext:      p.ext,
			}, x.log)
		}
		return out, nil
	})
	return catalogs
}

// Catalog returns all variants known for logical name.
func (x *Index) Catalog(name string) (*Catalog, bool) {
	if name == "" || !fs.ValidPath(name) {
		return nil, false
	}
	dir := path.Dir(name)
	if dir == "." {
		dir = ""
	}
	c, ok := x.listDir(dir)[name]
	if !ok || c.empty() {
		return nil, false
	}
	return c, true
}

// SizesFor returns declared sizes of raster variants in ascending order.
func (x *Index) SizesFor(name string) []int {
	if c, ok := x.Catalog(name); ok {
		return c.Sizes()
	}
	return nil
}

// ContentAt returns raster variant with exactly declared size.
func (x *Index) ContentAt(name string, size int) (*Asset, bool) {
	if c, ok := x.Catalog(name); ok {
		return c.At(size)
	}
	return nil, false
}

// Scalable returns vector variant.
func (x *Index) Scalable(name string) (*Asset, bool) {
	if c, ok := x.Catalog(name); ok {
		return c.Scalable()
	}
	return nil, false
}

// Names walks images directory and returns all logical names in natural
// order.
func (x *Index) Names() ([]string, error) {
	var names []string
	err := fs.WalkDir(x.fsys, x.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, x.dir), "/")
		for name := range x.listDir(rel) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	sort.Sort(natural.StringSlice(names))
	return names, nil
}

// Assets returns every variant of every image, used by bundle checks.
func (x *Index) Assets() ([]*Asset, error) {
	names, err := x.Names()
	if err != nil {
		return nil, err
	}
	var out []*Asset
	for _, name := range names {
		c, _ := x.Catalog(name)
		for _, size := range c.sizes {
			out = append(out, c.variants[size])
		}
		if c.scalable != nil {
			out = append(out, c.scalable)
		}
	}
	return out, nil
}
