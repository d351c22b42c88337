package locale

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"rsrc/common"
)

const (
	DefaultDir      = "strings"
	DefaultBaseName = "default"
)

// Store knows which locale tables a bundle provides, loads them on first
// use and caches loaded tables and chains for its lifetime.
type Store struct {
	fsys     fs.FS
	dir      string
	baseName string
	log      *zap.Logger

	// table id -> path inside bundle, fixed after construction
	files map[string]string

	tables common.LazyMap[string, *Table]
	chains common.LazyMap[string, *Chain]
}

type Option func(*Store)

// WithDir sets directory inside bundle holding locale tables.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = dir
	}
}

// WithBaseName sets file stem of the base table.
func WithBaseName(name string) Option {
	return func(s *Store) {
		s.baseName = name
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore scans bundle for locale tables. Tables themselves are not loaded
// until requested. Absence of base table is a configuration error.
func NewStore(fsys fs.FS, opts ...Option) (*Store, error) {
	s := &Store{
		fsys:     fsys,
		dir:      DefaultDir,
		baseName: DefaultBaseName,
		log:      zap.NewNop(),
		files:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	entries, err := fs.ReadDir(fsys, s.dir)
	if err != nil {
		return nil, &common.ConfigurationError{What: "locale tables directory " + s.dir, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if _, ok := decoderFor(name); !ok {
			s.log.Debug("Skipping file with unknown table format", zap.String("file", name))
			continue
		}
		id, ok := s.tableID(strings.TrimSuffix(name, path.Ext(name)))
		if !ok {
			s.log.Warn("Skipping table with unrecognized locale name", zap.String("file", name))
			continue
		}
		if prev, exists := s.files[id]; exists {
			return nil, fmt.Errorf("locale %q is defined twice: %s and %s", id, prev, name)
		}
		s.files[id] = path.Join(s.dir, name)
	}

	if _, ok := s.files[s.baseName]; !ok {
		return nil, &common.ConfigurationError{
			What: "base locale table " + path.Join(s.dir, s.baseName) + ".*",
			Err:  fs.ErrNotExist,
		}
	}
	return s, nil
}

// tableID maps file stem to table identifier: base name as is, otherwise
// canonical form of the locale tag.
func (s *Store) tableID(stem string) (string, bool) {
	if stem == s.baseName {
		return stem, true
	}
	tag, err := language.Parse(strings.ReplaceAll(stem, "_", "-"))
	if err != nil || tag == language.Und {
		return "", false
	}
	return tag.String(), true
}

// BaseName returns identifier of the base table.
func (s *Store) BaseName() string {
	return s.baseName
}

// Locales returns identifiers of all tables present in the bundle, base
// table included.
func (s *Store) Locales() []string {
	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Table returns loaded table by its identifier.
func (s *Store) Table(id string) (*Table, error) {
	source, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("locale table %q: %w", id, fs.ErrNotExist)
	}
	return s.tables.Get(id, func() (*Table, error) {
		dec, _ := decoderFor(source)
		data, err := fs.ReadFile(s.fsys, source)
		if err != nil {
			return nil, fmt.Errorf("unable to read locale table %s: %w", source, err)
		}
		values, err := dec(data)
		if err != nil {
			return nil, fmt.Errorf("unable to decode locale table %s: %w", source, err)
		}
		s.log.Debug("Locale table loaded", zap.String("id", id), zap.String("source", source), zap.Int("keys", len(values)))
		return newTable(id, source, values), nil
	})
}

// chainIDs lists candidate table identifiers for tag from the most specific
// one: full tag, language+region, language only.
func chainIDs(tag language.Tag) []string {
	ids := make([]string, 0, 3)
	add := func(id string) {
		for _, have := range ids {
			if have == id {
				return
			}
		}
		ids = append(ids, id)
	}

	if tag == language.Und {
		return ids
	}
	add(tag.String())

	base, conf := tag.Base()
	if conf == language.No {
		return ids
	}
	if region, conf := tag.Region(); conf == language.Exact {
		if t, err := language.Compose(base, region); err == nil {
			add(t.String())
		}
	}
	add(base.String())
	return ids
}

// ChainFor returns cached fallback chain for tag. Only tables present in the
// bundle take part, base table is always last. Locale table which cannot be
// loaded is left out of the chain, only unusable base table is an error.
func (s *Store) ChainFor(tag language.Tag) (*Chain, error) {
	return s.chains.Get(tag.String(), func() (*Chain, error) {
		c := &Chain{}
		for _, id := range chainIDs(tag) {
			if _, ok := s.files[id]; !ok || id == s.baseName {
				continue
			}
			t, err := s.Table(id)
			if err != nil {
				s.log.Warn("Locale table skipped", zap.Stringer("locale", tag), zap.String("id", id), zap.Error(err))
				continue
			}
			c.tables = append(c.tables, t)
		}
		base, err := s.Table(s.baseName)
		if err != nil {
			return nil, &common.ConfigurationError{What: "base locale table", Err: err}
		}
		c.tables = append(c.tables, base)
		s.log.Debug("Locale chain built", zap.Stringer("locale", tag), zap.Strings("tables", c.IDs()))
		return c, nil
	})
}
