// Package locale loads per-locale resource tables from a bundle and builds
// ordered fallback chains for requested locales.
package locale

import (
	"sort"

	"github.com/maruel/natural"
)

// Table is an immutable mapping of hierarchical keys to raw templates for a
// single locale variant.
type Table struct {
	// ID is canonical BCP 47 tag of the table or the base table name.
	ID string
	// Source is path of the table inside the bundle.
	Source string
	values map[string]string
}

func newTable(id, source string, values map[string]string) *Table {
	return &Table{ID: id, Source: source, values: values}
}

// Get returns raw template for exact key.
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

func (t *Table) Len() int {
	return len(t.values)
}

// Keys returns all keys of the table in natural order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

// Chain is an ordered list of tables searched for a locale, from the most
// specific to the base table which is always last.
type Chain struct {
	tables []*Table
}

// Lookup returns value from the first table which defines key. Tables are
// never merged: a table either defines the key or is skipped.
func (c *Chain) Lookup(key string) (string, *Table, bool) {
	for _, t := range c.tables {
		if v, ok := t.Get(key); ok {
			return v, t, true
		}
	}
	return "", nil, false
}

// Tables returns tables in search order.
func (c *Chain) Tables() []*Table {
	out := make([]*Table, len(c.tables))
	copy(out, c.tables)
	return out
}

// IDs returns table identifiers in search order.
func (c *Chain) IDs() []string {
	out := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t.ID)
	}
	return out
}

// Keys returns union of keys visible through the chain in natural order.
func (c *Chain) Keys() []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, t := range c.tables {
		for k := range t.values {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}
