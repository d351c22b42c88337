package provider

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

type treeWriter struct {
	w strings.Builder
}

func (tw *treeWriter) Line(depth int, format string, args ...any) {
	tw.w.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw *treeWriter) String() string {
	return tw.w.String()
}

// Dump returns readable tree of bundle content as seen for tag: locale
// tables, chain with raw templates and image catalogs. It exists for
// troubleshooting and goes into debug report.
func (p *Provider) Dump(tag language.Tag) string {
	tw := &treeWriter{}

	locales := p.store.Locales()
	tw.Line(0, "Locale tables: %d", len(locales))
	for _, id := range locales {
		t, err := p.store.Table(id)
		if err != nil {
			tw.Line(1, "Table[%q] error: %v", id, err)
			continue
		}
		tw.Line(1, "Table[%q] source[%q] keys[%d]", id, t.Source, t.Len())
	}

	chain, err := p.store.ChainFor(tag)
	if err != nil {
		tw.Line(0, "Chain[%s] error: %v", tag, err)
	} else {
		tw.Line(0, "Chain[%s]: %s", tag, strings.Join(chain.IDs(), " -> "))
		for i, t := range chain.Tables() {
			tw.Line(1, "Step[%d] table[%q] source[%q]", i, t.ID, t.Source)
		}
		for _, key := range chain.Keys() {
			value, t, _ := chain.Lookup(key)
			tw.Line(1, "Key[%q] table[%q]: %s", key, t.ID, strconv.Quote(value))
		}
	}

	names, err := p.index.Names()
	if err != nil {
		tw.Line(0, "Images error: %v", err)
		return tw.String()
	}
	tw.Line(0, "Images[%q]: %d (placeholder %q)", p.index.Dir(), len(names), p.cfg.Placeholder)
	for _, name := range names {
		c, ok := p.index.Catalog(name)
		if !ok {
			continue
		}
		tw.Line(1, "Image[%q] sizes%v", name, c.Sizes())
		for _, size := range c.Sizes() {
			a, _ := c.At(size)
			tw.Line(2, "Variant[%d] mime[%q] path[%q]", size, a.MimeType, a.Path)
		}
		if a, ok := c.Scalable(); ok {
			tw.Line(2, "Scalable mime[%q] path[%q]", a.MimeType, a.Path)
		}
	}
	return tw.String()
}
