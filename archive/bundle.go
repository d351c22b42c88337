// Package archive opens resource bundles: plain directories or zip archives,
// optionally with a path inside the archive.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns file system view of the bundle located at name. Following
// forms are supported:
//
//	path/to/directory
//	path/to/archive.zip
//	path/to/archive.zip/path/inside/archive
//
// Returned closer must be called when bundle is no longer needed.
func Open(name string) (fs.FS, io.Closer, error) {
	name = filepath.Clean(name)

	info, err := os.Stat(name)
	if err == nil {
		if info.IsDir() {
			return os.DirFS(name), nopCloser{}, nil
		}
		return openZip(name, "")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, err
	}

	// look for archive somewhere up the path, the rest is path inside archive
	for arc := filepath.Dir(name); arc != filepath.Dir(arc); arc = filepath.Dir(arc) {
		info, err := os.Stat(arc)
		if err != nil {
			continue
		}
		if info.IsDir() {
			break
		}
		rel, err := filepath.Rel(arc, name)
		if err != nil {
			return nil, nil, err
		}
		return openZip(arc, filepath.ToSlash(rel))
	}
	return nil, nil, fmt.Errorf("bundle %q: %w", name, fs.ErrNotExist)
}

func openZip(name, inner string) (fs.FS, io.Closer, error) {
	r, err := zip.OpenReader(name)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open bundle archive %q: %w", name, err)
	}
	for _, f := range r.File {
		if !isSafePath(f.Name) {
			r.Close()
			return nil, nil, fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
	}
	if len(inner) == 0 {
		return r, r, nil
	}

	inner = path.Clean(inner)
	if !fs.ValidPath(inner) {
		r.Close()
		return nil, nil, fmt.Errorf("invalid path inside archive %q: %s", name, inner)
	}
	if info, err := fs.Stat(r, inner); err != nil || !info.IsDir() {
		r.Close()
		return nil, nil, fmt.Errorf("bundle %q is not a directory inside archive %q: %w", inner, name, fs.ErrNotExist)
	}
	sub, err := fs.Sub(r, inner)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return sub, r, nil
}

// isSafePath returns false for paths that could escape the bundle root:
// absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
