// Package images indexes image resources of a bundle by logical name and
// size and resolves requests with floor size matching.
package images

import (
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
)

const DefaultDir = "images"

// rasterExts lists supported raster formats in order of preference used when
// several files declare the same name and size.
var rasterExts = []string{"png", "gif", "jpg", "jpeg", "bmp", "webp", "tif", "tiff", "ico"}

const svgExt = "svg"

func rasterRank(ext string) (int, bool) {
	for i, e := range rasterExts {
		if e == ext {
			return i, true
		}
	}
	return 0, false
}

// mimeType returns content type for file extension.
func mimeType(ext string) string {
	lookup := ext
	switch ext {
	case "jpeg":
		lookup = "jpg"
	case "tiff":
		lookup = "tif"
	}
	if t := filetype.GetType(lookup); t != filetype.Unknown && t.MIME.Value != "" {
		return t.MIME.Value
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Asset is a single image file of the bundle.
type Asset struct {
	// Name is logical name shared by all variants.
	Name string
	// Size is declared size, 0 for unsized and scalable variants.
	Size     int
	Path     string
	MimeType string
	Scalable bool

	fsys fs.FS
	ext  string
}

// Open returns fresh stream with asset content, caller must close it.
func (a *Asset) Open() (io.ReadCloser, error) {
	f, err := a.fsys.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open image %s: %w", a.Path, err)
	}
	return f, nil
}

// ReadAll returns asset content.
func (a *Asset) ReadAll() ([]byte, error) {
	data, err := fs.ReadFile(a.fsys, a.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to read image %s: %w", a.Path, err)
	}
	return data, nil
}

func (a *Asset) String() string {
	return a.Path
}

// parsedName is file name split according to naming convention:
// name.ext, name@size.ext or name.svg.
type parsedName struct {
	name     string
	size     int
	ext      string
	scalable bool
}

// parseFileName splits file name relative to images directory. When file
// does not describe usable variant reason is returned.
func parseFileName(rel string) (parsedName, string) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(rel), "."))
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(stem) == "" || strings.HasPrefix(path.Base(stem), ".") {
		return parsedName{}, "hidden or nameless file"
	}

	if ext == svgExt {
		if i := strings.LastIndexByte(stem, '@'); i >= 0 {
			if _, err := strconv.Atoi(stem[i+1:]); err == nil {
				return parsedName{}, "scalable image cannot declare size"
			}
		}
		return parsedName{name: stem, ext: ext, scalable: true}, ""
	}
	if _, ok := rasterRank(ext); !ok {
		return parsedName{}, "unsupported image format"
	}

	p := parsedName{name: stem, ext: ext}
	if i := strings.LastIndexByte(stem, '@'); i >= 0 {
		size, err := strconv.Atoi(stem[i+1:])
		if err == nil {
			if size <= 0 {
				return parsedName{}, "image size must be positive"
			}
			p.name, p.size = stem[:i], size
		}
	}
	if p.name == "" || strings.HasSuffix(p.name, "/") {
		return parsedName{}, "empty image name"
	}
	return p, ""
}
