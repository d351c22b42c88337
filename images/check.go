package images

import (
	"bytes"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/multierr"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Verify reads asset and makes sure its content matches declaration:
// raster data sniffs as declared format and decodes, sized variant has
// matching larger dimension, vector data parses and renders.
func (a *Asset) Verify() error {
	data, err := a.ReadAll()
	if err != nil {
		return err
	}

	if a.Scalable {
		if _, err := Rasterize(data, 0); err != nil {
			return fmt.Errorf("image %s: unable to render: %w", a.Path, err)
		}
		return nil
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return fmt.Errorf("image %s: unrecognized content", a.Path)
	}
	if kind.MIME.Value != a.MimeType {
		return fmt.Errorf("image %s: content is %s, declared %s", a.Path, kind.MIME.Value, a.MimeType)
	}
	if a.ext == "ico" {
		// no decoder for icons
		return nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("image %s: unable to decode: %w", a.Path, err)
	}
	if a.Size > 0 {
		b := img.Bounds()
		if dim := max(b.Dx(), b.Dy()); dim != a.Size {
			return fmt.Errorf("image %s: declared size %d, actual %dx%d", a.Path, a.Size, b.Dx(), b.Dy())
		}
	}
	return nil
}

// Check verifies every asset in the index.
func (x *Index) Check() error {
	assets, err := x.Assets()
	if err != nil {
		return fmt.Errorf("unable to list images: %w", err)
	}
	var errs error
	for _, a := range assets {
		errs = multierr.Append(errs, a.Verify())
	}
	return errs
}
