package lumen

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	// Still-image decoders. image.Decode dispatches on the registered
	// formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source is the raster the geometry stage samples. A still image is loaded
// once; a video host calls SetImage for each delivered frame. Version
// increases on every change so memoized stages can tell frames apart.
type Source struct {
	img     *image.RGBA
	version uint64
}

// NewSource copies img into a new premultiplied RGBA source.
func NewSource(img image.Image) *Source {
	s := &Source{}
	s.SetImage(img)
	return s
}

// SetImage replaces the source pixels. The backing raster is reused when
// the size is unchanged.
func (s *Source) SetImage(img image.Image) {
	b := img.Bounds()
	if s.img == nil || s.img.Rect.Dx() != b.Dx() || s.img.Rect.Dy() != b.Dy() {
		s.img = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(s.img, s.img.Rect, img, b.Min, draw.Src)
	s.version++
}

// touch marks the pixels as changed after an in-place write.
func (s *Source) touch() { s.version++ }

// Image returns the source raster. Callers must not modify it.
func (s *Source) Image() *image.RGBA { return s.img }

// Version returns the change counter.
func (s *Source) Version() uint64 { return s.version }

// Size returns the raster dimensions.
func (s *Source) Size() (w, h int) { return s.img.Rect.Dx(), s.img.Rect.Dy() }

// empty reports whether s has no usable pixels. A nil Source is empty.
func (s *Source) empty() bool {
	return s == nil || s.img == nil || s.img.Rect.Empty()
}

// LoadSource decodes a still image (PNG, JPEG, GIF, BMP, TIFF or WebP).
func LoadSource(r io.Reader) (*Source, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	Logger().Debug("source decoded", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return NewSource(img), nil
}

// LoadSourceFile opens and decodes the image at path.
func LoadSourceFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return LoadSource(f)
}
