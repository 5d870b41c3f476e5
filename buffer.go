package lumen

import (
	"image"
	"image/color"
	"image/draw"
)

// Buffer is a persistent offscreen raster owned by a Pipeline. Its pixels
// are premultiplied RGBA. Resizing discards the contents and bumps the
// generation so holders of derived data can tell the raster was replaced.
type Buffer struct {
	img *image.RGBA
	gen uint64
}

// NewBuffer creates a cleared buffer of the given size.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{img: image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1))), gen: 1}
}

// Image returns the underlying raster for direct manipulation.
func (b *Buffer) Image() *image.RGBA { return b.img }

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Generation increases every time the buffer is reallocated.
func (b *Buffer) Generation() uint64 { return b.gen }

// Resize reallocates the buffer when the size differs. It reports whether
// a reallocation happened; the new contents are transparent black.
func (b *Buffer) Resize(w, h int) bool {
	w, h = max(w, 1), max(h, 1)
	if b.Width() == w && b.Height() == h {
		return false
	}
	b.img = image.NewRGBA(image.Rect(0, 0, w, h))
	b.gen++
	return true
}

// Clear fills the buffer with transparent black.
func (b *Buffer) Clear() {
	clear(b.img.Pix)
}

// Fill fills the entire buffer with c.
func (b *Buffer) Fill(c color.RGBA) {
	fillRGBA(b.img, c)
}

// CopyFrom copies src into b. Sizes must match; the overlapping region is
// copied otherwise.
func (b *Buffer) CopyFrom(src *image.RGBA) {
	if len(src.Pix) == len(b.img.Pix) && src.Stride == b.img.Stride {
		copy(b.img.Pix, src.Pix)
		return
	}
	draw.Draw(b.img, b.img.Rect, src, src.Rect.Min, draw.Src)
}

func fillRGBA(img *image.RGBA, c color.RGBA) {
	if len(img.Pix) < 4 {
		return
	}
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = c.R, c.G, c.B, c.A
	for filled := 4; filled < len(img.Pix); filled *= 2 {
		copy(img.Pix[filled:], img.Pix[:filled])
	}
}

// --- Scratch arena ---

// arena manages reusable scratch rasters keyed by exact dimensions. After
// warmup, acquire/release are allocation free.
type arena struct {
	buckets map[uint64][]*image.RGBA
}

func arenaKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// acquire returns a cleared raster of exactly w×h pixels.
func (a *arena) acquire(w, h int) *image.RGBA {
	key := arenaKey(w, h)
	if a.buckets != nil {
		if stack := a.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			a.buckets[key] = stack[:len(stack)-1]
			clear(img.Pix)
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// release returns a raster for reuse. It is cleared on the next acquire.
func (a *arena) release(img *image.RGBA) {
	if img == nil {
		return
	}
	if a.buckets == nil {
		a.buckets = make(map[uint64][]*image.RGBA)
	}
	key := arenaKey(img.Rect.Dx(), img.Rect.Dy())
	a.buckets[key] = append(a.buckets[key], img)
}

// reset drops every pooled raster, as after a resolution change.
func (a *arena) reset() {
	a.buckets = nil
}
