package lumen

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// feedbackStage blends the previous output under the current frame. It
// owns the back buffer, which always matches the output size.
type feedbackStage struct {
	back *Buffer
}

// resize matches the back buffer to w×h. A size change discards the trail.
func (f *feedbackStage) resize(w, h int) {
	if f.back == nil {
		f.back = NewBuffer(w, h)
		return
	}
	if f.back.Resize(w, h) {
		Logger().Debug("feedback buffer resized", "width", w, "height", h,
			"generation", f.back.Generation())
	}
}

// composite writes bg, then the back buffer at amount/100 opacity, then
// final over the top into out, and keeps out as the next frame's back
// buffer. amount is a percentage; zero skips the blend.
func (f *feedbackStage) composite(out, final *image.RGBA, amount float64, bg color.RGBA) {
	f.resize(out.Rect.Dx(), out.Rect.Dy())
	fillRGBA(out, bg)
	if amount > 0 {
		a := uint16(clamp01(amount/100)*0xffff + 0.5)
		mask := image.NewUniform(color.Alpha16{A: a})
		draw.DrawMask(out, out.Rect, f.back.img, image.Point{}, mask, image.Point{}, draw.Over)
	}
	draw.Draw(out, out.Rect, final, final.Rect.Min, draw.Over)
	f.back.CopyFrom(out)
}

// generation reports the back buffer's generation, or 0 before the first
// composite.
func (f *feedbackStage) generation() uint64 {
	if f.back == nil {
		return 0
	}
	return f.back.Generation()
}
