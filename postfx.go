package lumen

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/noise"
)

// Filter is one post-process step. Apply receives straight (not
// premultiplied) RGBA and returns a new image of the same size. Filters
// change color only; the frame's coverage is restored after the chain.
type Filter interface {
	Apply(src *image.RGBA) *image.RGBA
}

// filtersFor builds the post-process chain for the color and effects
// groups. Neutral settings contribute no filter, so a default state yields
// an empty chain.
func filtersFor(c ColorGrade, e Effects) []Filter {
	var out []Filter
	if c.Posterize >= minPosterize && c.Posterize < defaultPosterize {
		out = append(out, PosterizeFilter{Levels: c.Posterize})
	}
	if g := (GradeFilter{R: c.R, G: c.G, B: c.B, Hue: c.Hue, Sat: c.Sat, Light: c.Light}); !g.neutral() {
		out = append(out, g)
	}
	if e.EdgeDetect > 0 {
		out = append(out, EdgeFilter{Amount: e.EdgeDetect / 100})
	}
	if e.Invert > 0 {
		out = append(out, InvertFilter{Amount: e.Invert / 100})
	}
	if e.Solarize > 0 {
		out = append(out, SolarizeFilter{Amount: e.Solarize / 100})
	}
	if e.Shift > 0 {
		out = append(out, HueShiftFilter{Amount: e.Shift / 100})
	}
	if e.Blur > 0 {
		out = append(out, BlurFilter{Radius: e.Blur * 10})
	}
	if e.Bloom > 0 {
		out = append(out, BloomFilter{Intensity: e.Bloom})
	}
	if e.ChromaticAberration > 0 {
		out = append(out, ChromaticFilter{Amount: e.ChromaticAberration})
	}
	if e.Noise > 0 {
		out = append(out, NoiseFilter{Amount: e.Noise})
	}
	return out
}

// applyFilters runs the chain over the premultiplied frame img and writes
// the result back into it. An empty chain leaves img untouched.
func applyFilters(filters []Filter, img *image.RGBA) {
	if len(filters) == 0 {
		return
	}
	cur := unpremultiply(img)
	for _, f := range filters {
		cur = f.Apply(cur)
	}
	repremultiply(img, cur)
}

// unpremultiply returns a straight-alpha copy of img with a zero origin.
func unpremultiply(img *image.RGBA) *image.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			src := img.Pix[y*img.Stride : y*img.Stride+w*4]
			dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for i := 0; i < len(src); i += 4 {
				r, g, b := straight(src[i : i+4])
				dst[i], dst[i+1], dst[i+2], dst[i+3] = unit8(r/255), unit8(g/255), unit8(b/255), src[i+3]
			}
		}
	})
	return out
}

// repremultiply writes the straight colors of filtered back into dst,
// keeping dst's own alpha.
func repremultiply(dst, filtered *image.RGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			out := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
			src := filtered.Pix[y*filtered.Stride : y*filtered.Stride+w*4]
			for i := 0; i < len(out); i += 4 {
				a := uint32(out[i+3])
				out[i] = uint8((uint32(src[i])*a + 0x7f) / 0xff)
				out[i+1] = uint8((uint32(src[i+1])*a + 0x7f) / 0xff)
				out[i+2] = uint8((uint32(src[i+2])*a + 0x7f) / 0xff)
			}
		}
	})
}

// --- Color ---

// PosterizeFilter quantizes each channel to Levels steps.
type PosterizeFilter struct {
	Levels int
}

func (f PosterizeFilter) Apply(src *image.RGBA) *image.RGBA {
	steps := float64(max(f.Levels, 2) - 1)
	var lut [256]uint8
	for i := range lut {
		lut[i] = unit8(math.Round(float64(i)/255*steps) / steps)
	}
	return adjust.Apply(src, func(c color.RGBA) color.RGBA {
		return color.RGBA{lut[c.R], lut[c.G], lut[c.B], c.A}
	})
}

// GradeFilter applies per-channel gains, then hue, saturation and
// lightness. Gains and Light are multipliers around 1; Hue is a fraction
// of a full turn; Sat is a multiplier around 1.
type GradeFilter struct {
	R, G, B float64
	Hue     float64
	Sat     float64
	Light   float64
}

func (f GradeFilter) neutral() bool {
	return f.R == 1 && f.G == 1 && f.B == 1 && f.Hue == 0 && f.Sat == 1 && f.Light == 1
}

func (f GradeFilter) Apply(src *image.RGBA) *image.RGBA {
	out := src
	if f.R != 1 || f.G != 1 || f.B != 1 {
		out = adjust.Apply(out, func(c color.RGBA) color.RGBA {
			return color.RGBA{
				unit8(float64(c.R) / 255 * f.R),
				unit8(float64(c.G) / 255 * f.G),
				unit8(float64(c.B) / 255 * f.B),
				c.A,
			}
		})
	}
	if f.Hue != 0 {
		out = adjust.Hue(out, int(math.Round(f.Hue*180)))
	}
	if f.Sat != 1 {
		out = adjust.Saturation(out, f.Sat-1)
	}
	if f.Light != 1 {
		out = adjust.Brightness(out, clampF(f.Light-1, -1, 1))
	}
	return out
}

// InvertFilter mixes the negative in at Amount in [0, 1].
type InvertFilter struct {
	Amount float64
}

func (f InvertFilter) Apply(src *image.RGBA) *image.RGBA {
	return mix(src, effect.Invert(src), f.Amount)
}

// SolarizeFilter inverts channels above a threshold that falls from white
// to mid grey as Amount goes from 0 to 1.
type SolarizeFilter struct {
	Amount float64
}

func (f SolarizeFilter) Apply(src *image.RGBA) *image.RGBA {
	t := uint8(255 - clamp01(f.Amount)*127.5)
	sol := func(v uint8) uint8 {
		if v > t {
			return 255 - v
		}
		return v
	}
	return adjust.Apply(src, func(c color.RGBA) color.RGBA {
		return color.RGBA{sol(c.R), sol(c.G), sol(c.B), c.A}
	})
}

// HueShiftFilter rotates hue by Amount of a full turn.
type HueShiftFilter struct {
	Amount float64
}

func (f HueShiftFilter) Apply(src *image.RGBA) *image.RGBA {
	return adjust.Hue(src, int(math.Round(f.Amount*360)))
}

// --- Spatial ---

// EdgeFilter mixes a Sobel edge map in at Amount in [0, 1].
type EdgeFilter struct {
	Amount float64
}

func (f EdgeFilter) Apply(src *image.RGBA) *image.RGBA {
	return mix(src, effect.Sobel(src), f.Amount)
}

// BlurFilter is a gaussian blur with Radius in pixels.
type BlurFilter struct {
	Radius float64
}

func (f BlurFilter) Apply(src *image.RGBA) *image.RGBA {
	if f.Radius <= 0 {
		return src
	}
	return blur.Gaussian(src, f.Radius)
}

// bloomLumaFloor is the brightness above which pixels glow.
const bloomLumaFloor = 0.2 * 255

// BloomFilter adds a blurred bright pass back onto the image.
type BloomFilter struct {
	Intensity float64
}

func (f BloomFilter) Apply(src *image.RGBA) *image.RGBA {
	k := f.Intensity * 2
	bright := adjust.Apply(src, func(c color.RGBA) color.RGBA {
		l := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		if l <= bloomLumaFloor {
			return color.RGBA{A: c.A}
		}
		return color.RGBA{
			unit8(float64(c.R) / 255 * k),
			unit8(float64(c.G) / 255 * k),
			unit8(float64(c.B) / 255 * k),
			c.A,
		}
	})
	r := float64(min(src.Rect.Dx(), src.Rect.Dy())) / 64
	return blend.Add(src, blur.Gaussian(bright, math.Max(r, 2)))
}

// ChromaticFilter pulls the red channel right and the blue channel left by
// Amount percent of the width.
type ChromaticFilter struct {
	Amount float64
}

func (f ChromaticFilter) Apply(src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	off := int(math.Round(f.Amount * 0.01 * float64(w)))
	if off == 0 {
		return src
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for x := 0; x < w; x++ {
				i := x * 4
				rx := min(x+off, w-1) * 4
				bx := max(x-off, 0) * 4
				dst[i], dst[i+1], dst[i+2], dst[i+3] = row[rx], row[i+1], row[bx+2], row[i+3]
			}
		}
	})
	return out
}

// NoiseFilter overlays monochrome grain at Amount in [0, 1].
type NoiseFilter struct {
	Amount float64
}

func (f NoiseFilter) Apply(src *image.RGBA) *image.RGBA {
	grain := noise.Generate(src.Rect.Dx(), src.Rect.Dy(), &noise.Options{NoiseFn: noise.Uniform, Monochrome: true})
	return mix(src, blend.Overlay(src, grain), f.Amount)
}

// mix blends fg over bg at amount in [0, 1].
func mix(bg, fg *image.RGBA, amount float64) *image.RGBA {
	amount = clamp01(amount)
	if amount >= 1 {
		return fg
	}
	return blend.Opacity(bg, fg, amount)
}
