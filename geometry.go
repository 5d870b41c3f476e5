package lumen

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Kernel selects the resampling filter used when the source is
// transformed into the viewport.
type Kernel uint8

const (
	KernelNearest    Kernel = iota // blocky, fastest
	KernelBilinear                 // smooth, the default for hosts
	KernelCatmullRom               // sharpest; radial wedges fall back to bilinear
)

var kernelNames = [...]string{"nearest", "bilinear", "catmullrom"}

func (k Kernel) String() string {
	if int(k) < len(kernelNames) {
		return kernelNames[k]
	}
	return fmt.Sprintf("Kernel(%d)", k)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kernel) MarshalText() ([]byte, error) { return marshalEnum(k.String(), int(k), len(kernelNames)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kernel) UnmarshalText(b []byte) error {
	i, err := parseEnum("kernel", string(b), kernelNames[:])
	*k = Kernel(i)
	return err
}

func (k Kernel) interpolator() draw.Interpolator {
	switch k {
	case KernelBilinear:
		return draw.ApproxBiLinear
	case KernelCatmullRom:
		return draw.CatmullRom
	case KernelNearest:
	}
	return draw.NearestNeighbor
}

// geometryStage renders the frozen and active buffers. It owns the
// memoized tiling cell.
type geometryStage struct {
	kernel Kernel
	cell   tileCell
}

// render fills frozen with the affine-only placement of src and active with
// the placement plus symmetry and tiling, both on a transparent raster so
// the feedback trail shows around the geometry. A missing source leaves
// both buffers as a flat bg fill.
func (g *geometryStage) render(active, frozen *image.RGBA, src *Source, p ParameterState, bg color.RGBA) {
	if src.empty() {
		fillRGBA(frozen, bg)
		fillRGBA(active, bg)
		return
	}
	clear(frozen.Pix)
	clear(active.Pix)

	w, h := frozen.Rect.Dx(), frozen.Rect.Dy()
	sw, sh := src.Size()
	cx, cy := float64(w)/2, float64(h)/2
	g.drawAffine(frozen, src.img, placement(p.Transform, cx, cy, sw, sh))

	if p.Tiling.Type == TilingNone {
		g.drawActive(active, src.img, p.Transform, p.Symmetry)
		return
	}
	cell := g.cell.get(g, src, w, h, p)
	stampTiles(active, cell, p.Tiling, g.kernel)
}

// drawAffine composites src over dst through the source-to-dst matrix m.
// The drawn area is clipped to dst's bounds.
func (g *geometryStage) drawAffine(dst *image.RGBA, src *image.RGBA, m [6]float64) {
	g.kernel.interpolator().Transform(dst, toAff3(m), src, src.Rect, draw.Over, nil)
}

// drawActive draws the transformed source with the symmetry group applied.
// Slice counts are forced even at draw time.
func (g *geometryStage) drawActive(dst, src *image.RGBA, tr Transform, sym Symmetry) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	m := placement(tr, cx, cy, src.Rect.Dx(), src.Rect.Dy())

	if !sym.Enabled {
		g.drawAffine(dst, src, m)
		return
	}
	switch sym.Type {
	case SymmetryRadial:
		drawRadial(dst, src, tr, evenSlices(sym.Slices), sym.Offset, g.kernel)
	case SymmetryMirrorX:
		split := (w + 1) / 2
		left := dst.SubImage(image.Rect(0, 0, split, h)).(*image.RGBA)
		right := dst.SubImage(image.Rect(split, 0, w, h)).(*image.RGBA)
		g.drawAffine(left, src, m)
		g.drawAffine(right, src, chain(translation(cx, 0), scaling(-1, 1), translation(-cx, 0), m))
	case SymmetryMirrorY:
		split := (h + 1) / 2
		top := dst.SubImage(image.Rect(0, 0, w, split)).(*image.RGBA)
		bottom := dst.SubImage(image.Rect(0, split, w, h)).(*image.RGBA)
		g.drawAffine(top, src, m)
		g.drawAffine(bottom, src, chain(translation(0, cy), scaling(1, -1), translation(0, -cy), m))
	}
}

// drawRadial fills dst with slices equal wedges around its center. Wedge i
// spans [i·a - a/2, i·a + a/2] with a = 2π/slices, the fan rotated by
// offset·a. Each wedge shows the placed source rotated by i·a, mirrored
// vertically on odd wedges so neighbors meet seamlessly.
//
// dst must have a zero origin. Every destination pixel resolves its wedge
// from its angle and samples the source once through that wedge's inverse
// matrix, so wedges never overlap or leave gaps.
func drawRadial(dst, src *image.RGBA, tr Transform, slices int, offset float64, k Kernel) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	a := 2 * math.Pi / float64(slices)
	phase := offset * a

	// Source placement about the origin; wedges add the center and their
	// own rotation and flip.
	base := placement(tr, 0, 0, src.Rect.Dx(), src.Rect.Dy())
	inv := make([][6]float64, slices)
	for i := range inv {
		flip := identityTransform
		if i%2 != 0 {
			flip = scaling(1, -1)
		}
		wedge := chain(translation(cx, cy), rotation(float64(i)*a+phase), flip, base)
		inv[i] = invertAffine(wedge)
	}

	sample := sampleBilinear
	if k == KernelNearest {
		sample = sampleNearest
	}
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			py := float64(y) + 0.5
			row := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				px := float64(x) + 0.5
				theta := math.Atan2(py-cy, px-cx) - phase
				i := int(math.Round(theta/a)) % slices
				if i < 0 {
					i += slices
				}
				sx, sy := transformPoint(inv[i], px, py)
				r, g, b, al := sample(src, sx, sy)
				if al == 0 {
					continue
				}
				overPremul(row[x*4:x*4+4], r, g, b, al)
			}
		}
	})
}

// overPremul composites a premultiplied color onto the 4-byte pixel p.
func overPremul(p []uint8, r, g, b, a uint32) {
	if a >= 0xff {
		p[0], p[1], p[2], p[3] = uint8(r), uint8(g), uint8(b), 0xff
		return
	}
	inv := 0xff - a
	p[0] = uint8(min(r+(uint32(p[0])*inv+0x7f)/0xff, 0xff))
	p[1] = uint8(min(g+(uint32(p[1])*inv+0x7f)/0xff, 0xff))
	p[2] = uint8(min(b+(uint32(p[2])*inv+0x7f)/0xff, 0xff))
	p[3] = uint8(min(a+(uint32(p[3])*inv+0x7f)/0xff, 0xff))
}

// sampleNearest returns the premultiplied pixel containing (x, y), or
// transparent outside the raster.
func sampleNearest(img *image.RGBA, x, y float64) (r, g, b, a uint32) {
	ix, iy := int(math.Floor(x)), int(math.Floor(y))
	if ix < 0 || iy < 0 || ix >= img.Rect.Dx() || iy >= img.Rect.Dy() {
		return 0, 0, 0, 0
	}
	i := iy*img.Stride + ix*4
	p := img.Pix[i : i+4 : i+4]
	return uint32(p[0]), uint32(p[1]), uint32(p[2]), uint32(p[3])
}

// sampleBilinear blends the four pixels around (x, y). Pixels outside the
// raster count as transparent, so edges fade over one pixel.
func sampleBilinear(img *image.RGBA, x, y float64) (r, g, b, a uint32) {
	x -= 0.5
	y -= 0.5
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if ix < -1 || iy < -1 || ix >= w || iy >= h {
		return 0, 0, 0, 0
	}

	var acc [4]float64
	add := func(px, py int, wt float64) {
		if wt == 0 || px < 0 || py < 0 || px >= w || py >= h {
			return
		}
		i := py*img.Stride + px*4
		acc[0] += float64(img.Pix[i]) * wt
		acc[1] += float64(img.Pix[i+1]) * wt
		acc[2] += float64(img.Pix[i+2]) * wt
		acc[3] += float64(img.Pix[i+3]) * wt
	}
	add(ix, iy, (1-fx)*(1-fy))
	add(ix+1, iy, fx*(1-fy))
	add(ix, iy+1, (1-fx)*fy)
	add(ix+1, iy+1, fx*fy)
	return uint32(acc[0] + 0.5), uint32(acc[1] + 0.5), uint32(acc[2] + 0.5), uint32(acc[3] + 0.5)
}
