package lumen

import (
	"image"
	"math"
)

// remapActive reports whether the remap stage has any work for p. When it
// returns false the active buffer is used unchanged.
func remapActive(p ParameterState) bool {
	return p.Warp.Type != WarpNone ||
		p.Displacement.Amp > 0 ||
		p.Masking.CenterRadius > 0 ||
		p.Masking.LumaThreshold > 0
}

// remap writes one opaque pixel per destination position into dst. Pixels
// inside the center radius, or on the frozen side of the luma threshold,
// copy frozen. All others sample active at a position moved by the warp
// and then the displacement field, wrapping at the edges. All three
// rasters must share dst's size and have a zero origin.
func remap(dst, active, frozen *image.RGBA, p ParameterState) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	cx, cy := float64(w)/2, float64(h)/2

	radius := p.Masking.CenterRadius / 100 * float64(min(w, h)) / 2
	radiusSq := radius * radius
	useRadius := p.Masking.CenterRadius > 0
	lumaThresh := p.Masking.LumaThreshold * 2.55
	useLuma := p.Masking.LumaThreshold > 0
	invert := p.Masking.InvertLuma

	warp := p.Warp.Type
	amp := p.Displacement.Amp
	freq := p.Displacement.Freq * 0.01
	fw, fh := float64(w), float64(h)

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			out := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
			orig := frozen.Pix[y*frozen.Stride : y*frozen.Stride+w*4]
			fy := float64(y)
			for x := 0; x < w; x++ {
				i := x * 4
				fx := float64(x)

				frozenPx := false
				if useRadius {
					dx, dy := fx-cx, fy-cy
					frozenPx = dx*dx+dy*dy < radiusSq
				}
				if !frozenPx && useLuma {
					r, g, b := straight(orig[i : i+4])
					luma := 0.299*r + 0.587*g + 0.114*b
					if invert {
						frozenPx = luma < lumaThresh
					} else {
						frozenPx = luma > lumaThresh
					}
				}
				if frozenPx {
					writeOpaque(out[i:i+4], orig[i:i+4])
					continue
				}

				u, v := fx, fy
				if warp != WarpNone {
					u, v = warpPoint(warp, fx, fy, cx, cy, fw, fh)
				}
				if amp > 0 {
					u += math.Sin(v*freq) * amp
					v += math.Cos(u*freq) * amp
				}

				sx, okx := wrapIndex(u, w)
				sy, oky := wrapIndex(v, h)
				if !okx || !oky {
					out[i], out[i+1], out[i+2], out[i+3] = 0, 0, 0, 0
					continue
				}
				j := sy*active.Stride + sx*4
				writeOpaque(out[i:i+4], active.Pix[j:j+4])
			}
		}
	})
}

// warpPoint maps a destination pixel to its sampling position. Polar maps
// angle to x and radius to y; log-polar maps angle to x and the fractional
// part of half the log radius to y. The center pixel of log-polar keeps
// its own position.
func warpPoint(t WarpType, x, y, cx, cy, w, h float64) (float64, float64) {
	nx, ny := (x-cx)/cx, (y-cy)/cy
	r := math.Sqrt(nx*nx + ny*ny)
	theta := math.Atan2(ny, nx)
	switch t {
	case WarpPolar:
		return (theta + math.Pi) / (2 * math.Pi) * w, r * h
	case WarpLogPolar:
		if r <= 0 {
			return x, y
		}
		u := (theta/math.Pi*0.5 + 0.5) * w
		v := math.Mod(math.Log(r)*0.5, 1) * h
		if v < 0 {
			v += h
		}
		return u, v
	case WarpNone:
	}
	return x, y
}

// wrapIndex floors v and wraps it into [0, n). It reports false for values
// that cannot index, such as NaN or infinities.
func wrapIndex(v float64, n int) (int, bool) {
	f := math.Floor(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	i := int(math.Mod(f, float64(n)))
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// straight returns the un-premultiplied color channels of p in [0, 255].
func straight(p []uint8) (r, g, b float64) {
	a := float64(p[3])
	if a == 0 {
		return 0, 0, 0
	}
	if a == 255 {
		return float64(p[0]), float64(p[1]), float64(p[2])
	}
	k := 255 / a
	return float64(p[0]) * k, float64(p[1]) * k, float64(p[2]) * k
}

// writeOpaque stores the un-premultiplied color of src into dst with full
// alpha.
func writeOpaque(dst, src []uint8) {
	if src[3] == 255 {
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
		return
	}
	r, g, b := straight(src)
	dst[0], dst[1], dst[2], dst[3] = unit8(r/255), unit8(g/255), unit8(b/255), 255
}
