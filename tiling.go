package lumen

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Tile orientation bits, one set per stamped tile.
const (
	tileFlipH  uint8 = 1 << 0 // mirror about the tile's vertical axis
	tileFlipV  uint8 = 1 << 1 // mirror about the tile's horizontal axis
	tileRot180 uint8 = 1 << 2 // half turn about the tile center
)

// minTileSize keeps tiny tiling scales from producing an unbounded number
// of draws.
const minTileSize = 8.0

// tileFlags returns the orientation of the tile at (row, col) for a
// wallpaper group. Rows and columns start at -1, so parity is tested with
// a non-zero remainder.
func tileFlags(t TilingType, row, col int) uint8 {
	switch t {
	case TilingP2:
		if (row+col)%2 != 0 {
			return tileRot180
		}
	case TilingP4M:
		var f uint8
		if col%2 != 0 {
			f |= tileFlipH
		}
		if row%2 != 0 {
			f |= tileFlipV
		}
		return f
	case TilingNone, TilingP1:
	}
	return 0
}

// orientation returns the matrix for flags about the origin.
func orientation(flags uint8) [6]float64 {
	m := identityTransform
	if flags&tileRot180 != 0 {
		m = multiplyAffine(m, rotation(math.Pi))
	}
	if flags&tileFlipH != 0 {
		m = multiplyAffine(m, scaling(-1, 1))
	}
	if flags&tileFlipV != 0 {
		m = multiplyAffine(m, scaling(1, -1))
	}
	return m
}

// tileMatrix maps the viewport-sized cell into the tile at (row, col).
func tileMatrix(t Tiling, row, col int, w, h int, ts float64) [6]float64 {
	m := float64(min(w, h))
	ov := 1 + t.Overlap
	return chain(
		translation(float64(col)*ts+ts/2, float64(row)*ts+ts/2),
		orientation(tileFlags(t.Type, row, col)),
		scaling(ov, ov),
		scaling(ts/m, ts/m),
		translation(-float64(w)/2, -float64(h)/2),
	)
}

// stampTiles draws cell across dst in the grid described by t. The grid
// starts one tile above and left of the viewport and runs one tile past
// the far edges so rotated and overlapping tiles cover the borders.
func stampTiles(dst, cell *image.RGBA, t Tiling, k Kernel) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	ts := math.Max(float64(min(w, h))*t.Scale, minTileSize)
	cols := int(math.Ceil(float64(w)/ts)) + 2
	rows := int(math.Ceil(float64(h)/ts)) + 2
	interp := k.interpolator()

	for row := -1; row < rows; row++ {
		for col := -1; col < cols; col++ {
			m := tileMatrix(t, row, col, cell.Rect.Dx(), cell.Rect.Dy(), ts)
			interp.Transform(dst, toAff3(m), cell, cell.Rect, draw.Over, nil)
		}
	}
}

// --- Unit cell ---

type cellKey struct {
	src       *Source
	version   uint64
	w, h      int
	transform Transform
	symmetry  Symmetry
	scale     float64
	feather   float64
	kernel    Kernel
}

// tileCell memoizes the viewport-sized cell that tiling stamps. The cell
// holds the active geometry on a transparent background, feathered when
// Tiling.Feather is set, and is rebuilt only when an input changes.
type tileCell struct {
	key   cellKey
	valid bool
	gen   uint64

	raw  *image.RGBA
	soft *image.RGBA
	out  *image.RGBA
	mask *image.Alpha
	// maskFeather is the feather the mask was built for.
	maskFeather float64
}

// get returns the cell for the given inputs, rebuilding it when needed.
func (c *tileCell) get(g *geometryStage, src *Source, w, h int, p ParameterState) *image.RGBA {
	key := cellKey{
		src:       src,
		version:   src.Version(),
		w:         w,
		h:         h,
		transform: p.Transform,
		symmetry:  p.Symmetry,
		scale:     p.Tiling.Scale,
		feather:   p.Tiling.Feather,
		kernel:    g.kernel,
	}
	if c.valid && key == c.key {
		return c.out
	}

	c.raw = resizeRGBA(c.raw, w, h)
	clear(c.raw.Pix)
	g.drawActive(c.raw, src.img, p.Transform, p.Symmetry)

	if p.Tiling.Feather > 0 {
		c.soft = resizeRGBA(c.soft, w, h)
		m := c.featherMask(w, h, p.Tiling.Feather)
		draw.DrawMask(c.soft, c.soft.Rect, c.raw, image.Point{}, m, image.Point{}, draw.Src)
		c.out = c.soft
	} else {
		c.out = c.raw
	}

	c.key = key
	c.valid = true
	c.gen++
	Logger().Debug("tile cell rebuilt", "width", w, "height", h, "generation", c.gen)
	return c.out
}

// generation counts cell rebuilds.
func (c *tileCell) generation() uint64 { return c.gen }

// featherMask returns a radial alpha ramp over a w×h cell: opaque inside
// r·(1-feather), transparent beyond r, linear between, with r half the
// shorter side. After the tile scale r lands on the tile's half width.
func (c *tileCell) featherMask(w, h int, feather float64) *image.Alpha {
	if c.mask != nil && c.mask.Rect.Dx() == w && c.mask.Rect.Dy() == h && c.maskFeather == feather {
		return c.mask
	}
	if c.mask == nil || c.mask.Rect.Dx() != w || c.mask.Rect.Dy() != h {
		c.mask = image.NewAlpha(image.Rect(0, 0, w, h))
	}
	c.maskFeather = feather

	cx, cy := float64(w)/2, float64(h)/2
	outer := float64(min(w, h)) / 2
	inner := outer * (1 - feather)
	mask := c.mask
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
			dy := float64(y) + 0.5 - cy
			for x := range row {
				d := math.Hypot(float64(x)+0.5-cx, dy)
				row[x] = unit8(featherRamp(d, inner, outer))
			}
		}
	})
	return c.mask
}

// featherRamp is 1 at or inside inner, 0 at or beyond outer.
func featherRamp(d, inner, outer float64) float64 {
	switch {
	case d <= inner:
		return 1
	case d >= outer:
		return 0
	}
	return (outer - d) / (outer - inner)
}

// resizeRGBA returns img when it already has the requested size, or a new
// raster otherwise.
func resizeRGBA(img *image.RGBA, w, h int) *image.RGBA {
	if img != nil && img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
