package lumen

import (
	"image"
	"image/color"
	"testing"
)

// --- Orientation ---

func TestTileFlags(t *testing.T) {
	tests := []struct {
		name     string
		typ      TilingType
		row, col int
		want     uint8
	}{
		{"p1 odd", TilingP1, 0, 1, 0},
		{"p2 even", TilingP2, 0, 0, 0},
		{"p2 odd", TilingP2, 0, 1, tileRot180},
		{"p2 negative odd", TilingP2, -1, 0, tileRot180},
		{"p2 negative even", TilingP2, -1, -1, 0},
		{"p4m odd column", TilingP4M, 0, 1, tileFlipH},
		{"p4m odd row", TilingP4M, 1, 0, tileFlipV},
		{"p4m both", TilingP4M, -1, -1, tileFlipH | tileFlipV},
		{"none", TilingNone, 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tileFlags(tt.typ, tt.row, tt.col); got != tt.want {
				t.Errorf("tileFlags = %03b, want %03b", got, tt.want)
			}
		})
	}
}

func TestTileMatrixPlacesCellCenter(t *testing.T) {
	tl := Tiling{Type: TilingP4M, Scale: 0.5, Overlap: 0.5}
	// 80x40 viewport, tile size 20: cell center lands on the tile center.
	m := tileMatrix(tl, 1, 2, 80, 40, 20)
	x, y := transformPoint(m, 40, 20)
	assertPoint(t, "center", x, y, 50, 30)

	// Half the short side is 20 cell px, scaled by 20/40 and the 1.5
	// overlap, and mirrored by the odd row.
	x, y = transformPoint(m, 40, 40)
	assertPoint(t, "bottom edge", x, y, 50, 30-15)
}

// --- Stamping ---

func stampSplit(typ TilingType) *image.RGBA {
	cell := splitImage(40, 40, red, blue)
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	stampTiles(dst, cell, Tiling{Type: typ, Scale: 0.5}, KernelNearest)
	return dst
}

func TestStampTilesP1(t *testing.T) {
	dst := stampSplit(TilingP1)
	assertPixel(t, dst, 5, 10, red)
	assertPixel(t, dst, 15, 10, blue)
	assertPixel(t, dst, 25, 10, red)
	assertPixel(t, dst, 35, 30, blue)
}

func TestStampTilesP2Quadrants(t *testing.T) {
	dst := stampSplit(TilingP2)
	// Tile (0,0) upright, (0,1) and (1,0) turned, (1,1) upright.
	assertPixel(t, dst, 5, 10, red)
	assertPixel(t, dst, 15, 10, blue)
	assertPixel(t, dst, 25, 10, blue)
	assertPixel(t, dst, 35, 10, red)
	assertPixel(t, dst, 5, 30, blue)
	assertPixel(t, dst, 25, 30, red)
}

func TestStampTilesP4M(t *testing.T) {
	dst := stampSplit(TilingP4M)
	// Odd columns mirror horizontally; odd rows only flip vertically.
	assertPixel(t, dst, 5, 10, red)
	assertPixel(t, dst, 25, 10, blue)
	assertPixel(t, dst, 35, 10, red)
	assertPixel(t, dst, 5, 30, red)
	assertPixel(t, dst, 25, 30, blue)
}

func TestStampTilesCoversViewport(t *testing.T) {
	cell := solidImage(30, 20, red)
	dst := image.NewRGBA(image.Rect(0, 0, 30, 20))
	stampTiles(dst, cell, Tiling{Type: TilingP2, Scale: 0.3}, KernelNearest)
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			if got := dst.RGBAAt(x, y); got != red {
				t.Fatalf("pixel (%d,%d) = %v, want covered", x, y, got)
			}
		}
	}
}

// --- Feather ---

func TestFeatherRamp(t *testing.T) {
	tests := []struct {
		d, want float64
	}{
		{0, 1},
		{5, 1},
		{7.5, 0.5},
		{10, 0},
		{20, 0},
	}
	for _, tt := range tests {
		if got := featherRamp(tt.d, 5, 10); got != tt.want {
			t.Errorf("featherRamp(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestTileCellFeather(t *testing.T) {
	src := NewSource(solidImage(64, 64, red))
	p := Defaults()
	p.Tiling = Tiling{Type: TilingP1, Scale: 1, Feather: 0.5}

	g := &geometryStage{kernel: KernelNearest}
	cell := g.cell.get(g, src, 40, 40, p)

	if got := cell.RGBAAt(20, 20); got != red {
		t.Errorf("center = %v, want opaque", got)
	}
	if got := cell.RGBAAt(0, 0); got.A != 0 {
		t.Errorf("corner alpha = %d, want 0", got.A)
	}
	mid := cell.RGBAAt(20, 5) // 14.5px from center, between 10 and 20
	if mid.A == 0 || mid.A == 255 {
		t.Errorf("ramp alpha = %d, want partial", mid.A)
	}
	if mid.R != mid.A {
		t.Errorf("ramp pixel %v should stay premultiplied", mid)
	}
}

// --- Memoization ---

func TestTileCellMemoization(t *testing.T) {
	src := NewSource(solidImage(16, 16, red))
	p := Defaults()
	p.Tiling = Tiling{Type: TilingP1, Scale: 1, Feather: 0.2}
	g := &geometryStage{kernel: KernelNearest}

	g.cell.get(g, src, 32, 32, p)
	g.cell.get(g, src, 32, 32, p)
	if got := g.cell.generation(); got != 1 {
		t.Fatalf("generation = %d after identical calls, want 1", got)
	}

	p.Tiling.Type = TilingP4M
	p.Tiling.Overlap = 0.3
	g.cell.get(g, src, 32, 32, p)
	if got := g.cell.generation(); got != 1 {
		t.Errorf("tiling type and overlap should not rebuild; generation = %d", got)
	}

	steps := []struct {
		name   string
		mutate func()
	}{
		{"source frame", func() { src.SetImage(solidImage(16, 16, blue)) }},
		{"transform", func() { p.Transform.Rotation = 1 }},
		{"symmetry", func() { p.Symmetry.Enabled = true }},
		{"feather", func() { p.Tiling.Feather = 0.6 }},
		{"tile scale", func() { p.Tiling.Scale = 0.5 }},
	}
	want := uint64(1)
	for _, s := range steps {
		s.mutate()
		g.cell.get(g, src, 32, 32, p)
		want++
		if got := g.cell.generation(); got != want {
			t.Errorf("%s: generation = %d, want %d", s.name, got, want)
		}
	}

	g.cell.get(g, src, 48, 32, p)
	if got := g.cell.generation(); got != want+1 {
		t.Errorf("viewport change: generation = %d, want %d", got, want+1)
	}
}

func TestTileCellFeatherToggle(t *testing.T) {
	src := NewSource(solidImage(64, 64, red))
	p := Defaults()
	p.Tiling = Tiling{Type: TilingP1, Scale: 1, Feather: 0.5}
	g := &geometryStage{kernel: KernelNearest}

	g.cell.get(g, src, 20, 20, p)
	p.Tiling.Feather = 0
	hard := g.cell.get(g, src, 20, 20, p)
	if got := hard.RGBAAt(0, 0); got != red {
		t.Errorf("unfeathered corner = %v, want %v", got, red)
	}
	p.Tiling.Feather = 0.5
	soft := g.cell.get(g, src, 20, 20, p)
	if soft.RGBAAt(0, 0).A != 0 {
		t.Error("feathered corner should be transparent")
	}
	if hard.RGBAAt(0, 0) != red {
		t.Error("feathering must not write through the unfeathered raster")
	}
}

func TestGeometryTilingRendersActive(t *testing.T) {
	src := NewSource(solidImage(64, 64, color.RGBA{0, 255, 0, 255}))
	p := Defaults()
	p.Tiling = Tiling{Type: TilingP2, Scale: 0.5}
	active, frozen := renderGeometry(src, p, 40, 40)
	green := color.RGBA{0, 255, 0, 255}
	assertPixel(t, active, 1, 1, green)
	assertPixel(t, frozen, 1, 1, green)
}
