package lumen

import (
	"image"
	"image/color"
	"math"
	"testing"
)

var (
	red     = color.RGBA{255, 0, 0, 255}
	blue    = color.RGBA{0, 0, 255, 255}
	bgCol   = DefaultBackground.RGBA()
	noPixel = color.RGBA{}
)

// splitImage paints the left half of a w×h raster with left and the right
// half with right.
func splitImage(w, h int, left, right color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := left
			if x >= w/2 {
				c = right
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// gradientImage encodes each pixel's coordinates in its red and green
// channels.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 3), uint8(y * 3), 80, 255})
		}
	}
	return img
}

func renderGeometry(src *Source, p ParameterState, w, h int) (active, frozen *image.RGBA) {
	g := &geometryStage{kernel: KernelNearest}
	active = image.NewRGBA(image.Rect(0, 0, w, h))
	frozen = image.NewRGBA(image.Rect(0, 0, w, h))
	g.render(active, frozen, src, p.Sanitize(), bgCol)
	return active, frozen
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != want {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}

// --- Frozen placement ---

func TestGeometryNoSourceFillsBackground(t *testing.T) {
	for _, src := range []*Source{nil, {}} {
		active, frozen := renderGeometry(src, Defaults(), 8, 6)
		for _, img := range []*image.RGBA{active, frozen} {
			for y := 0; y < 6; y++ {
				for x := 0; x < 8; x++ {
					assertPixel(t, img, x, y, bgCol)
				}
			}
		}
	}
}

func TestGeometryFrozenCentersSource(t *testing.T) {
	src := NewSource(solidImage(10, 10, red))
	_, frozen := renderGeometry(src, Defaults(), 40, 40)
	assertPixel(t, frozen, 20, 20, red)
	assertPixel(t, frozen, 15, 15, red)
	assertPixel(t, frozen, 5, 5, noPixel)
	assertPixel(t, frozen, 26, 20, noPixel)
}

func TestGeometryFrozenOffsetAndScale(t *testing.T) {
	src := NewSource(solidImage(10, 10, red))
	p := Defaults()
	p.Transform.X = 10
	p.Transform.Scale = 2
	_, frozen := renderGeometry(src, p, 60, 40)
	// Center moves to (40, 20); the source covers 20x20 around it.
	assertPixel(t, frozen, 40, 20, red)
	assertPixel(t, frozen, 31, 11, red)
	assertPixel(t, frozen, 29, 20, noPixel)
	assertPixel(t, frozen, 51, 20, noPixel)
}

func TestGeometryFrozenRotatesAboutSourceCenter(t *testing.T) {
	src := NewSource(splitImage(20, 20, red, blue))
	p := Defaults()
	p.Transform.Rotation = math.Pi
	_, frozen := renderGeometry(src, p, 40, 40)
	// A half turn swaps the halves.
	assertPixel(t, frozen, 14, 20, blue)
	assertPixel(t, frozen, 25, 20, red)
}

func TestGeometryActiveMatchesFrozenWithoutSymmetry(t *testing.T) {
	src := NewSource(gradientImage(30, 20))
	p := Defaults()
	p.Transform.Rotation = 0.4
	p.Symmetry.Slices = 7 // ignored while disabled
	active, frozen := renderGeometry(src, p, 40, 30)
	for i := range active.Pix {
		if active.Pix[i] != frozen.Pix[i] {
			t.Fatalf("active differs from frozen at byte %d", i)
		}
	}
}

// --- Mirrors ---

func TestGeometryMirrorX(t *testing.T) {
	src := NewSource(splitImage(20, 20, red, blue))
	p := Defaults()
	p.Transform.X = -10 // source spans x 0..20: red 0..10, blue 10..20
	p.Symmetry = Symmetry{Enabled: true, Type: SymmetryMirrorX, Slices: 6}
	active, frozen := renderGeometry(src, p, 40, 40)

	assertPixel(t, frozen, 35, 20, noPixel)
	assertPixel(t, active, 4, 20, red)
	assertPixel(t, active, 35, 20, red)
	assertPixel(t, active, 14, 20, blue)
	assertPixel(t, active, 25, 20, blue)
}

func TestGeometryMirrorY(t *testing.T) {
	// Top half red, bottom half blue, placed in the upper half.
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			c := red
			if y >= 10 {
				c = blue
			}
			img.SetRGBA(x, y, c)
		}
	}
	p := Defaults()
	p.Transform.Y = -10
	p.Symmetry = Symmetry{Enabled: true, Type: SymmetryMirrorY, Slices: 6}
	active, _ := renderGeometry(NewSource(img), p, 40, 40)

	assertPixel(t, active, 20, 4, red)
	assertPixel(t, active, 20, 35, red)
	assertPixel(t, active, 20, 14, blue)
	assertPixel(t, active, 20, 25, blue)
}

// --- Radial ---

func TestGeometryRadialReflectsAcrossWedgeBoundary(t *testing.T) {
	// With four wedges the first boundary is the diagonal, so the output
	// must be symmetric under swapping x and y.
	src := NewSource(gradientImage(64, 64))
	p := Defaults()
	p.Symmetry = Symmetry{Enabled: true, Type: SymmetryRadial, Slices: 4}
	active, _ := renderGeometry(src, p, 40, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if a, b := active.RGBAAt(x, y), active.RGBAAt(y, x); a != b {
				t.Fatalf("pixel (%d,%d) = %v, mirror = %v", x, y, a, b)
			}
		}
	}
}

func TestGeometryRadialCoversViewport(t *testing.T) {
	src := NewSource(solidImage(64, 64, red))
	p := Defaults()
	p.Symmetry = Symmetry{Enabled: true, Type: SymmetryRadial, Slices: 6}
	active, _ := renderGeometry(src, p, 40, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if got := active.RGBAAt(x, y); got != red {
				t.Fatalf("pixel (%d,%d) = %v, want seamless red", x, y, got)
			}
		}
	}
}

func TestGeometryRadialOddSlicesCorrected(t *testing.T) {
	src := NewSource(gradientImage(64, 64))
	odd, even := Defaults(), Defaults()
	odd.Symmetry = Symmetry{Enabled: true, Type: SymmetryRadial, Slices: 5}
	even.Symmetry = Symmetry{Enabled: true, Type: SymmetryRadial, Slices: 6}

	// Bypass Sanitize so the draw-time correction is what gets tested.
	g := &geometryStage{kernel: KernelNearest}
	a := image.NewRGBA(image.Rect(0, 0, 32, 32))
	b := image.NewRGBA(image.Rect(0, 0, 32, 32))
	g.drawActive(a, src.img, odd.Transform, odd.Symmetry)
	g.drawActive(b, src.img, even.Transform, even.Symmetry)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("5 slices should render as 6; byte %d differs", i)
		}
	}
}

// --- Kernels ---

func TestKernelText(t *testing.T) {
	for _, k := range []Kernel{KernelNearest, KernelBilinear, KernelCatmullRom} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", k, err)
		}
		var got Kernel
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Errorf("round trip %q = %v, %v", b, got, err)
		}
	}
	var k Kernel
	if err := k.UnmarshalText([]byte("lanczos")); err == nil {
		t.Error("unknown kernel should fail")
	}
}

func TestOverPremulClamps(t *testing.T) {
	p := []uint8{250, 250, 250, 250}
	overPremul(p, 10, 10, 10, 10)
	for i, v := range p {
		if v < 250 {
			t.Errorf("channel %d = %d, want >= 250", i, v)
		}
	}
}
