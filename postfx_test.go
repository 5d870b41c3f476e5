package lumen

import (
	"image"
	"image/color"
	"testing"
)

// --- Chain construction ---

func TestFiltersForNeutralIsEmpty(t *testing.T) {
	d := Defaults()
	if got := filtersFor(d.Color, d.Effects); len(got) != 0 {
		t.Fatalf("default chain has %d filters, want 0", len(got))
	}
}

func TestFiltersForOrder(t *testing.T) {
	c := Defaults().Color
	c.Posterize = 4
	c.Sat = 1.5
	e := Effects{Invert: 100, Noise: 0.2}
	got := filtersFor(c, e)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if _, ok := got[0].(PosterizeFilter); !ok {
		t.Errorf("first filter = %T, want PosterizeFilter", got[0])
	}
	if _, ok := got[1].(GradeFilter); !ok {
		t.Errorf("second filter = %T, want GradeFilter", got[1])
	}
	if _, ok := got[3].(NoiseFilter); !ok {
		t.Errorf("last filter = %T, want NoiseFilter", got[3])
	}
}

func TestApplyFiltersEmptyLeavesFrame(t *testing.T) {
	img := solidImage(3, 3, red)
	applyFilters(nil, img)
	assertPixel(t, img, 1, 1, red)
}

// --- Color filters ---

func TestPosterizeFilter(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{100, 100, 100, 255})
	img.SetRGBA(1, 0, color.RGBA{200, 200, 200, 255})
	out := PosterizeFilter{Levels: 2}.Apply(img)
	assertPixel(t, out, 0, 0, color.RGBA{0, 0, 0, 255})
	assertPixel(t, out, 1, 0, color.RGBA{255, 255, 255, 255})
}

func TestInvertKeepsPremultiplication(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, color.RGBA{64, 0, 0, 128})
	// (2, 0) stays transparent.
	applyFilters([]Filter{InvertFilter{Amount: 1}}, img)

	assertPixel(t, img, 0, 0, color.RGBA{0, 255, 255, 255})
	assertPixel(t, img, 1, 0, color.RGBA{64, 128, 128, 128})
	assertPixel(t, img, 2, 0, color.RGBA{})
}

func TestGradeFilterGains(t *testing.T) {
	img := solidImage(2, 2, color.RGBA{200, 100, 50, 255})
	out := GradeFilter{R: 0, G: 1, B: 2, Sat: 1, Light: 1}.Apply(img)
	assertPixel(t, out, 0, 0, color.RGBA{0, 100, 100, 255})
}

func TestSolarizeFilter(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{200, 200, 200, 255})
	img.SetRGBA(1, 0, color.RGBA{100, 100, 100, 255})
	out := SolarizeFilter{Amount: 1}.Apply(img)
	assertPixel(t, out, 0, 0, color.RGBA{55, 55, 55, 255})
	assertPixel(t, out, 1, 0, color.RGBA{100, 100, 100, 255})
}

// --- Spatial filters ---

func TestChromaticFilterSplitsChannels(t *testing.T) {
	img := solidImage(200, 1, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(100, 0, white)
	out := ChromaticFilter{Amount: 0.5}.Apply(img)
	if got := out.RGBAAt(99, 0); got.R != 255 || got.B != 0 {
		t.Errorf("left of source = %v, want red only", got)
	}
	if got := out.RGBAAt(101, 0); got.B != 255 || got.R != 0 {
		t.Errorf("right of source = %v, want blue only", got)
	}
	if got := out.RGBAAt(100, 0); got.G != 255 {
		t.Errorf("green channel moved: %v", got)
	}
}

func TestSpatialFiltersKeepCoverage(t *testing.T) {
	filters := []Filter{
		BlurFilter{Radius: 3},
		BloomFilter{Intensity: 1},
		NoiseFilter{Amount: 0.5},
		EdgeFilter{Amount: 0.5},
		HueShiftFilter{Amount: 0.3},
	}
	for _, f := range filters {
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		for y := 4; y < 12; y++ {
			for x := 4; x < 12; x++ {
				img.SetRGBA(x, y, color.RGBA{200, 180, 40, 255})
			}
		}
		applyFilters([]Filter{f}, img)
		if a := img.RGBAAt(0, 0).A; a != 0 {
			t.Errorf("%T: transparent corner alpha = %d", f, a)
		}
		if p := img.RGBAAt(0, 0); p.R != 0 || p.G != 0 || p.B != 0 {
			t.Errorf("%T: transparent corner color = %v", f, p)
		}
		if a := img.RGBAAt(8, 8).A; a != 255 {
			t.Errorf("%T: covered alpha = %d", f, a)
		}
	}
}
