package lumen

import (
	"image"
	"image/color"
	"math"
	"testing"
)

var gray128 = color.RGBA{128, 128, 128, 255}

func remapSolid(p ParameterState, active, frozen color.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	remap(dst, solidImage(w, h, active), solidImage(w, h, frozen), p)
	return dst
}

// --- Activation ---

func TestRemapActive(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ParameterState)
		want   bool
	}{
		{"defaults", func(p *ParameterState) {}, false},
		{"warp", func(p *ParameterState) { p.Warp.Type = WarpPolar }, true},
		{"displacement", func(p *ParameterState) { p.Displacement.Amp = 1 }, true},
		{"center radius", func(p *ParameterState) { p.Masking.CenterRadius = 5 }, true},
		{"luma", func(p *ParameterState) { p.Masking.LumaThreshold = 5 }, true},
		{"invert alone", func(p *ParameterState) { p.Masking.InvertLuma = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Defaults()
			tt.mutate(&p)
			if got := remapActive(p); got != tt.want {
				t.Errorf("remapActive = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Masking ---

func TestRemapLumaThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		invert    bool
		want      color.RGBA
	}{
		{"above threshold freezes", 50, false, gray128},
		{"below threshold animates", 51, false, blue},
		{"inverted below freezes", 51, true, gray128},
		{"inverted above animates", 50, true, blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Defaults()
			p.Masking.LumaThreshold = tt.threshold
			p.Masking.InvertLuma = tt.invert
			dst := remapSolid(p, blue, gray128, 4, 4)
			assertPixel(t, dst, 1, 2, tt.want)
		})
	}
}

func TestRemapCenterRadius(t *testing.T) {
	p := Defaults()
	p.Masking.CenterRadius = 50 // 10px on a 40px viewport
	dst := remapSolid(p, blue, red, 40, 40)
	assertPixel(t, dst, 20, 20, red)
	assertPixel(t, dst, 25, 20, red)
	assertPixel(t, dst, 31, 20, blue)
	assertPixel(t, dst, 2, 2, blue)
}

// --- Sampling ---

func TestRemapDisplacementStaysOpaque(t *testing.T) {
	p := Defaults()
	p.Displacement = Displacement{Amp: 150, Freq: 37}
	active := color.RGBA{0, 64, 0, 128}
	dst := remapSolid(p, active, red, 16, 12)
	want := color.RGBA{0, 128, 0, 255}
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			if got := dst.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRemapWrapsGradient(t *testing.T) {
	// With the polar warp the center maps to (w/2, 0).
	active := gradientImage(20, 10)
	dst := image.NewRGBA(image.Rect(0, 0, 20, 10))
	p := Defaults()
	p.Warp.Type = WarpPolar
	remap(dst, active, solidImage(20, 10, red), p)
	assertPixel(t, dst, 10, 5, active.RGBAAt(10, 0))
}

func TestWarpPoint(t *testing.T) {
	const w, h = 200.0, 100.0
	cx, cy := w/2, h/2
	tests := []struct {
		name   string
		typ    WarpType
		x, y   float64
		wu, wv float64
	}{
		{"none", WarpNone, 3, 4, 3, 4},
		{"polar center", WarpPolar, cx, cy, w / 2, 0},
		{"polar right edge", WarpPolar, w, cy, w / 2, h},
		{"polar left edge", WarpPolar, 0, cy, w, h},
		{"log-polar center", WarpLogPolar, cx, cy, cx, cy},
		{"log-polar unit radius", WarpLogPolar, w, cy, w / 2, 0},
		{"log-polar inner", WarpLogPolar, cx + cx/math.E, cy, w / 2, h / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := warpPoint(tt.typ, tt.x, tt.y, cx, cy, w, h)
			assertNear(t, tt.name+" u", u, tt.wu)
			assertNear(t, tt.name+" v", v, tt.wv)
		})
	}
}

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		v    float64
		n    int
		want int
		ok   bool
	}{
		{0, 10, 0, true},
		{9.9, 10, 9, true},
		{10, 10, 0, true},
		{-0.5, 10, 9, true},
		{-10, 10, 0, true},
		{-11, 10, 9, true},
		{123.4, 10, 3, true},
		{math.NaN(), 10, 0, false},
		{math.Inf(-1), 10, 0, false},
	}
	for _, tt := range tests {
		got, ok := wrapIndex(tt.v, tt.n)
		if got != tt.want || ok != tt.ok {
			t.Errorf("wrapIndex(%v, %d) = %d, %v; want %d, %v", tt.v, tt.n, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRemapNaNLeavesTransparent(t *testing.T) {
	p := Defaults()
	p.Displacement = Displacement{Amp: math.Inf(1), Freq: 10}
	dst := remapSolid(p, blue, red, 4, 4)
	if got := dst.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("pixel = %v, want untouched", got)
	}
}
