package lumen

import (
	"math"
	"testing"
)

func TestGeneratorNoneRendersNothing(t *testing.T) {
	g := NewGeneratorSource()
	if src := g.Render(32, 32, Generator{Type: GeneratorNone}); src != nil {
		t.Error("GeneratorNone should return nil")
	}
}

func TestGeneratorEveryTypeIsOpaque(t *testing.T) {
	for gt := GeneratorFibonacci; gt <= GeneratorFractal; gt++ {
		t.Run(gt.String(), func(t *testing.T) {
			g := NewGeneratorSource()
			gen := Defaults().Generator
			gen.Type = gt
			src := g.Render(40, 30, gen)
			if src == nil {
				t.Fatal("nil source")
			}
			if w, h := src.Size(); w != 40 || h != 30 {
				t.Fatalf("size = %dx%d", w, h)
			}
			img := src.Image()
			lit := 0
			for i := 0; i < len(img.Pix); i += 4 {
				if img.Pix[i+3] != 0xff {
					t.Fatalf("pixel %d not opaque", i/4)
				}
				if img.Pix[i]|img.Pix[i+1]|img.Pix[i+2] != 0 {
					lit++
				}
			}
			if lit == 0 {
				t.Error("pattern rendered all black")
			}
		})
	}
}

func TestGeneratorMemoizesUntilInputsChange(t *testing.T) {
	g := NewGeneratorSource()
	gen := Generator{Type: GeneratorPlasma, Param1: 50, Param2: 50, Param3: 50}
	src := g.Render(16, 16, gen)
	v := src.Version()

	g.Render(16, 16, gen)
	if src.Version() != v {
		t.Error("unchanged inputs re-rendered")
	}

	gen.Param1 = 70
	g.Render(16, 16, gen)
	if src.Version() == v {
		t.Error("param change did not re-render")
	}
}

func TestGeneratorAdvance(t *testing.T) {
	g := NewGeneratorSource()
	still := Generator{Type: GeneratorLiquid, Param3: 50}
	g.Advance(1, still)
	if g.Clock() != 0 {
		t.Errorf("static generator advanced to %v", g.Clock())
	}
	animated := still
	animated.IsAnimated = true
	g.Advance(2, animated)
	if math.Abs(g.Clock()-2) > 1e-12 {
		t.Errorf("clock = %v, want 2", g.Clock())
	}
	animated.Param3 = 100
	g.Advance(1, animated)
	if math.Abs(g.Clock()-4) > 1e-12 {
		t.Errorf("clock = %v, want 4", g.Clock())
	}
}

func TestHSVPrimaries(t *testing.T) {
	tests := []struct {
		h       float64
		r, g, b float64
	}{
		{0, 1, 0, 0},
		{1.0 / 3, 0, 1, 0},
		{2.0 / 3, 0, 0, 1},
		{1, 1, 0, 0},
	}
	for _, tt := range tests {
		r, g, b := hsv(tt.h, 1, 1)
		if math.Abs(r-tt.r) > 1e-9 || math.Abs(g-tt.g) > 1e-9 || math.Abs(b-tt.b) > 1e-9 {
			t.Errorf("hsv(%v) = %v %v %v", tt.h, r, g, b)
		}
	}
}
