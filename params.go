package lumen

import (
	"math"
	"math/rand/v2"
)

// Transform positions the source inside the viewport. Rotation is in radians.
type Transform struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Scale    float64 `json:"scale" yaml:"scale"`
	Rotation float64 `json:"rotation" yaml:"rotation"`
}

// Symmetry replicates the transformed source around the viewport center.
// Offset rotates the whole wedge fan by Offset wedge widths.
type Symmetry struct {
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Type    SymmetryType `json:"type" yaml:"type"`
	Slices  int          `json:"slices" yaml:"slices"`
	Offset  float64      `json:"offset" yaml:"offset"`
}

// Warp selects a coordinate warp for the remap stage.
type Warp struct {
	Type WarpType `json:"type" yaml:"type"`
}

// Displacement is the sinusoidal liquify applied after warping.
type Displacement struct {
	Amp  float64 `json:"amp" yaml:"amp"`
	Freq float64 `json:"freq" yaml:"freq"`
}

// Tiling stamps the active geometry across a wallpaper grid.
type Tiling struct {
	Type    TilingType `json:"type" yaml:"type"`
	Scale   float64    `json:"scale" yaml:"scale"`
	Overlap float64    `json:"overlap" yaml:"overlap"`
	Feather float64    `json:"feather" yaml:"feather"`
}

// Masking selects pixels that show the frozen buffer instead of the warped
// active buffer. CenterRadius and LumaThreshold are percentages.
type Masking struct {
	CenterRadius  float64 `json:"centerRadius" yaml:"centerRadius"`
	LumaThreshold float64 `json:"lumaThreshold" yaml:"lumaThreshold"`
	InvertLuma    bool    `json:"invertLuma" yaml:"invertLuma"`
	Feather       float64 `json:"feather" yaml:"feather"`
}

// Generator configures the procedural source used when no raster is loaded.
type Generator struct {
	Type       GeneratorType `json:"type" yaml:"type"`
	Param1     float64       `json:"param1" yaml:"param1"`
	Param2     float64       `json:"param2" yaml:"param2"`
	Param3     float64       `json:"param3" yaml:"param3"`
	IsAnimated bool          `json:"isAnimated" yaml:"isAnimated"`
}

// ColorGrade is the color group. Posterize of 256 means no quantization.
type ColorGrade struct {
	Posterize int     `json:"posterize" yaml:"posterize"`
	R         float64 `json:"r" yaml:"r"`
	G         float64 `json:"g" yaml:"g"`
	B         float64 `json:"b" yaml:"b"`
	Hue       float64 `json:"hue" yaml:"hue"`
	Sat       float64 `json:"sat" yaml:"sat"`
	Light     float64 `json:"light" yaml:"light"`
}

// Effects holds post-process intensities.
type Effects struct {
	EdgeDetect          float64 `json:"edgeDetect" yaml:"edgeDetect"`
	Invert              float64 `json:"invert" yaml:"invert"`
	Solarize            float64 `json:"solarize" yaml:"solarize"`
	Shift               float64 `json:"shift" yaml:"shift"`
	Bloom               float64 `json:"bloom" yaml:"bloom"`
	ChromaticAberration float64 `json:"chromaticAberration" yaml:"chromaticAberration"`
	Noise               float64 `json:"noise" yaml:"noise"`
	Blur                float64 `json:"blur" yaml:"blur"`
}

// Feedback controls how much of the previous output persists.
type Feedback struct {
	Amount float64 `json:"amount" yaml:"amount"`
}

// ParameterState is the complete live parameter record. Exactly one
// authoritative instance exists per Store; everything else holds copies.
type ParameterState struct {
	Transform    Transform    `json:"transforms" yaml:"transforms"`
	Symmetry     Symmetry     `json:"symmetry" yaml:"symmetry"`
	Warp         Warp         `json:"warp" yaml:"warp"`
	Displacement Displacement `json:"displacement" yaml:"displacement"`
	Tiling       Tiling       `json:"tiling" yaml:"tiling"`
	Masking      Masking      `json:"masking" yaml:"masking"`
	Generator    Generator    `json:"generator" yaml:"generator"`
	Color        ColorGrade   `json:"color" yaml:"color"`
	Effects      Effects      `json:"effects" yaml:"effects"`
	Feedback     Feedback     `json:"feedback" yaml:"feedback"`
}

const (
	defaultScale     = 1.0
	defaultSlices    = 6
	defaultFreq      = 10.0
	defaultPosterize = 256
	defaultGenParam  = 50.0

	minScale     = 0.01
	minFreq      = 0.01
	minSlices    = 2
	maxSlices    = 64
	minPosterize = 2
)

// Defaults returns the parameter record a fresh session starts with.
func Defaults() ParameterState {
	return ParameterState{
		Transform:    Transform{Scale: defaultScale},
		Symmetry:     Symmetry{Slices: defaultSlices},
		Displacement: Displacement{Freq: defaultFreq},
		Tiling:       Tiling{Scale: 1},
		Generator:    Generator{Param1: defaultGenParam, Param2: defaultGenParam, Param3: defaultGenParam},
		Color:        ColorGrade{Posterize: defaultPosterize, R: 1, G: 1, B: 1, Sat: 1, Light: 1},
	}
}

// Sanitize returns a copy of p with every invariant restored: non-finite
// values fall back to their defaults, ranged fields are clamped, Scale is
// positive and Slices is even and at least 2.
func (p ParameterState) Sanitize() ParameterState {
	d := Defaults()

	p.Transform.X = finite(p.Transform.X, 0)
	p.Transform.Y = finite(p.Transform.Y, 0)
	p.Transform.Scale = math.Max(finite(p.Transform.Scale, d.Transform.Scale), minScale)
	p.Transform.Rotation = finite(p.Transform.Rotation, 0)

	if p.Symmetry.Type > SymmetryMirrorY {
		p.Symmetry.Type = SymmetryRadial
	}
	p.Symmetry.Slices = evenSlices(p.Symmetry.Slices)
	p.Symmetry.Offset = clampF(finite(p.Symmetry.Offset, 0), -1, 1)

	if p.Warp.Type > WarpLogPolar {
		p.Warp.Type = WarpNone
	}

	p.Displacement.Amp = math.Max(finite(p.Displacement.Amp, 0), 0)
	p.Displacement.Freq = math.Max(finite(p.Displacement.Freq, d.Displacement.Freq), minFreq)

	if p.Tiling.Type > TilingP4M {
		p.Tiling.Type = TilingNone
	}
	p.Tiling.Scale = math.Max(finite(p.Tiling.Scale, d.Tiling.Scale), minScale)
	p.Tiling.Overlap = clampF(finite(p.Tiling.Overlap, 0), 0, 1)
	p.Tiling.Feather = clampF(finite(p.Tiling.Feather, 0), 0, 1)

	p.Masking.CenterRadius = clampF(finite(p.Masking.CenterRadius, 0), 0, 100)
	p.Masking.LumaThreshold = clampF(finite(p.Masking.LumaThreshold, 0), 0, 100)
	p.Masking.Feather = clampF(finite(p.Masking.Feather, 0), 0, 1)

	if p.Generator.Type > GeneratorFractal {
		p.Generator.Type = GeneratorNone
	}
	p.Generator.Param1 = clampF(finite(p.Generator.Param1, defaultGenParam), 0, 100)
	p.Generator.Param2 = clampF(finite(p.Generator.Param2, defaultGenParam), 0, 100)
	p.Generator.Param3 = clampF(finite(p.Generator.Param3, defaultGenParam), 0, 100)

	p.Color.Posterize = min(max(p.Color.Posterize, minPosterize), defaultPosterize)
	p.Color.R = clampF(finite(p.Color.R, 1), 0, 2)
	p.Color.G = clampF(finite(p.Color.G, 1), 0, 2)
	p.Color.B = clampF(finite(p.Color.B, 1), 0, 2)
	p.Color.Hue = clampF(finite(p.Color.Hue, 0), -1, 1)
	p.Color.Sat = clampF(finite(p.Color.Sat, 1), 0, 3)
	p.Color.Light = clampF(finite(p.Color.Light, 1), 0, 2)

	p.Effects.EdgeDetect = clampF(finite(p.Effects.EdgeDetect, 0), 0, 100)
	p.Effects.Invert = clampF(finite(p.Effects.Invert, 0), 0, 100)
	p.Effects.Solarize = clampF(finite(p.Effects.Solarize, 0), 0, 100)
	p.Effects.Shift = clampF(finite(p.Effects.Shift, 0), 0, 100)
	p.Effects.Bloom = clampF(finite(p.Effects.Bloom, 0), 0, 3)
	p.Effects.ChromaticAberration = clampF(finite(p.Effects.ChromaticAberration, 0), 0, 1)
	p.Effects.Noise = clampF(finite(p.Effects.Noise, 0), 0, 1)
	p.Effects.Blur = clampF(finite(p.Effects.Blur, 0), 0, 1)

	p.Feedback.Amount = clampF(finite(p.Feedback.Amount, 0), 0, 100)
	return p
}

// evenSlices rounds n up to the next even count in [minSlices, maxSlices].
func evenSlices(n int) int {
	if n < minSlices {
		return minSlices
	}
	if n%2 != 0 {
		n++
	}
	return min(n, maxSlices)
}

// Randomize returns a copy of p with the geometry, warp, masking and effect
// groups rerolled. The generator type, color gains and feedback are kept.
func (p ParameterState) Randomize(rng *rand.Rand) ParameterState {
	between := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	chance := func(threshold float64) bool { return rng.Float64() > threshold }

	p.Transform = Transform{
		X:        between(-100, 100),
		Y:        between(-100, 100),
		Scale:    between(0.5, 1.5),
		Rotation: between(0, 2*math.Pi),
	}

	slices := [...]int{4, 6, 8, 12, 16}
	p.Symmetry.Enabled = chance(0.3)
	p.Symmetry.Slices = slices[rng.IntN(len(slices))]

	p.Warp.Type = WarpNone
	if chance(0.4) {
		p.Warp.Type = WarpPolar + WarpType(rng.IntN(2))
	}

	p.Displacement.Amp = 0
	if chance(0.5) {
		p.Displacement.Amp = between(0, 150)
	}
	p.Displacement.Freq = between(5, 50)

	p.Tiling.Type = TilingNone
	if chance(0.3) {
		p.Tiling.Type = TilingP1 + TilingType(rng.IntN(3))
	}
	p.Tiling.Scale = between(0.5, 1.5)
	p.Tiling.Overlap = between(0, 0.3)

	p.Masking = Masking{InvertLuma: chance(0.5), Feather: between(0, 0.4)}
	if chance(0.7) {
		p.Masking.LumaThreshold = between(0, 50)
	}
	if chance(0.7) {
		p.Masking.CenterRadius = between(0, 40)
	}

	p.Color.Posterize = defaultPosterize
	if chance(0.6) {
		p.Color.Posterize = 4 + rng.IntN(12)
	}

	p.Effects.EdgeDetect, p.Effects.Invert, p.Effects.Solarize, p.Effects.Shift = 0, 0, 0, 0
	if chance(0.7) {
		p.Effects.EdgeDetect = between(20, 100)
	}
	if chance(0.8) {
		p.Effects.Invert = between(20, 100)
	}
	if chance(0.8) {
		p.Effects.Solarize = between(20, 100)
	}
	if chance(0.8) {
		p.Effects.Shift = between(5, 50)
	}

	p.Generator.Param1 = between(10, 90)
	p.Generator.Param2 = between(10, 90)
	return p.Sanitize()
}

func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
