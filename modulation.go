package lumen

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// FieldUpdate is a normalized write addressed by path, as sent by remote
// controllers and MIDI mappings. Value is in [0, 1].
type FieldUpdate struct {
	Path  string  `json:"path"`
	Value float64 `json:"value"`
}

// Update converts the message into a store update over the field's
// default range.
func (f FieldUpdate) Update() Update { return SetField(f.Path, f.Value, Range{}) }

type fieldKind uint8

const (
	fieldFloat fieldKind = iota
	fieldInt
	fieldBool
	fieldEnum
)

// fieldSpec describes one addressable parameter. Exactly one accessor is
// set, matching kind.
type fieldSpec struct {
	kind  fieldKind
	rng   Range
	f     func(p *ParameterState) *float64
	i     func(p *ParameterState) *int
	b     func(p *ParameterState) *bool
	enum  func(p *ParameterState, i int)
	count int
}

func floatField(lo, hi float64, f func(p *ParameterState) *float64) fieldSpec {
	return fieldSpec{kind: fieldFloat, rng: Range{lo, hi}, f: f}
}

func intField(lo, hi float64, f func(p *ParameterState) *int) fieldSpec {
	return fieldSpec{kind: fieldInt, rng: Range{lo, hi}, i: f}
}

func boolField(f func(p *ParameterState) *bool) fieldSpec {
	return fieldSpec{kind: fieldBool, rng: Range{0, 1}, b: f}
}

func enumField(count int, set func(p *ParameterState, i int)) fieldSpec {
	return fieldSpec{kind: fieldEnum, rng: Range{0, 1}, enum: set, count: count}
}

// fields maps "group.field" paths to their accessors. Ranges follow the
// control surface: rotation is in radians, percentages are 0..100.
var fields = map[string]fieldSpec{
	"transforms.x":        floatField(-100, 100, func(p *ParameterState) *float64 { return &p.Transform.X }),
	"transforms.y":        floatField(-100, 100, func(p *ParameterState) *float64 { return &p.Transform.Y }),
	"transforms.scale":    floatField(0.1, 5, func(p *ParameterState) *float64 { return &p.Transform.Scale }),
	"transforms.rotation": floatField(-math.Pi, math.Pi, func(p *ParameterState) *float64 { return &p.Transform.Rotation }),

	"symmetry.enabled": boolField(func(p *ParameterState) *bool { return &p.Symmetry.Enabled }),
	"symmetry.type":    enumField(len(symmetryNames), func(p *ParameterState, i int) { p.Symmetry.Type = SymmetryType(i) }),
	"symmetry.slices":  intField(2, 32, func(p *ParameterState) *int { return &p.Symmetry.Slices }),
	"symmetry.offset":  floatField(-1, 1, func(p *ParameterState) *float64 { return &p.Symmetry.Offset }),

	"warp.type": enumField(len(warpNames), func(p *ParameterState, i int) { p.Warp.Type = WarpType(i) }),

	"displacement.amp":  floatField(0, 200, func(p *ParameterState) *float64 { return &p.Displacement.Amp }),
	"displacement.freq": floatField(1, 50, func(p *ParameterState) *float64 { return &p.Displacement.Freq }),

	"tiling.type":    enumField(len(tilingNames), func(p *ParameterState, i int) { p.Tiling.Type = TilingType(i) }),
	"tiling.scale":   floatField(0.1, 3, func(p *ParameterState) *float64 { return &p.Tiling.Scale }),
	"tiling.overlap": floatField(0, 1, func(p *ParameterState) *float64 { return &p.Tiling.Overlap }),
	"tiling.feather": floatField(0, 1, func(p *ParameterState) *float64 { return &p.Tiling.Feather }),

	"masking.centerRadius":  floatField(0, 100, func(p *ParameterState) *float64 { return &p.Masking.CenterRadius }),
	"masking.lumaThreshold": floatField(0, 100, func(p *ParameterState) *float64 { return &p.Masking.LumaThreshold }),
	"masking.invertLuma":    boolField(func(p *ParameterState) *bool { return &p.Masking.InvertLuma }),
	"masking.feather":       floatField(0, 1, func(p *ParameterState) *float64 { return &p.Masking.Feather }),

	"generator.type":       enumField(len(generatorNames), func(p *ParameterState, i int) { p.Generator.Type = GeneratorType(i) }),
	"generator.param1":     floatField(0, 100, func(p *ParameterState) *float64 { return &p.Generator.Param1 }),
	"generator.param2":     floatField(0, 100, func(p *ParameterState) *float64 { return &p.Generator.Param2 }),
	"generator.param3":     floatField(0, 100, func(p *ParameterState) *float64 { return &p.Generator.Param3 }),
	"generator.isAnimated": boolField(func(p *ParameterState) *bool { return &p.Generator.IsAnimated }),

	"color.posterize": intField(2, 32, func(p *ParameterState) *int { return &p.Color.Posterize }),
	"color.r":         floatField(0, 2, func(p *ParameterState) *float64 { return &p.Color.R }),
	"color.g":         floatField(0, 2, func(p *ParameterState) *float64 { return &p.Color.G }),
	"color.b":         floatField(0, 2, func(p *ParameterState) *float64 { return &p.Color.B }),
	"color.hue":       floatField(-1, 1, func(p *ParameterState) *float64 { return &p.Color.Hue }),
	"color.sat":       floatField(0, 3, func(p *ParameterState) *float64 { return &p.Color.Sat }),
	"color.light":     floatField(0, 2, func(p *ParameterState) *float64 { return &p.Color.Light }),

	"effects.edgeDetect":          floatField(0, 100, func(p *ParameterState) *float64 { return &p.Effects.EdgeDetect }),
	"effects.invert":              floatField(0, 100, func(p *ParameterState) *float64 { return &p.Effects.Invert }),
	"effects.solarize":            floatField(0, 100, func(p *ParameterState) *float64 { return &p.Effects.Solarize }),
	"effects.shift":               floatField(0, 100, func(p *ParameterState) *float64 { return &p.Effects.Shift }),
	"effects.bloom":               floatField(0, 3, func(p *ParameterState) *float64 { return &p.Effects.Bloom }),
	"effects.chromaticAberration": floatField(0, 1, func(p *ParameterState) *float64 { return &p.Effects.ChromaticAberration }),
	"effects.noise":               floatField(0, 1, func(p *ParameterState) *float64 { return &p.Effects.Noise }),
	"effects.blur":                floatField(0, 1, func(p *ParameterState) *float64 { return &p.Effects.Blur }),

	"feedback.amount": floatField(0, 100, func(p *ParameterState) *float64 { return &p.Feedback.Amount }),
}

// canonicalPath accepts "transform." as an alias of the document's
// "transforms." group name.
func canonicalPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "transform."); ok {
		return "transforms." + rest
	}
	return path
}

// SetField returns an update writing normalized v in [0, 1] to the field at
// path, mapped over rng (or the field's default range when rng is zero).
// Integer fields round to nearest, booleans are true at v >= 0.5, and
// enums split [0, 1] into equal bands.
func SetField(path string, v float64, rng Range) Update {
	return updateFunc(func(p *ParameterState) error {
		fld, ok := fields[canonicalPath(path)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, path)
		}
		x, r := clampF(finite(v, 0), 0, 1), rng
		if r == (Range{}) {
			r = fld.rng
		}
		switch fld.kind {
		case fieldFloat:
			*fld.f(p) = r.Lerp(x)
		case fieldInt:
			*fld.i(p) = int(math.Round(r.Lerp(x)))
		case fieldBool:
			*fld.b(p) = x >= 0.5
		case fieldEnum:
			fld.enum(p, min(int(x*float64(fld.count)), fld.count-1))
		}
		return nil
	})
}

// FieldRange returns the default modulation range for path.
func FieldRange(path string) (Range, bool) {
	spec, ok := fields[canonicalPath(path)]
	return spec.rng, ok
}

// FieldPaths lists every addressable field path in sorted order.
func FieldPaths() []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
