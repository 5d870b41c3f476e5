package lumen

import "math"

// Interpolate blends two parameter records. t is the eased progress and may
// leave [0, 1] for overshooting curves; continuous fields extrapolate in
// that case and callers sanitize the result before storing it.
//
// Rotation takes the shortest angular path. Slices and Posterize are
// rounded to the nearest integer. Discrete fields (enums and booleans)
// hold a's value at t <= 0 and switch to b's for any t > 0. Missing or
// invalid inputs are replaced by per-field defaults before blending, so
// Interpolate never fails.
func Interpolate(a, b ParameterState, t float64) ParameterState {
	if math.IsNaN(t) {
		t = 0
	}
	a, b = fillDefaults(a), fillDefaults(b)
	snap := t > 0
	pick := func(x, y bool) bool {
		if snap {
			return y
		}
		return x
	}

	var out ParameterState

	out.Transform = Transform{
		X:        lerp(a.Transform.X, b.Transform.X, t),
		Y:        lerp(a.Transform.Y, b.Transform.Y, t),
		Scale:    lerp(a.Transform.Scale, b.Transform.Scale, t),
		Rotation: lerpAngle(a.Transform.Rotation, b.Transform.Rotation, t),
	}

	out.Symmetry = Symmetry{
		Enabled: pick(a.Symmetry.Enabled, b.Symmetry.Enabled),
		Type:    a.Symmetry.Type,
		Slices:  lerpInt(a.Symmetry.Slices, b.Symmetry.Slices, t),
		Offset:  lerp(a.Symmetry.Offset, b.Symmetry.Offset, t),
	}
	out.Warp.Type = a.Warp.Type
	out.Tiling.Type = a.Tiling.Type
	out.Generator.Type = a.Generator.Type
	if snap {
		out.Symmetry.Type = b.Symmetry.Type
		out.Warp.Type = b.Warp.Type
		out.Tiling.Type = b.Tiling.Type
		out.Generator.Type = b.Generator.Type
	}

	out.Displacement = Displacement{
		Amp:  lerp(a.Displacement.Amp, b.Displacement.Amp, t),
		Freq: lerp(a.Displacement.Freq, b.Displacement.Freq, t),
	}

	out.Tiling.Scale = lerp(a.Tiling.Scale, b.Tiling.Scale, t)
	out.Tiling.Overlap = lerp(a.Tiling.Overlap, b.Tiling.Overlap, t)
	out.Tiling.Feather = lerp(a.Tiling.Feather, b.Tiling.Feather, t)

	out.Masking = Masking{
		CenterRadius:  lerp(a.Masking.CenterRadius, b.Masking.CenterRadius, t),
		LumaThreshold: lerp(a.Masking.LumaThreshold, b.Masking.LumaThreshold, t),
		InvertLuma:    pick(a.Masking.InvertLuma, b.Masking.InvertLuma),
		Feather:       lerp(a.Masking.Feather, b.Masking.Feather, t),
	}

	out.Generator.Param1 = lerp(a.Generator.Param1, b.Generator.Param1, t)
	out.Generator.Param2 = lerp(a.Generator.Param2, b.Generator.Param2, t)
	out.Generator.Param3 = lerp(a.Generator.Param3, b.Generator.Param3, t)
	out.Generator.IsAnimated = pick(a.Generator.IsAnimated, b.Generator.IsAnimated)

	out.Color = ColorGrade{
		Posterize: lerpInt(a.Color.Posterize, b.Color.Posterize, t),
		R:         lerp(a.Color.R, b.Color.R, t),
		G:         lerp(a.Color.G, b.Color.G, t),
		B:         lerp(a.Color.B, b.Color.B, t),
		Hue:       lerp(a.Color.Hue, b.Color.Hue, t),
		Sat:       lerp(a.Color.Sat, b.Color.Sat, t),
		Light:     lerp(a.Color.Light, b.Color.Light, t),
	}

	out.Effects = Effects{
		EdgeDetect:          lerp(a.Effects.EdgeDetect, b.Effects.EdgeDetect, t),
		Invert:              lerp(a.Effects.Invert, b.Effects.Invert, t),
		Solarize:            lerp(a.Effects.Solarize, b.Effects.Solarize, t),
		Shift:               lerp(a.Effects.Shift, b.Effects.Shift, t),
		Bloom:               lerp(a.Effects.Bloom, b.Effects.Bloom, t),
		ChromaticAberration: lerp(a.Effects.ChromaticAberration, b.Effects.ChromaticAberration, t),
		Noise:               lerp(a.Effects.Noise, b.Effects.Noise, t),
		Blur:                lerp(a.Effects.Blur, b.Effects.Blur, t),
	}

	out.Feedback.Amount = lerp(a.Feedback.Amount, b.Feedback.Amount, t)
	return out
}

// fillDefaults replaces zero or invalid values that have no meaningful zero
// reading with their defaults. Values that are legitimately zero (offsets,
// amplitudes, thresholds) are kept as given, apart from non-finite ones.
func fillDefaults(p ParameterState) ParameterState {
	d := Defaults()
	if !(p.Transform.Scale > 0) || math.IsInf(p.Transform.Scale, 0) {
		p.Transform.Scale = d.Transform.Scale
	}
	if p.Symmetry.Slices < minSlices {
		p.Symmetry.Slices = d.Symmetry.Slices
	}
	if !(p.Displacement.Freq > 0) || math.IsInf(p.Displacement.Freq, 0) {
		p.Displacement.Freq = d.Displacement.Freq
	}
	if !(p.Tiling.Scale > 0) || math.IsInf(p.Tiling.Scale, 0) {
		p.Tiling.Scale = d.Tiling.Scale
	}
	if p.Color.Posterize < minPosterize {
		p.Color.Posterize = d.Color.Posterize
	}
	for _, f := range []*float64{
		&p.Transform.X, &p.Transform.Y, &p.Transform.Rotation,
		&p.Symmetry.Offset, &p.Displacement.Amp,
		&p.Tiling.Overlap, &p.Tiling.Feather,
		&p.Masking.CenterRadius, &p.Masking.LumaThreshold, &p.Masking.Feather,
		&p.Color.Hue,
		&p.Effects.EdgeDetect, &p.Effects.Invert, &p.Effects.Solarize, &p.Effects.Shift,
		&p.Effects.Bloom, &p.Effects.ChromaticAberration, &p.Effects.Noise, &p.Effects.Blur,
		&p.Feedback.Amount,
	} {
		*f = finite(*f, 0)
	}
	p.Generator.Param1 = finite(p.Generator.Param1, defaultGenParam)
	p.Generator.Param2 = finite(p.Generator.Param2, defaultGenParam)
	p.Generator.Param3 = finite(p.Generator.Param3, defaultGenParam)
	p.Color.R = finite(p.Color.R, 1)
	p.Color.G = finite(p.Color.G, 1)
	p.Color.B = finite(p.Color.B, 1)
	p.Color.Sat = finite(p.Color.Sat, 1)
	p.Color.Light = finite(p.Color.Light, 1)
	return p
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func lerpInt(a, b int, t float64) int {
	return int(math.Round(lerp(float64(a), float64(b), t)))
}

// lerpAngle interpolates along the shorter arc. The delta is wrapped into
// (-π, π], so a half-turn goes counter-clockwise.
func lerpAngle(a, b, t float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return a + d*t
}
