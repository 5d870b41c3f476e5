package lumen

import (
	"fmt"
	"image/color"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs when the color is converted for a buffer fill.
type Color struct {
	R, G, B, A float64
}

// DefaultBackground is the flat fill used when no source is present and
// underneath the feedback trail.
var DefaultBackground = Color{R: 0x17 / 255.0, G: 0x17 / 255.0, B: 0x17 / 255.0, A: 1}

// RGBA converts c to a premultiplied color.RGBA.
func (c Color) RGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// Vec2 is a 2D vector used for positions, offsets and sizes.
type Vec2 struct {
	X, Y float64
}

// Range is a general-purpose min/max range. Modulation sources map their
// normalized [0, 1] values onto a Range.
type Range struct {
	Min, Max float64
}

// Lerp maps a normalized value onto the range.
func (r Range) Lerp(v float64) float64 {
	return r.Min + (r.Max-r.Min)*v
}

// Clamp restricts v to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// --- Tagged enums ---
// Every enum decodes from its lowercase name. Unknown names are decode
// errors; the zero value of each type is its "off" state.

// SymmetryType selects how the active geometry replicates the source.
type SymmetryType uint8

const (
	SymmetryRadial  SymmetryType = iota // wedges around the viewport center
	SymmetryMirrorX                     // right half mirrors the left
	SymmetryMirrorY                     // bottom half mirrors the top
)

var symmetryNames = [...]string{"radial", "mirrorX", "mirrorY"}

func (s SymmetryType) String() string {
	if int(s) < len(symmetryNames) {
		return symmetryNames[s]
	}
	return fmt.Sprintf("SymmetryType(%d)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s SymmetryType) MarshalText() ([]byte, error) { return marshalEnum(s.String(), int(s), len(symmetryNames)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SymmetryType) UnmarshalText(b []byte) error {
	i, err := parseEnum("symmetry type", string(b), symmetryNames[:])
	*s = SymmetryType(i)
	return err
}

// WarpType selects the coordinate warp applied by the remap stage.
type WarpType uint8

const (
	WarpNone     WarpType = iota // identity
	WarpPolar                    // radius/angle swapped onto the x/y axes
	WarpLogPolar                 // logarithmic radius, tunnel-like
)

var warpNames = [...]string{"none", "polar", "log-polar"}

func (w WarpType) String() string {
	if int(w) < len(warpNames) {
		return warpNames[w]
	}
	return fmt.Sprintf("WarpType(%d)", w)
}

// MarshalText implements encoding.TextMarshaler.
func (w WarpType) MarshalText() ([]byte, error) { return marshalEnum(w.String(), int(w), len(warpNames)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *WarpType) UnmarshalText(b []byte) error {
	i, err := parseEnum("warp type", string(b), warpNames[:])
	*w = WarpType(i)
	return err
}

// TilingType selects the wallpaper group used to stamp the unit cell.
type TilingType uint8

const (
	TilingNone TilingType = iota
	TilingP1              // plain translation
	TilingP2              // 180° rotation on alternating tiles
	TilingP4M             // reflections on odd rows and columns
)

var tilingNames = [...]string{"none", "p1", "p2", "p4m"}

func (t TilingType) String() string {
	if int(t) < len(tilingNames) {
		return tilingNames[t]
	}
	return fmt.Sprintf("TilingType(%d)", t)
}

// MarshalText implements encoding.TextMarshaler.
func (t TilingType) MarshalText() ([]byte, error) { return marshalEnum(t.String(), int(t), len(tilingNames)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TilingType) UnmarshalText(b []byte) error {
	i, err := parseEnum("tiling type", string(b), tilingNames[:])
	*t = TilingType(i)
	return err
}

// GeneratorType selects a procedural source pattern.
type GeneratorType uint8

const (
	GeneratorNone GeneratorType = iota
	GeneratorFibonacci
	GeneratorVoronoi
	GeneratorGrid
	GeneratorLiquid
	GeneratorPlasma
	GeneratorFractal
)

var generatorNames = [...]string{"none", "fibonacci", "voronoi", "grid", "liquid", "plasma", "fractal"}

func (g GeneratorType) String() string {
	if int(g) < len(generatorNames) {
		return generatorNames[g]
	}
	return fmt.Sprintf("GeneratorType(%d)", g)
}

// MarshalText implements encoding.TextMarshaler.
func (g GeneratorType) MarshalText() ([]byte, error) {
	return marshalEnum(g.String(), int(g), len(generatorNames))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GeneratorType) UnmarshalText(b []byte) error {
	i, err := parseEnum("generator type", string(b), generatorNames[:])
	*g = GeneratorType(i)
	return err
}

// PlayMode controls how the transport advances past the ends of the
// snapshot list.
type PlayMode uint8

const (
	PlayLoop     PlayMode = iota // wrap from last to first
	PlayPingPong                 // reverse direction at either end
	PlayOnce                     // stop on the last snapshot
)

var playModeNames = [...]string{"loop", "pingpong", "once"}

func (m PlayMode) String() string {
	if int(m) < len(playModeNames) {
		return playModeNames[m]
	}
	return fmt.Sprintf("PlayMode(%d)", m)
}

// MarshalText implements encoding.TextMarshaler.
func (m PlayMode) MarshalText() ([]byte, error) { return marshalEnum(m.String(), int(m), len(playModeNames)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *PlayMode) UnmarshalText(b []byte) error {
	i, err := parseEnum("play mode", string(b), playModeNames[:])
	*m = PlayMode(i)
	return err
}

func marshalEnum(name string, i, n int) ([]byte, error) {
	if i < 0 || i >= n {
		return nil, fmt.Errorf("lumen: cannot marshal %s", name)
	}
	return []byte(name), nil
}

func parseEnum(kind, s string, names []string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("lumen: unknown %s %q", kind, s)
}
