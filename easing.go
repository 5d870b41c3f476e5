package lumen

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Easing shapes the transport's progress curve between two snapshots.
type Easing uint8

const (
	EaseLinear    Easing = iota
	EaseIn               // quadratic in
	EaseOut              // quadratic out
	EaseInOut            // quadratic in-out
	EaseBounce           // bounce out
	EaseElastic          // elastic out, overshoots 1
)

var easingNames = [...]string{"linear", "easeIn", "easeOut", "easeInOut", "bounce", "elastic"}

var easingFuncs = [...]ease.TweenFunc{
	ease.Linear,
	ease.InQuad,
	ease.OutQuad,
	ease.InOutQuad,
	ease.OutBounce,
	ease.OutElastic,
}

func (e Easing) String() string {
	if int(e) < len(easingNames) {
		return easingNames[e]
	}
	return fmt.Sprintf("Easing(%d)", e)
}

// MarshalText implements encoding.TextMarshaler.
func (e Easing) MarshalText() ([]byte, error) { return marshalEnum(e.String(), int(e), len(easingNames)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Easing) UnmarshalText(b []byte) error {
	i, err := parseEnum("easing", string(b), easingNames[:])
	*e = Easing(i)
	return err
}

// Func returns the gween curve for e. Unknown values fall back to linear.
func (e Easing) Func() ease.TweenFunc {
	if int(e) < len(easingFuncs) {
		return easingFuncs[e]
	}
	return ease.Linear
}

// Apply maps raw progress t in [0, 1] through the curve. Elastic may
// return values outside [0, 1].
func (e Easing) Apply(t float64) float64 {
	return float64(e.Func()(float32(t), 0, 1, 1))
}

// Glide smooths a single value toward a moving target. Each Retarget starts
// a new tween from the current value, so rapid input changes ease into each
// other instead of jumping. Hosts use it to soften gamepad and MIDI input.
type Glide struct {
	tween    *gween.Tween
	value    float64
	target   float64
	duration float32
	fn       ease.TweenFunc
}

// NewGlide creates a glide at the given starting value. duration is in
// seconds; fn defaults to ease.OutQuad when nil.
func NewGlide(start float64, duration float32, fn ease.TweenFunc) *Glide {
	if fn == nil {
		fn = ease.OutQuad
	}
	return &Glide{value: start, target: start, duration: duration, fn: fn}
}

// Retarget starts easing toward target. Repeated calls with the same target
// do not restart the tween.
func (g *Glide) Retarget(target float64) {
	if target == g.target && g.tween != nil {
		return
	}
	g.target = target
	if g.duration <= 0 {
		g.value = target
		g.tween = nil
		return
	}
	g.tween = gween.New(float32(g.value), float32(target), g.duration, g.fn)
}

// Update advances the glide by dt seconds and returns the current value.
func (g *Glide) Update(dt float32) float64 {
	if g.tween == nil {
		return g.value
	}
	v, done := g.tween.Update(dt)
	g.value = float64(v)
	if done {
		g.value = g.target
		g.tween = nil
	}
	return g.value
}

// Value returns the current value without advancing.
func (g *Glide) Value() float64 { return g.value }

// Settled reports whether the glide has reached its target.
func (g *Glide) Settled() bool { return g.tween == nil }
