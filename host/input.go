package host

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/lumen"
)

// action is a discrete session command bound to a key or button.
type action uint8

const (
	actionNone action = iota
	actionTogglePlay
	actionCapture
	actionDeleteSnapshot
	actionTogglePause
	actionToggleLock
	actionRandomize
	actionReset
	actionExport
	actionToggleSymmetry
	actionToggleInvert
	actionPrevGenerator
	actionNextGenerator
	actionPrevSymmetry
	actionNextSymmetry
	actionQuit
	actionPreset0 // actionPreset0+i loads preset i
)

var keyBindings = map[ebiten.Key]action{
	ebiten.KeySpace:     actionTogglePlay,
	ebiten.KeyS:         actionCapture,
	ebiten.KeyDelete:    actionDeleteSnapshot,
	ebiten.KeyBackspace: actionDeleteSnapshot,
	ebiten.KeyP:         actionTogglePause,
	ebiten.KeyL:         actionToggleLock,
	ebiten.KeyR:         actionRandomize,
	ebiten.KeyE:         actionExport,
	ebiten.KeyEscape:    actionQuit,
	ebiten.KeyDigit1:    actionPreset0,
	ebiten.KeyDigit2:    actionPreset0 + 1,
	ebiten.KeyDigit3:    actionPreset0 + 2,
	ebiten.KeyDigit4:    actionPreset0 + 3,
	ebiten.KeyDigit5:    actionPreset0 + 4,
	ebiten.KeyDigit6:    actionPreset0 + 5,
	ebiten.KeyDigit7:    actionPreset0 + 6,
	ebiten.KeyDigit8:    actionPreset0 + 7,
	ebiten.KeyDigit9:    actionPreset0 + 8,
	ebiten.KeyDigit0:    actionPreset0 + 9,
}

// padBindings follows the standard layout: A, B, X and Y are the right
// cluster, LB and RB the front top buttons and the d-pad the left cluster.
var padBindings = map[ebiten.StandardGamepadButton]action{
	ebiten.StandardGamepadButtonRightBottom:   actionTogglePlay,
	ebiten.StandardGamepadButtonRightRight:    actionToggleSymmetry,
	ebiten.StandardGamepadButtonRightLeft:     actionToggleInvert,
	ebiten.StandardGamepadButtonRightTop:      actionRandomize,
	ebiten.StandardGamepadButtonFrontTopLeft:  actionPrevGenerator,
	ebiten.StandardGamepadButtonFrontTopRight: actionNextGenerator,
	ebiten.StandardGamepadButtonCenterLeft:    actionReset,
	ebiten.StandardGamepadButtonLeftTop:       actionPrevSymmetry,
	ebiten.StandardGamepadButtonLeftLeft:      actionPrevSymmetry,
	ebiten.StandardGamepadButtonLeftBottom:    actionNextSymmetry,
	ebiten.StandardGamepadButtonLeftRight:     actionNextSymmetry,
}

// pressedActions returns the actions whose keys went down this tick.
func pressedActions() []action {
	var out []action
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if a, ok := keyBindings[k]; ok {
			out = append(out, a)
		}
	}
	return out
}

// dispatch runs a on the tick goroutine.
func dispatch(e *lumen.Engine, a action) {
	s := e.Store()
	state := s.State()
	switch a {
	case actionTogglePlay:
		e.Transport().Toggle()
	case actionCapture:
		snap := e.Capture()
		lumen.Logger().Info("snapshot captured", "id", snap.ID(), "count", len(s.Snapshots()))
	case actionDeleteSnapshot:
		e.DeleteLastSnapshot()
	case actionTogglePause:
		e.Transport().SetPaused(!e.Transport().State().Paused)
	case actionToggleLock:
		e.Transport().Config.LockGeometry = !e.Transport().Config.LockGeometry
	case actionRandomize:
		e.Randomize()
	case actionReset:
		e.Reset()
	case actionExport:
		e.QueueExport("frame")
	case actionToggleSymmetry:
		sym := state.Symmetry
		sym.Enabled = !sym.Enabled
		s.Apply(lumen.SetSymmetry(sym))
	case actionToggleInvert:
		fx := state.Effects
		if fx.Invert > 0 {
			fx.Invert = 0
		} else {
			fx.Invert = 100
		}
		s.Apply(lumen.SetEffects(fx))
	case actionPrevGenerator, actionNextGenerator:
		gen := state.Generator
		gen.Type = cycleGenerator(gen.Type, direction(a == actionNextGenerator))
		s.Apply(lumen.SetGenerator(gen))
	case actionPrevSymmetry, actionNextSymmetry:
		sym := state.Symmetry
		sym.Type = cycleSymmetry(sym.Type, direction(a == actionNextSymmetry))
		s.Apply(lumen.SetSymmetry(sym))
	default:
		if a >= actionPreset0 {
			if err := e.ApplyPresetIndex(int(a - actionPreset0)); err != nil {
				lumen.Logger().Warn("preset key", "error", err)
			}
		}
	}
}

func direction(forward bool) int {
	if forward {
		return 1
	}
	return -1
}

var generatorCycle = []lumen.GeneratorType{
	lumen.GeneratorFibonacci, lumen.GeneratorVoronoi, lumen.GeneratorGrid,
	lumen.GeneratorLiquid, lumen.GeneratorPlasma, lumen.GeneratorFractal,
}

// cycleGenerator steps through the procedural generators. GeneratorNone
// counts as the first entry.
func cycleGenerator(cur lumen.GeneratorType, dir int) lumen.GeneratorType {
	idx := 0
	for i, g := range generatorCycle {
		if g == cur {
			idx = i
		}
	}
	n := len(generatorCycle)
	return generatorCycle[(idx+dir+n)%n]
}

func cycleSymmetry(cur lumen.SymmetryType, dir int) lumen.SymmetryType {
	const n = int(lumen.SymmetryMirrorY) + 1
	return lumen.SymmetryType((int(cur) + dir + n) % n)
}

// --- Gamepad ---

const (
	padDeadzone  = 0.1
	triggerFloor = 0.05
	padGlideTime = 0.15
)

// padInput is one tick of gamepad state.
type padInput struct {
	Connected      bool
	LX, LY, RX, RY float64
	L2, R2         float64
	Pressed        []action
}

// readPad samples the first gamepad with a standard layout.
func readPad() padInput {
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		in := padInput{
			Connected: true,
			LX:        ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal),
			LY:        ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical),
			RX:        ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal),
			RY:        ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical),
			L2:        ebiten.StandardGamepadButtonValue(id, ebiten.StandardGamepadButtonFrontBottomLeft),
			R2:        ebiten.StandardGamepadButtonValue(id, ebiten.StandardGamepadButtonFrontBottomRight),
		}
		for b, a := range padBindings {
			if inpututil.IsStandardGamepadButtonJustPressed(id, b) {
				in.Pressed = append(in.Pressed, a)
			}
		}
		return in
	}
	return padInput{}
}

// padController turns stick and trigger positions into parameter writes.
// Sticks nudge the transform every tick; triggers set displacement through
// a glide so that a snapped trigger still eases in.
type padController struct {
	amp, freq *lumen.Glide
	active    bool
}

func newPadController() *padController {
	return &padController{
		amp:  lumen.NewGlide(0, padGlideTime, ease.OutQuad),
		freq: lumen.NewGlide(10, padGlideTime, ease.OutQuad),
	}
}

func deadzone(v float64) float64 {
	if math.Abs(v) <= padDeadzone {
		return 0
	}
	return v
}

func (c *padController) update(e *lumen.Engine, in padInput, dt float32) {
	if !in.Connected {
		return
	}
	s := e.Store()
	state := s.State()

	lx, ly := deadzone(in.LX), deadzone(in.LY)
	rx, ry := deadzone(in.RX), deadzone(in.RY)
	if lx != 0 || ly != 0 || rx != 0 || ry != 0 {
		t := state.Transform
		t.X += lx * 2
		t.Y -= ly * 2
		t.Rotation += rx * 0.05
		if ry != 0 {
			t.Scale = math.Max(0.1, t.Scale-ry*0.02)
		}
		s.Apply(lumen.SetTransform(t))
	}

	l2, r2 := in.L2 > triggerFloor, in.R2 > triggerFloor
	if l2 || r2 || !c.amp.Settled() || !c.freq.Settled() {
		if !c.active {
			// Glide from whatever the store holds now.
			c.amp = lumen.NewGlide(state.Displacement.Amp, padGlideTime, ease.OutQuad)
			c.freq = lumen.NewGlide(state.Displacement.Freq, padGlideTime, ease.OutQuad)
			c.active = true
		}
		if l2 {
			c.amp.Retarget(in.L2 * 100)
		}
		if r2 {
			c.freq.Retarget(10 + in.R2*50)
		}
		d := state.Displacement
		d.Amp = c.amp.Update(dt)
		d.Freq = c.freq.Update(dt)
		s.Apply(lumen.SetDisplacement(d))
	} else {
		c.active = false
	}

	for _, a := range in.Pressed {
		dispatch(e, a)
	}
}
