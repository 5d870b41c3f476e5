package lumen

import (
	"image"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// AudioGains scales each analyzer band's effect on the rendered frame.
type AudioGains struct {
	Low  float64 `json:"low" toml:"low"`
	Mid  float64 `json:"mid" toml:"mid"`
	High float64 `json:"high" toml:"high"`
}

// EngineConfig configures a new Engine.
type EngineConfig struct {
	Render    RenderConfig
	Transport TransportConfig
	Audio     AudioGains
	// ExportDir receives queued PNG exports. Empty means the working
	// directory.
	ExportDir string
	// Seed feeds Randomize. Zero seeds from the clock.
	Seed uint64
	// Presets is the preset book used by ApplyPreset. Nil uses the
	// built-in presets.
	Presets *PresetBook
}

// Engine runs one synthesis session: it owns the parameter store, the
// snapshot transport, the procedural generator and the render pipeline.
// Update and Render must be called from one goroutine (the tick
// goroutine); other goroutines talk to the engine through Post,
// Store().Post, Store().Published, SetAudioBands and RequestFrame.
type Engine struct {
	store     *Store
	transport *Transport
	pipeline  *Pipeline
	gen       *GeneratorSource
	source    *Source
	presets   atomic.Pointer[PresetBook]

	gains AudioGains

	rng   *rand.Rand
	debug bool
	frame uint64

	exportDir   string
	exportQueue []string
	cue         *CueRunner

	mu       sync.Mutex
	audio    [3]float64
	commands []func(*Engine)
	requests []chan *image.RGBA
}

// NewEngine creates an engine with default parameters and no source.
func NewEngine(cfg EngineConfig) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	presets := cfg.Presets
	if presets == nil {
		presets = BuiltinPresets()
	}
	e := &Engine{
		store:     NewStore(),
		transport: NewTransport(cfg.Transport),
		pipeline:  NewPipeline(cfg.Render),
		gen:       NewGeneratorSource(),
		gains:     cfg.Audio,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		exportDir: cfg.ExportDir,
	}
	e.presets.Store(presets)
	return e
}

// Store returns the parameter store.
func (e *Engine) Store() *Store { return e.store }

// Transport returns the snapshot transport.
func (e *Engine) Transport() *Transport { return e.transport }

// Pipeline returns the render pipeline.
func (e *Engine) Pipeline() *Pipeline { return e.pipeline }

// Generator returns the procedural source.
func (e *Engine) Generator() *GeneratorSource { return e.gen }

// SetSource sets the raster used when no generator is selected. Nil clears
// it.
func (e *Engine) SetSource(s *Source) { e.source = s }

// Source returns the loaded raster, or nil.
func (e *Engine) Source() *Source { return e.source }

// SetAudioBands sets the current analyzer levels, each in [0, 1]. They
// modulate the rendered frame only and are never written to the store.
// Safe for concurrent use.
func (e *Engine) SetAudioBands(low, mid, high float64) {
	e.mu.Lock()
	e.audio = [3]float64{clamp01(low), clamp01(mid), clamp01(high)}
	e.mu.Unlock()
}

func (e *Engine) audioBands() [3]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audio
}

// SetAudioGains changes the per-band reactivity.
func (e *Engine) SetAudioGains(g AudioGains) { e.gains = g }

// SetDebugMode enables per-frame timing logs at debug level.
func (e *Engine) SetDebugMode(enabled bool) { e.debug = enabled }

// Frame returns the number of completed Update calls.
func (e *Engine) Frame() uint64 { return e.frame }

// Post queues cmd to run on the tick goroutine at the start of the next
// Update. Safe for concurrent use; servers use it for transport and
// snapshot commands.
func (e *Engine) Post(cmd func(*Engine)) {
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	e.mu.Unlock()
}

// Update advances the session by dt: posted commands and queued writes are
// applied, the transport writes its blend, the generator clock moves and
// the state is published for other goroutines.
func (e *Engine) Update(dt time.Duration) {
	e.mu.Lock()
	cmds := e.commands
	e.commands = nil
	e.mu.Unlock()
	for _, cmd := range cmds {
		cmd(e)
	}
	if e.cue != nil {
		e.cue.step(e)
	}
	e.store.Flush()
	if blend, ok := e.transport.Tick(dt, e.store.Snapshots()); ok {
		e.store.applyBlend(blend, e.transport.Config.LockGeometry)
	}
	e.gen.Advance(dt.Seconds(), e.store.State().Generator)
	e.store.Publish()
	e.frame++
}

// Render draws the current state and returns the output raster. The
// raster is owned by the engine and overwritten by the next Render.
func (e *Engine) Render() *image.RGBA {
	p := audioOverlay(e.store.State(), e.audioBands(), e.gains)
	w, h := e.pipeline.Size()

	src := e.source
	if p.Generator.Type != GeneratorNone {
		src = e.gen.Render(w, h, p.Generator)
	}
	out := e.pipeline.Render(src, p)

	if e.debug {
		debugLog(e.frame, e.pipeline.Stats())
	}
	e.flushExports(out)
	e.serveFrameRequests(out)
	return out
}

// audioOverlay applies analyzer levels to a render copy of p: bass zooms,
// mids turn, highs solarize.
func audioOverlay(p ParameterState, bands [3]float64, g AudioGains) ParameterState {
	if bands == ([3]float64{}) {
		return p
	}
	p.Transform.Scale += bands[0] * g.Low * 0.2
	p.Transform.Rotation += bands[1] * g.Mid * 0.01
	p.Effects.Solarize += bands[2] * g.High * 50
	return p.Sanitize()
}

// --- Session commands ---

// Randomize rerolls the live state.
func (e *Engine) Randomize() { e.store.Randomize(e.rng) }

// Reset restores the default parameters. Snapshots are kept.
func (e *Engine) Reset() { e.store.Reset() }

// Capture saves the live state as a new snapshot.
func (e *Engine) Capture() Snapshot { return e.store.Capture() }

// DeleteLastSnapshot removes the newest snapshot, reporting false when the
// list is empty.
func (e *Engine) DeleteLastSnapshot() bool {
	return e.store.DeleteSnapshot(len(e.store.Snapshots()) - 1)
}

// Presets returns the preset book. Safe for concurrent use.
func (e *Engine) Presets() *PresetBook { return e.presets.Load() }

// SetPresets replaces the preset book, as after a reload. Nil restores the
// built-in presets. Safe for concurrent use.
func (e *Engine) SetPresets(b *PresetBook) {
	if b == nil {
		b = BuiltinPresets()
	}
	e.presets.Store(b)
}

// ApplyPreset loads the named preset into the live state.
func (e *Engine) ApplyPreset(name string) error {
	p, err := e.Presets().Lookup(name)
	if err != nil {
		return err
	}
	return e.store.Apply(ReplaceState(p.State))
}

// ApplyPresetIndex loads the i-th preset, as bound to number keys.
func (e *Engine) ApplyPresetIndex(i int) error {
	p, err := e.Presets().At(i)
	if err != nil {
		return err
	}
	return e.store.Apply(ReplaceState(p.State))
}

// SetCueRunner attaches a cue script. The runner advances one step per
// Update; nil detaches it.
func (e *Engine) SetCueRunner(r *CueRunner) { e.cue = r }

// --- Frame requests ---

// RequestFrame asks for a copy of the next rendered frame. Safe for
// concurrent use; the channel receives exactly one image.
func (e *Engine) RequestFrame() <-chan *image.RGBA {
	ch := make(chan *image.RGBA, 1)
	e.mu.Lock()
	e.requests = append(e.requests, ch)
	e.mu.Unlock()
	return ch
}

func (e *Engine) serveFrameRequests(out *image.RGBA) {
	e.mu.Lock()
	pending := e.requests
	e.requests = nil
	e.mu.Unlock()
	if len(pending) == 0 {
		return
	}
	cp := image.NewRGBA(out.Rect)
	copy(cp.Pix, out.Pix)
	for _, ch := range pending {
		ch <- cp
	}
}
