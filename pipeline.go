package lumen

import (
	"image"
	"time"
)

// RenderConfig sets the output raster and how it is produced.
type RenderConfig struct {
	Width, Height int
	// Background is the flat fill under the feedback trail and the output
	// when no source is present. The zero value uses DefaultBackground.
	Background Color
	Kernel     Kernel
}

func (c RenderConfig) background() Color {
	if c.Background == (Color{}) {
		return DefaultBackground
	}
	return c.Background
}

// Pipeline turns a source and a parameter state into one output raster
// per call: geometry, then the pixel remap, then post-processing, then the
// feedback blend. It owns every buffer involved and is not safe for
// concurrent use.
type Pipeline struct {
	cfg RenderConfig

	geom     geometryStage
	feedback feedbackStage
	scratch  arena

	active *Buffer
	frozen *Buffer
	output *Buffer

	stats FrameStats
}

// NewPipeline allocates buffers for cfg.
func NewPipeline(cfg RenderConfig) *Pipeline {
	cfg.Width, cfg.Height = max(cfg.Width, 1), max(cfg.Height, 1)
	p := &Pipeline{
		cfg:    cfg,
		geom:   geometryStage{kernel: cfg.Kernel},
		active: NewBuffer(cfg.Width, cfg.Height),
		frozen: NewBuffer(cfg.Width, cfg.Height),
		output: NewBuffer(cfg.Width, cfg.Height),
	}
	p.feedback.resize(cfg.Width, cfg.Height)
	return p
}

// Config returns the current render configuration.
func (p *Pipeline) Config() RenderConfig { return p.cfg }

// Size returns the output dimensions.
func (p *Pipeline) Size() (w, h int) { return p.cfg.Width, p.cfg.Height }

// Resize changes the output resolution. Every buffer is reallocated and
// the feedback trail is discarded. Resizing to the current size is a
// no-op.
func (p *Pipeline) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if w == p.cfg.Width && h == p.cfg.Height {
		return
	}
	p.cfg.Width, p.cfg.Height = w, h
	p.active.Resize(w, h)
	p.frozen.Resize(w, h)
	p.output.Resize(w, h)
	p.feedback.resize(w, h)
	p.scratch.reset()
	Logger().Info("pipeline resized", "width", w, "height", h)
}

// SetKernel changes the resampling kernel.
func (p *Pipeline) SetKernel(k Kernel) {
	p.cfg.Kernel = k
	p.geom.kernel = k
}

// SetBackground changes the background fill.
func (p *Pipeline) SetBackground(c Color) { p.cfg.Background = c }

// Output returns the most recent output raster. It is overwritten by the
// next Render.
func (p *Pipeline) Output() *image.RGBA { return p.output.Image() }

// Generation returns the output buffer generation. It changes whenever the
// resolution changes.
func (p *Pipeline) Generation() uint64 { return p.output.Generation() }

// Stats returns the timings of the last Render.
func (p *Pipeline) Stats() FrameStats { return p.stats }

// Render produces one frame. A nil or empty src renders the background.
// The returned raster is owned by the pipeline and reused by the next
// call.
func (p *Pipeline) Render(src *Source, params ParameterState) *image.RGBA {
	var stats FrameStats
	bg := p.cfg.background().RGBA()
	w, h := p.cfg.Width, p.cfg.Height

	t0 := time.Now()
	p.geom.render(p.active.Image(), p.frozen.Image(), src, params, bg)
	t1 := time.Now()
	stats.Geometry = t1.Sub(t0)

	frame := p.active.Image()
	var remapped *image.RGBA
	if !src.empty() && remapActive(params) {
		remapped = p.scratch.acquire(w, h)
		remap(remapped, p.active.Image(), p.frozen.Image(), params)
		frame = remapped
		stats.Remapped = true
	}
	t2 := time.Now()
	stats.Remap = t2.Sub(t1)

	filters := filtersFor(params.Color, params.Effects)
	applyFilters(filters, frame)
	stats.Filters = len(filters)
	t3 := time.Now()
	stats.PostFX = t3.Sub(t2)

	p.feedback.composite(p.output.Image(), frame, params.Feedback.Amount, bg)
	if remapped != nil {
		p.scratch.release(remapped)
	}
	stats.Feedback = time.Since(t3)

	p.stats = stats
	return p.output.Image()
}
