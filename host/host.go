// Package host runs a lumen Engine in an Ebitengine window: it drives
// Update and Render from the game loop, uploads each frame, maps keyboard
// and gamepad input onto the parameter store and hot-reloads presets.
package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/lumen"
)

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title string
	// Width and Height are the initial window size. Zero uses the engine's
	// output size.
	Width, Height int
	ShowFPS       bool
	// PresetPath is watched for changes and reloaded into the engine's
	// preset book. Empty disables hot reload.
	PresetPath string
	// OnUpdate runs on the tick goroutine before the engine update, after
	// input has been applied. Returning an error stops the loop.
	OnUpdate func(e *lumen.Engine) error
}

// Game adapts an Engine to ebiten.Game.
type Game struct {
	engine  *lumen.Engine
	cfg     RunConfig
	frame   *ebiten.Image
	pad     *padController
	watcher *PresetWatcher
	quit    bool
}

// NewGame creates a game for e. Call Close when done to stop the preset
// watcher.
func NewGame(e *lumen.Engine, cfg RunConfig) (*Game, error) {
	g := &Game{engine: e, cfg: cfg, pad: newPadController()}
	if cfg.PresetPath != "" {
		w, err := WatchPresets(cfg.PresetPath)
		if err != nil {
			return nil, err
		}
		g.watcher = w
	}
	return g, nil
}

// Close releases the preset watcher.
func (g *Game) Close() error {
	if g.watcher == nil {
		return nil
	}
	return g.watcher.Close()
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	dt := time.Second / time.Duration(ebiten.TPS())

	if g.watcher != nil {
		if book, ok := g.watcher.Poll(); ok {
			g.engine.SetPresets(book)
		}
	}
	for _, a := range pressedActions() {
		if a == actionQuit {
			g.quit = true
			continue
		}
		dispatch(g.engine, a)
	}
	g.pad.update(g.engine, readPad(), float32(dt.Seconds()))

	if g.cfg.OnUpdate != nil {
		if err := g.cfg.OnUpdate(g.engine); err != nil {
			return err
		}
	}
	g.engine.Update(dt)
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	out := g.engine.Render()
	w, h := out.Rect.Dx(), out.Rect.Dy()
	if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(w, h)
	}
	g.frame.WritePixels(out.Pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(sw)/float64(w), float64(sh)/float64(h))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.frame, &op)

	if g.cfg.ShowFPS {
		st := g.engine.Transport().State()
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nframe: %.1fms\nsnapshots: %d  step: %d  playing: %v",
			ebiten.ActualFPS(),
			float64(g.engine.Pipeline().Stats().Total().Microseconds())/1000,
			len(g.engine.Store().Snapshots()), st.ActiveIndex, st.Playing))
	}
}

// Layout implements ebiten.Game. The window is a view of the engine's
// output; resizing the window scales the frame rather than the pipeline.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Run opens a window and runs e until the window is closed, Escape is
// pressed or OnUpdate returns an error.
func Run(e *lumen.Engine, cfg RunConfig) error {
	g, err := NewGame(e, cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	w, h := e.Pipeline().Size()
	if cfg.Width > 0 && cfg.Height > 0 {
		w, h = cfg.Width, cfg.Height
	}
	title := cfg.Title
	if title == "" {
		title = "lumen"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
