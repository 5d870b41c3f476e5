// Package lumen is a real-time generative visual synthesizer. It turns a
// source raster (a still image, video frames or a procedural generator)
// into a continuously transformed output frame: kaleidoscopic symmetry,
// wallpaper tiling, polar warps, luma and radial masks, colour grading,
// post effects and a feedback trail, all driven by one parameter record.
//
// The core renders into [image.RGBA] and never needs a display. The
// companion packages add a window (lumen/host, via [Ebitengine]) and a
// network control surface (lumen/remote).
//
// # Quick start
//
// The simplest way to see something is host.Run, which opens a window and
// drives the engine from the game loop:
//
//	engine := lumen.NewEngine(lumen.EngineConfig{
//		Render: lumen.RenderConfig{Width: 960, Height: 540},
//	})
//	engine.ApplyPreset("Neon Cortex")
//	host.Run(engine, host.RunConfig{Title: "lumen"})
//
// Without a window, call [Engine.Update] and [Engine.Render] yourself:
//
//	for {
//		engine.Update(time.Second / 60)
//		frame := engine.Render()
//		// ... upload or encode frame ...
//	}
//
// # Parameters and snapshots
//
// Everything the renderer does is described by a [ParameterState], owned
// by the engine's [Store]. Writers replace whole groups ([SetTransform],
// [SetSymmetry], [SetEffects] and friends) and every write is sanitized,
// so the renderer never sees an invalid value. Writers on other
// goroutines use [Store.Post]; the queue is drained at the start of each
// Update.
//
// [Store.Capture] freezes the live state as a [Snapshot]. The engine's
// [Transport] plays snapshots back in sequence, blending each pair with an
// [Easing] curve:
//
//	engine.Capture()
//	engine.ApplyPreset("Portal Tunnel")
//	engine.Capture()
//	engine.Transport().Play()
//
// # Modulation
//
// Controllers address single fields by path with values normalized to
// [0, 1], for example [FieldUpdate]{Path: "generator.param1", Value: 0.5}.
// [MIDIRouter] maps MIDI notes and controllers onto field paths, with a
// learn mode, and [Engine.SetAudioBands] lets an analyzer push low, mid
// and high levels that modulate the frame without touching the store.
//
// # Files
//
// Presets are YAML ([LoadPresets]), host configuration is TOML
// ([LoadConfig]), projects are JSON documents ([Engine.SaveProject]) and
// cue scripts are JSON step lists ([LoadCueScript]) for headless
// rendering and automated checks. Frames export as PNG.
//
// [Ebitengine]: https://ebitengine.org
package lumen
