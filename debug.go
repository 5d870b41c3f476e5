package lumen

import (
	"context"
	"log/slog"
	"time"
)

// FrameStats holds per-frame timings for each pipeline stage.
type FrameStats struct {
	Geometry time.Duration
	Remap    time.Duration
	PostFX   time.Duration
	Feedback time.Duration
	// Remapped reports whether the remap stage ran; Filters is the number
	// of post-process filters applied.
	Remapped bool
	Filters  int
}

// Total is the sum of all stage timings.
func (s FrameStats) Total() time.Duration {
	return s.Geometry + s.Remap + s.PostFX + s.Feedback
}

// LogValue implements slog.LogValuer.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("geometry", s.Geometry),
		slog.Duration("remap", s.Remap),
		slog.Duration("postfx", s.PostFX),
		slog.Duration("feedback", s.Feedback),
		slog.Duration("total", s.Total()),
		slog.Bool("remapped", s.Remapped),
		slog.Int("filters", s.Filters),
	)
}

// slowFrame is the budget above which a frame is reported at warn level in
// debug mode.
const slowFrame = 50 * time.Millisecond

// debugLog reports frame timings. Only called when Engine debug mode is on.
func debugLog(frame uint64, stats FrameStats) {
	level := slog.LevelDebug
	if stats.Total() > slowFrame {
		level = slog.LevelWarn
	}
	Logger().Log(context.Background(), level, "frame", "n", frame, "stats", stats)
}
