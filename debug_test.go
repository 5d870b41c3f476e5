package lumen

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFrameStatsTotal(t *testing.T) {
	s := FrameStats{Geometry: 1 * time.Millisecond, Remap: 2 * time.Millisecond,
		PostFX: 3 * time.Millisecond, Feedback: 4 * time.Millisecond}
	if got := s.Total(); got != 10*time.Millisecond {
		t.Errorf("Total = %v, want 10ms", got)
	}
}

func TestDebugLogLevels(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	debugLog(7, FrameStats{Geometry: time.Millisecond, Filters: 2})
	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "n=7") {
		t.Errorf("fast frame log = %q", out)
	}
	if !strings.Contains(out, "stats.filters=2") {
		t.Errorf("stats group missing: %q", out)
	}

	buf.Reset()
	debugLog(8, FrameStats{Geometry: 2 * slowFrame})
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("slow frame log = %q", buf.String())
	}
}
