package lumen

import (
	"math"
	"testing"
	"time"
)

func snapsWithRotation(rotations ...float64) []Snapshot {
	out := make([]Snapshot, len(rotations))
	for i, r := range rotations {
		p := Defaults()
		p.Transform.Rotation = r
		out[i] = NewSnapshot(int64(i+1), i, p)
	}
	return out
}

// stepIndices plays one full step per tick and records the active index
// after each commit.
func stepIndices(tr *Transport, snaps []Snapshot, steps int) []int {
	out := make([]int, 0, steps)
	d := tr.Config.StepDuration()
	for i := 0; i < steps; i++ {
		tr.Tick(d, snaps)
		out = append(out, tr.State().ActiveIndex)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Step duration ---

func TestStepDuration(t *testing.T) {
	tests := []struct {
		name string
		cfg  TransportConfig
		want time.Duration
	}{
		{"default", TransportConfig{}, 2 * time.Second},
		{"configured", TransportConfig{TransitionTime: time.Second}, time.Second},
		{"strobe safety floor", TransportConfig{TransitionTime: 100 * time.Millisecond, StrobeSafety: true}, 500 * time.Millisecond},
		{"plain floor", TransportConfig{TransitionTime: 10 * time.Millisecond}, 50 * time.Millisecond},
		{"above floor", TransportConfig{TransitionTime: 100 * time.Millisecond}, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.StepDuration(); got != tt.want {
				t.Errorf("StepDuration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrobeSafetyHoldsStepAt500ms(t *testing.T) {
	tr := NewTransport(TransportConfig{TransitionTime: 100 * time.Millisecond, StrobeSafety: true})
	snaps := snapsWithRotation(0, 1, 2)
	tr.Play()
	tr.Tick(400*time.Millisecond, snaps)
	if tr.State().ActiveIndex != 0 {
		t.Fatalf("advanced after 400ms, index = %d", tr.State().ActiveIndex)
	}
	tr.Tick(100*time.Millisecond, snaps)
	if tr.State().ActiveIndex != 1 {
		t.Fatalf("index = %d after 500ms, want 1", tr.State().ActiveIndex)
	}
}

// --- Blending ---

func TestTransportBlendScenario(t *testing.T) {
	a, b := Defaults(), Defaults()
	b.Transform.Rotation = math.Pi
	b.Transform.Scale = 2
	snaps := []Snapshot{NewSnapshot(1, 0, a), NewSnapshot(2, 1, b)}

	tr := NewTransport(TransportConfig{TransitionTime: time.Second, Easing: EaseLinear})
	tr.Play()
	got, ok := tr.Tick(500*time.Millisecond, snaps)
	if !ok {
		t.Fatal("expected a blend")
	}
	if math.Abs(got.Transform.Rotation-math.Pi/2) > 1e-6 {
		t.Errorf("rotation = %v, want π/2", got.Transform.Rotation)
	}
	if math.Abs(got.Transform.Scale-1.5) > 1e-6 {
		t.Errorf("scale = %v, want 1.5", got.Transform.Scale)
	}
}

func TestTransportIdleCases(t *testing.T) {
	tr := NewTransport(TransportConfig{})
	if _, ok := tr.Tick(time.Second, snapsWithRotation(0, 1)); ok {
		t.Error("stopped transport should not emit")
	}
	tr.Play()
	if _, ok := tr.Tick(time.Second, snapsWithRotation(0)); ok {
		t.Error("single snapshot should not emit")
	}
	if tr.State().Elapsed != 0 {
		t.Errorf("elapsed = %v, want reset", tr.State().Elapsed)
	}
}

func TestTransportPauseIsNoop(t *testing.T) {
	tr := NewTransport(TransportConfig{TransitionTime: time.Second})
	snaps := snapsWithRotation(0, 1)
	tr.Play()
	tr.Tick(300*time.Millisecond, snaps)
	tr.SetPaused(true)
	if _, ok := tr.Tick(5*time.Second, snaps); ok {
		t.Error("paused transport emitted")
	}
	if got := tr.State().Elapsed; got != 300*time.Millisecond {
		t.Errorf("elapsed = %v, want 300ms", got)
	}
}

// --- Index advancement ---

func TestTransportLoop(t *testing.T) {
	tr := NewTransport(TransportConfig{Mode: PlayLoop, TransitionTime: time.Second})
	tr.Play()
	got := stepIndices(tr, snapsWithRotation(0, 1, 2), 6)
	if want := []int{1, 2, 0, 1, 2, 0}; !equalInts(got, want) {
		t.Errorf("loop indices = %v, want %v", got, want)
	}
}

func TestTransportPingPong(t *testing.T) {
	tr := NewTransport(TransportConfig{Mode: PlayPingPong, TransitionTime: time.Second})
	tr.Play()
	got := stepIndices(tr, snapsWithRotation(0, 1, 2), 6)
	if want := []int{1, 2, 1, 0, 1, 2}; !equalInts(got, want) {
		t.Errorf("pingpong indices = %v, want %v", got, want)
	}
}

func TestTransportOnceStopsOnLast(t *testing.T) {
	tr := NewTransport(TransportConfig{Mode: PlayOnce, TransitionTime: time.Second})
	snaps := snapsWithRotation(0, 1, 2)
	tr.Play()
	got := stepIndices(tr, snaps, 4)
	if want := []int{1, 2, 2, 2}; !equalInts(got, want) {
		t.Errorf("once indices = %v, want %v", got, want)
	}
	if tr.Playing() {
		t.Error("once mode should stop after reaching the last snapshot")
	}
}

func TestTransportOutOfRangeIndexResets(t *testing.T) {
	tr := NewTransport(TransportConfig{TransitionTime: time.Second})
	snaps := snapsWithRotation(0, 1)
	tr.Play()
	tr.Seek(7)
	if _, ok := tr.Tick(100*time.Millisecond, snaps); ok {
		t.Error("correcting tick should not emit")
	}
	if tr.State().ActiveIndex != 0 {
		t.Errorf("index = %d, want 0", tr.State().ActiveIndex)
	}
	if _, ok := tr.Tick(100*time.Millisecond, snaps); !ok {
		t.Error("next tick should emit")
	}
}

func TestTransportToggle(t *testing.T) {
	tr := NewTransport(TransportConfig{})
	tr.Toggle()
	if !tr.Playing() {
		t.Fatal("Toggle should start playback")
	}
	tr.Toggle()
	if tr.Playing() {
		t.Fatal("Toggle should stop playback")
	}
}
