package lumen

import "time"

const (
	defaultTransition = 2000 * time.Millisecond
	strobeSafeFloor   = 500 * time.Millisecond
	strobeFloor       = 50 * time.Millisecond
)

// TransportConfig holds the user-facing animation settings.
type TransportConfig struct {
	// TransitionTime is the duration of one snapshot-to-snapshot step.
	// Zero or negative means the 2s default.
	TransitionTime time.Duration `json:"transitionTime"`
	Easing         Easing        `json:"easing"`
	Mode           PlayMode      `json:"mode"`
	// StrobeSafety raises the minimum step duration from 50ms to 500ms.
	StrobeSafety bool `json:"strobeSafety"`
	// LockGeometry keeps the live transform, symmetry, warp and tiling
	// groups while the transport animates everything else.
	LockGeometry bool `json:"lockGeometry"`
}

// StepDuration returns the effective step length after defaults and the
// strobe floor are applied.
func (c TransportConfig) StepDuration() time.Duration {
	d := c.TransitionTime
	if d <= 0 {
		d = defaultTransition
	}
	floor := strobeFloor
	if c.StrobeSafety {
		floor = strobeSafeFloor
	}
	return max(d, floor)
}

// TransportState is an observable copy of the transport's position.
type TransportState struct {
	Playing     bool
	Paused      bool
	ActiveIndex int
	Direction   int
	Elapsed     time.Duration
}

// Transport steps through the snapshot list, blending each consecutive
// pair over one step duration. It is driven by Tick once per frame and is
// not safe for concurrent use.
type Transport struct {
	Config TransportConfig

	playing bool
	paused  bool
	active  int
	dir     int
	elapsed time.Duration
}

// NewTransport creates an idle transport.
func NewTransport(cfg TransportConfig) *Transport {
	return &Transport{Config: cfg, dir: 1}
}

// Play starts playback from the current index.
func (t *Transport) Play() {
	if t.playing {
		return
	}
	t.playing = true
	t.elapsed = 0
	if t.Config.Mode != PlayPingPong || t.dir == 0 {
		t.dir = 1
	}
}

// Stop halts playback and resets the step clock. The active index is kept.
func (t *Transport) Stop() {
	t.playing = false
	t.elapsed = 0
}

// Toggle switches between playing and stopped.
func (t *Transport) Toggle() {
	if t.playing {
		t.Stop()
	} else {
		t.Play()
	}
}

// SetPaused freezes or resumes the transport without changing its
// position. A paused transport ignores ticks entirely.
func (t *Transport) SetPaused(p bool) { t.paused = p }

// Seek moves to snapshot i and restarts the step clock. The index is
// validated against the list on the next tick.
func (t *Transport) Seek(i int) {
	t.active = i
	t.elapsed = 0
}

// Playing reports whether playback is active.
func (t *Transport) Playing() bool { return t.playing }

// State returns a copy of the transport's position.
func (t *Transport) State() TransportState {
	return TransportState{
		Playing:     t.playing,
		Paused:      t.paused,
		ActiveIndex: t.active,
		Direction:   t.dir,
		Elapsed:     t.elapsed,
	}
}

// Tick advances the step clock by dt and returns the blended parameters
// for this frame. ok is false when nothing should be written: while paused,
// idle, with fewer than two snapshots, or on a frame spent correcting an
// out-of-range index.
func (t *Transport) Tick(dt time.Duration, snaps []Snapshot) (blend ParameterState, ok bool) {
	if t.paused {
		return blend, false
	}
	n := len(snaps)
	if !t.playing || n < 2 {
		t.elapsed = 0
		return blend, false
	}
	if t.active < 0 || t.active >= n {
		Logger().Warn("transport index out of range, resetting",
			"index", t.active, "snapshots", n)
		t.active = 0
		return blend, false
	}

	step := t.Config.StepDuration()
	t.elapsed += dt
	raw := min(float64(t.elapsed)/float64(step), 1)
	progress := t.Config.Easing.Apply(raw)

	next := t.nextIndex(n)
	blend = Interpolate(snaps[t.active].state, snaps[next].state, progress)

	if t.elapsed >= step {
		t.elapsed = 0
		t.active = next
		switch t.Config.Mode {
		case PlayPingPong:
			if next >= n-1 {
				t.dir = -1
			}
			if next <= 0 {
				t.dir = 1
			}
		case PlayOnce:
			if next == n-1 {
				t.playing = false
			}
		case PlayLoop:
		}
	}
	return blend, true
}

// nextIndex resolves the step target for the current mode. Ping-pong
// reflects off either end and flips direction there.
func (t *Transport) nextIndex(n int) int {
	if t.dir == 0 {
		t.dir = 1
	}
	next := t.active + t.dir
	switch t.Config.Mode {
	case PlayLoop:
		next = ((next % n) + n) % n
	case PlayPingPong:
		if next >= n {
			t.dir = -1
			next = t.active - 1
		} else if next < 0 {
			t.dir = 1
			next = t.active + 1
		}
	case PlayOnce:
		next = min(max(t.active+1, 0), n-1)
	}
	if next < 0 || next >= n {
		next = 0
	}
	return next
}
