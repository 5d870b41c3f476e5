package lumen

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Update is a write into the live parameter record. Updates are built with
// the Set* constructors, SetField or ReplaceState, and either applied
// synchronously during a tick (Store.Apply) or queued from any goroutine
// (Store.Post).
type Update interface {
	applyTo(p *ParameterState) error
}

type updateFunc func(p *ParameterState) error

func (f updateFunc) applyTo(p *ParameterState) error { return f(p) }

// SetTransform replaces the transform group.
func SetTransform(v Transform) Update {
	return updateFunc(func(p *ParameterState) error { p.Transform = v; return nil })
}

// SetSymmetry replaces the symmetry group.
func SetSymmetry(v Symmetry) Update {
	return updateFunc(func(p *ParameterState) error { p.Symmetry = v; return nil })
}

// SetWarp replaces the warp group.
func SetWarp(v Warp) Update {
	return updateFunc(func(p *ParameterState) error { p.Warp = v; return nil })
}

// SetDisplacement replaces the displacement group.
func SetDisplacement(v Displacement) Update {
	return updateFunc(func(p *ParameterState) error { p.Displacement = v; return nil })
}

// SetTiling replaces the tiling group.
func SetTiling(v Tiling) Update {
	return updateFunc(func(p *ParameterState) error { p.Tiling = v; return nil })
}

// SetMasking replaces the masking group.
func SetMasking(v Masking) Update {
	return updateFunc(func(p *ParameterState) error { p.Masking = v; return nil })
}

// SetGenerator replaces the generator group.
func SetGenerator(v Generator) Update {
	return updateFunc(func(p *ParameterState) error { p.Generator = v; return nil })
}

// SetColor replaces the color group.
func SetColor(v ColorGrade) Update {
	return updateFunc(func(p *ParameterState) error { p.Color = v; return nil })
}

// SetEffects replaces the effects group.
func SetEffects(v Effects) Update {
	return updateFunc(func(p *ParameterState) error { p.Effects = v; return nil })
}

// SetFeedback replaces the feedback group.
func SetFeedback(v Feedback) Update {
	return updateFunc(func(p *ParameterState) error { p.Feedback = v; return nil })
}

// ReplaceState replaces every group at once, as when a preset or snapshot
// is loaded.
func ReplaceState(v ParameterState) Update {
	return updateFunc(func(p *ParameterState) error { *p = v; return nil })
}

// Store owns the single authoritative ParameterState and the snapshot
// list. Only the tick goroutine reads and writes the live state; other
// goroutines Post updates and read Published copies.
type Store struct {
	state ParameterState
	snaps snapshotList
	order int

	mu    sync.Mutex
	queue []Update

	published atomic.Pointer[ParameterState]
	now       func() time.Time
}

// NewStore creates a store holding Defaults.
func NewStore() *Store {
	s := &Store{state: Defaults(), now: time.Now}
	s.Publish()
	return s
}

// State returns a copy of the live parameters.
func (s *Store) State() ParameterState { return s.state }

// Apply writes u into the live state immediately and sanitizes the result.
// A failing update leaves the state unchanged.
func (s *Store) Apply(u Update) error {
	next := s.state
	if err := u.applyTo(&next); err != nil {
		return err
	}
	s.state = next.Sanitize()
	return nil
}

// Post queues u for the next Flush. Safe for concurrent use.
func (s *Store) Post(u Update) {
	s.mu.Lock()
	s.queue = append(s.queue, u)
	s.mu.Unlock()
}

// Flush applies every queued update in arrival order and returns how many
// were applied. Failed updates are logged and dropped.
func (s *Store) Flush() int {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	applied := 0
	for _, u := range pending {
		if err := s.Apply(u); err != nil {
			Logger().Warn("dropped parameter update", "error", err)
			continue
		}
		applied++
	}
	return applied
}

// Publish makes the current state visible to Published. The engine calls
// it once per tick after all writes.
func (s *Store) Publish() {
	p := s.state
	s.published.Store(&p)
}

// Published returns the state as of the last Publish. Safe for concurrent
// use.
func (s *Store) Published() ParameterState {
	return *s.published.Load()
}

// applyBlend writes a transport frame. With lockGeometry, the transform,
// symmetry, warp and tiling groups keep their live values.
func (s *Store) applyBlend(p ParameterState, lockGeometry bool) {
	if lockGeometry {
		p.Transform = s.state.Transform
		p.Symmetry = s.state.Symmetry
		p.Warp = s.state.Warp
		p.Tiling = s.state.Tiling
	}
	s.state = p.Sanitize()
}

// Randomize rerolls the live state.
func (s *Store) Randomize(rng *rand.Rand) {
	s.state = s.state.Randomize(rng)
}

// Reset restores Defaults. Snapshots are kept.
func (s *Store) Reset() {
	s.state = Defaults()
}

// --- Snapshots ---

// Capture appends a snapshot of the live state and returns it.
func (s *Store) Capture() Snapshot {
	snap := Snapshot{id: s.now().UnixNano(), order: s.order, state: s.state}
	if n := len(s.snaps); n > 0 && s.snaps[n-1].id >= snap.id {
		snap.id = s.snaps[n-1].id + 1
	}
	s.order++
	s.snaps = s.snaps.add(snap)
	return snap
}

// DeleteSnapshot removes the snapshot at index i. It reports false when i
// is out of range.
func (s *Store) DeleteSnapshot(i int) bool {
	n := len(s.snaps)
	s.snaps = s.snaps.delete(i)
	return len(s.snaps) != n
}

// LoadSnapshot replaces the live state with snapshot i.
func (s *Store) LoadSnapshot(i int) bool {
	if i < 0 || i >= len(s.snaps) {
		return false
	}
	s.state = s.snaps[i].state.Sanitize()
	return true
}

// Snapshots returns the snapshot list. The returned slice must not be
// mutated; Capture and DeleteSnapshot never modify a list already handed
// out.
func (s *Store) Snapshots() []Snapshot { return s.snaps }

// SetSnapshots replaces the snapshot list, as when a document is loaded.
func (s *Store) SetSnapshots(snaps []Snapshot) {
	s.snaps = append(snapshotList(nil), snaps...)
	s.order = 0
	for _, sn := range snaps {
		s.order = max(s.order, sn.order+1)
	}
}

// --- Normalized modulation ---

// ErrUnknownField is returned for a modulation path that names no
// parameter.
var ErrUnknownField = errors.New("lumen: unknown parameter field")

// ApplyNormalized maps v in [0, 1] onto rng and writes it to group.field.
// A zero Range uses the field's default range.
func (s *Store) ApplyNormalized(group, field string, v float64, rng Range) error {
	return s.Apply(SetField(group+"."+field, v, rng))
}
