package lumen

// Snapshot is an immutable capture of every parameter group. Snapshots are
// created by Store.Capture and never modified afterwards; State returns a
// copy.
type Snapshot struct {
	id    int64
	order int
	state ParameterState
}

// NewSnapshot wraps a parameter record in a snapshot with the given
// identity. Hosts restoring a saved document use it; live capture goes
// through Store.Capture.
func NewSnapshot(id int64, order int, p ParameterState) Snapshot {
	return Snapshot{id: id, order: order, state: p}
}

// ID returns the snapshot's identity.
func (s Snapshot) ID() int64 { return s.id }

// Order returns the creation sequence number.
func (s Snapshot) Order() int { return s.order }

// State returns a copy of the captured parameters.
func (s Snapshot) State() ParameterState { return s.state }

// snapshotList is the ordered sequence the transport walks. Add and Delete
// return fresh slices so that callers holding an older list keep a
// consistent view.
type snapshotList []Snapshot

func (l snapshotList) add(s Snapshot) snapshotList {
	out := make(snapshotList, len(l), len(l)+1)
	copy(out, l)
	return append(out, s)
}

func (l snapshotList) delete(i int) snapshotList {
	if i < 0 || i >= len(l) {
		return l
	}
	out := make(snapshotList, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}
