package lumen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// DocumentVersion is the project document format written by EncodeDocument.
const DocumentVersion = 1

// ErrUnsupportedVersion is returned when a document is newer than this
// package understands.
var ErrUnsupportedVersion = errors.New("lumen: unsupported document version")

// Document is a saved session: the live parameters and the snapshot list.
type Document struct {
	Version   int
	Timestamp time.Time
	State     ParameterState
	Snapshots []Snapshot
}

// The wire form flattens every parameter group next to the snapshot list,
// and each snapshot carries its groups next to its id.
type documentJSON struct {
	Version   int               `json:"version"`
	Timestamp int64             `json:"timestamp"`
	State     documentStateJSON `json:"state"`
}

type documentStateJSON struct {
	ParameterState
	Snapshots []snapshotJSON `json:"snapshots"`
}

type snapshotJSON struct {
	ParameterState
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

type documentDecodeJSON struct {
	Version   int             `json:"version"`
	Timestamp int64           `json:"timestamp"`
	State     json.RawMessage `json:"state"`
}

type stateDecodeJSON struct {
	Snapshots []json.RawMessage `json:"snapshots"`
}

type snapshotIdentityJSON struct {
	ID    int64 `json:"id"`
	Order *int  `json:"order"`
}

// EncodeDocument writes d as indented JSON. A zero Timestamp is written as
// the current time.
func EncodeDocument(w io.Writer, d Document) error {
	ts := d.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	out := documentJSON{
		Version:   DocumentVersion,
		Timestamp: ts.UnixMilli(),
		State: documentStateJSON{
			ParameterState: d.State,
			Snapshots:      make([]snapshotJSON, len(d.Snapshots)),
		},
	}
	for i, s := range d.Snapshots {
		out.State.Snapshots[i] = snapshotJSON{ParameterState: s.state, ID: s.id, Order: s.order}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// DecodeDocument reads a project document. Unknown keys are ignored and
// missing fields take their defaults; every state is sanitized. Snapshots
// without an order are numbered by position.
func DecodeDocument(r io.Reader) (Document, error) {
	var raw documentDecodeJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if raw.Version > DocumentVersion {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, raw.Version)
	}
	d := Document{Version: raw.Version, State: Defaults()}
	if raw.Timestamp != 0 {
		d.Timestamp = time.UnixMilli(raw.Timestamp)
	}
	if len(raw.State) == 0 {
		return d, nil
	}

	state, err := decodeState(raw.State)
	if err != nil {
		return Document{}, fmt.Errorf("decode document state: %w", err)
	}
	d.State = state

	var rest stateDecodeJSON
	if err := json.Unmarshal(raw.State, &rest); err != nil {
		return Document{}, fmt.Errorf("decode document snapshots: %w", err)
	}
	d.Snapshots = make([]Snapshot, 0, len(rest.Snapshots))
	for i, msg := range rest.Snapshots {
		st, err := decodeState(msg)
		if err != nil {
			return Document{}, fmt.Errorf("decode snapshot %d: %w", i, err)
		}
		var ident snapshotIdentityJSON
		if err := json.Unmarshal(msg, &ident); err != nil {
			return Document{}, fmt.Errorf("decode snapshot %d: %w", i, err)
		}
		order := i
		if ident.Order != nil {
			order = *ident.Order
		}
		d.Snapshots = append(d.Snapshots, NewSnapshot(ident.ID, order, st))
	}
	return d, nil
}

func decodeState(msg json.RawMessage) (ParameterState, error) {
	p := Defaults()
	if err := json.Unmarshal(msg, &p); err != nil {
		return ParameterState{}, err
	}
	return p.Sanitize(), nil
}

// --- Engine persistence ---

// Document captures the engine's live state and snapshots.
func (e *Engine) Document() Document {
	return Document{
		Version:   DocumentVersion,
		Timestamp: time.Now(),
		State:     e.store.State(),
		Snapshots: e.store.Snapshots(),
	}
}

// SaveProject writes the session to w.
func (e *Engine) SaveProject(w io.Writer) error {
	return EncodeDocument(w, e.Document())
}

// LoadProject replaces the live state and the snapshot list from r. The
// transport is stopped and rewound.
func (e *Engine) LoadProject(r io.Reader) error {
	d, err := DecodeDocument(r)
	if err != nil {
		return err
	}
	e.transport.Stop()
	e.transport.Seek(0)
	e.store.SetSnapshots(d.Snapshots)
	if err := e.store.Apply(ReplaceState(d.State)); err != nil {
		return err
	}
	Logger().Info("project loaded", "snapshots", len(d.Snapshots))
	return nil
}

// SaveProjectFile writes the session to path.
func (e *Engine) SaveProjectFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if err := e.SaveProject(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadProjectFile reads a session from path.
func (e *Engine) LoadProjectFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	defer f.Close()
	return e.LoadProject(f)
}
