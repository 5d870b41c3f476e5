package lumen

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MIDIType is the kind of a channel voice message.
type MIDIType uint8

const (
	MIDIUnknown MIDIType = iota
	MIDINoteOn
	MIDINoteOff
	MIDIControlChange
)

var midiTypeNames = [...]string{"unknown", "noteOn", "noteOff", "cc"}

func (t MIDIType) String() string {
	if int(t) < len(midiTypeNames) {
		return midiTypeNames[t]
	}
	return fmt.Sprintf("MIDIType(%d)", t)
}

// MIDIMessage is a decoded channel voice message. Channel is 1-based,
// Note is the note or controller number and Value is data2 scaled to
// [0, 1].
type MIDIMessage struct {
	Type    MIDIType
	Channel int
	Note    int
	Value   float64
}

// Key is the mapping key "<channel>-<type>-<note>", e.g. "1-cc-10".
func (m MIDIMessage) Key() string {
	return fmt.Sprintf("%d-%s-%d", m.Channel, m.Type, m.Note)
}

// ParseMIDI decodes a raw three-byte message. A note-on with zero velocity
// is a note-off. Statuses other than note on/off and control change decode
// as MIDIUnknown.
func ParseMIDI(data []byte) (MIDIMessage, error) {
	if len(data) < 2 {
		return MIDIMessage{}, fmt.Errorf("midi: short message (%d bytes)", len(data))
	}
	status, data1 := data[0], data[1]
	var data2 byte
	if len(data) > 2 {
		data2 = data[2]
	}
	if status&0x80 == 0 {
		return MIDIMessage{}, fmt.Errorf("midi: 0x%02x is not a status byte", status)
	}
	m := MIDIMessage{
		Channel: int(status&0x0f) + 1,
		Note:    int(data1 & 0x7f),
		Value:   float64(data2&0x7f) / 127,
	}
	switch status & 0xf0 {
	case 0x90:
		m.Type = MIDINoteOn
		if data2 == 0 {
			m.Type = MIDINoteOff
		}
	case 0x80:
		m.Type = MIDINoteOff
	case 0xb0:
		m.Type = MIDIControlChange
	}
	return m, nil
}

// MIDIRouter maps incoming messages to parameter fields and posts them to
// a Store. In learn mode the next message binds its key to the pending
// field path. Safe for concurrent use; Handle is typically called from a
// device callback goroutine.
type MIDIRouter struct {
	store *Store

	mu       sync.Mutex
	mappings map[string]string
	learn    string
	last     MIDIMessage
}

// NewMIDIRouter creates a router posting to store.
func NewMIDIRouter(store *Store) *MIDIRouter {
	return &MIDIRouter{store: store, mappings: make(map[string]string)}
}

// Learn arms learn mode: the next message is bound to path. An empty path
// cancels learn mode.
func (r *MIDIRouter) Learn(path string) error {
	if path != "" {
		if _, ok := FieldRange(path); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, path)
		}
	}
	r.mu.Lock()
	r.learn = path
	r.mu.Unlock()
	return nil
}

// Learning returns the field path waiting for a message, or "".
func (r *MIDIRouter) Learning() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.learn
}

// Map binds key to a field path.
func (r *MIDIRouter) Map(key, path string) error {
	if _, ok := FieldRange(path); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	r.mu.Lock()
	r.mappings[key] = path
	r.mu.Unlock()
	return nil
}

// Unmap removes the binding for key.
func (r *MIDIRouter) Unmap(key string) {
	r.mu.Lock()
	delete(r.mappings, key)
	r.mu.Unlock()
}

// Mappings returns a copy of the key to path table.
func (r *MIDIRouter) Mappings() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.mappings))
	for k, v := range r.mappings {
		out[k] = v
	}
	return out
}

// Last returns the most recently handled message.
func (r *MIDIRouter) Last() MIDIMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Handle routes one message. In learn mode it creates the mapping and
// leaves learn mode without writing the parameter. Otherwise a mapped
// message posts a normalized field update; unmapped and unknown messages
// are ignored. It reports whether the message was consumed.
func (r *MIDIRouter) Handle(m MIDIMessage) bool {
	if m.Type == MIDIUnknown {
		return false
	}
	key := m.Key()

	r.mu.Lock()
	r.last = m
	if r.learn != "" {
		path := r.learn
		r.mappings[key] = path
		r.learn = ""
		r.mu.Unlock()
		Logger().Info("midi mapping learned", "key", key, "path", path)
		return true
	}
	path, ok := r.mappings[key]
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.store.Post(SetField(path, m.Value, Range{}))
	return true
}

// HandleRaw parses and routes a raw message.
func (r *MIDIRouter) HandleRaw(data []byte) (bool, error) {
	m, err := ParseMIDI(data)
	if err != nil {
		return false, err
	}
	return r.Handle(m), nil
}

type midiMapping struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// SaveMappings writes the mapping table as JSON, sorted by key.
func (r *MIDIRouter) SaveMappings(w io.Writer) error {
	m := r.Mappings()
	list := make([]midiMapping, 0, len(m))
	for k, v := range m {
		list = append(list, midiMapping{Key: k, Path: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("encode midi mappings: %w", err)
	}
	return nil
}

// LoadMappings replaces the mapping table from JSON written by
// SaveMappings. Entries naming unknown fields are skipped with a warning.
func (r *MIDIRouter) LoadMappings(rd io.Reader) error {
	var list []midiMapping
	if err := json.NewDecoder(rd).Decode(&list); err != nil {
		return fmt.Errorf("decode midi mappings: %w", err)
	}
	next := make(map[string]string, len(list))
	for _, m := range list {
		if _, ok := FieldRange(m.Path); !ok {
			Logger().Warn("skipping midi mapping", "key", m.Key, "path", m.Path)
			continue
		}
		next[m.Key] = m.Path
	}
	r.mu.Lock()
	r.mappings = next
	r.mu.Unlock()
	return nil
}
