package lumen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// cueStep is a single action in a cue script.
type cueStep struct {
	Action string  `json:"action"`
	Path   string  `json:"path,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Name   string  `json:"name,omitempty"`
	Label  string  `json:"label,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

type cueScript struct {
	Steps []cueStep `json:"steps"`
}

var cueActions = map[string]bool{
	"set": true, "preset": true, "snapshot": true, "play": true, "stop": true,
	"wait": true, "export": true, "randomize": true, "reset": true,
}

// CueRunner sequences parameter writes, transport commands and exports
// across frames, one step per Engine.Update. Attach it with
// Engine.SetCueRunner.
type CueRunner struct {
	steps     []cueStep
	cursor    int
	waitCount int
	done      bool
}

// LoadCueScript parses a JSON cue script:
//
//	{"steps": [
//	  {"action": "preset", "name": "Kaleido Zoom"},
//	  {"action": "set", "path": "transforms.rotation", "value": 0.25},
//	  {"action": "snapshot"},
//	  {"action": "wait", "frames": 30},
//	  {"action": "export", "label": "zoom"}
//	]}
//
// Values for "set" are normalized to [0, 1] over the field's default range.
func LoadCueScript(r io.Reader) (*CueRunner, error) {
	var script cueScript
	if err := json.NewDecoder(r).Decode(&script); err != nil {
		return nil, fmt.Errorf("parse cue script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse cue script: no steps")
	}
	for i, st := range script.Steps {
		if !cueActions[st.Action] {
			return nil, fmt.Errorf("parse cue script: step %d: unknown action %q", i, st.Action)
		}
		if st.Action == "set" {
			if _, ok := FieldRange(st.Path); !ok {
				return nil, fmt.Errorf("parse cue script: step %d: %w: %q", i, ErrUnknownField, st.Path)
			}
		}
	}
	return &CueRunner{steps: script.Steps}, nil
}

// LoadCueFile reads a cue script from path.
func LoadCueFile(path string) (*CueRunner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cue script: %w", err)
	}
	defer f.Close()
	return LoadCueScript(f)
}

// Done reports whether every step has run.
func (r *CueRunner) Done() bool { return r.done }

// step runs the next action. Called at the start of Engine.Update.
func (r *CueRunner) step(e *Engine) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "set":
		e.store.Post(SetField(st.Path, st.Value, Range{}))
	case "preset":
		if err := e.ApplyPreset(st.Name); err != nil {
			Logger().Warn("cue preset", "name", st.Name, "error", err)
		}
	case "snapshot":
		e.store.Flush()
		e.Capture()
	case "play":
		e.transport.Play()
	case "stop":
		e.transport.Stop()
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "export":
		e.QueueExport(st.Label)
	case "randomize":
		e.Randomize()
	case "reset":
		e.Reset()
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
