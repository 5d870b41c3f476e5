package lumen

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresetData []byte

// ErrUnknownPreset is returned when a preset name or index matches nothing.
var ErrUnknownPreset = errors.New("lumen: unknown preset")

// Preset is a named parameter state.
type Preset struct {
	Name  string
	State ParameterState
}

// PresetBook is an ordered, read-only collection of presets.
type PresetBook struct {
	presets []Preset
}

type presetFile struct {
	Presets []struct {
		Name  string    `yaml:"name"`
		State yaml.Node `yaml:"state"`
	} `yaml:"presets"`
}

// LoadPresets decodes a YAML preset file. Each state is decoded on top of
// Defaults, so a preset only lists the fields it changes. Unknown enum
// names are errors.
func LoadPresets(r io.Reader) (*PresetBook, error) {
	var f presetFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	book := &PresetBook{presets: make([]Preset, 0, len(f.Presets))}
	for i, p := range f.Presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("parse presets: preset %d has no name", i)
		}
		state := Defaults()
		if !p.State.IsZero() {
			if err := p.State.Decode(&state); err != nil {
				return nil, fmt.Errorf("parse presets: %s: %w", name, err)
			}
		}
		book.presets = append(book.presets, Preset{Name: name, State: state.Sanitize()})
	}
	return book, nil
}

// LoadPresetsFile reads a preset file from path.
func LoadPresetsFile(path string) (*PresetBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open presets: %w", err)
	}
	defer f.Close()
	return LoadPresets(f)
}

// BuiltinPresets returns the presets shipped with the package.
func BuiltinPresets() *PresetBook {
	book, err := LoadPresets(bytes.NewReader(builtinPresetData))
	if err != nil {
		panic(err)
	}
	return book
}

// Len returns the number of presets.
func (b *PresetBook) Len() int { return len(b.presets) }

// Names lists preset names in file order.
func (b *PresetBook) Names() []string {
	out := make([]string, len(b.presets))
	for i, p := range b.presets {
		out[i] = p.Name
	}
	return out
}

// At returns the i-th preset.
func (b *PresetBook) At(i int) (Preset, error) {
	if i < 0 || i >= len(b.presets) {
		return Preset{}, fmt.Errorf("%w: index %d", ErrUnknownPreset, i)
	}
	return b.presets[i], nil
}

// Lookup finds a preset by name. An exact match wins over a
// case-insensitive one.
func (b *PresetBook) Lookup(name string) (Preset, error) {
	for _, p := range b.presets {
		if p.Name == name {
			return p, nil
		}
	}
	for _, p := range b.presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}
