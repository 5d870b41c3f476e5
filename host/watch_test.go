package host

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const onePreset = "presets:\n  - name: First\n"
const twoPresets = "presets:\n  - name: First\n  - name: Second\n"

func TestWatchPresetsInitialBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(onePreset), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := WatchPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	b, ok := w.Poll()
	if !ok || b.Len() != 1 {
		t.Fatalf("initial poll = %v, %v", b, ok)
	}
	if _, ok := w.Poll(); ok {
		t.Error("second poll should be empty")
	}
}

func TestWatchPresetsReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(onePreset), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := WatchPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.Poll()

	if err := os.WriteFile(path, []byte(twoPresets), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if b, ok := w.Poll(); ok {
			if b.Len() != 2 {
				t.Errorf("reloaded Len = %d, want 2", b.Len())
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("no reload after write")
}

func TestWatchPresetsKeepsBookOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(onePreset), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := WatchPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.Poll()

	if err := os.WriteFile(path, []byte("presets: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * reloadDelay)
	if _, ok := w.Poll(); ok {
		t.Error("a broken file should not replace the book")
	}
}

func TestWatchPresetsMissingFile(t *testing.T) {
	if _, err := WatchPresets(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
