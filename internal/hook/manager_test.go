package hook

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_Discover(t *testing.T) {
	skipWindows(t)
	root := t.TempDir()
	writeHook(t, root, "keyboard", "", "exit 0\n")
	writeHook(t, root, "announce", "AY", "exit 0\n")

	// A directory without a manifest and one with a broken manifest.
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(root, "broken")
	if err := os.MkdirAll(broken, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, ManifestFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	hooks := m.List()
	if len(hooks) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(hooks))
	}
	if hooks[0].Manifest.Name != "announce" || hooks[1].Manifest.Name != "keyboard" {
		t.Errorf("expected hooks sorted by name, got %s, %s", hooks[0].Manifest.Name, hooks[1].Manifest.Name)
	}

	h, err := m.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if h.Executable != filepath.Join(root, "keyboard", "run.sh") {
		t.Errorf("unexpected executable %q", h.Executable)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrHookNotFound) {
		t.Errorf("expected ErrHookNotFound, got %v", err)
	}
	if m.Dir() != root {
		t.Errorf("Dir() = %q", m.Dir())
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no hooks")
	}
}

func TestHook_Accepts(t *testing.T) {
	all := &Hook{}
	if !all.Accepts("Q") {
		t.Error("empty letter list should accept everything")
	}
	some := &Hook{Manifest: Manifest{Letters: "AY"}}
	if !some.Accepts("Y") || some.Accepts("B") {
		t.Error("letter filter not applied")
	}
}
