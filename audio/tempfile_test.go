package audio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *TempManager {
	t.Helper()
	m, err := NewTempManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewTempManager: %v", err)
	}
	return m
}

func TestAllocateCreatesUniqueFiles(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Allocate(".wav")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	second, err := m.Allocate(".wav")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if first == second {
		t.Errorf("Allocate returned the same path twice: %s", first)
	}
	if !strings.HasSuffix(first, ".wav") {
		t.Errorf("allocated path %s missing suffix", first)
	}
	for _, path := range []string{first, second} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("allocated file missing: %v", err)
		}
		if info.Size() != 0 {
			t.Errorf("allocated file not empty: %d bytes", info.Size())
		}
	}
}

func TestReleaseRemovesFile(t *testing.T) {
	m := newTestManager(t)

	path, err := m.Allocate(".webm")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if !m.Release(path) {
		t.Errorf("Release returned false for existing file")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after Release")
	}
}

func TestReleaseMissingFileIsSuccess(t *testing.T) {
	m := newTestManager(t)
	if !m.Release(filepath.Join(m.Dir(), "never-existed.wav")) {
		t.Errorf("Release on missing path should succeed")
	}
	if !m.Release("") {
		t.Errorf("Release on empty path should succeed")
	}
}

func TestReleaseGivesUpAfterRetries(t *testing.T) {
	m := newTestManager(t)

	// A non-empty directory cannot be removed with os.Remove, so every
	// attempt fails.
	dir := filepath.Join(m.Dir(), "stubborn")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "child"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if m.releaseWithRetries(dir, 2) {
		t.Errorf("Release should report failure when deletion keeps failing")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("target should still exist after failed release: %v", err)
	}
}
