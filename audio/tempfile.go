// Package audio handles scratch audio files: allocation and cleanup,
// container detection, ffmpeg normalization, WAV reading and writing, and
// microphone capture.
package audio

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	// releaseRetries is how many deletion attempts Release makes by default.
	releaseRetries = 3
	// releaseRetryDelay is the pause between deletion attempts.
	releaseRetryDelay = 100 * time.Millisecond
)

// TempManager allocates uniquely named scratch files and guarantees their
// removal. Cleanup failures are logged and swallowed: a stuck scratch file
// must never abort an otherwise successful pipeline run.
type TempManager struct {
	dir string
}

// NewTempManager creates a manager rooted at dir. Empty dir means the
// system temp directory. The directory is created if missing.
func NewTempManager(dir string) (*TempManager, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir %s: %w", dir, err)
	}
	return &TempManager{dir: dir}, nil
}

// Dir returns the scratch directory.
func (m *TempManager) Dir() string {
	return m.dir
}

// Allocate creates an empty, uniquely named file with the given suffix in
// the scratch directory and returns its path. Concurrent calls never return
// the same path.
func (m *TempManager) Allocate(suffix string) (string, error) {
	path := filepath.Join(m.dir, "docvoice-"+uuid.NewString()+suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("allocating scratch file: %w", err)
	}
	f.Close()
	return path, nil
}

// Release deletes the file at path. A missing file counts as success.
// Deletion failures are retried with a short delay; if every attempt fails
// the error is logged and false is returned.
func (m *TempManager) Release(path string) bool {
	return m.releaseWithRetries(path, releaseRetries)
}

func (m *TempManager) releaseWithRetries(path string, maxRetries int) bool {
	if path == "" {
		return true
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return true
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := os.Remove(path); err == nil {
			return true
		} else {
			lastErr = err
		}
		if attempt < maxRetries-1 {
			time.Sleep(releaseRetryDelay)
		}
	}

	log.Printf("TempManager: warning: could not release %s: %v", path, lastErr)
	return false
}
