package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Ingestor persists incoming audio blobs to scratch storage and normalizes
// anything that is not already canonical WAV.
type Ingestor struct {
	scratch    *TempManager
	normalizer *Normalizer
}

// NewIngestor creates an Ingestor.
func NewIngestor(scratch *TempManager, normalizer *Normalizer) *Ingestor {
	return &Ingestor{scratch: scratch, normalizer: normalizer}
}

// SaveIncomingAudio writes the blob to a scratch file preserving the
// original filename's extension (defaulting to .wav), then converts it to
// canonical WAV unless the header already identifies it as WAV. The
// pre-conversion file is released after a successful conversion. The caller
// owns the returned path.
func (in *Ingestor) SaveIncomingAudio(ctx context.Context, blob io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}

	path, err := in.scratch.Allocate(ext)
	if err != nil {
		return "", err
	}

	size, err := writeBlob(path, blob)
	if err != nil {
		in.scratch.Release(path)
		return "", fmt.Errorf("saving uploaded audio: %w", err)
	}

	format := Detect(path)
	log.Printf("Ingestor: saved %d bytes, detected format: %s", size, format)

	// The wav fast path trusts detection. Unknown containers are not
	// assumed to be consumable and go through conversion with everything
	// else.
	if format == FormatWAV {
		return path, nil
	}

	converted, err := in.normalizer.ToWAV(ctx, path)
	if err != nil {
		in.scratch.Release(path)
		return "", err
	}
	in.scratch.Release(path)
	return converted, nil
}

func writeBlob(path string, blob io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(f, blob)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return size, err
}
