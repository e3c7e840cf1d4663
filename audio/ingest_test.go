package audio

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
)

// fakeConverter records conversions and writes a WAV header as output.
type fakeConverter struct {
	calls []TargetSpec
	fail  bool
}

func (c *fakeConverter) Convert(_ context.Context, inputPath, outputPath string, spec TargetSpec) error {
	c.calls = append(c.calls, spec)
	if c.fail {
		return os.ErrInvalid
	}
	return os.WriteFile(outputPath, []byte("RIFF\x00\x00\x00\x00WAVEfmt "), 0o600)
}

var wavBlob = []byte("RIFF\x24\x08\x00\x00WAVEfmt and some pcm data")

func newTestIngestor(t *testing.T, conv Converter) (*Ingestor, *TempManager) {
	t.Helper()
	scratch := newTestManager(t)
	return NewIngestor(scratch, NewNormalizer(scratch, conv)), scratch
}

func TestSaveIncomingAudioWAVFastPath(t *testing.T) {
	conv := &fakeConverter{}
	ingestor, _ := newTestIngestor(t, conv)

	path, err := ingestor.SaveIncomingAudio(context.Background(), bytes.NewReader(wavBlob), "clip.wav")
	if err != nil {
		t.Fatalf("SaveIncomingAudio: %v", err)
	}
	defer os.Remove(path)

	if len(conv.calls) != 0 {
		t.Errorf("wav input should not be converted, got %d conversions", len(conv.calls))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if !bytes.Equal(data, wavBlob) {
		t.Errorf("saved blob differs from upload")
	}
}

func TestSaveIncomingAudioConvertsNonWAV(t *testing.T) {
	conv := &fakeConverter{}
	ingestor, _ := newTestIngestor(t, conv)

	blob := append([]byte{0x1a, 0x45, 0xdf, 0xa3}, []byte("webm payload")...)
	path, err := ingestor.SaveIncomingAudio(context.Background(), bytes.NewReader(blob), "clip.webm")
	if err != nil {
		t.Fatalf("SaveIncomingAudio: %v", err)
	}
	defer os.Remove(path)

	if len(conv.calls) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(conv.calls))
	}
	spec := conv.calls[0]
	if spec.SampleRate != 16000 || spec.Channels != 1 || spec.Codec != "pcm_s16le" {
		t.Errorf("unexpected target spec: %+v", spec)
	}
	if !strings.HasSuffix(path, ".wav") {
		t.Errorf("converted path %s should end in .wav", path)
	}
	if Detect(path) != FormatWAV {
		t.Errorf("converted output should be wav")
	}
}

func TestSaveIncomingAudioReleasesOriginalAfterConversion(t *testing.T) {
	conv := &fakeConverter{}
	ingestor, scratch := newTestIngestor(t, conv)

	blob := []byte("definitely not a known container")
	path, err := ingestor.SaveIncomingAudio(context.Background(), bytes.NewReader(blob), "mystery.bin")
	if err != nil {
		t.Fatalf("SaveIncomingAudio: %v", err)
	}
	defer os.Remove(path)

	// Only the converted output should remain in the scratch dir.
	entries, err := os.ReadDir(scratch.Dir())
	if err != nil {
		t.Fatalf("reading scratch dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 scratch file after ingest, got %d", len(entries))
	}
}

func TestSaveIncomingAudioDefaultsExtension(t *testing.T) {
	conv := &fakeConverter{}
	ingestor, _ := newTestIngestor(t, conv)

	path, err := ingestor.SaveIncomingAudio(context.Background(), bytes.NewReader(wavBlob), "")
	if err != nil {
		t.Fatalf("SaveIncomingAudio: %v", err)
	}
	defer os.Remove(path)

	if !strings.HasSuffix(path, ".wav") {
		t.Errorf("extension-less upload should default to .wav, got %s", path)
	}
}

func TestSaveIncomingAudioConversionFailure(t *testing.T) {
	conv := &fakeConverter{fail: true}
	ingestor, scratch := newTestIngestor(t, conv)

	_, err := ingestor.SaveIncomingAudio(context.Background(), bytes.NewReader([]byte("junk")), "bad.webm")
	if err == nil {
		t.Fatal("expected conversion error")
	}
	if !strings.Contains(err.Error(), "audio conversion failed") {
		t.Errorf("error should identify the conversion: %v", err)
	}

	// Partial output and original upload are both cleaned up.
	entries, readErr := os.ReadDir(scratch.Dir())
	if readErr != nil {
		t.Fatalf("reading scratch dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty scratch dir after failed conversion, got %d entries", len(entries))
	}
}
