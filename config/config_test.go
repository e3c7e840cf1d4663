package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen_port: 8080\ntranslate_languages: [hi]\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenPort != 8080 {
		t.Errorf("listen_port = %d, want 8080", cfg.ListenPort)
	}
	if len(cfg.TranslateLanguages) != 1 || cfg.TranslateLanguages[0] != "hi" {
		t.Errorf("translate_languages = %v", cfg.TranslateLanguages)
	}
	// Untouched keys keep their defaults.
	if cfg.NumThreads != 4 {
		t.Errorf("num_threads = %d, want default 4", cfg.NumThreads)
	}
	if cfg.Whisper.EncoderPath == "" {
		t.Error("whisper encoder path should keep its default")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidateRejectsMissingWhisperPaths(t *testing.T) {
	cfg := Default()
	cfg.Whisper.EncoderPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty encoder path")
	}
}

func TestValidateRejectsHalfConfiguredDiarization(t *testing.T) {
	cfg := Default()
	cfg.Diarization.SegmentationModelPath = "seg.onnx"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when only one diarization model is set")
	}
}

func TestDiarizationEnabled(t *testing.T) {
	cfg := Default()
	if cfg.DiarizationEnabled() {
		t.Error("diarization should be disabled by default")
	}
	cfg.Diarization.SegmentationModelPath = "seg.onnx"
	cfg.Diarization.EmbeddingModelPath = "emb.onnx"
	if !cfg.DiarizationEnabled() {
		t.Error("diarization should be enabled with both paths set")
	}
}
