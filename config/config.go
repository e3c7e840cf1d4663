// Package config loads the docvoice YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	ListenPort int    `yaml:"listen_port"`
	ScratchDir string `yaml:"scratch_dir"`

	Whisper     WhisperConfig     `yaml:"whisper"`
	Diarization DiarizationConfig `yaml:"diarization"`

	// VADModelPath points to a Silero VAD model used to split speech into
	// segments before transcription. Optional; without it the whole file is
	// transcribed as one segment.
	VADModelPath string `yaml:"vad_model_path"`

	// TranslateLanguages lists detected languages that trigger a second
	// transcription pass in translate mode.
	TranslateLanguages []string `yaml:"translate_languages"`

	NumThreads int    `yaml:"num_threads"`
	Provider   string `yaml:"provider"` // ONNX provider: cpu, cuda, coreml, auto
}

// WhisperConfig holds the Whisper model file paths.
type WhisperConfig struct {
	EncoderPath string `yaml:"encoder_path"`
	DecoderPath string `yaml:"decoder_path"`
	TokensPath  string `yaml:"tokens_path"`
	Language    string `yaml:"language"` // empty = auto-detect
}

// DiarizationConfig holds the speaker diarization model paths and tuning.
// Both model paths empty means diarization runs in degraded single-speaker
// mode.
type DiarizationConfig struct {
	SegmentationModelPath string  `yaml:"segmentation_model_path"`
	EmbeddingModelPath    string  `yaml:"embedding_model_path"`
	ClusteringThreshold   float32 `yaml:"clustering_threshold"`
	MinDurationOn         float32 `yaml:"min_duration_on"`
	MinDurationOff        float32 `yaml:"min_duration_off"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		ListenPort: 5000,
		ScratchDir: os.TempDir(),
		Whisper: WhisperConfig{
			EncoderPath: filepath.Join("models", "whisper-base-encoder.onnx"),
			DecoderPath: filepath.Join("models", "whisper-base-decoder.onnx"),
			TokensPath:  filepath.Join("models", "whisper-base-tokens.txt"),
		},
		Diarization: DiarizationConfig{
			ClusteringThreshold: 0.5,
			MinDurationOn:       0.3,
			MinDurationOff:      0.5,
		},
		TranslateLanguages: []string{"hi", "bn"},
		NumThreads:         4,
		Provider:           "auto",
	}
}

// Load reads and parses a YAML config file. Missing fields keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Whisper.EncoderPath == "" || c.Whisper.DecoderPath == "" || c.Whisper.TokensPath == "" {
		return fmt.Errorf("whisper encoder_path, decoder_path and tokens_path must not be empty")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port %d out of range", c.ListenPort)
	}
	if c.NumThreads <= 0 {
		return fmt.Errorf("num_threads must be positive")
	}
	if (c.Diarization.SegmentationModelPath == "") != (c.Diarization.EmbeddingModelPath == "") {
		return fmt.Errorf("diarization requires both segmentation_model_path and embedding_model_path")
	}
	return nil
}

// DiarizationEnabled reports whether both diarization model paths are set.
func (c *Config) DiarizationEnabled() bool {
	return c.Diarization.SegmentationModelPath != "" && c.Diarization.EmbeddingModelPath != ""
}
