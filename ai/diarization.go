package ai

import (
	"fmt"
	"log"
	"os"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"docvoice/audio"
)

// NoopDiarizer is the Absent variant of the diarization capability: it
// always returns the single-speaker sentinel. Used when no diarization
// models are configured.
type NoopDiarizer struct{}

// Diarize returns the fallback sentinel.
func (NoopDiarizer) Diarize(path string) []SpeakerTurn {
	return FallbackTurns()
}

// SherpaDiarizerConfig configures the sherpa-onnx speaker diarization.
type SherpaDiarizerConfig struct {
	SegmentationModelPath string // pyannote segmentation model
	EmbeddingModelPath    string // speaker embedding model
	NumThreads            int
	ClusteringThreshold   float32 // 0.0-1.0
	MinDurationOn         float32 // min speech duration, seconds
	MinDurationOff        float32 // min pause duration, seconds
	Provider              string  // cpu, cuda, coreml, auto
}

// SherpaDiarizer runs speaker diarization through sherpa-onnx. Failures
// during diarization never abort the pipeline; the sentinel is returned and
// the cause logged.
type SherpaDiarizer struct {
	config   SherpaDiarizerConfig
	diarizer *sherpa.OfflineSpeakerDiarization
	mu       sync.Mutex
}

// NewSherpaDiarizer loads the diarization models eagerly.
func NewSherpaDiarizer(config SherpaDiarizerConfig) (*SherpaDiarizer, error) {
	if _, err := os.Stat(config.SegmentationModelPath); err != nil {
		return nil, fmt.Errorf("segmentation model not found: %s", config.SegmentationModelPath)
	}
	if _, err := os.Stat(config.EmbeddingModelPath); err != nil {
		return nil, fmt.Errorf("embedding model not found: %s", config.EmbeddingModelPath)
	}
	if config.NumThreads <= 0 {
		config.NumThreads = 4
	}

	provider := resolveProvider(config.Provider)
	log.Printf("SherpaDiarizer: using provider=%s (requested=%s)", provider, config.Provider)

	sherpaConfig := &sherpa.OfflineSpeakerDiarizationConfig{
		Segmentation: sherpa.OfflineSpeakerSegmentationModelConfig{
			Pyannote: sherpa.OfflineSpeakerSegmentationPyannoteModelConfig{
				Model: config.SegmentationModelPath,
			},
			NumThreads: config.NumThreads,
			Debug:      0,
			Provider:   provider,
		},
		Embedding: sherpa.SpeakerEmbeddingExtractorConfig{
			Model:      config.EmbeddingModelPath,
			NumThreads: config.NumThreads,
			Debug:      0,
			Provider:   provider,
		},
		Clustering: sherpa.FastClusteringConfig{
			NumClusters: -1, // cluster count decided by the model
			Threshold:   config.ClusteringThreshold,
		},
		MinDurationOn:  config.MinDurationOn,
		MinDurationOff: config.MinDurationOff,
	}

	diarizer := sherpa.NewOfflineSpeakerDiarization(sherpaConfig)
	if diarizer == nil && provider != "cpu" {
		log.Printf("SherpaDiarizer: %s provider failed, falling back to CPU", provider)
		sherpaConfig.Segmentation.Provider = "cpu"
		sherpaConfig.Embedding.Provider = "cpu"
		diarizer = sherpa.NewOfflineSpeakerDiarization(sherpaConfig)
		provider = "cpu"
	}
	if diarizer == nil {
		return nil, fmt.Errorf("failed to create sherpa-onnx diarizer")
	}

	config.Provider = provider
	log.Printf("SherpaDiarizer initialized: segmentation=%s, embedding=%s",
		config.SegmentationModelPath, config.EmbeddingModelPath)

	return &SherpaDiarizer{config: config, diarizer: diarizer}, nil
}

// Diarize partitions the file's timeline into speaker turns. Any failure
// yields the fallback sentinel.
func (d *SherpaDiarizer) Diarize(path string) []SpeakerTurn {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.diarizer == nil {
		return FallbackTurns()
	}

	samples, sampleRate, err := audio.ReadWAV(path)
	if err != nil {
		log.Printf("SherpaDiarizer: error reading audio: %v", err)
		return FallbackTurns()
	}
	if want := d.diarizer.SampleRate(); sampleRate != want {
		log.Printf("SherpaDiarizer: warning: sample rate %d, model expects %d", sampleRate, want)
	}

	segments := d.diarizer.Process(samples)
	if len(segments) == 0 {
		log.Printf("SherpaDiarizer: no speaker segments found")
		return FallbackTurns()
	}

	turns := make([]SpeakerTurn, len(segments))
	speakers := make(map[int]bool)
	for i, seg := range segments {
		turns[i] = SpeakerTurn{
			Speaker: fmt.Sprintf("Speaker_%d", seg.Speaker),
			Start:   float64(seg.Start),
			End:     float64(seg.End),
		}
		speakers[seg.Speaker] = true
	}

	log.Printf("SherpaDiarizer: found %d turns from %d speakers", len(turns), len(speakers))
	return turns
}

// Close releases the underlying diarizer.
func (d *SherpaDiarizer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.diarizer != nil {
		sherpa.DeleteOfflineSpeakerDiarization(d.diarizer)
		d.diarizer = nil
	}
	log.Printf("SherpaDiarizer closed")
}
