// Command record captures audio from the default microphone, runs it
// through the speech pipeline and prints the speaker-attributed transcript.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"docvoice/ai"
	"docvoice/audio"
	"docvoice/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	duration := flag.Duration("duration", 10*time.Second, "Recording duration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Config: %v, using defaults", err)
		cfg = config.Default()
	}

	scratch, err := audio.NewTempManager(cfg.ScratchDir)
	if err != nil {
		log.Fatalf("Failed to init scratch storage: %v", err)
	}

	recorder, err := audio.NewRecorder(16000)
	if err != nil {
		log.Fatalf("Failed to init recorder: %v", err)
	}
	defer recorder.Close()

	samples, err := recorder.Record(*duration)
	if err != nil {
		log.Fatalf("Recording failed: %v", err)
	}

	rms, peak := audio.MeasureLevels(samples)
	log.Printf("Recorded %d samples (rms=%.4f peak=%.4f)", len(samples), rms, peak)
	if rms < 0.001 {
		log.Printf("Warning: input is nearly silent, check the microphone")
	}

	path, err := scratch.Allocate(".wav")
	if err != nil {
		log.Fatalf("Failed to allocate scratch file: %v", err)
	}
	writer, err := audio.NewWAVWriter(path, 16000, 1)
	if err != nil {
		log.Fatalf("Failed to create WAV file: %v", err)
	}
	if err := writer.Write(samples); err != nil {
		log.Fatalf("Failed to write recording: %v", err)
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("Failed to finalize recording: %v", err)
	}
	log.Printf("Saved %d samples to %s", writer.SamplesWritten(), path)

	log.Println("Loading Whisper model...")
	engine, err := ai.NewWhisperEngine(ai.WhisperEngineConfig{
		EncoderPath:        cfg.Whisper.EncoderPath,
		DecoderPath:        cfg.Whisper.DecoderPath,
		TokensPath:         cfg.Whisper.TokensPath,
		VADModelPath:       cfg.VADModelPath,
		Language:           cfg.Whisper.Language,
		TranslateLanguages: cfg.TranslateLanguages,
		NumThreads:         cfg.NumThreads,
		Provider:           cfg.Provider,
	})
	if err != nil {
		log.Fatalf("Failed to load Whisper model: %v", err)
	}
	defer engine.Close()

	var diarizer ai.Diarizer = ai.NoopDiarizer{}
	if cfg.DiarizationEnabled() {
		sherpaDiarizer, err := ai.NewSherpaDiarizer(ai.SherpaDiarizerConfig{
			SegmentationModelPath: cfg.Diarization.SegmentationModelPath,
			EmbeddingModelPath:    cfg.Diarization.EmbeddingModelPath,
			NumThreads:            cfg.NumThreads,
			ClusteringThreshold:   cfg.Diarization.ClusteringThreshold,
			MinDurationOn:         cfg.Diarization.MinDurationOn,
			MinDurationOff:        cfg.Diarization.MinDurationOff,
			Provider:              cfg.Provider,
		})
		if err != nil {
			log.Printf("Warning: could not load diarization models: %v", err)
		} else {
			defer sherpaDiarizer.Close()
			diarizer = sherpaDiarizer
		}
	}

	pipeline, err := ai.NewPipeline(engine, diarizer, scratch)
	if err != nil {
		log.Fatalf("Failed to init pipeline: %v", err)
	}

	outcome := pipeline.Process(path)
	if !outcome.Success {
		log.Fatalf("Processing failed: %s", outcome.Error)
	}

	fmt.Printf("Language: %s, speakers: %d\n\n", outcome.Language, outcome.SpeakerCount)
	for _, seg := range outcome.Segments {
		fmt.Printf("[%7.2f-%7.2f] %s: %s\n", seg.Start, seg.End, seg.Speaker, seg.Text)
	}
}
