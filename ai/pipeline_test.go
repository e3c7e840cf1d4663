package ai

import (
	"fmt"
	"os"
	"testing"

	"docvoice/audio"
)

// mockTranscriber implements Transcriber for tests.
type mockTranscriber struct {
	result *TranscriptionResult
	err    error
}

func (m *mockTranscriber) Transcribe(path string) (*TranscriptionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockDiarizer implements Diarizer for tests.
type mockDiarizer struct {
	turns []SpeakerTurn
}

func (m *mockDiarizer) Diarize(path string) []SpeakerTurn {
	return m.turns
}

func newTestScratch(t *testing.T) *audio.TempManager {
	t.Helper()
	scratch, err := audio.NewTempManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewTempManager: %v", err)
	}
	return scratch
}

func allocateInput(t *testing.T, scratch *audio.TempManager) string {
	t.Helper()
	path, err := scratch.Allocate(".wav")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return path
}

func TestNewPipelineRequiresTranscriber(t *testing.T) {
	if _, err := NewPipeline(nil, nil, newTestScratch(t)); err == nil {
		t.Error("expected error for nil transcriber")
	}
}

func TestProcessTwoSpeakers(t *testing.T) {
	transcription := &TranscriptionResult{
		Text:     "first segment second segment",
		Language: "en",
		Segments: []TranscriptSegment{
			{Text: "first segment", Start: 0.5, End: 4.0},
			{Text: "second segment", Start: 6.0, End: 9.0},
		},
	}
	turns := []SpeakerTurn{
		{Speaker: "Speaker_0", Start: 0, End: 5},
		{Speaker: "Speaker_1", Start: 5, End: 10},
	}

	scratch := newTestScratch(t)
	pipeline, err := NewPipeline(&mockTranscriber{result: transcription}, &mockDiarizer{turns: turns}, scratch)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	outcome := pipeline.Process(allocateInput(t, scratch))
	if !outcome.Success {
		t.Fatalf("Process failed: %s", outcome.Error)
	}
	if outcome.SpeakerCount != 2 {
		t.Errorf("speaker count = %d, want 2", outcome.SpeakerCount)
	}
	if len(outcome.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(outcome.Segments))
	}
	if outcome.Segments[0].Speaker != "Speaker_0" || outcome.Segments[1].Speaker != "Speaker_1" {
		t.Errorf("segments attributed to %s, %s",
			outcome.Segments[0].Speaker, outcome.Segments[1].Speaker)
	}
	if outcome.FullText != transcription.Text || outcome.Language != "en" {
		t.Errorf("outcome text/language: %q %q", outcome.FullText, outcome.Language)
	}
}

func TestProcessEmptyTranscriptionFails(t *testing.T) {
	scratch := newTestScratch(t)
	pipeline, err := NewPipeline(&mockTranscriber{
		result: &TranscriptionResult{Text: "", Language: "unknown", Segments: []TranscriptSegment{}},
	}, nil, scratch)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	outcome := pipeline.Process(allocateInput(t, scratch))
	if outcome.Success {
		t.Fatal("expected failure for empty transcription")
	}
	if outcome.Error != "no text transcribed from audio" {
		t.Errorf("error = %q", outcome.Error)
	}
	if outcome.SpeakerCount != 0 || len(outcome.Segments) != 0 {
		t.Errorf("failure outcome should be empty: %+v", outcome)
	}
}

func TestProcessTranscriberErrorBecomesFailureOutcome(t *testing.T) {
	scratch := newTestScratch(t)
	pipeline, err := NewPipeline(&mockTranscriber{err: fmt.Errorf("whisper model not loaded")}, nil, scratch)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	outcome := pipeline.Process(allocateInput(t, scratch))
	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.Error != "whisper model not loaded" {
		t.Errorf("error = %q", outcome.Error)
	}
}

func TestProcessFallbackDiarization(t *testing.T) {
	transcription := &TranscriptionResult{
		Text:     "single speaker text",
		Language: "bn",
		Segments: []TranscriptSegment{{Text: "single speaker text", Start: 0, End: 3}},
	}

	scratch := newTestScratch(t)
	pipeline, err := NewPipeline(&mockTranscriber{result: transcription}, nil, scratch)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	outcome := pipeline.Process(allocateInput(t, scratch))
	if !outcome.Success {
		t.Fatalf("Process failed: %s", outcome.Error)
	}
	if outcome.SpeakerCount != 1 {
		t.Errorf("speaker count = %d, want 1", outcome.SpeakerCount)
	}
	if len(outcome.Segments) != 1 || outcome.Segments[0].Speaker != DefaultSpeaker {
		t.Errorf("unexpected segments: %+v", outcome.Segments)
	}
}

func TestProcessAlwaysReleasesInput(t *testing.T) {
	scratch := newTestScratch(t)

	cases := map[string]*mockTranscriber{
		"success": {result: &TranscriptionResult{
			Text:     "ok",
			Language: "en",
			Segments: []TranscriptSegment{{Text: "ok", Start: 0, End: 1}},
		}},
		"failure": {err: fmt.Errorf("audio file is empty")},
	}

	for name, transcriber := range cases {
		pipeline, err := NewPipeline(transcriber, nil, scratch)
		if err != nil {
			t.Fatalf("NewPipeline: %v", err)
		}
		path := allocateInput(t, scratch)
		pipeline.Process(path)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s: input file not released", name)
		}
	}
}
