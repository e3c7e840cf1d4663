package ai

import (
	"fmt"
	"log"

	"docvoice/audio"
)

// Outcome is the pipeline's terminal value: either a success record or a
// described failure. It is always total — callers never see a raised error
// or a partially populated result.
type Outcome struct {
	Success      bool             `json:"success"`
	FullText     string           `json:"full_text"`
	Language     string           `json:"language"`
	Segments     []AlignedSegment `json:"segments"`
	SpeakerCount int              `json:"speaker_count"`
	Error        string           `json:"error,omitempty"`
}

// Pipeline sequences transcription, diarization and alignment over one
// audio file. Engines are constructed once at startup and shared; each
// engine serializes its own model calls, so concurrent Process calls on
// different files are safe.
type Pipeline struct {
	transcriber Transcriber
	diarizer    Diarizer
	scratch     *audio.TempManager
}

// NewPipeline creates a pipeline. The transcriber is required; a nil
// diarizer degrades to the single-speaker NoopDiarizer.
func NewPipeline(transcriber Transcriber, diarizer Diarizer, scratch *audio.TempManager) (*Pipeline, error) {
	if transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if scratch == nil {
		return nil, fmt.Errorf("scratch manager is required")
	}
	if diarizer == nil {
		diarizer = NoopDiarizer{}
	}
	return &Pipeline{transcriber: transcriber, diarizer: diarizer, scratch: scratch}, nil
}

// Process runs transcribe → diarize → align over the file at audioPath and
// returns the outcome. The input file is always released on exit, success
// or failure, and no error or panic escapes past this boundary.
func (p *Pipeline) Process(audioPath string) (outcome Outcome) {
	defer p.scratch.Release(audioPath)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pipeline: panic while processing %s: %v", audioPath, r)
			outcome = failureOutcome(fmt.Sprintf("internal error: %v", r))
		}
	}()

	log.Printf("Pipeline: processing %s", audioPath)

	transcription, err := p.transcriber.Transcribe(audioPath)
	if err != nil {
		log.Printf("Pipeline: error processing audio: %v", err)
		return failureOutcome(err.Error())
	}
	if transcription.Text == "" {
		log.Printf("Pipeline: no text transcribed from %s", audioPath)
		return failureOutcome("no text transcribed from audio")
	}

	turns := p.diarizer.Diarize(audioPath)
	segments := Align(transcription, turns)

	speakers := make(map[string]bool)
	for _, seg := range segments {
		speakers[seg.Speaker] = true
	}

	return Outcome{
		Success:      true,
		FullText:     transcription.Text,
		Language:     transcription.Language,
		Segments:     segments,
		SpeakerCount: len(speakers),
	}
}

func failureOutcome(message string) Outcome {
	return Outcome{
		Success:  false,
		FullText: "",
		Language: "unknown",
		Segments: []AlignedSegment{},
		Error:    message,
	}
}
