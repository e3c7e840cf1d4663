// Package ai provides the speech processing engines and the pipeline that
// turns an audio file into a speaker-attributed transcript.
package ai

// TranscriptSegment is a time-bounded span of recognized speech.
type TranscriptSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
}

// TranscriptionResult is the immutable output of one transcription run.
// Language is the originally detected spoken language even when Text has
// been translated; callers must not infer the text's language from it.
type TranscriptionResult struct {
	Text     string
	Language string // ISO-like code, or "unknown"
	Segments []TranscriptSegment
}

// SpeakerTurn attributes a time interval to a session-scoped speaker label.
type SpeakerTurn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// DefaultSpeaker is the label used when no speaker information is
// available.
const DefaultSpeaker = "Speaker_0"

// FallbackTurns is the sentinel diarization result meaning "no turn
// information", not "zero-duration speech".
func FallbackTurns() []SpeakerTurn {
	return []SpeakerTurn{{Speaker: DefaultSpeaker, Start: 0, End: 0}}
}

// IsFallback reports whether turns is the sentinel produced by
// FallbackTurns.
func IsFallback(turns []SpeakerTurn) bool {
	return len(turns) == 1 && turns[0].Speaker == DefaultSpeaker &&
		turns[0].Start == 0 && turns[0].End == 0
}

// AlignedSegment is one transcription segment attributed to a speaker.
type AlignedSegment struct {
	Speaker  string  `json:"speaker"`
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Language string  `json:"language"`
}

// Transcriber converts an audio file into text with per-segment timing.
// Implementations return an error only for hard preconditions (model not
// loaded, file missing or empty); model runtime failures yield a well-formed
// empty result instead.
type Transcriber interface {
	Transcribe(path string) (*TranscriptionResult, error)
}

// Diarizer produces speaker turns for an audio file. Diarization is always
// best-effort: implementations return FallbackTurns instead of failing.
type Diarizer interface {
	Diarize(path string) []SpeakerTurn
}
