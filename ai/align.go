package ai

// Align fuses transcription segments with diarization turns by temporal
// overlap, producing exactly one AlignedSegment per transcription segment,
// in order. Every segment carries the transcription's overall detected
// language; language is detected once per file, not per segment.
//
// A turn matches a segment when the segment's start or end falls inside the
// turn's interval, bounds inclusive. The first matching turn in diarization
// order wins: turns are time-ordered and largely non-overlapping, so
// first-match approximates nearest-match without a distance computation.
func Align(transcription *TranscriptionResult, turns []SpeakerTurn) []AlignedSegment {
	if IsFallback(turns) || len(turns) == 0 || len(transcription.Segments) == 0 {
		// No usable turn information, or nothing to attribute: one segment
		// spanning the whole file.
		return []AlignedSegment{{
			Speaker:  DefaultSpeaker,
			Text:     transcription.Text,
			Start:    0,
			End:      0,
			Language: transcription.Language,
		}}
	}

	aligned := make([]AlignedSegment, 0, len(transcription.Segments))
	for _, segment := range transcription.Segments {
		speaker := DefaultSpeaker
		for _, turn := range turns {
			if (turn.Start <= segment.Start && segment.Start <= turn.End) ||
				(turn.Start <= segment.End && segment.End <= turn.End) {
				speaker = turn.Speaker
				break
			}
		}
		aligned = append(aligned, AlignedSegment{
			Speaker:  speaker,
			Text:     segment.Text,
			Start:    segment.Start,
			End:      segment.End,
			Language: transcription.Language,
		})
	}
	return aligned
}
