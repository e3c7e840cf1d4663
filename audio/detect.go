package audio

import (
	"bytes"
	"os"
)

// Format is a detected audio container kind.
type Format string

const (
	FormatWAV     Format = "wav"
	FormatWebM    Format = "webm"
	FormatUnknown Format = "unknown"
)

// ebmlMagic is the EBML header that opens WebM/Matroska containers.
var ebmlMagic = []byte{0x1a, 0x45, 0xdf, 0xa3}

// Detect classifies a file by its first 12 bytes. Detection is advisory:
// any read failure yields FormatUnknown rather than an error.
func Detect(path string) Format {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil {
		return FormatUnknown
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, []byte("RIFF")) && bytes.Contains(header, []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(header, ebmlMagic):
		return FormatWebM
	default:
		return FormatUnknown
	}
}
