package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// WAVWriter writes float32 samples to a PCM16 WAV file. The header is
// written as a placeholder up front and rewritten with the final data size
// on Close.
type WAVWriter struct {
	file           *os.File
	sampleRate     int
	channels       int
	samplesWritten int64
}

// NewWAVWriter creates a writer for a 16-bit PCM WAV file at path.
func NewWAVWriter(path string, sampleRate, channels int) (*WAVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating WAV file: %w", err)
	}

	w := &WAVWriter{
		file:       file,
		sampleRate: sampleRate,
		channels:   channels,
	}
	if err := w.writeHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

const wavBitsPerSample = 16

func (w *WAVWriter) writeHeader() error {
	if _, err := w.file.Seek(0, 0); err != nil {
		return err
	}

	byteRate := w.sampleRate * w.channels * wavBitsPerSample / 8
	blockAlign := w.channels * wavBitsPerSample / 8
	dataSize := uint32(w.samplesWritten * wavBitsPerSample / 8)

	w.file.WriteString("RIFF")
	binary.Write(w.file, binary.LittleEndian, uint32(36+dataSize))
	w.file.WriteString("WAVE")

	w.file.WriteString("fmt ")
	binary.Write(w.file, binary.LittleEndian, uint32(16))
	binary.Write(w.file, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(w.file, binary.LittleEndian, uint16(w.channels))
	binary.Write(w.file, binary.LittleEndian, uint32(w.sampleRate))
	binary.Write(w.file, binary.LittleEndian, uint32(byteRate))
	binary.Write(w.file, binary.LittleEndian, uint16(blockAlign))
	binary.Write(w.file, binary.LittleEndian, uint16(wavBitsPerSample))

	w.file.WriteString("data")
	return binary.Write(w.file, binary.LittleEndian, dataSize)
}

// Write appends float32 samples, clamped to [-1, 1] and converted to PCM16.
func (w *WAVWriter) Write(samples []float32) error {
	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		if err := binary.Write(w.file, binary.LittleEndian, int16(s*32767)); err != nil {
			return err
		}
		w.samplesWritten++
	}
	return nil
}

// SamplesWritten returns the number of samples written so far.
func (w *WAVWriter) SamplesWritten() int64 {
	return w.samplesWritten
}

// Close finalizes the header and closes the file.
func (w *WAVWriter) Close() error {
	if err := w.writeHeader(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
