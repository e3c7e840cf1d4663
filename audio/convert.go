package audio

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
)

// TargetSpec describes the output the converter must produce.
type TargetSpec struct {
	Container  string // e.g. "wav"
	Codec      string // e.g. "pcm_s16le"
	SampleRate int
	Channels   int
}

// WAVTarget is the canonical format the transcription models consume:
// single channel, 16 kHz, signed 16-bit little-endian PCM in a WAV
// container.
func WAVTarget() TargetSpec {
	return TargetSpec{
		Container:  "wav",
		Codec:      "pcm_s16le",
		SampleRate: 16000,
		Channels:   1,
	}
}

// Converter transcodes an input file into the target spec at outputPath,
// overwriting any pre-existing output. The core depends only on this
// contract, not on any particular tool.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string, spec TargetSpec) error
}

// FFmpegConverter shells out to ffmpeg.
type FFmpegConverter struct {
	// Binary overrides the ffmpeg executable name. Empty means "ffmpeg"
	// from PATH.
	Binary string
}

// Convert runs ffmpeg -y -i input -acodec <codec> -ar <rate> -ac <channels>
// -f <container> output. On failure the trailing stderr output is attached
// to the returned error.
func (c *FFmpegConverter) Convert(ctx context.Context, inputPath, outputPath string, spec TargetSpec) error {
	bin := c.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-y", "-i", inputPath,
		"-acodec", spec.Codec,
		"-ar", strconv.Itoa(spec.SampleRate),
		"-ac", strconv.Itoa(spec.Channels),
		"-f", spec.Container,
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine extracts the final non-empty stderr line, which is where ffmpeg
// puts its human-readable failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Normalizer converts arbitrary input audio into the canonical WAV format
// using scratch files from a TempManager.
type Normalizer struct {
	scratch   *TempManager
	converter Converter
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(scratch *TempManager, converter Converter) *Normalizer {
	return &Normalizer{scratch: scratch, converter: converter}
}

// ToWAV transcodes inputPath into a freshly allocated scratch WAV file and
// returns its path. On failure the partial output is released and the input
// file is left untouched.
func (n *Normalizer) ToWAV(ctx context.Context, inputPath string) (string, error) {
	outputPath, err := n.scratch.Allocate(".wav")
	if err != nil {
		return "", err
	}

	log.Printf("Normalizer: converting %s to WAV", inputPath)
	if err := n.converter.Convert(ctx, inputPath, outputPath, WAVTarget()); err != nil {
		n.scratch.Release(outputPath)
		return "", fmt.Errorf("audio conversion failed: %w", err)
	}
	log.Printf("Normalizer: conversion completed")
	return outputPath, nil
}
