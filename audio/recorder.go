package audio

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Recorder captures audio from the default microphone in the canonical
// pipeline format (16 kHz mono float32).
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32

	mu  sync.Mutex
	buf []float32
}

// NewRecorder initializes the audio backend. Call Close when done.
func NewRecorder(sampleRate int) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	return &Recorder{ctx: ctx, sampleRate: uint32(sampleRate)}, nil
}

// Record captures from the default microphone for the given duration and
// returns the samples.
func (r *Recorder) Record(duration time.Duration) ([]float32, error) {
	r.mu.Lock()
	r.buf = r.buf[:0]
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = 1
	deviceCfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, malgo.DeviceCallbacks{
		Data: r.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("starting capture device: %w", err)
	}

	log.Printf("Recorder: recording for %s", duration)
	time.Sleep(duration)

	if err := device.Stop(); err != nil {
		log.Printf("Recorder: warning: stopping capture device: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	samples := make([]float32, len(r.buf))
	copy(samples, r.buf)
	return samples, nil
}

// Close releases the audio backend.
func (r *Recorder) Close() {
	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			log.Printf("Recorder: warning: uninitializing audio context: %v", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}
}

// onData is the malgo callback invoked when captured frames are available.
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	samples := bytesToFloat32(pSample, frameCount)
	r.mu.Lock()
	r.buf = append(r.buf, samples...)
	r.mu.Unlock()
}

func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
