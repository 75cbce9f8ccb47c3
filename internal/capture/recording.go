package capture

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pianotune/internal/physics"
)

// Recorder tees captured mono float32 samples to a 16-bit PCM WAV
// file, for post-hoc debugging of measurement disagreements. Adapted
// from the teacher's Engine.StartRecording/StopRecording.
type Recorder struct {
	file    *os.File
	encoder *wav.Encoder
	scratch *audio.IntBuffer
}

// NewRecorder creates filename and prepares it for 16-bit mono PCM
// writes at the analyzer's fixed sample rate.
func NewRecorder(filename string) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("capture: create recording %s: %w", filename, err)
	}

	encoder := wav.NewEncoder(file, int(physics.SampleRate), 16, 1, 1)

	return &Recorder{
		file:    file,
		encoder: encoder,
		scratch: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: int(physics.SampleRate)},
		},
	}, nil
}

// Write appends one block of normalized [-1,1] mono samples.
func (r *Recorder) Write(samples []float32) error {
	if cap(r.scratch.Data) < len(samples) {
		r.scratch.Data = make([]int, len(samples))
	}
	r.scratch.Data = r.scratch.Data[:len(samples)]
	for i, s := range samples {
		r.scratch.Data[i] = int(s * 32767)
	}
	return r.encoder.Write(r.scratch)
}

// Close flushes the WAV header and closes the underlying file.
func (r *Recorder) Close() error {
	if err := r.encoder.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("capture: close recording encoder: %w", err)
	}
	return r.file.Close()
}
