package capture

import (
	"fmt"
	"runtime"

	"github.com/gordonklaus/portaudio"

	"pianotune/internal/log"
	"pianotune/internal/measure"
	"pianotune/internal/physics"
)

// Engine drives a single PortAudio mono input stream into an
// analyzer's ProcessAudioBuffer, downmixing multi-channel input to
// mono by taking the first channel. It implements measure.Capture.
type Engine struct {
	analyzer *measure.Analyzer
	recorder *Recorder // Optional raw diagnostic recorder; nil when disabled.

	channels        int
	framesPerBuffer int

	device *portaudio.DeviceInfo
	stream *portaudio.Stream

	inputBuffer []float32 // Raw interleaved frames from PortAudio.
	monoBuffer  []float32 // Downmixed scratch buffer handed to the analyzer.
}

// NewEngine constructs an Engine targeting the given channel count and
// frames-per-buffer. Pass a non-nil recorder to additionally tee
// captured samples to disk.
func NewEngine(analyzer *measure.Analyzer, channels, framesPerBuffer int, recorder *Recorder) *Engine {
	return &Engine{
		analyzer:        analyzer,
		recorder:        recorder,
		channels:        channels,
		framesPerBuffer: framesPerBuffer,
		monoBuffer:      make([]float32, framesPerBuffer),
	}
}

// Start opens and begins a PortAudio input stream at sampleRate on
// deviceID (-1 for default). sampleRate must be the analyzer's
// required rate; Start returns an error otherwise.
func (e *Engine) Start(sampleRate float64, deviceID int) error {
	if sampleRate != physics.SampleRate {
		return fmt.Errorf("capture: sample rate %v unsupported, analyzer requires %v", sampleRate, physics.SampleRate)
	}
	device, err := inputDevice(deviceID)
	if err != nil {
		return fmt.Errorf("capture: resolve input device: %w", err)
	}
	e.device = device

	e.inputBuffer = make([]float32, e.framesPerBuffer*e.channels)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.device,
			Latency:  e.device.DefaultLowInputLatency,
		},
		FramesPerBuffer: e.framesPerBuffer,
		SampleRate:      sampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("capture: open stream: %w", err)
	}
	e.stream = stream

	if err := e.stream.Start(); err != nil {
		e.stream.Close()
		return fmt.Errorf("capture: start stream: %w", err)
	}

	log.Infof("capture started: device=%q channels=%d rate=%.0f", e.device.Name, e.channels, sampleRate)
	return nil
}

// Stop stops and closes the input stream, and the recorder if active.
func (e *Engine) Stop() error {
	if e.recorder != nil {
		if err := e.recorder.Close(); err != nil {
			log.Warnf("capture: closing recorder: %v", err)
		}
	}
	if e.stream == nil {
		return nil
	}
	if err := e.stream.Stop(); err != nil {
		return fmt.Errorf("capture: stop stream: %w", err)
	}
	if err := e.stream.Close(); err != nil {
		return fmt.Errorf("capture: close stream: %w", err)
	}
	e.stream = nil
	return nil
}

// processInputStream is the PortAudio callback. Performance critical:
// pinned to an OS thread, no allocations beyond what PortAudio itself
// already triggers.
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)

	var mono []float32
	if e.channels == 1 {
		mono = e.inputBuffer
	} else {
		for i := 0; i < e.framesPerBuffer; i++ {
			idx := i * e.channels
			if idx < len(e.inputBuffer) {
				e.monoBuffer[i] = e.inputBuffer[idx]
			} else {
				e.monoBuffer[i] = 0
			}
		}
		mono = e.monoBuffer
	}

	e.analyzer.ProcessAudioBuffer(mono)

	if e.recorder != nil {
		if err := e.recorder.Write(mono); err != nil {
			log.Errorf("capture: recorder write: %v", err)
		}
	}
}
