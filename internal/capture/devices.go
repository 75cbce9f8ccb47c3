// SPDX-License-Identifier: MIT

// Package capture adapts PortAudio device enumeration and streaming,
// WAV replay, and raw diagnostic recording into the measure.Capture
// collaborator the analyzer consumes. Adapted from the teacher's
// internal/audio package (device.go, devices.go, engine.go,
// recording.go), generalized from fixed-format int32 multi-channel
// capture to the fixed 96kHz mono float32 stream the analyzer needs.
package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"pianotune/internal/measure"
)

// Initialize sets up the PortAudio subsystem. Must be paired with
// Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("capture: initialize portaudio: %w", err)
	}
	return nil
}

// Terminate shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("capture: terminate portaudio: %w", err)
	}
	return nil
}

// Devices lists every PortAudio device, implementing measure.Capture.
func (e *Engine) Devices() ([]measure.CaptureDevice, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("capture: list devices: %w", err)
	}

	out := make([]measure.CaptureDevice, len(infos))
	for i, info := range infos {
		out[i] = measure.CaptureDevice{
			ID:            i,
			Name:          info.Name,
			MaxInChannels: info.MaxInputChannels,
		}
	}
	return out, nil
}

// inputDevice resolves deviceID (-1 for the system default) to a
// PortAudio device handle.
func inputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID < 0 {
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("capture: list devices: %w", err)
	}
	if deviceID >= len(devices) {
		return nil, fmt.Errorf("capture: invalid device id %d", deviceID)
	}
	return devices[deviceID], nil
}
