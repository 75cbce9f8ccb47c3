// SPDX-License-Identifier: MIT

// Package physics provides the pure-math building blocks shared by the
// rest of the analyzer: MIDI/frequency conversions, the Fletcher &
// Rossing inharmonic partial model, and the register-based priors for
// the inharmonicity coefficient B.
package physics

// Hardware constants the analyzer is built around. The pipeline only
// supports a single sample rate; anything else is a configuration error
// surfaced by the caller, not handled here.
const (
	SampleRate = 96000.0 // Hz, required input sample rate.

	FFTOutLen    = 32768           // Zero-padded FFT output length.
	FreqPerBin   = SampleRate / FFTOutLen // ~2.93 Hz/bin.
	Overlap      = 0.5             // Sliding capture buffer overlap.
	FrameAvgDepth   = 3 // Magnitude frames averaged together.
	FrameAvgMinimum = 2 // Minimum frames before averaging kicks in.
	BHistoryDepth   = 5 // Accepted B values kept for smoothing.

	MinMIDI = 21 // A0
	MaxMIDI = 108 // C8
)

// WindowForMIDI returns the adaptive windowed-FFT length for the given
// target MIDI index, per the bass/mid/treble register split.
func WindowForMIDI(midi int) int {
	switch {
	case midi <= 71:
		return 32768
	case midi <= 78:
		return 16384
	default:
		return 8192
	}
}
