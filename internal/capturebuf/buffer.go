// SPDX-License-Identifier: MIT

// Package capturebuf implements the sliding capture buffer (§4.1) and
// the multi-frame magnitude averager (§4.2) that sit between raw
// sample ingestion and the FFT pipeline.
package capturebuf

import "pianotune/internal/physics"

// Buffer accumulates incoming sample blocks and hands out fixed-size
// analysis windows with 50% overlap retained between extractions.
type Buffer struct {
	data []float64
}

// NewBuffer creates an empty capture buffer with headroom for the
// largest supported analysis window.
func NewBuffer() *Buffer {
	return &Buffer{data: make([]float64, 0, physics.FFTOutLen*2)}
}

// Append appends incoming mono samples (already normalized to
// [-1.0, 1.0]) to the buffer.
func (b *Buffer) Append(samples []float32) {
	for _, s := range samples {
		b.data = append(b.data, float64(s))
	}
}

// Len returns the number of buffered, unconsumed samples.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Reset discards all buffered samples, used on target change or
// analyzer reset.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// ExtractWindow copies the first w samples into dst (which must have
// length >= w) when at least w samples are buffered, then advances the
// buffer by w/2 samples (the 50% overlap retained between frames).
// Returns false, leaving the buffer untouched, if fewer than w samples
// are available.
func (b *Buffer) ExtractWindow(w int, dst []float64) bool {
	if len(b.data) < w {
		return false
	}
	copy(dst, b.data[:w])

	shift := w / 2
	remaining := len(b.data) - shift
	copy(b.data, b.data[shift:])
	b.data = b.data[:remaining]
	return true
}
