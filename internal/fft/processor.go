// SPDX-License-Identifier: MIT

// Package fft implements the adaptive windowed-FFT pipeline of §4.1:
// three Blackman-Harris window sizes selected by register, zero-padded
// to a constant 32768-bin output so downstream bin resolution stays
// uniform regardless of which window was used.
package fft

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"pianotune/internal/analysis/window"
	"pianotune/internal/physics"
	"pianotune/pkg/bitint"
)

// Sizes is the set of supported adaptive window lengths, bass to
// treble.
var Sizes = [3]int{32768, 16384, 8192}

// Processor performs one window's worth of FFT analysis: windowing,
// zero-padding to physics.FFTOutLen, forward FFT with no scaling, and
// linear-magnitude extraction. Buffers are pre-allocated once and
// reused across frames.
type Processor struct {
	fftObj *fourier.FFT

	windows   map[int][]float64 // Blackman-Harris coefficients per supported size.
	input     []float64         // Scratch: windowed + zero-padded input, len FFTOutLen.
	fftOutput []complex128      // Scratch: complex FFT output, len FFTOutLen/2+1.
	magnitude []float64         // Scratch: linear magnitude, len FFTOutLen/2.
}

// NewProcessor constructs a Processor with pre-computed windows for
// every supported adaptive size and pre-allocated scratch buffers.
func NewProcessor() *Processor {
	if !bitint.IsPowerOfTwo(physics.FFTOutLen) {
		panic(fmt.Sprintf("fft: FFTOutLen %d is not a power of two", physics.FFTOutLen))
	}
	for _, w := range Sizes {
		if !bitint.IsPowerOfTwo(w) {
			panic(fmt.Sprintf("fft: window size %d is not a power of two", w))
		}
	}

	p := &Processor{
		fftObj:    fourier.NewFFT(physics.FFTOutLen),
		windows:   make(map[int][]float64, len(Sizes)),
		input:     make([]float64, physics.FFTOutLen),
		fftOutput: make([]complex128, physics.FFTOutLen/2+1),
		magnitude: make([]float64, physics.FFTOutLen/2),
	}
	for _, w := range Sizes {
		p.windows[w] = window.BlackmanHarris(w)
	}
	return p
}

// Process windows the first len(samples) entries of samples (which
// must equal one of the supported Sizes), zero-pads to FFTOutLen,
// computes the forward FFT, and returns the linear magnitude spectrum
// (length FFTOutLen/2). The returned slice aliases internal scratch
// space and is only valid until the next call to Process.
func (p *Processor) Process(samples []float64) ([]float64, error) {
	w := len(samples)
	coeffs, ok := p.windows[w]
	if !ok {
		return nil, fmt.Errorf("fft: unsupported window size %d", w)
	}

	for i := 0; i < w; i++ {
		p.input[i] = samples[i] * coeffs[i]
	}
	for i := w; i < physics.FFTOutLen; i++ {
		p.input[i] = 0
	}

	p.fftObj.Coefficients(p.fftOutput, p.input)

	for i := range p.magnitude {
		p.magnitude[i] = cmplx.Abs(p.fftOutput[i])
	}
	return p.magnitude, nil
}

// FreqForBin returns the center frequency in Hz for FFT output bin i,
// at the fixed physics.SampleRate/FFTOutLen resolution.
func FreqForBin(i int) float64 {
	return float64(i) * physics.FreqPerBin
}

// BinForFreq returns the FFT bin nearest to freq Hz.
func BinForFreq(freq float64) int {
	bin := int(freq/physics.FreqPerBin + 0.5)
	if bin < 0 {
		return 0
	}
	return bin
}
