// SPDX-License-Identifier: MIT

// Package window generates the window functions used by the FFT
// pipeline. gonum.org/v1/gonum/dsp/window does not provide a
// Blackman-Harris variant, so the four-term coefficients from §4.1
// are implemented directly here.
package window

import "math"

// Four-term Blackman-Harris coefficients, per §4.1.
const (
	a0 = 0.35875
	a1 = 0.48829
	a2 = 0.14128
	a3 = 0.01168
)

// BlackmanHarris returns the n-point Blackman-Harris window:
//
//	a_k = a0 - a1*cos(2*pi*k/(n-1)) + a2*cos(4*pi*k/(n-1)) - a3*cos(6*pi*k/(n-1))
func BlackmanHarris(n int) []float64 {
	coeffs := make([]float64, n)
	BlackmanHarrisInto(coeffs)
	return coeffs
}

// BlackmanHarrisInto fills dst with Blackman-Harris coefficients sized
// to len(dst), avoiding an allocation for callers that reuse buffers.
func BlackmanHarrisInto(dst []float64) {
	n := len(dst)
	if n == 1 {
		dst[0] = 1
		return
	}
	denom := float64(n - 1)
	for k := range dst {
		x := float64(k) / denom
		dst[k] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x) - a3*math.Cos(6*math.Pi*x)
	}
}
