// SPDX-License-Identifier: MIT

// Package noisefloor implements the multi-strategy local noise-floor
// estimate of §4.4, used to derive the adaptive SNR threshold the
// peak finder rejects candidates against.
package noisefloor

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"pianotune/internal/fft"
)

const (
	minSamples    = 5
	clampLow      = 1e-6
	clampHigh     = 1e-2
	fallback      = 1e-4
	lowBandLowHz  = 100.0
	lowBandHighHz = 500.0
)

// Estimate returns the local noise floor magnitude around target bin
// kc, searching a half-range of r bins, per the three ordered
// strategies of §4.4. magnitudes is the current averaged spectrum.
func Estimate(magnitudes []float64, kc, r int) float64 {
	if r < 1 {
		r = 1
	}
	samples := make([]float64, 0, 64)

	samples = aroundSignal(magnitudes, kc, r, samples)
	if len(samples) < minSamples {
		samples = belowSignal(magnitudes, kc, r, samples)
	}
	if len(samples) < minSamples {
		samples = lowFrequencyReference(magnitudes, kc, samples)
	}

	if len(samples) == 0 {
		return fallback
	}

	floor := median(samples)
	return clamp(floor)
}

// aroundSignal samples bins in [kc-4r, kc+4r], stepping by ~r/2, while
// excluding an exclusion zone of 2.5r around kc.
func aroundSignal(magnitudes []float64, kc, r int, dst []float64) []float64 {
	step := r / 2
	if step < 1 {
		step = 1
	}
	exclusion := int(2.5 * float64(r))
	lo := kc - 4*r
	hi := kc + 4*r

	for bin := lo; bin <= hi; bin += step {
		if bin < 0 || bin >= len(magnitudes) {
			continue
		}
		if abs(bin-kc) <= exclusion {
			continue
		}
		dst = append(dst, magnitudes[bin])
	}
	return dst
}

// belowSignal samples bins in [1, kc-2.5r] with a finer step of
// ~2.5r/8.
func belowSignal(magnitudes []float64, kc, r int, dst []float64) []float64 {
	hi := kc - int(2.5*float64(r))
	if hi < 1 {
		return dst
	}
	step := int(2.5 * float64(r) / 8)
	if step < 1 {
		step = 1
	}
	for bin := 1; bin <= hi; bin += step {
		if bin >= len(magnitudes) {
			break
		}
		dst = append(dst, magnitudes[bin])
	}
	return dst
}

// lowFrequencyReference samples the 100-500Hz band with a fixed step
// of 3 bins, when kc lies well above that band.
func lowFrequencyReference(magnitudes []float64, kc int, dst []float64) []float64 {
	loBin := fft.BinForFreq(lowBandLowHz)
	hiBin := fft.BinForFreq(lowBandHighHz)
	if kc <= hiBin*2 {
		return dst // kc not "well above" the reference band.
	}
	for bin := loBin; bin <= hiBin; bin += 3 {
		if bin < 0 || bin >= len(magnitudes) {
			continue
		}
		dst = append(dst, magnitudes[bin])
	}
	return dst
}

// median returns the 50th percentile of values via gonum's empirical
// quantile estimator, which requires its input sorted ascending.
func median(values []float64) float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return stat.Quantile(0.5, stat.Empirical, cp, nil)
}

func clamp(v float64) float64 {
	if v < clampLow {
		return clampLow
	}
	if v > clampHigh {
		return clampHigh
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
