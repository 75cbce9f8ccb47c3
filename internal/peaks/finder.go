// SPDX-License-Identifier: MIT

// Package peaks implements the two-pass partial detector of §4.3:
// adaptive search-window sizing, SNR/prominence gating, and log-domain
// parabolic sub-bin interpolation.
package peaks

import (
	"math"

	"pianotune/internal/fft"
	"pianotune/internal/noisefloor"
	"pianotune/internal/physics"
)

const logFloor = 1e-6

// Pass identifies which harmonic grid the search center is drawn from.
type Pass int

const (
	PassTheoretical Pass = iota // n * f_target
	PassInharmonic              // n * f0 * sqrt(1 + B*n^2)
)

// Found is the outcome of a single-partial search.
type Found struct {
	N           int
	Frequency   float64
	AmplitudeDB float64
}

// searchWindowCents computes the half-width search window in cents for
// partial n of register midi, per §4.3's base table and scaling
// factors.
func searchWindowCents(midi, scaleBreak, n int, bSmoothed float64, pass Pass) float64 {
	var base float64
	switch {
	case midi <= 35:
		base = 30
	case midi <= 47:
		base = 25
	case midi <= 60:
		base = 20
	case midi <= 72:
		base = 15
	case midi <= 84:
		base = 12
	default:
		base = 10
	}

	cents := base
	if d := midi - scaleBreak; d >= -3 && d <= 3 {
		cents *= 1.40
	}
	cents *= 1 + 0.10*float64(n-1)

	bFactor := math.Sqrt(bSmoothed / 2e-4)
	bFactor = clamp(bFactor, 0.7, 2.0)
	cents *= bFactor

	if pass == PassInharmonic {
		cents *= 0.7
	}

	if cents > 100 {
		cents = 100
	}
	return cents
}

// centsToHz converts a one-sided cents window around fCenter into Hz.
func centsToHz(fCenter, cents float64) float64 {
	return fCenter * (math.Pow(2, cents/1200) - 1)
}

// minWindowHz enforces the absolute Hz floor for very low frequencies.
func minWindowHz(fCenter float64) float64 {
	switch {
	case fCenter < 50:
		return 2
	case fCenter < 100:
		return 3
	case fCenter < 200:
		return 4
	default:
		return 0
	}
}

// postAcceptCentsLimit returns the per-partial cents gate applied
// after sub-bin refinement.
func postAcceptCentsLimit(n int, nearScaleBreak bool) float64 {
	if nearScaleBreak {
		return 120
	}
	if n <= 4 {
		return 50
	}
	return 80
}

// Search looks for partial n around fSearch (the theoretical or
// inharmonic grid frequency for this pass) in the averaged magnitude
// spectrum, returning the refined Found and true on acceptance.
func Search(magnitudes []float64, n int, fSearch float64, midi, scaleBreak int, bSmoothed float64, pass Pass) (Found, bool) {
	nearScaleBreak := midi-scaleBreak >= -3 && midi-scaleBreak <= 3

	nyquist := physics.SampleRate / 2
	if fSearch > nyquist-1000 {
		return Found{}, false
	}

	cents := searchWindowCents(midi, scaleBreak, n, bSmoothed, pass)
	windowHz := centsToHz(fSearch, cents)
	if floor := minWindowHz(fSearch); windowHz < floor {
		windowHz = floor
	}

	binRange := int(windowHz/physics.FreqPerBin + 0.5)
	if binRange < 3 {
		binRange = 3
	}

	kc := fft.BinForFreq(fSearch)
	lo, hi := kc-binRange, kc+binRange
	if lo < 1 {
		lo = 1
	}
	if hi >= len(magnitudes)-1 {
		hi = len(magnitudes) - 2
	}
	if lo > hi {
		return Found{}, false
	}

	peakBin, peakMag := lo, magnitudes[lo]
	for bin := lo + 1; bin <= hi; bin++ {
		if magnitudes[bin] > peakMag {
			peakMag = magnitudes[bin]
			peakBin = bin
		}
	}

	floor := noisefloor.Estimate(magnitudes, kc, binRange)
	threshold := noisefloor.AdaptiveThreshold(fSearch, n, floor, nearScaleBreak)
	if peakMag < threshold {
		return Found{}, false
	}

	left, right := magnitudes[peakBin-1], magnitudes[peakBin+1]
	largerNeighbor := math.Max(left, right)
	if peakMag < 1.15*largerNeighbor {
		return Found{}, false
	}

	fPrecise := refine(magnitudes, peakBin)

	if math.Abs(fPrecise-fSearch) > windowHz*1.5 {
		return Found{}, false
	}
	if math.Abs(physics.FrequencyToCents(fPrecise, fSearch)) > postAcceptCentsLimit(n, nearScaleBreak) {
		return Found{}, false
	}

	return Found{
		N:           n,
		Frequency:   fPrecise,
		AmplitudeDB: 20 * math.Log10(math.Max(peakMag, logFloor)),
	}, true
}

// refine performs log-domain parabolic interpolation around peakBin,
// falling back to the bin-center frequency when the parabola is
// degenerate.
func refine(magnitudes []float64, peakBin int) float64 {
	m1, m2, m3 := magnitudes[peakBin-1], magnitudes[peakBin], magnitudes[peakBin+1]

	if m1 < logFloor || m3 < logFloor {
		return fft.FreqForBin(peakBin)
	}

	y1 := math.Log(math.Max(m1, logFloor))
	y2 := math.Log(math.Max(m2, logFloor))
	y3 := math.Log(math.Max(m3, logFloor))

	denom := y1 - 2*y2 + y3
	if math.Abs(denom) < 1e-10 {
		return fft.FreqForBin(peakBin)
	}

	d := (y1 - y3) / (2 * denom)
	if math.Abs(d) > 1 {
		return fft.FreqForBin(peakBin)
	}

	return (float64(peakBin) + d) * physics.FreqPerBin
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
