// SPDX-License-Identifier: MIT

// Package solver implements the fixed-point f0/B iteration of §4.6:
// seed f0 from the detected partials, then alternate re-estimating B
// and back-solving f0 from a register-appropriate anchor partial until
// convergence.
package solver

import (
	"math"

	"pianotune/internal/inharmonic"
	"pianotune/internal/physics"
)

// Partial is the subset of a detected partial the solver needs.
type Partial struct {
	N           int
	Frequency   float64
	AmplitudeDB float64
}

const (
	maxIterations  = 5
	convergenceHz  = 0.01
	anchorWeakDB   = -60.0
	seedMinAmpDB   = -40.0
	seedMaxN       = 8
)

// SeedF0 estimates an initial fundamental from the detected partials,
// per §4.6: a weighted average of fn/n (weights 1/n) over partials
// with amplitude > -40dB and 1<=n<=8; the lone candidate if only one
// qualifies; otherwise fTarget.
func SeedF0(partials []Partial, fTarget float64) float64 {
	var sumWeighted, sumWeights float64
	count := 0
	var lone float64

	for _, p := range partials {
		if p.N < 1 || p.N > seedMaxN || p.AmplitudeDB <= seedMinAmpDB {
			continue
		}
		w := 1.0 / float64(p.N)
		sumWeighted += w * (p.Frequency / float64(p.N))
		sumWeights += w
		count++
		lone = p.Frequency / float64(p.N)
	}

	switch {
	case count >= 2:
		return sumWeighted / sumWeights
	case count == 1:
		return lone
	default:
		return fTarget
	}
}

// Result is the outcome of one convergence run.
type Result struct {
	F0            float64
	B             float64
	AnchorPartial int
}

// Solve runs the fixed-point iteration of §4.6 to convergence (or
// maxIterations), seeding f0 from partials and refining (f0, B)
// together each pass.
func Solve(partials []Partial, fTarget float64, midi, scaleBreak int, hasPianoMeta bool) Result {
	f0 := SeedF0(partials, fTarget)
	anchorN := physics.AnchorPartialForMIDI(midi)
	b := 0.0

	for iter := 0; iter < maxIterations; iter++ {
		b = inharmonic.Estimate(inharmonic.Input{
			Partials:     toInharmonicPartials(partials),
			F0:           f0,
			MIDI:         midi,
			ScaleBreak:   scaleBreak,
			HasPianoMeta: hasPianoMeta,
		})

		anchor, ok := findAnchor(partials, anchorN)
		if !ok {
			continue // No usable anchor this pass; keep current f0.
		}

		newF0 := anchor.Frequency / physics.PartialFrequency(anchor.N, 1, b)
		// physics.PartialFrequency(n, 1, b) == n*sqrt(1+B*n^2), so this is
		// f_anchor / (n_anchor * sqrt(1 + B*n_anchor^2)).

		delta := math.Abs(newF0 - f0)
		f0 = newF0
		if delta < convergenceHz {
			break
		}
	}

	anchorPartial := anchorN
	if a, ok := findAnchor(partials, anchorN); ok {
		anchorPartial = a.N
	}

	return Result{F0: f0, B: b, AnchorPartial: anchorPartial}
}

// findAnchor returns the register's preferred anchor partial if
// present and not weak (amplitude >= -60dB); otherwise the strongest
// detected partial overall.
func findAnchor(partials []Partial, anchorN int) (Partial, bool) {
	for _, p := range partials {
		if p.N == anchorN && p.AmplitudeDB >= anchorWeakDB {
			return p, true
		}
	}

	if len(partials) == 0 {
		return Partial{}, false
	}
	strongest := partials[0]
	for _, p := range partials[1:] {
		if p.AmplitudeDB > strongest.AmplitudeDB {
			strongest = p
		}
	}
	return strongest, true
}

func toInharmonicPartials(partials []Partial) []inharmonic.Partial {
	out := make([]inharmonic.Partial, len(partials))
	for i, p := range partials {
		out[i] = inharmonic.Partial{N: p.N, Frequency: p.Frequency, AmplitudeDB: p.AmplitudeDB}
	}
	return out
}
