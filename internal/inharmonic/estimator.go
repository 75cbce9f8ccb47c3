// SPDX-License-Identifier: MIT

// Package inharmonic implements the weighted least-squares
// inharmonicity regression of §4.5: the Fletcher & Rossing stiff-
// string model fn = n*f0*sqrt(1+B*n^2), register priors, the
// negative-slope fallback analyser, and scale-break-aware regression.
package inharmonic

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"pianotune/internal/physics"
)

// Partial is the subset of a detected partial the regression needs.
type Partial struct {
	N           int
	Frequency   float64
	AmplitudeDB float64
}

// Input bundles everything the estimator needs to compute B for one
// frame.
type Input struct {
	Partials     []Partial
	F0           float64
	MIDI         int
	ScaleBreak   int
	HasPianoMeta bool
}

const (
	minAmplitudeDB  = -50.0
	minN, maxN      = 2, 12
	lowYBound       = -0.05
	trebleHighYMax  = 0.3
	defaultHighYMax = 0.5
	trebleMIDI      = 72
)

// Estimate returns the inharmonicity coefficient B for the given
// frame, dispatching to the scale-break-aware transition regression
// when the target note falls in the transition zone, and to the
// standard weighted regression otherwise.
func Estimate(in Input) float64 {
	if in.HasPianoMeta {
		region := physics.ClassifyScaleBreak(in.MIDI, in.ScaleBreak)
		if region == physics.RegionTransition {
			return transitionCase(in)
		}
	}
	return standardCase(in)
}

// standardCase implements the non-scale-break regression of §4.5.
func standardCase(in Input) float64 {
	prior := physics.RegisterPriorFor(in.MIDI)

	yMax := defaultHighYMax
	if in.MIDI >= trebleMIDI {
		yMax = trebleHighYMax
	}

	xs, ys, ns, preOutlier := candidatePoints(in, minN, maxN, lowYBound, yMax)
	if preOutlier < 3 {
		return prior.Typical
	}
	if len(xs) < 2 {
		return prior.Typical
	}

	b, ok := weightedFit(xs, ys, ns)
	if !ok {
		return prior.Typical
	}

	if b < 0 {
		b = slopeAnalyser(xs, ys, ns, prior)
	}

	return physics.ClampB(in.MIDI, b)
}

// transitionCase restricts the regression to low partials (2-5) with a
// looser outlier band, per §4.5's transition-zone handling.
func transitionCase(in Input) float64 {
	xs, ys, ns, preOutlier := candidatePoints(in, 2, 5, -0.1, 0.8)
	if preOutlier < 3 {
		return conservativeTransitionValue(in)
	}
	if len(xs) < 2 {
		return conservativeTransitionValue(in)
	}

	b, ok := weightedFit(xs, ys, ns)
	if !ok || b < 0 {
		return conservativeTransitionValue(in)
	}
	return physics.ClampB(in.MIDI, b)
}

// conservativeTransitionValue returns the fallback value for the
// transition zone: 6e-4 on the wound-string side of the break, 2e-4
// on the plain-string side, 3e-4 without metadata to tell which side.
func conservativeTransitionValue(in Input) float64 {
	if !in.HasPianoMeta {
		return 3e-4
	}
	if in.MIDI <= in.ScaleBreak {
		return 6e-4
	}
	return 2e-4
}

// candidatePoints filters partials to [lowN, highN] with amplitude
// above minAmplitudeDB and computes x=n^2, y=(f/(n*f0))^2-1 for each.
// preOutlier is the size of that filtered set, reported before the
// outlier band (y < loY or y > yMax) is applied, since the two are
// separate cardinality gates in the caller: at least 3 candidates must
// survive the amplitude/n filter before outlier removal is even
// attempted, and at least 2 points must survive outlier removal before
// the regression runs.
func candidatePoints(in Input, lowN, highN int, loY, yMax float64) (xs, ys []float64, ns []int, preOutlier int) {
	type candidate struct {
		x, y float64
		n    int
	}
	var filtered []candidate
	for _, p := range in.Partials {
		if p.N < lowN || p.N > highN {
			continue
		}
		if p.AmplitudeDB <= minAmplitudeDB {
			continue
		}
		nf := float64(p.N)
		ratio := p.Frequency / (nf * in.F0)
		y := ratio*ratio - 1
		filtered = append(filtered, candidate{nf * nf, y, p.N})
	}
	preOutlier = len(filtered)

	for _, c := range filtered {
		if c.y < loY || c.y > yMax {
			continue
		}
		xs = append(xs, c.x)
		ys = append(ys, c.y)
		ns = append(ns, c.n)
	}
	return xs, ys, ns, preOutlier
}

// weightedFit solves the weighted least-squares line y = a + B*x with
// weights w_n = 1/n^2, per §4.5's closed-form normal-equation solution.
// Requires at least 2 points.
func weightedFit(xs, ys []float64, ns []int) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}

	var sw, swx, swy, swxy, swx2 float64
	for i := range xs {
		w := 1.0 / float64(ns[i]*ns[i])
		x, y := xs[i], ys[i]
		sw += w
		swx += w * x
		swy += w * y
		swxy += w * x * y
		swx2 += w * x * x
	}

	denom := sw*swx2 - swx*swx
	if denom == 0 {
		return 0, false
	}
	b := (sw*swxy - swx*swy) / denom
	return b, true
}

// slopeAnalyser is the fallback invoked when the regression returns a
// negative B: if most deviations are flat/negative the data is noise
// dominated and the typical prior is returned; otherwise B is
// estimated from the median of the positive-deviation partials.
func slopeAnalyser(xs, ys []float64, ns []int, prior physics.RegisterPrior) float64 {
	type point struct {
		n int
		y float64
	}
	pts := make([]point, len(ys))
	for i := range ys {
		pts[i] = point{ns[i], ys[i]}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].n < pts[j].n })

	negOrZero := 0
	var positive []point
	for _, p := range pts {
		if p.y <= 0 {
			negOrZero++
		} else {
			positive = append(positive, p)
		}
	}

	if negOrZero*2 >= len(pts) {
		return prior.Typical
	}

	sort.Slice(positive, func(i, j int) bool { return positive[i].y < positive[j].y })
	ySorted := make([]float64, len(positive))
	for i, p := range positive {
		ySorted[i] = p.y
	}
	yMedian := stat.Quantile(0.5, stat.Empirical, ySorted, nil)

	mid := positive[0]
	bestDist := math.Abs(mid.y - yMedian)
	for _, p := range positive[1:] {
		if d := math.Abs(p.y - yMedian); d < bestDist {
			mid, bestDist = p, d
		}
	}

	if mid.n == 0 {
		return prior.Typical
	}
	b := yMedian / float64(mid.n*mid.n)
	return b
}
