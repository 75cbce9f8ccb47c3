package inharmonic

import (
	"math"
	"testing"

	"pianotune/internal/physics"
)

func syntheticPartials(f0, b float64, n int) []Partial {
	out := make([]Partial, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Partial{
			N:           i,
			Frequency:   physics.PartialFrequency(i, f0, b),
			AmplitudeDB: -3 * float64(i),
		})
	}
	return out
}

func TestEstimateRecoversKnownB(t *testing.T) {
	f0, b := 130.81, 3e-4
	in := Input{Partials: syntheticPartials(f0, b, 10), F0: f0, MIDI: 48}

	got := Estimate(in)
	if rel := math.Abs(got-b) / b; rel > 0.2 {
		t.Errorf("Estimate() = %v, want close to %v (rel err %.3f)", got, b, rel)
	}
}

func TestEstimateFallsBackWithTooFewPartials(t *testing.T) {
	in := Input{Partials: syntheticPartials(130.81, 3e-4, 1), F0: 130.81, MIDI: 48}
	got := Estimate(in)
	want := physics.RegisterPriorFor(48).Typical
	if got != want {
		t.Errorf("Estimate() = %v, want register prior %v", got, want)
	}
}

func TestEstimateClampsToRegisterRange(t *testing.T) {
	// Wildly inconsistent partials should still clamp into the register band.
	in := Input{
		Partials: []Partial{
			{N: 2, Frequency: 2 * 130.81 * 3, AmplitudeDB: -1},
			{N: 3, Frequency: 3 * 130.81 * 4, AmplitudeDB: -1},
			{N: 4, Frequency: 4 * 130.81 * 5, AmplitudeDB: -1},
		},
		F0:   130.81,
		MIDI: 48,
	}
	got := Estimate(in)
	prior := physics.RegisterPriorFor(48)
	if got < prior.Min || got > prior.Max {
		t.Errorf("Estimate() = %v, want within [%v, %v]", got, prior.Min, prior.Max)
	}
}

func TestTransitionZoneFallsBackConservatively(t *testing.T) {
	in := Input{
		Partials:     []Partial{{N: 2, Frequency: 2 * 130.81, AmplitudeDB: -1}},
		F0:           130.81,
		MIDI:         44,
		ScaleBreak:   44,
		HasPianoMeta: true,
	}
	got := Estimate(in)
	if got != 6e-4 {
		t.Errorf("transition with too few partials and midi==break: got %v want 6e-4", got)
	}
}

func TestTransitionZoneWoundSide(t *testing.T) {
	in := Input{
		Partials:     []Partial{{N: 2, Frequency: 2 * 130.81, AmplitudeDB: -1}},
		F0:           130.81,
		MIDI:         43,
		ScaleBreak:   44,
		HasPianoMeta: true,
	}
	got := Estimate(in)
	if got != 6e-4 {
		t.Errorf("wound side fallback: got %v want 6e-4", got)
	}
}

func TestEstimateRunsRegressionWithTwoPointsAfterOutlierRemoval(t *testing.T) {
	// Three partials pass the amplitude/n filter (gate at 3); one of
	// them is a wild outlier that the y-band drops, leaving 2 points
	// for the regression (gate at 2). The regression must still run
	// rather than falling back to the register prior.
	f0, b := 130.81, 3e-4
	in := Input{
		Partials: []Partial{
			{N: 2, Frequency: physics.PartialFrequency(2, f0, b), AmplitudeDB: -3},
			{N: 3, Frequency: physics.PartialFrequency(3, f0, b), AmplitudeDB: -6},
			{N: 4, Frequency: 4 * f0 * 10, AmplitudeDB: -9}, // far outside the y-band
		},
		F0:   f0,
		MIDI: 48,
	}

	prior := physics.RegisterPriorFor(48).Typical
	got := Estimate(in)
	if got == prior {
		t.Fatalf("Estimate() = %v, want regression result, not the register prior fallback", got)
	}
	if rel := math.Abs(got-b) / b; rel > 0.5 {
		t.Errorf("Estimate() = %v, want roughly close to %v (rel err %.3f)", got, b, rel)
	}
}

func TestTransitionZonePlainSide(t *testing.T) {
	in := Input{
		Partials:     []Partial{{N: 2, Frequency: 2 * 130.81, AmplitudeDB: -1}},
		F0:           130.81,
		MIDI:         45,
		ScaleBreak:   44,
		HasPianoMeta: true,
	}
	got := Estimate(in)
	if got != 2e-4 {
		t.Errorf("plain side fallback: got %v want 2e-4", got)
	}
}
