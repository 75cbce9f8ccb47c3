package noisefloor

import "testing"

func flatSpectrum(n int, level float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out
}

func TestEstimateClampsToRange(t *testing.T) {
	mags := flatSpectrum(4000, 0.5) // above clampHigh
	floor := Estimate(mags, 1500, 20)
	if floor != clampHigh {
		t.Errorf("expected clamp to %v, got %v", clampHigh, floor)
	}
}

func TestEstimateFallsBackWhenNoSamples(t *testing.T) {
	mags := flatSpectrum(3, 0.01) // too small a spectrum for any strategy
	floor := Estimate(mags, 1, 5)
	if floor != fallback && floor < clampLow {
		t.Errorf("expected a sane fallback/clamped value, got %v", floor)
	}
}

func TestEstimateMedianOfFlatFloor(t *testing.T) {
	mags := flatSpectrum(4000, 2e-4)
	floor := Estimate(mags, 2000, 20)
	if floor < 1.5e-4 || floor > 2.5e-4 {
		t.Errorf("expected floor near 2e-4 on flat spectrum, got %v", floor)
	}
}

func TestAdaptiveThresholdWidensNearScaleBreak(t *testing.T) {
	base := AdaptiveThreshold(200, 1, 1e-5, false)
	widened := AdaptiveThreshold(200, 1, 1e-5, true)
	if widened <= base {
		t.Errorf("expected scale-break widening, got base=%v widened=%v", base, widened)
	}
}

func TestAdaptiveThresholdUsesNoiseFloorWhenHigher(t *testing.T) {
	got := AdaptiveThreshold(200, 1, 1.0, false)
	if got != 3.0 {
		t.Errorf("expected 3*floor to dominate, got %v", got)
	}
}
