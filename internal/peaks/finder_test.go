package peaks

import (
	"math"
	"testing"

	"pianotune/internal/fft"
	"pianotune/internal/physics"
)

func synthSpectrum(freqs, amps []float64) []float64 {
	n := physics.FFTOutLen / 2
	mags := make([]float64, n)
	for i := range freqs {
		bin := fft.BinForFreq(freqs[i])
		if bin >= 0 && bin < n {
			mags[bin] = amps[i]
			if bin > 0 {
				mags[bin-1] = amps[i] * 0.3
			}
			if bin < n-1 {
				mags[bin+1] = amps[i] * 0.3
			}
		}
	}
	return mags
}

func TestSearchFindsPureTone(t *testing.T) {
	mags := synthSpectrum([]float64{440}, []float64{1.0})
	found, ok := Search(mags, 1, 440, 69, 44, 1.5e-4, PassTheoretical)
	if !ok {
		t.Fatal("expected to find the 440Hz partial")
	}
	if math.Abs(found.Frequency-440) > 1.0 {
		t.Errorf("found frequency %.3f, want close to 440", found.Frequency)
	}
}

func TestSearchRejectsBeyondNyquistMinus1kHz(t *testing.T) {
	mags := synthSpectrum([]float64{47000}, []float64{1.0})
	_, ok := Search(mags, 1, 47500, 108, 44, 1.5e-4, PassTheoretical)
	if ok {
		t.Fatal("expected rejection near Nyquist")
	}
}

func TestSearchRejectsBelowNoiseFloor(t *testing.T) {
	mags := make([]float64, physics.FFTOutLen/2)
	// All zero: nothing should be found above threshold.
	_, ok := Search(mags, 1, 440, 69, 44, 1.5e-4, PassTheoretical)
	if ok {
		t.Fatal("expected rejection in a silent spectrum")
	}
}

func TestDetectAllStrictlyIncreasingN(t *testing.T) {
	f0 := 130.81
	b := 3e-4
	freqs := make([]float64, 0, 10)
	amps := make([]float64, 0, 10)
	for n := 1; n <= 8; n++ {
		freqs = append(freqs, physics.PartialFrequency(n, f0, b))
		amps = append(amps, 1.0/float64(n))
	}
	mags := synthSpectrum(freqs, amps)

	results := DetectAll(mags, 48, 44, b, PassInharmonic, InharmonicGrid(f0, b))
	prev := 0
	for _, r := range results {
		if r.N <= prev {
			t.Fatalf("partial numbers not strictly increasing: %+v", results)
		}
		prev = r.N
	}
	if len(results) < 4 {
		t.Errorf("expected several partials detected, got %d", len(results))
	}
}
