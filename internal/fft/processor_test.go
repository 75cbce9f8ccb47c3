package fft

import (
	"math"
	"testing"

	"pianotune/internal/physics"
)

func TestProcessRejectsUnsupportedWindowSize(t *testing.T) {
	p := NewProcessor()
	_, err := p.Process(make([]float64, 123))
	if err == nil {
		t.Fatal("expected error for unsupported window size")
	}
}

func TestProcessPureToneSingleBin(t *testing.T) {
	p := NewProcessor()
	const freq = 440.0
	w := 32768
	samples := make([]float64, w)
	for i := range samples {
		t := float64(i) / physics.SampleRate
		samples[i] = math.Sin(2 * math.Pi * freq * t)
	}

	mag, err := p.Process(samples)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	peakBin, peakVal := 0, 0.0
	for i, v := range mag {
		if v > peakVal {
			peakVal = v
			peakBin = i
		}
	}
	gotFreq := FreqForBin(peakBin)
	if math.Abs(gotFreq-freq) > physics.FreqPerBin {
		t.Errorf("peak bin frequency = %.3f Hz, want near %.3f Hz", gotFreq, freq)
	}
}

func TestProcessAllocatesNothing(t *testing.T) {
	p := NewProcessor()
	samples := make([]float64, 32768)
	for i := range samples {
		t := float64(i) / physics.SampleRate
		samples[i] = math.Sin(2 * math.Pi * 440 * t)
	}
	// Warm the window-size lookup before measuring; NewProcessor itself
	// still allocates the scratch buffers and window table up front.
	if _, err := p.Process(samples); err != nil {
		t.Fatalf("Process: %v", err)
	}

	allocs := testing.AllocsPerRun(100, func() {
		if _, err := p.Process(samples); err != nil {
			t.Fatalf("Process: %v", err)
		}
	})
	if allocs != 0 {
		t.Errorf("Process allocated %.0f times per run, want 0", allocs)
	}
}

func TestBinForFreqRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 100, 440, 12000} {
		bin := BinForFreq(f)
		back := FreqForBin(bin)
		if math.Abs(back-f) > physics.FreqPerBin {
			t.Errorf("freq %.2f -> bin %d -> %.2f, drift too large", f, bin, back)
		}
	}
}
