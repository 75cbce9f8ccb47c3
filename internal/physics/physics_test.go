package physics

import (
	"math"
	"testing"
)

func TestMIDIFrequencyRoundTrip(t *testing.T) {
	for midi := 0; midi <= 127; midi++ {
		f := MIDIToFrequency(midi)
		got := FrequencyToMIDI(f)
		if got != midi {
			t.Errorf("MIDI %d: round trip got %d (f=%.4f)", midi, got, f)
		}
	}
}

func TestMIDIToFrequencyA4(t *testing.T) {
	if got := MIDIToFrequency(69); math.Abs(got-440.0) > 1e-9 {
		t.Errorf("MIDI 69 = %.6f Hz, want 440", got)
	}
}

func TestMIDIToNoteName(t *testing.T) {
	cases := map[int]string{0: "C-1", 69: "A4", 60: "C4", 21: "A0", 108: "C8"}
	for midi, want := range cases {
		if got := MIDIToNoteName(midi); got != want {
			t.Errorf("MIDIToNoteName(%d) = %q, want %q", midi, got, want)
		}
	}
}

func TestFrequencyToCentsZeroGuards(t *testing.T) {
	if c := FrequencyToCents(0, 440); c != 0 {
		t.Errorf("expected 0 cents for non-positive measured, got %v", c)
	}
	if c := FrequencyToCents(440, 0); c != 0 {
		t.Errorf("expected 0 cents for non-positive target, got %v", c)
	}
}

func TestPartialFrequencyMonotonic(t *testing.T) {
	f0 := 130.81
	for _, b := range []float64{0, 1e-4, 1e-3, 1e-2} {
		prev := 0.0
		for n := 1; n <= 20; n++ {
			f := PartialFrequency(n, f0, b)
			if f <= prev {
				t.Fatalf("partial frequency not increasing in n at B=%v: n=%d f=%v prev=%v", b, n, f, prev)
			}
			prev = f
		}
	}

	n := 7
	prevB := PartialFrequency(n, f0, 0)
	for _, b := range []float64{1e-5, 1e-4, 1e-3, 1e-2} {
		f := PartialFrequency(n, f0, b)
		if f <= prevB {
			t.Fatalf("partial frequency not increasing in B: b=%v f=%v prev=%v", b, f, prevB)
		}
		prevB = f
	}
}

func TestRegisterPriorBounds(t *testing.T) {
	for midi := MinMIDI; midi <= MaxMIDI; midi++ {
		p := RegisterPriorFor(midi)
		if !(p.Min <= p.Typical && p.Typical <= p.Max) {
			t.Errorf("midi %d: prior out of order: %+v", midi, p)
		}
	}
}

func TestClassifyScaleBreak(t *testing.T) {
	sb := 44
	if got := ClassifyScaleBreak(sb, sb); got != RegionTransition {
		t.Errorf("at scale break want Transition, got %v", got)
	}
	if got := ClassifyScaleBreak(sb-3, sb); got != RegionWoundStrings {
		t.Errorf("3 below break want WoundStrings, got %v", got)
	}
	if got := ClassifyScaleBreak(sb+3, sb); got != RegionPlainStrings {
		t.Errorf("3 above break want PlainStrings, got %v", got)
	}
	if got := ClassifyScaleBreak(sb+10, sb); got != RegionNone {
		t.Errorf("far from break want RegionNone, got %v", got)
	}
}
