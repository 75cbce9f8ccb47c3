package physics

import (
	"fmt"
	"math"
)

// noteNames are the twelve pitch classes in an octave, starting at C,
// used by MIDIToNoteName.
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MIDIToFrequency converts a MIDI note index to its equal-tempered
// frequency, A4 (MIDI 69) = 440 Hz.
func MIDIToFrequency(midi int) float64 {
	return 440.0 * math.Pow(2, (float64(midi)-69.0)/12.0)
}

// FrequencyToMIDI is the inverse of MIDIToFrequency, rounded to the
// nearest integer note.
func FrequencyToMIDI(freq float64) int {
	if freq <= 0 {
		return 0
	}
	return int(math.Round(69.0 + 12.0*math.Log2(freq/440.0)))
}

// FrequencyToCents returns the signed deviation of measured from target
// in cents. Returns 0 if either frequency is non-positive, since cents
// are undefined there.
func FrequencyToCents(measured, target float64) float64 {
	if measured <= 0 || target <= 0 {
		return 0
	}
	return 1200.0 * math.Log2(measured/target)
}

// MIDIToNoteName renders a MIDI index as "C-1".."G9" with MIDI 0 ==
// "C-1" and MIDI 69 == "A4".
func MIDIToNoteName(midi int) string {
	octave := midi/12 - 1
	name := noteNames[((midi%12)+12)%12]
	return fmt.Sprintf("%s%d", name, octave)
}

// PartialFrequency computes the frequency of the n-th partial of a
// stiff string with fundamental f0 and inharmonicity coefficient B:
//
//	fn = n * f0 * sqrt(1 + B*n^2)
func PartialFrequency(n int, f0, b float64) float64 {
	nf := float64(n)
	return nf * f0 * math.Sqrt(1+b*nf*nf)
}

// RegisterPrior is the (min, typical, max) inharmonicity coefficient
// band for a register of the piano.
type RegisterPrior struct {
	Min, Typical, Max float64
}

// RegisterPriorFor returns the inharmonicity prior band for the given
// MIDI index, per the Fletcher & Rossing register table. The 85-108
// band rises linearly from its low end to its high end across the
// octave-and-change of high treble.
func RegisterPriorFor(midi int) RegisterPrior {
	switch {
	case midi <= 35:
		return RegisterPrior{3e-4, 8e-4, 3e-3}
	case midi <= 47:
		return RegisterPrior{2e-4, 5e-4, 1e-3}
	case midi <= 60:
		return RegisterPrior{1e-4, 3e-4, 6e-4}
	case midi <= 72:
		return RegisterPrior{5e-5, 1.5e-4, 3e-4}
	case midi <= 84:
		return RegisterPrior{3e-5, 1e-4, 2e-4}
	default:
		return highTrebleRegisterPrior(midi)
	}
}

// highTrebleRegisterPrior linearly interpolates the 85-108 rising band.
func highTrebleRegisterPrior(midi int) RegisterPrior {
	const loMIDI, hiMIDI = 85, 108
	m := float64(midi)
	if m < loMIDI {
		m = loMIDI
	}
	if m > hiMIDI {
		m = hiMIDI
	}
	t := (m - loMIDI) / (hiMIDI - loMIDI)

	lerp := func(a, b float64) float64 { return a + t*(b-a) }
	return RegisterPrior{
		Min:     5e-5,
		Typical: lerp(1.5e-4, 3e-4),
		Max:     lerp(4e-4, 1e-3),
	}
}

// TypicalInharmonicity returns B_typical for the register containing
// midi, per §4.5's table.
func TypicalInharmonicity(midi int) float64 {
	return RegisterPriorFor(midi).Typical
}

// ClampB clamps b into the register range for midi.
func ClampB(midi int, b float64) float64 {
	p := RegisterPriorFor(midi)
	if b < p.Min {
		return p.Min
	}
	if b > p.Max {
		return p.Max
	}
	return b
}

// MaxPartialForMIDI returns the register-dependent ceiling on expected
// partial number n, per §4.3.
func MaxPartialForMIDI(midi int) int {
	switch {
	case midi <= 35:
		return 16
	case midi <= 60:
		return 16
	case midi <= 72:
		return 14
	case midi <= 84:
		return 12
	default:
		return 8
	}
}

// AnchorPartialForMIDI returns the register's preferred anchor partial
// for f0 back-solving, per §4.6 step 2.
func AnchorPartialForMIDI(midi int) int {
	switch {
	case midi <= 35:
		return 6
	case midi <= 47:
		return 3
	case midi <= 60:
		return 2
	default:
		return 1
	}
}

// ScaleBreakRegion classifies midi relative to the piano's scale break.
type ScaleBreakRegion int

const (
	RegionNone ScaleBreakRegion = iota
	RegionWoundStrings
	RegionTransition
	RegionPlainStrings
)

// ClassifyScaleBreak classifies midi relative to scaleBreak per §4.5:
// within ±3 semitones the note is in the scale-break zone, further
// split into wound-strings / transition / plain-strings.
func ClassifyScaleBreak(midi, scaleBreak int) ScaleBreakRegion {
	delta := midi - scaleBreak
	if delta < -3 || delta > 3 {
		return RegionNone
	}
	switch {
	case delta < -1:
		return RegionWoundStrings
	case delta <= 1:
		return RegionTransition
	default:
		return RegionPlainStrings
	}
}
