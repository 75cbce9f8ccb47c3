// SPDX-License-Identifier: MIT

// Package domain holds the value types shared across the analyzer:
// note targets, piano metadata, partials, and measurements. None of
// these types reference each other cyclically; measurements own their
// partial lists outright and rolling buffers hold copies, not pointers.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PianoType categorizes the instrument being tuned.
type PianoType int

const (
	Spinet PianoType = iota
	Console
	ProfessionalUpright
	BabyGrand
	ParlorGrand
	SemiConcertGrand
	ConcertGrand
	Unknown
)

// String renders the piano type for display and persistence.
func (t PianoType) String() string {
	switch t {
	case Spinet:
		return "Spinet"
	case Console:
		return "Console"
	case ProfessionalUpright:
		return "ProfessionalUpright"
	case BabyGrand:
		return "BabyGrand"
	case ParlorGrand:
		return "ParlorGrand"
	case SemiConcertGrand:
		return "SemiConcertGrand"
	case ConcertGrand:
		return "ConcertGrand"
	default:
		return "Unknown"
	}
}

// PianoTypeFromDropdownIndex maps the legacy piano-type dropdown index
// to its canonical PianoType. Index 2 ("Studio") deliberately coarsens
// to Console -- preserved from the original UI, flagged here rather
// than silently dropped. See DESIGN.md Open Question.
func PianoTypeFromDropdownIndex(index int) PianoType {
	switch index {
	case 0:
		return Spinet
	case 1:
		return Console
	case 2:
		return Console // "Studio" coarsens to Console.
	case 3:
		return ProfessionalUpright
	case 4:
		return BabyGrand
	case 5:
		return ParlorGrand
	case 6:
		return SemiConcertGrand
	case 7:
		return ConcertGrand
	default:
		return Unknown
	}
}

// ParsePianoType parses a configuration-friendly piano type name
// (case-insensitive) into a PianoType, returning false for unknown
// names so callers can surface a configuration error instead of
// silently falling back to Unknown.
func ParsePianoType(name string) (PianoType, bool) {
	switch strings.ToLower(name) {
	case "spinet":
		return Spinet, true
	case "console":
		return Console, true
	case "professional_upright", "upright":
		return ProfessionalUpright, true
	case "baby_grand":
		return BabyGrand, true
	case "parlor_grand":
		return ParlorGrand, true
	case "semi_concert_grand":
		return SemiConcertGrand, true
	case "concert_grand":
		return ConcertGrand, true
	default:
		return Unknown, false
	}
}

// MarshalJSON renders the piano type as its name rather than its
// underlying integer, so stored documents stay human-readable.
func (t PianoType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a piano type name, accepting the same names
// String renders (case-sensitive, matching storage round trips).
func (t *PianoType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Spinet":
		*t = Spinet
	case "Console":
		*t = Console
	case "ProfessionalUpright":
		*t = ProfessionalUpright
	case "BabyGrand":
		*t = BabyGrand
	case "ParlorGrand":
		*t = ParlorGrand
	case "SemiConcertGrand":
		*t = SemiConcertGrand
	case "ConcertGrand":
		*t = ConcertGrand
	default:
		*t = Unknown
	}
	return nil
}

// NoteTarget is the currently targeted note: its MIDI index, the
// theoretical equal-tempered frequency, and the ±50-cent accept
// window computed from it.
type NoteTarget struct {
	MIDI            int
	TheoreticalFreq float64
	AcceptWindowMin float64
	AcceptWindowMax float64
}

// PianoMetadata describes the instrument being measured. Set once per
// session; drives scale-break classification in the inharmonicity
// estimator.
type PianoMetadata struct {
	Type           PianoType `json:"type"`
	LengthCM       float64   `json:"length_cm"`
	ScaleBreakMIDI int       `json:"scale_break_midi"`
}

// PartialResult is one detected harmonic partial.
type PartialResult struct {
	N           int     `json:"n"`
	Frequency   float64 `json:"frequency"`
	AmplitudeDB float64 `json:"amplitude_db"`
}

// Quality classifies the confidence of a measurement.
type Quality int

const (
	Red Quality = iota
	Orange
	Green
)

// String renders the quality classification for display/persistence.
func (q Quality) String() string {
	switch q {
	case Green:
		return "Green"
	case Orange:
		return "Orange"
	default:
		return "Red"
	}
}

// Score returns the ranking weight used by measurement selection:
// Green=3, Orange=2, Red=1.
func (q Quality) Score() int {
	switch q {
	case Green:
		return 3
	case Orange:
		return 2
	default:
		return 1
	}
}

// MarshalJSON renders the quality as its name.
func (q Quality) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON parses a quality name.
func (q *Quality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Green":
		*q = Green
	case "Orange":
		*q = Orange
	case "Red":
		*q = Red
	default:
		return fmt.Errorf("domain: unknown quality %q", s)
	}
	return nil
}

// NoteMeasurement is a completed per-note measurement record, keyed by
// MIDI index for storage.
type NoteMeasurement struct {
	MIDI               int             `json:"midi"`
	TargetFrequency    float64         `json:"target_frequency"`
	NoteName           string          `json:"note_name"`
	F0                 float64         `json:"f0"`
	B                  float64         `json:"b"`
	MeasuredPartialNum int             `json:"measured_partial_num"` // Anchor partial used for the f0 back-solve.
	Quality            Quality         `json:"quality"`
	Partials           []PartialResult `json:"partials"`
	MeasuredAt         time.Time       `json:"measured_at"`
}

// SpectrumSnapshot is a copy of the full current averaged magnitude
// spectrum (FFTOutLen/2 bins), emitted for external visualizers.
type SpectrumSnapshot struct {
	Magnitudes      []float64 `json:"magnitudes"`
	FreqResolution  float64   `json:"freq_resolution"`
	TargetFrequency float64   `json:"target_frequency"`
	TargetMIDI      int       `json:"target_midi"`
	NoteName        string    `json:"note_name"`
	Timestamp       time.Time `json:"timestamp"`
}
