package measure

// State is the attack-triggered measurement state machine of §4.7.
type State int

const (
	// Idle: no target note is set, or Reset was called. Audio is
	// accepted but not analyzed.
	Idle State = iota

	// Armed: a target is set, buffers are clear, and the analyzer is
	// watching the RMS of each raw sample block for an attack.
	Armed

	// Measuring: an attack was detected; frames are analyzed and fed
	// into the rolling selection buffer.
	Measuring

	// Locked: a confident measurement was reached and selection has
	// stopped. Further audio is accepted but not analyzed until Reset
	// or a new target is set.
	Locked
)

// String renders the state for logging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Armed:
		return "Armed"
	case Measuring:
		return "Measuring"
	case Locked:
		return "Locked"
	default:
		return "Unknown"
	}
}

const (
	attackDeltaDB  = 15.0 // ΔRMS vs previous block to trigger the attack.
	attackFloorDB  = -45.0 // Absolute RMS floor below which an attack is ignored.
	lockStreak     = 3    // Consecutive Green frame measurements to auto-lock.
	rmsFloor       = 1e-9 // Numerical floor before taking log10 of an RMS value.
)
