package measure

import (
	"pianotune/internal/domain"
	"pianotune/internal/physics"
)

// classifyQuality implements §4.7's quality thresholds: the transition
// zone around the scale break requires more corroborating partials
// since low-n regression there is least reliable.
func classifyQuality(midi, scaleBreak int, hasPianoMeta bool, partialCount int) domain.Quality {
	transition := hasPianoMeta && physics.ClassifyScaleBreak(midi, scaleBreak) == physics.RegionTransition

	switch {
	case transition:
		switch {
		case partialCount > 7:
			return domain.Green
		case partialCount > 4:
			return domain.Orange
		default:
			return domain.Red
		}
	default:
		switch {
		case partialCount > 5:
			return domain.Green
		case partialCount > 2:
			return domain.Orange
		default:
			return domain.Red
		}
	}
}
