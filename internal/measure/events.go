package measure

import "pianotune/internal/domain"

// EventSink receives analyzer output. Implementations must not block;
// the analyzer calls these synchronously from ProcessAudioBuffer.
type EventSink interface {
	// MeasurementUpdated is called after every accepted frame while
	// Measuring, with the current best candidate in the rolling
	// selection buffer.
	MeasurementUpdated(domain.NoteMeasurement)

	// MeasurementAutoStopped is called once, when the state machine
	// locks onto a final measurement.
	MeasurementAutoStopped(domain.NoteMeasurement)

	// RawSpectrumUpdated is called once per processed FFT frame while
	// Armed or Measuring, for live spectrum visualization.
	RawSpectrumUpdated(domain.SpectrumSnapshot)
}

// NopSink discards all events. Useful as a default EventSink and in
// tests that only care about return values or field state.
type NopSink struct{}

func (NopSink) MeasurementUpdated(domain.NoteMeasurement)     {}
func (NopSink) MeasurementAutoStopped(domain.NoteMeasurement) {}
func (NopSink) RawSpectrumUpdated(domain.SpectrumSnapshot)    {}
