package measure

import "pianotune/internal/domain"

// MultiSink fans analyzer events out to every wrapped sink in order.
// Used to feed both the UDP publisher and the WebSocket server (and
// any TUI) from a single Analyzer.
type MultiSink struct {
	sinks []EventSink
}

// NewMultiSink wraps the given sinks, skipping nil entries so callers
// can pass optional transports unconditionally.
func NewMultiSink(sinks ...EventSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) MeasurementUpdated(meas domain.NoteMeasurement) {
	for _, s := range m.sinks {
		s.MeasurementUpdated(meas)
	}
}

func (m *MultiSink) MeasurementAutoStopped(meas domain.NoteMeasurement) {
	for _, s := range m.sinks {
		s.MeasurementAutoStopped(meas)
	}
}

func (m *MultiSink) RawSpectrumUpdated(snap domain.SpectrumSnapshot) {
	for _, s := range m.sinks {
		s.RawSpectrumUpdated(snap)
	}
}
