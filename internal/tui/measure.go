// Package tui renders the live measurement readout: the note being
// tuned, the attack/measuring/locked state, the current f0/B estimate,
// and the detected partial table. Adapted from the teacher's
// DeviceListModel (viewport + lipgloss styling, bubbletea Update/View
// loop) but driven by analyzer events instead of a static device list.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pianotune/internal/domain"
	"pianotune/internal/measure"
)

var (
	measureTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(lipgloss.Color("#25A065")).
				Padding(0, 1).
				Bold(true)

	measureInfoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5"))

	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")).Bold(true)
	orangeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D78700")).Bold(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D70000")).Bold(true)
)

// measurementMsg carries an updated measurement into the bubbletea
// event loop.
type measurementMsg struct {
	meas      domain.NoteMeasurement
	isLocked  bool
	targetSet bool
}

// spectrumMsg carries an updated spectrum snapshot into the loop, used
// only to report the target in the header.
type spectrumMsg struct {
	snap domain.SpectrumSnapshot
}

// MeasurementModel is the bubbletea model for the live readout screen.
type MeasurementModel struct {
	targetMIDI   int
	targetName   string
	targetFreq   float64
	current      domain.NoteMeasurement
	haveCurrent  bool
	locked       bool
	lastSnapshot domain.SpectrumSnapshot
}

// NewMeasurementModel constructs an empty readout model.
func NewMeasurementModel() MeasurementModel {
	return MeasurementModel{}
}

func (m MeasurementModel) Init() tea.Cmd { return nil }

func (m MeasurementModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case measurementMsg:
		m.current = msg.meas
		m.haveCurrent = true
		m.locked = msg.isLocked
		m.targetMIDI = msg.meas.MIDI
		m.targetName = msg.meas.NoteName
		m.targetFreq = msg.meas.TargetFrequency

	case spectrumMsg:
		m.lastSnapshot = msg.snap
		m.targetMIDI = msg.snap.TargetMIDI
		m.targetName = msg.snap.NoteName
		m.targetFreq = msg.snap.TargetFrequency
	}
	return m, nil
}

func (m MeasurementModel) View() string {
	title := measureTitleStyle.Render("Piano Tuning Measurement")

	header := fmt.Sprintf("Target: %s (MIDI %d, %.2f Hz)", m.targetName, m.targetMIDI, m.targetFreq)
	if m.targetMIDI == 0 && m.targetName == "" {
		header = "No target note selected"
	}

	state := "Armed"
	if m.locked {
		state = "Locked"
	} else if m.haveCurrent {
		state = "Measuring"
	}

	var body strings.Builder
	body.WriteString(measureInfoStyle.Render(header))
	body.WriteString("\n\n")
	fmt.Fprintf(&body, "State: %s\n", state)

	if m.haveCurrent {
		fmt.Fprintf(&body, "f0: %.3f Hz   B: %.6f\n", m.current.F0, m.current.B)
		fmt.Fprintf(&body, "Anchor partial: %d\n", m.current.MeasuredPartialNum)
		body.WriteString("Quality: ")
		body.WriteString(qualityStyle(m.current.Quality).Render(m.current.Quality.String()))
		body.WriteString("\n\n")
		body.WriteString(renderPartials(m.current.Partials))
	}

	help := measureInfoStyle.Render("q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body.String(), help)
}

func qualityStyle(q domain.Quality) lipgloss.Style {
	switch q {
	case domain.Green:
		return greenStyle
	case domain.Orange:
		return orangeStyle
	default:
		return redStyle
	}
}

func renderPartials(partials []domain.PartialResult) string {
	if len(partials) == 0 {
		return "No partials detected yet."
	}
	var sb strings.Builder
	sb.WriteString("  n    frequency (Hz)   amplitude (dB)\n")
	for _, p := range partials {
		fmt.Fprintf(&sb, " %3d      %9.3f          %7.2f\n", p.N, p.Frequency, p.AmplitudeDB)
	}
	return sb.String()
}

// ProgramSink adapts a running *tea.Program into a measure.EventSink,
// forwarding analyzer callbacks as bubbletea messages so the UI update
// loop stays single-threaded even though ProcessAudioBuffer runs on
// the capture callback's goroutine.
type ProgramSink struct {
	program *tea.Program
}

// NewProgramSink wraps program. Start the program before wiring this
// sink into an Analyzer.
func NewProgramSink(program *tea.Program) *ProgramSink {
	return &ProgramSink{program: program}
}

func (s *ProgramSink) MeasurementUpdated(m domain.NoteMeasurement) {
	s.program.Send(measurementMsg{meas: m, isLocked: false, targetSet: true})
}

func (s *ProgramSink) MeasurementAutoStopped(m domain.NoteMeasurement) {
	s.program.Send(measurementMsg{meas: m, isLocked: true, targetSet: true})
}

func (s *ProgramSink) RawSpectrumUpdated(snap domain.SpectrumSnapshot) {
	s.program.Send(spectrumMsg{snap: snap})
}

var _ measure.EventSink = (*ProgramSink)(nil)

// StartMeasurementUI launches the bubbletea program for the live
// readout screen and returns it so the caller can wrap it in a
// ProgramSink before starting capture.
func StartMeasurementUI() *tea.Program {
	return tea.NewProgram(NewMeasurementModel(), tea.WithAltScreen())
}
