package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pianotune/internal/measure"
)

var (
	deviceTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(lipgloss.Color("#25A065")).
				Padding(0, 1).
				Bold(true)

	deviceInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	deviceHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#25A065")).
				Bold(true)
)

// DeviceListModel lists capture devices for interactive selection.
// Adapted from the teacher's DeviceListModel, trimmed to a single
// screen since the analyzer's sample rate is fixed and not user
// configurable.
type DeviceListModel struct {
	fetch         fetcher
	devices       []measure.CaptureDevice
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	chosen        *measure.CaptureDevice
}

// fetcher lists the available capture devices; supplied by the caller
// so this package doesn't depend on a concrete capture backend.
type fetcher = func() ([]measure.CaptureDevice, error)

type devicesMsg struct {
	devices []measure.CaptureDevice
}

type deviceErrMsg struct {
	err error
}

// NewDeviceListModel builds a model that will list devices as returned
// by lister once the bubbletea program starts.
func NewDeviceListModel(lister func() ([]measure.CaptureDevice, error)) DeviceListModel {
	return DeviceListModel{
		fetch: lister,
	}
}

func (m DeviceListModel) Init() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.fetch()
		if err != nil {
			return deviceErrMsg{err}
		}
		return devicesMsg{devices}
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
			if len(m.devices) > 0 {
				m.viewport.SetContent(m.renderDevices())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case deviceErrMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.viewport.SetContent(m.renderDevices())
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
				m.viewport.SetContent(m.renderDevices())
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if len(m.devices) > 0 {
				chosen := m.devices[m.selectedIndex]
				m.chosen = &chosen
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}

	title := deviceTitleStyle.Render("Input Device List")
	help := deviceInfoStyle.Render("up/down: Navigate - enter: Select - q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		line := fmt.Sprintf("[%d] %s\n    Input channels: %d\n", device.ID, device.Name, device.MaxInChannels)
		if i == m.selectedIndex {
			line = deviceHighlightStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Chosen returns the device selected with Enter, if any.
func (m DeviceListModel) Chosen() *measure.CaptureDevice {
	return m.chosen
}

// SelectDevice runs the device-picker TUI and returns the chosen
// device, or nil if the user quit without selecting one.
func SelectDevice(lister fetcher) (*measure.CaptureDevice, error) {
	p := tea.NewProgram(NewDeviceListModel(lister), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(DeviceListModel).Chosen(), nil
}
