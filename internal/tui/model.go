// Package tui is the interactive scan screen: a search button, the list of
// discovered devices and modal alerts, driven by a controller.Controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/device"
)

type (
	eventMsg         controller.Event
	eventsClosedMsg  struct{}
	alertMsg         controller.Alert
	scanResultMsg    struct{ err error }
	connectResultMsg struct {
		id  string
		err error
	}
	quitMsg struct{}
)

// Model is the Bubble Tea model of the scan screen.
type Model struct {
	ctx      context.Context
	ctl      *controller.Controller
	notifier *Notifier
	labels   controller.Labels
	spinner  spinner.Model

	devices    []device.DeviceInfo
	cursor     int
	scanning   bool
	connecting string
	alert      *controller.Alert
	status     string
	width      int
	height     int
	quitting   bool
}

// New creates the screen model. ctl must have been created with notifier.
func New(ctx context.Context, ctl *controller.Controller, notifier *Notifier) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		ctx:      ctx,
		ctl:      ctl,
		notifier: notifier,
		labels:   ctl.Labels(),
		spinner:  s,
		devices:  ctl.Devices(),
		scanning: ctl.IsScanning(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.ctl.Events()),
		waitForAlert(m.notifier.Alerts()),
		m.spinner.Tick,
	)
}

func waitForEvent(events <-chan controller.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func waitForAlert(alerts <-chan controller.Alert) tea.Cmd {
	return func() tea.Msg {
		a, ok := <-alerts
		if !ok {
			return nil
		}
		return alertMsg(a)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.applyEvent(controller.Event(msg))
		return m, waitForEvent(m.ctl.Events())

	case eventsClosedMsg:
		return m, nil

	case alertMsg:
		a := controller.Alert(msg)
		m.alert = &a
		return m, waitForAlert(m.notifier.Alerts())

	case scanResultMsg:
		if msg.err != nil && !errors.Is(msg.err, controller.ErrScanInProgress) {
			m.status = msg.err.Error()
		}
		m.scanning = m.ctl.IsScanning()
		return m, nil

	case connectResultMsg:
		if m.connecting == msg.id {
			m.connecting = ""
		}
		return m, nil

	case quitMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// a modal alert swallows keys until dismissed
	if m.alert != nil {
		switch msg.String() {
		case "enter", "esc", " ", "o":
			m.alert = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "s", "/":
		return m.startScan()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}
	case "enter":
		return m.connectSelected()
	}
	return m, nil
}

func (m Model) startScan() (tea.Model, tea.Cmd) {
	if m.scanning {
		return m, nil
	}
	m.scanning = true
	m.status = ""
	m.devices = nil
	m.cursor = 0

	ctl := m.ctl
	return m, func() tea.Msg {
		return scanResultMsg{err: ctl.StartScan()}
	}
}

func (m Model) connectSelected() (tea.Model, tea.Cmd) {
	if m.connecting != "" || len(m.devices) == 0 {
		return m, nil
	}
	id := m.devices[m.cursor].ID()
	m.connecting = id

	ctx, ctl := m.ctx, m.ctl
	return m, func() tea.Msg {
		_, err := ctl.ConnectToDevice(ctx, id)
		return connectResultMsg{id: id, err: err}
	}
}

func (m *Model) applyEvent(ev controller.Event) {
	m.devices = m.ctl.Devices()
	m.scanning = m.ctl.IsScanning()
	if ev.Type == controller.EventScanStopped && ev.Err != nil {
		m.status = ev.Err.Error()
	}
	if m.cursor >= len(m.devices) {
		m.cursor = max(len(m.devices)-1, 0)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.alert != nil {
		return m.alertView()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.labels.Title))
	b.WriteString("\n")
	b.WriteString(m.buttonView())
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(colorError).Render(m.status))
		b.WriteString("\n\n")
	}

	if len(m.devices) == 0 && !m.scanning {
		b.WriteString(idStyle.Render(m.labels.NoDevices))
		b.WriteString("\n")
	}
	for i, dev := range m.devices {
		b.WriteString(m.itemView(i, dev))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("s search • ↑/↓ select • enter connect • q quit"))
	return b.String()
}

func (m Model) buttonView() string {
	label := m.labels.ButtonLabel(m.scanning)
	if m.scanning {
		return buttonDisabledStyle.Render(label) + " " + m.spinner.View()
	}
	return buttonStyle.Render(label)
}

func (m Model) itemView(i int, dev device.DeviceInfo) string {
	name := nameStyle.Render(m.labels.ListName(dev.Name()))
	if dev.ID() == m.connecting {
		name += " " + m.spinner.View()
	}
	body := name + "\n" + idStyle.Render(m.labels.ListID(dev.ID()))

	if i == m.cursor {
		return selectedItemStyle.Render(body)
	}
	return itemStyle.Render(body)
}

func (m Model) alertView() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(alertColor(m.alert.Level)).Render(m.alert.Title)
	box := modalStyle.
		BorderForeground(alertColor(m.alert.Level)).
		Render(fmt.Sprintf("%s\n\n%s\n\n%s", title, m.alert.Message, idStyle.Render("[ OK ]")))

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Run shows the screen until the user quits or ctx is done.
func Run(ctx context.Context, ctl *controller.Controller, notifier *Notifier, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(New(ctx, ctl, notifier), opts...)

	go func() {
		<-ctx.Done()
		p.Send(quitMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui failed: %w", err)
	}
	return ctx.Err()
}
