// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/link"
	"github.com/Thermoquad/tlc/pkg/protocol"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	maxLogEntries   = 100
	shownLogEntries = 8
	actionsWidth    = 28
)

// Focus states
const (
	focusActions = iota
	focusCommandLine
	focusCount
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// quickAction is one entry of the action list
type quickAction struct {
	title   string
	detail  string
	command protocol.Command
}

func (a quickAction) Title() string       { return a.title }
func (a quickAction) Description() string { return a.detail }
func (a quickAction) FilterValue() string { return a.title }

func quickActions() []list.Item {
	return []list.Item{
		quickAction{"Start cycle", "CYC on", protocol.SetCycle{Start: true}},
		quickAction{"Stop cycle", "CYC off", protocol.SetCycle{Start: false}},
		quickAction{"Reset alarms", "ART", protocol.Action{Which: protocol.KindAlarmReset}},
		quickAction{"Enable alarms", "AEN on", protocol.AlarmEnable{On: true}},
		quickAction{"Disable alarms", "AEN off", protocol.AlarmEnable{On: false}},
		quickAction{"Save config", "CSV", protocol.Action{Which: protocol.KindConfigSave}},
		quickAction{"Load config", "CLD", protocol.Action{Which: protocol.KindConfigLoad}},
	}
}

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type monitorKeyMap struct {
	Quit  key.Binding
	Focus key.Binding
	Send  key.Binding
	Up    key.Binding
	Down  key.Binding
}

func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Focus, k.Send, k.Up, k.Down}
}

func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var monitorKeys = monitorKeyMap{
	Quit:  key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	Focus: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch")),
	Send:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	Up:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
	Down:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
}

// monitorModel is the Bubble Tea model for the monitor TUI
type monitorModel struct {
	link     *commander
	connInfo string
	interval time.Duration

	// Last known controller state
	status      protocol.Status
	hasStatus   bool
	cfg         protocol.Settings
	hasSettings bool
	failures    int

	// Controls
	actions      list.Model
	commandLine  textinput.Model
	help         help.Model
	focusedField int

	log []logEntry

	// UI state
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type monitorTickMsg time.Time

type statusMsg struct {
	status protocol.Status
	err    error
}

type settingsMsg struct {
	settings protocol.Settings
	err      error
}

type replyMsg struct {
	label string
	line  string
	err   error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialMonitorModel(c *commander, connInfo string, interval time.Duration) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "sta | cyc on | cur 12 100 20 1 2"
	ti.CharLimit = 120
	ti.Width = 40
	ti.Prompt = "> "

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	actions := list.New(quickActions(), delegate, actionsWidth, 16)
	actions.Title = "Actions"
	actions.SetShowStatusBar(false)
	actions.SetShowHelp(false)
	actions.SetFilteringEnabled(false)

	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	return monitorModel{
		link:         c,
		connInfo:     connInfo,
		interval:     interval,
		actions:      actions,
		commandLine:  ti,
		help:         help.New(),
		focusedField: focusActions,
		width:        80,
		height:       24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.pollSettings(), m.tick())
}

func (m monitorModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) pollStatus() tea.Cmd {
	c := m.link
	return func() tea.Msg {
		st, err := c.status()
		return statusMsg{status: st, err: err}
	}
}

func (m monitorModel) pollSettings() tea.Cmd {
	c := m.link
	return func() tea.Msg {
		s, err := c.settings()
		return settingsMsg{settings: s, err: err}
	}
}

func (m monitorModel) send(label string, command protocol.Command) tea.Cmd {
	c := m.link
	return func() tea.Msg {
		line, err := c.do(command)
		return replyMsg{label: label, line: line, err: err}
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case monitorTickMsg:
		return m, tea.Batch(m.pollStatus(), m.tick())

	case statusMsg:
		m.applyStatus(msg)

	case settingsMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("CFG: %v", msg.err), true)
			break
		}
		m.cfg = msg.settings
		m.hasSettings = true

	case replyMsg:
		return m.applyReply(msg)
	}

	var cmd tea.Cmd
	if m.focusedField == focusCommandLine {
		m.commandLine, cmd = m.commandLine.Update(msg)
	}
	return m, cmd
}

func (m monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, monitorKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, monitorKeys.Focus):
		m.focusedField = (m.focusedField + 1) % focusCount
		if m.focusedField == focusCommandLine {
			return m, m.commandLine.Focus()
		}
		m.commandLine.Blur()
		return m, nil

	case key.Matches(msg, monitorKeys.Send):
		return m.handleEnter()
	}

	var cmd tea.Cmd
	if m.focusedField == focusCommandLine {
		m.commandLine, cmd = m.commandLine.Update(msg)
	} else {
		m.actions, cmd = m.actions.Update(msg)
	}
	return m, cmd
}

func (m monitorModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.focusedField == focusActions {
		a, ok := m.actions.SelectedItem().(quickAction)
		if !ok {
			return m, nil
		}
		return m, m.send(a.detail, a.command)
	}

	fields := strings.Fields(m.commandLine.Value())
	if len(fields) == 0 {
		return m, nil
	}
	m.commandLine.SetValue("")
	command, err := protocol.ParseArgs(fields[0], fields[1:])
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}
	return m, m.send(strings.ToUpper(strings.Join(fields, " ")), command)
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *monitorModel) applyStatus(msg statusMsg) {
	if msg.err != nil {
		m.failures++
		// One log line per outage
		if m.failures == 1 {
			m.addLogEntry(fmt.Sprintf("STA: %v", msg.err), true)
		}
		return
	}
	if m.failures > 0 {
		m.addLogEntry(fmt.Sprintf("Link restored after %d failed polls", m.failures), false)
		m.failures = 0
	}

	prev := m.status
	m.status = msg.status
	if !m.hasStatus {
		m.hasStatus = true
		m.addLogEntry(fmt.Sprintf("System %s", msg.status.System), false)
		return
	}
	if prev.System != msg.status.System {
		m.addLogEntry(fmt.Sprintf("System %s -> %s", prev.System, msg.status.System), msg.status.System == datamodel.StateError)
	}
	if prev.Alarms != msg.status.Alarms {
		m.addLogEntry(fmt.Sprintf("Alarms %s", msg.status.Alarms), msg.status.Alarms != 0)
	}
}

func (m monitorModel) applyReply(msg replyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.addLogEntry(fmt.Sprintf("%s: %v", msg.label, msg.err), true)
		return m, nil
	}
	_, nack := link.Reply(msg.line)
	m.addLogEntry(fmt.Sprintf("%s: %s", msg.label, msg.line), nack)
	if nack {
		return m, nil
	}
	// Settings may have changed
	return m, m.pollSettings()
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("12"))
)

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("TLC MONITOR"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.failures > 0 {
		connStatus = warningStyle.Render("NO REPLY")
	}
	s.WriteString(headerStyle.Render("| " + connStatus))
	s.WriteString("\n\n")

	actionsBox := boxStyle
	if m.focusedField == focusActions {
		actionsBox = focusedBoxStyle
	}
	rightWidth := m.width - actionsWidth - 8
	if rightWidth < 30 {
		rightWidth = 30
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Width(rightWidth).Render(m.renderStatus()),
		boxStyle.Width(rightWidth).Render(m.renderSettings()),
	)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		actionsBox.Width(actionsWidth).Render(m.actions.View()), " ", right))
	s.WriteString("\n")

	lineBox := boxStyle
	if m.focusedField == focusCommandLine {
		lineBox = focusedBoxStyle
	}
	s.WriteString(lineBox.Width(m.width - 4).Render(m.commandLine.View()))
	s.WriteString("\n")
	s.WriteString(m.renderEventLog())
	s.WriteString("\n")
	s.WriteString(m.help.View(monitorKeys))

	return s.String()
}

func field(label, value string) string {
	return fmt.Sprintf("%s %s  ", labelStyle.Render(label), valueStyle.Render(value))
}

func (m monitorModel) renderStatus() string {
	if !m.hasStatus {
		return headerStyle.Render("Waiting for status...")
	}
	st := m.status

	var s strings.Builder
	s.WriteString(labelStyle.Render("STATUS"))
	s.WriteString("\n")
	s.WriteString(field("System:", st.System.String()))
	s.WriteString(field("Cycle:", st.Cycle.String()))
	s.WriteString("\n")
	s.WriteString(field("Control:", st.Control.String()))
	s.WriteString(field("Trigger:", st.Trigger.String()))
	s.WriteString("\n")
	s.WriteString(field("P1:", fmt.Sprintf("%.1f", st.Pressure[0])))
	s.WriteString(field("P2:", fmt.Sprintf("%.1f", st.Pressure[1])))
	s.WriteString(field("Req:", fmt.Sprintf("%.1f mmH2O", st.Request)))
	s.WriteString("\n")
	s.WriteString(field("Drive:", fmt.Sprintf("%d", st.Drive)))
	s.WriteString(field("Battery:", fmt.Sprintf("%.2f V", st.Battery)))
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Alarms: "))
	if st.Alarms == 0 {
		s.WriteString(valueStyle.Render("none"))
	} else {
		s.WriteString(errorStyle.Render(st.Alarms.String()))
	}
	return s.String()
}

func (m monitorModel) renderSettings() string {
	if !m.hasSettings {
		return headerStyle.Render("Waiting for settings...")
	}
	c := m.cfg

	var s strings.Builder
	s.WriteString(labelStyle.Render("SETTINGS"))
	s.WriteString("\n")
	s.WriteString(field("Rate:", fmt.Sprintf("%.1f/min", c.Rate)))
	s.WriteString(field("I:E:", fmt.Sprintf("%.1f:%.1f", c.InhaleRatio, c.ExhaleRatio)))
	s.WriteString("\n")
	s.WriteString(field("Inhale:", fmt.Sprintf("%.1f", c.InhaleTarget)))
	s.WriteString(field("Exhale:", fmt.Sprintf("%.1f", c.ExhaleTarget)))
	s.WriteString(field("FiO2:", fmt.Sprintf("%.0f%%", c.FiO2)))
	s.WriteString("\n")
	s.WriteString(field("Pressure:", fmt.Sprintf("%.0f..%.0f", c.MinPressure, c.MaxPressure)))
	s.WriteString(field("Delta:", fmt.Sprintf("%.0f", c.MaxDelta)))
	s.WriteString(field("Min batt:", fmt.Sprintf("%.1f V", c.MinBattery)))
	return s.String()
}

func (m monitorModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	if len(m.log) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
		return boxStyle.Width(m.width - 4).Render(s.String())
	}

	start := len(m.log) - shownLogEntries
	if start < 0 {
		start = 0
	}
	for _, entry := range m.log[start:] {
		icon := "i"
		style := warningStyle
		if entry.isError {
			icon = "x"
			style = errorStyle
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n",
			headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message))
	}
	return boxStyle.Width(m.width - 4).Render(strings.TrimSuffix(s.String(), "\n"))
}
