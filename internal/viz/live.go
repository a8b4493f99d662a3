// Package viz is the live terminal view of a run: asciigraph traces
// of the temperature nodes next to a status pane with the control
// state, advancing the engine a fixed number of steps per frame.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/camellia2077/EV-TMS-PLOT/internal/engine"
)

const (
	historyCapacity = 600
	graphWidth      = 70
	graphHeight     = 8
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(34)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	onStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps a run cursor per animation frame.
type Model struct {
	newCursor func() *engine.Cursor
	cursor    *engine.Cursor

	stepsPerFrame int
	fps           int

	running bool
	done    bool
	last    engine.Record

	cabinTrace   []float64
	coolantTrace []float64
}

func NewModel(newCursor func() *engine.Cursor, stepsPerFrame, fps int) Model {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	if fps < 1 {
		fps = 30
	}
	return Model{
		newCursor:     newCursor,
		cursor:        newCursor(),
		stepsPerFrame: stepsPerFrame,
		fps:           fps,
		running:       true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.cursor = m.newCursor()
			m.done = false
			m.running = true
			m.cabinTrace = m.cabinTrace[:0]
			m.coolantTrace = m.coolantTrace[:0]
		}
	case TickMsg:
		if m.running && !m.done {
			for i := 0; i < m.stepsPerFrame && !m.done; i++ {
				rec, done := m.cursor.Step()
				m.last = rec
				m.done = done
				m.push(rec)
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) push(rec engine.Record) {
	m.cabinTrace = append(m.cabinTrace, rec.Temps.CabinC)
	m.coolantTrace = append(m.coolantTrace, rec.Temps.CoolantC)
	if len(m.cabinTrace) > historyCapacity {
		m.cabinTrace = m.cabinTrace[1:]
		m.coolantTrace = m.coolantTrace[1:]
	}
}

func onOff(on bool) string {
	if on {
		return onStyle.Render("ON")
	}
	return offStyle.Render("off")
}

func (m Model) View() string {
	var graphs strings.Builder
	graphs.WriteString(headerStyle.Render("EV THERMAL LOOP") + "\n")
	if len(m.coolantTrace) > 1 {
		graphs.WriteString(graphStyle.Render(asciigraph.Plot(m.coolantTrace,
			asciigraph.Height(graphHeight), asciigraph.Width(graphWidth),
			asciigraph.Caption("coolant [C]"))) + "\n\n")
		graphs.WriteString(graphStyle.Render(asciigraph.Plot(m.cabinTrace,
			asciigraph.Height(graphHeight), asciigraph.Width(graphWidth),
			asciigraph.Caption("cabin [C]"))) + "\n")
	} else {
		graphs.WriteString("warming up...\n")
	}

	rec := m.last
	step, total := m.cursor.Progress()
	status := "RUNNING"
	if m.done {
		status = "FINISHED"
	} else if !m.running {
		status = "PAUSED"
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(status) + "\n")
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.0f s (%d/%d)", rec.Time, step, total))
	row("Speed", fmt.Sprintf("%.0f km/h", rec.Out.SpeedKmh))
	row("Motor", fmt.Sprintf("%.1f C", rec.Temps.MotorC))
	row("Inverter", fmt.Sprintf("%.1f C", rec.Temps.InverterC))
	row("Battery", fmt.Sprintf("%.1f C", rec.Temps.BatteryC))
	row("Cabin", fmt.Sprintf("%.1f C", rec.Temps.CabinC))
	row("Coolant", fmt.Sprintf("%.1f C", rec.Temps.CoolantC))
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Chiller") + onOff(rec.Out.ChillerOn) +
		valueStyle.Render(fmt.Sprintf("  %.0f W", rec.Out.QChiller)) + "\n")
	row("Fan stage", fmt.Sprintf("%d (%.0f W)", rec.Out.FanLevel, rec.Out.PFan))
	row("Cabin stage", fmt.Sprintf("%d (%.0f W)", rec.Out.CabinLevel, rec.Out.QCabinCool))
	row("Compressor", fmt.Sprintf("%.0f W", rec.Out.PCompElec))
	row("Radiator", fmt.Sprintf("%.0f W", rec.Out.QRadiator))
	s.WriteString(helpStyle.Render("\nSP:Pause R:Restart Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, graphs.String(), statsStyle.Render(s.String()))
}
