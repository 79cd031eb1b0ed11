// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Defines session display state, key handling and rendering
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shrimahe-16/Audio-Echo-Generator/internal/version"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/player"
)

// volumeStep is the change per volume key press
const volumeStep = 5

// Model represents the TUI state
type Model struct {
	// Stream
	path       string
	sessionID  string
	sampleRate uint32
	payload    uint32

	// Playback
	mode    string
	state   string
	volume  int
	muted   bool
	echoOn  bool
	decay   float64
	hasData bool

	// Stats
	remaining uint32
	bytesRead uint64
	refills   int
	overruns  uint64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	controls *Controls
}

// StatusMsg updates TUI state from a session snapshot
type StatusMsg struct {
	player.Status
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders product and playback mode
func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ %-50s ┐
│ Status: %-45s │
├──────────────────────────────────────────────────────┤
`, version.String()+" ", m.mode)
}

// renderStreamInfo renders the selected stream
func (m Model) renderStreamInfo() string {
	if !m.hasData || m.path == "" {
		return "│ No stream                                            │\n"
	}

	s := fmt.Sprintf("│ File:   %-45s │\n", truncate(m.path, 45))
	s += fmt.Sprintf("│ Format: %-45s │\n",
		fmt.Sprintf("%dHz PCM16, %d bytes", m.sampleRate, m.payload))
	s += fmt.Sprintf("│ Played: [%s] %3d%%%-27s │\n",
		renderBar(int(m.payload-m.remaining), int(m.payload), 10), percent(m.payload-m.remaining, m.payload), "")

	return s
}

// renderControls renders echo and volume status
func (m Model) renderControls() string {
	echoText := "off"
	if m.echoOn {
		echoText = fmt.Sprintf("on  decay %.2f", m.decay)
	}

	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Echo:   %-45s │\n"+
		"│ Volume: [%s] %3d%%%-27s │\n",
		echoText,
		volumeBar, m.volume, muteIcon)
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:  %-45s │
│                                                      │
`, fmt.Sprintf("Read: %d  Refills: %d  Overruns: %d", m.bytesRead, m.refills, m.overruns))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ space:Pause  e:Echo  [/]:Decay  ↑/↓:Volume  m:Mute   │
│ s:Stop  d:Debug  q:Quit                              │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Session: %-42s │
│   Feeder:  %-42s │
│   Remaining: %-40d │
`, truncate(m.sessionID, 42), m.state, m.remaining)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case " ":
		m.send(CmdTogglePause)
	case "e":
		m.echoOn = !m.echoOn
		m.send(CmdToggleEcho)
	case "]":
		m.send(CmdDecayUp)
	case "[":
		m.send(CmdDecayDown)
	case "up", "+":
		if m.volume < 100 {
			m.volume = min(m.volume+volumeStep, 100)
			m.send(CmdVolumeUp)
		}
	case "down", "-":
		if m.volume > 0 {
			m.volume = max(m.volume-volumeStep, 0)
			m.send(CmdVolumeDown)
		}
	case "m":
		m.muted = !m.muted
		m.send(CmdToggleMute)
	case "s":
		m.send(CmdStop)
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// send forwards a command without blocking the UI
func (m Model) send(cmd Command) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Commands <- cmd:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.hasData = true
	m.path = msg.Path
	m.sessionID = msg.SessionID
	m.sampleRate = msg.SampleRate
	m.payload = msg.PayloadBytes
	m.mode = msg.Mode.String()
	m.state = msg.State.String()
	m.remaining = msg.Remaining
	m.bytesRead = msg.BytesRead
	m.refills = msg.Refills
	m.overruns = msg.Overruns
	m.echoOn = msg.EchoEnabled
	m.decay = msg.Decay
	m.volume = msg.Volume
	m.muted = msg.Muted
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func percent(part, total uint32) int {
	if total == 0 {
		return 0
	}
	return int(uint64(part) * 100 / uint64(total))
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
