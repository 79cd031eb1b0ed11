// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program and the command channel back to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command is a user request raised by a key press
type Command int

const (
	CmdTogglePause Command = iota
	CmdToggleEcho
	CmdDecayUp
	CmdDecayDown
	CmdVolumeUp
	CmdVolumeDown
	CmdToggleMute
	CmdStop
)

// QuitMsg signals that the user left the TUI
type QuitMsg struct{}

// Controls holds channels for control communication
type Controls struct {
	Commands chan Command
	Quit     chan QuitMsg
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
		Quit:     make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Controls) Model {
	return Model{
		volume:   100,
		mode:     "idle",
		controls: ctrl,
	}
}

// Run creates the TUI program; the caller runs it and feeds it StatusMsg
func Run(ctrl *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
