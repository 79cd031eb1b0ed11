// ABOUTME: Entry point for the echo player
// ABOUTME: Parses CLI flags, wires storage, output and controls, and runs the session
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	ilog "github.com/Shrimahe-16/Audio-Echo-Generator/internal/log"
	"github.com/Shrimahe-16/Audio-Echo-Generator/internal/ui"
	"github.com/Shrimahe-16/Audio-Echo-Generator/internal/version"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio/output"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/control"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/echo"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/player"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/storage"
)

const (
	decayStep  = 0.05
	volumeStep = 5
)

// options holds the parsed command line
type options struct {
	file        string
	root        string
	output      string
	echo        bool
	decay       float64
	volume      int
	poll        time.Duration
	logFile     string
	noTUI       bool
	debug       bool
	loop        bool
	showVersion bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("echo-player", flag.ContinueOnError)
	fs.StringVar(&o.file, "file", "test.wav", "Stream to play, relative to -root")
	fs.StringVar(&o.root, "root", ".", "Storage root directory")
	fs.StringVar(&o.output, "output", "oto", "Audio backend ("+strings.Join(output.Backends, ", ")+")")
	fs.BoolVar(&o.echo, "echo", true, "Enable the echo effect")
	fs.Float64Var(&o.decay, "decay", echo.DefaultDecay, "Echo decay (0.0-1.0)")
	fs.IntVar(&o.volume, "volume", 100, "Initial volume (0-100)")
	fs.DurationVar(&o.poll, "poll", player.DefaultPollInterval, "Completion polling interval")
	fs.StringVar(&o.logFile, "log-file", "echo-player.log", "Log file path")
	fs.BoolVar(&o.noTUI, "no-tui", false, "Disable TUI, use streaming logs instead")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.loop, "loop", false, "Replay the stream when it finishes")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	err := fs.Parse(args)
	return o, err
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run plays the stream named on the command line and returns the process
// exit code. Failures after the log is opened return through the deferred
// cleanups so the output device and the terminal are released.
func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.showVersion {
		fmt.Println(version.String())
		return 0
	}

	useTUI := !opts.noTUI

	// Set up logging
	f, err := os.OpenFile(opts.logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		return 1
	}
	defer func() { _ = f.Close() }()

	var logOut io.Writer = f
	if !useTUI {
		// Streaming logs mode: log to both stdout and file
		logOut = io.MultiWriter(os.Stdout, f)
	}
	log := ilog.Setup(logOut, opts.debug)

	log.WithField("maintainer", version.Manufacturer).Infof("Starting %s", version.String())

	out, err := output.New(opts.output, log)
	if err != nil {
		log.Errorf("Failed to create output: %v", err)
		return 1
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.WithError(err).Warn("Failed to close output")
		}
	}()

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Errorf("Failed to start TUI: %v", err)
			return 1
		}
		tuiDone := make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.WithError(err).Error("TUI exited")
			}
		}()
		// The terminal leaves raw mode before the output closes
		defer func() {
			tuiProg.Quit()
			<-tuiDone
		}()
	}

	// Helper to update TUI
	updateTUI := func(st player.Status) {
		if tuiProg != nil {
			tuiProg.Send(ui.StatusMsg{Status: st})
		}
	}

	knob := control.NewKnob(opts.decay)
	toggle := control.NewSwitch(opts.echo)

	session, err := player.New(player.Config{
		Storage:       storage.Dir(opts.root),
		Output:        out,
		Decay:         knob,
		Enable:        toggle,
		Log:           log,
		OnStateChange: updateTUI,
	})
	if err != nil {
		log.Errorf("Failed to create player: %v", err)
		return 1
	}
	defer session.Close()
	session.SetVolume(opts.volume)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Infof("Received %v signal, shutting down", sig)
		case <-quitChan(controls):
			log.Info("Received quit signal from TUI")
		case <-ctx.Done():
			return
		}
		cancel()
	}()

	if controls != nil {
		go handleControls(ctx, session, controls, knob, toggle, log)
		go statsUpdateLoop(ctx, session, updateTUI)
	}

	err = playLoop(ctx, session, opts.file, opts.poll, opts.loop, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Playback failed: %v", err)
		return 1
	}

	log.Info("Player stopped")
	return 0
}

// playLoop plays path once, or until ctx is done when repeat is set
func playLoop(ctx context.Context, session *player.Session, path string, interval time.Duration, repeat bool, log logrus.FieldLogger) error {
	for {
		if err := session.Select(path); err != nil {
			return err
		}
		if err := session.Play(); err != nil {
			return err
		}
		if err := session.Run(ctx, interval); err != nil {
			return err
		}
		log.WithField("path", path).Info("Stream finished")
		if !repeat {
			return nil
		}
	}
}

// quitChan returns the TUI quit channel, or nil when there is no TUI
func quitChan(controls *ui.Controls) <-chan ui.QuitMsg {
	if controls == nil {
		return nil
	}
	return controls.Quit
}

// handleControls applies TUI commands to the session and its controls
func handleControls(ctx context.Context, session *player.Session, controls *ui.Controls, knob *control.Knob, toggle *control.Switch, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-controls.Commands:
			var err error
			switch cmd {
			case ui.CmdTogglePause:
				if session.Mode() == player.ModePaused {
					err = session.Resume()
				} else {
					err = session.Pause()
				}
			case ui.CmdToggleEcho:
				log.Infof("Echo enabled: %v", toggle.Toggle())
			case ui.CmdDecayUp:
				log.Infof("Decay: %.2f", knob.Nudge(decayStep))
			case ui.CmdDecayDown:
				log.Infof("Decay: %.2f", knob.Nudge(-decayStep))
			case ui.CmdVolumeUp:
				st := session.Status()
				session.SetVolume(st.Volume + volumeStep)
			case ui.CmdVolumeDown:
				st := session.Status()
				session.SetVolume(st.Volume - volumeStep)
			case ui.CmdToggleMute:
				st := session.Status()
				session.Mute(!st.Muted)
			case ui.CmdStop:
				err = session.Stop()
			}
			if err != nil {
				log.WithError(err).Warn("Control command failed")
			}
		}
	}
}

// statsUpdateLoop periodically updates TUI with playback statistics
func statsUpdateLoop(ctx context.Context, session *player.Session, updateTUI func(player.Status)) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateTUI(session.Status())
		}
	}
}
