// ABOUTME: Playback session tying storage, feeder, echo and output together
// ABOUTME: Select, play, poll, pause, resume and stop one stream at a time
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	ilog "github.com/Shrimahe-16/Audio-Echo-Generator/internal/log"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio/output"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/control"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/echo"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/feeder"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/storage"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/wavstream"
)

// DefaultPollInterval is how often Run polls the mailbox
const DefaultPollInterval = time.Millisecond

// MaxBufferSize is the largest buffer one transfer covers: each half holds
// an even number of samples and the whole stays within
// output.MaxTransferSamples
const MaxBufferSize = 4 * (output.MaxTransferSamples / 2)

// Mode is the externally visible playback status
type Mode int

const (
	ModeIdle Mode = iota
	ModePaused
	ModeResumed
	ModeFinished
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePaused:
		return "paused"
	case ModeResumed:
		return "playing"
	case ModeFinished:
		return "finished"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config holds session configuration
type Config struct {
	// Storage resolves stream paths
	Storage storage.Opener

	// Output plays the double buffer
	Output output.Output

	// Decay supplies the echo attenuation (default: 0.8)
	Decay control.DecaySource

	// Enable switches the echo (default: on)
	Enable control.EnableSource

	// BufferSize is the double buffer size in bytes (default: 1024, at most
	// MaxBufferSize)
	BufferSize int

	// DelaySamples is the echo delay (default: 48000)
	DelaySamples int

	// Channels is the output channel count (default: 2)
	Channels int

	// Log receives session records (default: discard)
	Log logrus.FieldLogger

	// OnStateChange is called when the mode changes
	OnStateChange func(Status)
}

// Status is a snapshot of the session
type Status struct {
	SessionID    string
	Path         string
	Mode         Mode
	State        feeder.State
	SampleRate   uint32
	PayloadBytes uint32
	Remaining    uint32
	BytesRead    uint64
	Refills      int
	Overruns     uint64
	EchoEnabled  bool
	Decay        float64
	Volume       int
	Muted        bool
}

// Session plays one selected stream through the echo
type Session struct {
	config  Config
	log     logrus.FieldLogger
	mailbox *Mailbox
	shim    *Shim
	echo    *echo.Processor
	feeder  *feeder.Feeder

	mu       sync.Mutex
	id       string
	path     string
	desc     wavstream.Descriptor
	file     io.ReadSeekCloser
	mode     Mode
	playing  bool
	finished bool
}

// New creates a session with the given configuration
func New(config Config) (*Session, error) {
	if config.Storage == nil {
		return nil, errors.New("player: storage is required")
	}
	if config.Output == nil {
		return nil, errors.New("player: output is required")
	}

	// Set defaults
	if config.Decay == nil {
		config.Decay = control.Decay(echo.DefaultDecay)
	}
	if config.Enable == nil {
		config.Enable = control.Enabled(true)
	}
	if config.BufferSize == 0 {
		config.BufferSize = audio.BufferSize
	}
	config.BufferSize = min(config.BufferSize, MaxBufferSize)
	if config.DelaySamples == 0 {
		config.DelaySamples = echo.DefaultDelay
	}
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.Log == nil {
		config.Log = ilog.Discard()
	}

	mailbox := &Mailbox{}
	proc := echo.NewProcessor(config.DelaySamples)

	return &Session{
		config:  config,
		log:     config.Log,
		mailbox: mailbox,
		shim:    NewShim(mailbox),
		echo:    proc,
		feeder: feeder.New(feeder.Config{
			BufferSize: config.BufferSize,
			Echo:       proc,
			Decay:      config.Decay,
			Enable:     config.Enable,
		}),
	}, nil
}

// Select opens path and reads its stream descriptor. A missing stream
// returns an error wrapping storage.ErrNotFound and leaves no session.
func (s *Session) Select(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing && !s.finished {
		s.stopOutput()
	}
	s.closeFile()

	desc, file, err := wavstream.Open(s.config.Storage, path)
	if err != nil {
		return fmt.Errorf("could not start %s: %w", path, err)
	}

	s.path = path
	s.desc = desc
	s.file = file
	s.playing = false
	s.finished = false
	s.mode = ModeIdle

	s.log.WithFields(logrus.Fields{
		"path":    path,
		"rate":    desc.SampleRate,
		"payload": desc.PayloadBytes,
	}).Info("Stream selected")
	return nil
}

// Play primes the buffer from the selected stream and starts the transfer
func (s *Session) Play() error {
	s.mu.Lock()

	if s.file == nil {
		s.mu.Unlock()
		return ErrNoStream
	}
	if s.playing && !s.finished {
		s.stopOutput()
	}

	s.echo.Reset()
	s.mailbox.Reset()

	if err := s.config.Output.Open(int(s.desc.SampleRate), s.config.Channels); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to initialize output: %w", err)
	}

	if _, err := s.file.Seek(wavstream.HeaderSize, io.SeekStart); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to seek to payload: %w", err)
	}

	n, err := s.feeder.Start(s.file, s.desc.PayloadBytes)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	buf := s.feeder.Buffer()
	samples := min(len(buf)/audio.BytesPerSample, output.MaxTransferSamples)
	if err := s.config.Output.BeginTransfer(buf, samples, s.shim.Complete); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to start transfer: %w", err)
	}

	s.id = uuid.New().String()
	s.playing = true
	s.finished = false
	s.mode = ModeResumed

	s.log.WithFields(logrus.Fields{
		"session": s.id,
		"path":    s.path,
		"rate":    s.desc.SampleRate,
		"initial": n,
		"echo":    s.feeder.EchoEnabled(),
		"decay":   s.feeder.Decay(),
	}).Info("Playback started")

	st := s.statusLocked()
	s.mu.Unlock()

	s.notify(st)
	return nil
}

// Process takes the latest completion signal and advances the feeder. It
// is polled from the main loop and returns the action performed.
func (s *Session) Process() feeder.Action {
	sig := s.mailbox.Take()

	s.mu.Lock()
	if !s.playing || s.finished {
		s.mu.Unlock()
		return feeder.ActionNone
	}

	action := s.feeder.Step(sig)
	if action != feeder.ActionFinish {
		if s.feeder.State() == feeder.EndOfStream {
			s.log.WithField("session", s.id).Debug("End of stream reached")
		}
		s.mu.Unlock()
		return action
	}

	if err := s.feeder.Err(); err != nil {
		s.log.WithError(err).WithField("session", s.id).Warn("Stream ended on read error")
	}
	s.closeFile()
	s.finished = true
	s.mode = ModeFinished
	s.log.WithFields(logrus.Fields{
		"session": s.id,
		"bytes":   s.feeder.BytesRead(),
		"refills": s.feeder.Refills(),
	}).Info("Playback finished")

	st := s.statusLocked()
	s.mu.Unlock()

	s.notify(st)
	return action
}

// Pause holds the transfer
func (s *Session) Pause() error {
	return s.control(ModePaused, s.config.Output.Pause)
}

// Resume continues a paused transfer
func (s *Session) Resume() error {
	return s.control(ModeResumed, s.config.Output.Resume)
}

func (s *Session) control(mode Mode, apply func() error) error {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return ErrFinished
	}
	if !s.playing {
		s.mu.Unlock()
		return ErrNoStream
	}
	if err := apply(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("output %s failed: %w", mode, err)
	}
	s.mode = mode
	s.log.WithField("session", s.id).Infof("Playback %s", mode)

	st := s.statusLocked()
	s.mu.Unlock()

	s.notify(st)
	return nil
}

// Stop ends playback, closes the stream and marks the session finished
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return ErrFinished
	}
	if !s.playing && s.file == nil {
		s.mu.Unlock()
		return ErrNoStream
	}

	err := s.stopOutput()
	s.closeFile()
	s.finished = true
	s.mode = ModeFinished
	s.log.WithField("session", s.id).Info("Playback stopped")

	st := s.statusLocked()
	s.mu.Unlock()

	s.notify(st)
	return err
}

// Finished reports whether the session reached the end of its stream or
// was stopped
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Mode returns the playback mode
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Path returns the selected stream path
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Status returns a snapshot of the session
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{
		SessionID:    s.id,
		Path:         s.path,
		Mode:         s.mode,
		State:        s.feeder.State(),
		SampleRate:   s.desc.SampleRate,
		PayloadBytes: s.desc.PayloadBytes,
		Remaining:    s.feeder.Remaining(),
		BytesRead:    s.feeder.BytesRead(),
		Refills:      s.feeder.Refills(),
		Overruns:     s.mailbox.Overruns(),
		EchoEnabled:  s.feeder.EchoEnabled(),
		Decay:        s.feeder.Decay(),
		Volume:       100,
	}
	if vc, ok := s.config.Output.(output.VolumeControl); ok {
		st.Volume = vc.Volume()
		st.Muted = vc.Muted()
	}
	return st
}

// SetVolume sets the output volume (0-100)
func (s *Session) SetVolume(volume int) {
	if vc, ok := s.config.Output.(output.VolumeControl); ok {
		vc.SetVolume(volume)
	}
}

// Mute sets the output mute state
func (s *Session) Mute(muted bool) {
	if vc, ok := s.config.Output.(output.VolumeControl); ok {
		vc.SetMuted(muted)
	}
}

// Run polls Process every interval until the session finishes or ctx is
// done, then stops the transport. Cancelling ctx stops the session.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.Process()
		if s.Finished() {
			if err := s.config.Output.Stop(); err != nil {
				return fmt.Errorf("failed to stop output: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil && !errors.Is(err, ErrFinished) {
				return fmt.Errorf("failed to stop session: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops any playback and releases the stream. The output is left
// open for its owner to close.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.playing && !s.finished {
		err = s.stopOutput()
	}
	s.closeFile()
	return err
}

// stopOutput must hold s.mu
func (s *Session) stopOutput() error {
	s.playing = false
	if err := s.config.Output.Stop(); err != nil {
		return fmt.Errorf("failed to stop output: %w", err)
	}
	return nil
}

// closeFile must hold s.mu
func (s *Session) closeFile() {
	if s.file == nil {
		return
	}
	if err := s.file.Close(); err != nil {
		s.log.WithError(err).WithField("path", s.path).Warn("Failed to close stream")
	}
	s.file = nil
}

func (s *Session) notify(st Status) {
	if s.config.OnStateChange != nil {
		s.config.OnStateChange(st)
	}
}
