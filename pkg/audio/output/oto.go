// ABOUTME: Oto-based audio output implementation
// ABOUTME: Feeds transfer halves through a pipe into a persistent oto player
package output

import (
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// Oto output implementation using oto library
type Oto struct {
	*engine

	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
}

// NewOto creates a new Oto output
func NewOto(log logrus.FieldLogger) *Oto {
	o := &Oto{}
	o.engine = newEngine(o, log)
	return o
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		o.log.Debug("Audio output already initialized with same format, reusing context")
		return o.reopen()
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		o.log.Warnf("Format change detected (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization. Continuing with existing context.",
			o.sampleRate, o.channels, sampleRate, channels)
		return o.reopen()
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels
	o.setPacing(devicePacing(sampleRate, channels))
	o.setOpen(true)

	o.log.WithFields(logrus.Fields{"rate": sampleRate, "channels": channels}).Info("Audio output initialized (oto)")

	return nil
}

func (o *Oto) reopen() error {
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}
	o.setOpen(true)
	return nil
}

// prepare creates a fresh pipe and player for the next transfer
func (o *Oto) prepare(int) error {
	o.closePlayer()

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	return nil
}

// write blocks until the player has pulled p out of the pipe
func (o *Oto) write(p []byte) error {
	if _, err := o.pipeWriter.Write(p); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

func (o *Oto) interrupt() {
	if o.pipeReader != nil {
		o.pipeReader.CloseWithError(ErrStopped)
	}
}

func (o *Oto) hold(paused bool) {
	if o.player == nil {
		return
	}
	if paused {
		o.player.Pause()
	} else {
		o.player.Play()
	}
}

func (o *Oto) closePlayer() {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
}

// Close releases output resources
func (o *Oto) Close() error {
	if err := o.Stop(); err != nil {
		return err
	}
	o.closePlayer()
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			o.log.WithError(err).Warn("oto context suspend failed")
		}
	}
	o.setOpen(false)
	return nil
}
