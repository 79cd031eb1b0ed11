// ABOUTME: Device-free output paced by a wall clock
// ABOUTME: Emits halves to an io.Writer at the stream's byte rate, or as fast as possible
package output

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
)

// Clocked plays into an io.Writer. When paced, each half completes one
// half's playing time after the previous one, standing in for a sound card.
type Clocked struct {
	*engine

	w     io.Writer
	paced bool
}

// NewNull creates a paced output that discards audio
func NewNull(log logrus.FieldLogger) *Clocked {
	return NewClocked(io.Discard, true, log)
}

// NewClocked creates an output writing PCM to w
func NewClocked(w io.Writer, paced bool, log logrus.FieldLogger) *Clocked {
	c := &Clocked{w: w, paced: paced}
	c.engine = newEngine(c, log)
	return c
}

// Open sets the pacing rate
func (c *Clocked) Open(sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid format: %dHz %d channels", sampleRate, channels)
	}
	rate := 0
	if c.paced {
		rate = sampleRate * channels * audio.BytesPerSample
	}
	c.setPacing(rate, 0)
	c.setOpen(true)
	c.log.WithFields(logrus.Fields{"rate": sampleRate, "channels": channels, "paced": c.paced}).
		Info("Audio output initialized (clocked)")
	return nil
}

// Close stops any transfer
func (c *Clocked) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}
	c.setOpen(false)
	return nil
}

func (c *Clocked) prepare(int) error { return nil }

func (c *Clocked) write(p []byte) error {
	if _, err := c.w.Write(p); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (c *Clocked) interrupt() {}

func (c *Clocked) hold(bool) {}
