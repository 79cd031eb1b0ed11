//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct {
	*engine
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio(log logrus.FieldLogger) *PortAudio {
	p := &PortAudio{}
	p.engine = newEngine(p, log)
	return p
}

// Open initializes PortAudio
func (p *PortAudio) Open(sampleRate, channels int) error {
	return errPortAudioDisabled
}

// Close releases resources
func (p *PortAudio) Close() error {
	return errPortAudioDisabled
}

func (p *PortAudio) prepare(int) error { return errPortAudioDisabled }
func (p *PortAudio) write(pcm []byte) error { return errPortAudioDisabled }
func (p *PortAudio) interrupt() {}
func (p *PortAudio) hold(bool) {}
