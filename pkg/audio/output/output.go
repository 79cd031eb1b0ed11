// ABOUTME: Audio output interface definition
// ABOUTME: Circular transfer contract, volume control and backend selection
package output

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
)

// MaxTransferSamples is the largest transfer length a device accepts
const MaxTransferSamples = 0xFFFF

var (
	// ErrNotOpen is returned when a transfer is requested before Open
	ErrNotOpen = errors.New("output not initialized")

	// ErrInvalidTransfer is returned for an unusable buffer or length
	ErrInvalidTransfer = errors.New("invalid transfer")

	// ErrStopped is returned when controlling a transfer that is not running
	ErrStopped = errors.New("transfer stopped")
)

// CompletionFunc is called from the device goroutine each time a half has
// been handed to the hardware. It must not block.
type CompletionFunc func(h audio.Half)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// BeginTransfer starts circular playback of the first lengthInSamples
	// 16-bit samples of buf. A running transfer is stopped first.
	BeginTransfer(buf []byte, lengthInSamples int, done CompletionFunc) error

	// Pause holds playback after the half in flight
	Pause() error

	// Resume continues a paused transfer
	Resume() error

	// Stop ends the transfer and waits for the device goroutine to exit
	Stop() error

	// Close releases output resources
	Close() error
}

// VolumeControl is the software codec every backend provides
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
}

// Backends lists the names accepted by New
var Backends = []string{"oto", "malgo", "portaudio", "null"}

// New creates the named backend
func New(name string, log logrus.FieldLogger) (Output, error) {
	switch name {
	case "oto":
		return NewOto(log), nil
	case "malgo":
		return NewMalgo(log), nil
	case "portaudio":
		return NewPortAudio(log), nil
	case "null":
		return NewNull(log), nil
	default:
		return nil, fmt.Errorf("unknown output backend %q (available: %v)", name, Backends)
	}
}
