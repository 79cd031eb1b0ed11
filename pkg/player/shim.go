// ABOUTME: Translates output completions into feeder signals
// ABOUTME: Runs on the device goroutine and only posts to the mailbox
package player

import (
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/feeder"
)

// Shim receives transfer completions from the output
type Shim struct {
	mailbox *Mailbox
}

// NewShim creates a shim posting to m
func NewShim(m *Mailbox) *Shim {
	return &Shim{mailbox: m}
}

// Complete is an output.CompletionFunc
func (s *Shim) Complete(h audio.Half) {
	if h == audio.FirstHalf {
		s.HalfTransferComplete()
		return
	}
	s.TransferComplete()
}

// HalfTransferComplete reports that the first half has been played
func (s *Shim) HalfTransferComplete() {
	s.mailbox.Post(feeder.SignalFirstHalf)
}

// TransferComplete reports that the second half has been played
func (s *Shim) TransferComplete() {
	s.mailbox.Post(feeder.SignalSecondHalf)
}
