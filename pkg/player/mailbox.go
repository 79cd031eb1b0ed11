// ABOUTME: One-slot signal mailbox between the output goroutine and the main loop
// ABOUTME: Posting overwrites the slot; taking empties it
package player

import (
	"sync/atomic"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/feeder"
)

// Mailbox holds the most recent completion signal. Post never blocks and
// never allocates, so it is safe to call from a device callback.
type Mailbox struct {
	slot     atomic.Int32
	overruns atomic.Uint64
}

// Post stores sig, replacing any signal not yet taken
func (m *Mailbox) Post(sig feeder.Signal) {
	if old := m.slot.Swap(int32(sig)); feeder.Signal(old) != feeder.SignalNone {
		m.overruns.Add(1)
	}
}

// Take returns the pending signal and empties the slot
func (m *Mailbox) Take() feeder.Signal {
	return feeder.Signal(m.slot.Swap(int32(feeder.SignalNone)))
}

// Overruns counts signals overwritten before they were taken
func (m *Mailbox) Overruns() uint64 { return m.overruns.Load() }

// Reset empties the slot and clears the overrun count
func (m *Mailbox) Reset() {
	m.slot.Store(int32(feeder.SignalNone))
	m.overruns.Store(0)
}
