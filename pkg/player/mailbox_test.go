// ABOUTME: Tests for the signal mailbox and completion shim
// ABOUTME: Tests latest-wins posting, overrun counting and half translation
package player

import (
	"testing"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/feeder"
)

func TestMailboxEmpty(t *testing.T) {
	var m Mailbox
	if sig := m.Take(); sig != feeder.SignalNone {
		t.Errorf("expected no signal, got %v", sig)
	}
}

func TestMailboxTakeEmptiesSlot(t *testing.T) {
	var m Mailbox
	m.Post(feeder.SignalFirstHalf)

	if sig := m.Take(); sig != feeder.SignalFirstHalf {
		t.Errorf("expected first-half, got %v", sig)
	}
	if sig := m.Take(); sig != feeder.SignalNone {
		t.Errorf("expected slot to be empty, got %v", sig)
	}
	if m.Overruns() != 0 {
		t.Errorf("expected no overruns, got %d", m.Overruns())
	}
}

func TestMailboxLatestWins(t *testing.T) {
	var m Mailbox
	m.Post(feeder.SignalFirstHalf)
	m.Post(feeder.SignalSecondHalf)

	if sig := m.Take(); sig != feeder.SignalSecondHalf {
		t.Errorf("expected second-half, got %v", sig)
	}
	if m.Overruns() != 1 {
		t.Errorf("expected one overrun, got %d", m.Overruns())
	}

	m.Reset()
	if m.Overruns() != 0 {
		t.Errorf("expected reset to clear overruns, got %d", m.Overruns())
	}
}

func TestShimTranslatesHalves(t *testing.T) {
	var m Mailbox
	s := NewShim(&m)

	s.Complete(audio.FirstHalf)
	if sig := m.Take(); sig != feeder.SignalFirstHalf {
		t.Errorf("expected first-half, got %v", sig)
	}

	s.Complete(audio.SecondHalf)
	if sig := m.Take(); sig != feeder.SignalSecondHalf {
		t.Errorf("expected second-half, got %v", sig)
	}
}

func TestShimDoesNotAllocate(t *testing.T) {
	var m Mailbox
	s := NewShim(&m)

	allocs := testing.AllocsPerRun(100, func() {
		s.HalfTransferComplete()
		s.TransferComplete()
		m.Take()
	})
	if allocs != 0 {
		t.Errorf("expected zero allocations, got %v", allocs)
	}
}
