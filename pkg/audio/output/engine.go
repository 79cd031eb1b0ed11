// ABOUTME: Circular transfer engine shared by all output backends
// ABOUTME: Plays buffer halves in turn on a goroutine and reports each completion
package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	ilog "github.com/Shrimahe-16/Audio-Echo-Generator/internal/log"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
)

// sink is the device-specific half of a backend
type sink interface {
	// prepare readies the device for a transfer of halfBytes-long halves
	prepare(halfBytes int) error

	// write blocks until the device has accepted p. Acceptance is not
	// playback: the engine paces completions itself.
	write(p []byte) error

	// interrupt unblocks a pending write when the transfer stops
	interrupt()

	// hold pauses or resumes the device itself
	hold(paused bool)
}

// deviceLeadMillis of silence is queued ahead of the first half so device
// periods longer than a half do not underrun
const deviceLeadMillis = 20

// engine emulates a circular DMA channel. The buffer is shared with the
// caller without locking: a half is only read again after its completion
// has been reported and the other half has played.
//
// Completions are paced by a deadline clock at the stream's byte rate, so
// consecutive completions are never closer than one half's playing time
// however the sink buffers.
type engine struct {
	sink sink
	log  logrus.FieldLogger

	volume    atomic.Int32
	muted     atomic.Bool
	transfers atomic.Uint64

	mu       sync.Mutex
	cond     *sync.Cond
	open     bool
	running  bool
	paused   bool
	stopping bool
	done     chan struct{}
	halt     chan struct{}
	scratch  []byte

	bytesPerSecond int
	leadBytes      int
}

// transfer is the state of one running transfer owned by loop
type transfer struct {
	region         []byte
	scratch        []byte
	complete       CompletionFunc
	done           chan struct{}
	halt           chan struct{}
	bytesPerSecond int
	leadBytes      int
}

func newEngine(s sink, log logrus.FieldLogger) *engine {
	if log == nil {
		log = ilog.Discard()
	}
	e := &engine{sink: s, log: log}
	e.cond = sync.NewCond(&e.mu)
	e.volume.Store(100)
	return e
}

func (e *engine) setOpen(open bool) {
	e.mu.Lock()
	e.open = open
	e.mu.Unlock()
}

// setPacing sets the byte rate completions follow and the silence queued
// before the first half. A zero rate reports halves as soon as the sink
// accepts them.
func (e *engine) setPacing(bytesPerSecond, leadBytes int) {
	e.mu.Lock()
	e.bytesPerSecond = max(bytesPerSecond, 0)
	e.leadBytes = max(leadBytes, 0) &^ (2*audio.BytesPerSample - 1)
	e.mu.Unlock()
}

// devicePacing returns the pacing for a sound card at the given format
func devicePacing(sampleRate, channels int) (bytesPerSecond, leadBytes int) {
	bytesPerSecond = sampleRate * channels * audio.BytesPerSample
	return bytesPerSecond, bytesPerSecond * deviceLeadMillis / 1000
}

// framesPerHalf is the device buffer length, in frames, that holds one half
func framesPerHalf(halfBytes, channels int) int {
	if channels <= 0 {
		return 1
	}
	return max(halfBytes/audio.BytesPerSample/channels, 1)
}

func (e *engine) isOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// BeginTransfer starts circular playback of buf
func (e *engine) BeginTransfer(buf []byte, lengthInSamples int, done CompletionFunc) error {
	if done == nil {
		return fmt.Errorf("%w: no completion callback", ErrInvalidTransfer)
	}
	if lengthInSamples <= 0 || lengthInSamples > MaxTransferSamples || lengthInSamples%2 != 0 {
		return fmt.Errorf("%w: length %d samples", ErrInvalidTransfer, lengthInSamples)
	}
	size := lengthInSamples * audio.BytesPerSample
	if size > len(buf) {
		return fmt.Errorf("%w: %d samples exceed %d byte buffer", ErrInvalidTransfer, lengthInSamples, len(buf))
	}
	if !e.isOpen() {
		return ErrNotOpen
	}

	if err := e.Stop(); err != nil {
		return err
	}
	if err := e.sink.prepare(size / 2); err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}

	e.mu.Lock()
	if len(e.scratch) < size/2 {
		e.scratch = make([]byte, size/2)
	}
	t := transfer{
		region:         buf[:size],
		scratch:        e.scratch[:size/2],
		complete:       done,
		done:           make(chan struct{}),
		halt:           make(chan struct{}),
		bytesPerSecond: e.bytesPerSecond,
		leadBytes:      e.leadBytes,
	}
	e.running = true
	e.paused = false
	e.stopping = false
	e.done = t.done
	e.halt = t.halt
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"samples": lengthInSamples,
		"rate":    t.bytesPerSecond,
		"lead":    t.leadBytes,
	}).Debug("Transfer started")
	go e.loop(t)
	return nil
}

func (e *engine) loop(t transfer) {
	defer close(t.done)

	if t.leadBytes > 0 && !e.emit(make([]byte, t.leadBytes)) {
		return
	}

	var deadline time.Time
	h := audio.FirstHalf
	for {
		if !e.waitRunnable() {
			return
		}

		start, end := h.Bounds(len(t.region))
		n := applyVolume(t.scratch, t.region[start:end], int(e.volume.Load()), e.muted.Load())

		if t.bytesPerSecond > 0 {
			// Never earlier than one half after the previous completion
			now := time.Now()
			if deadline.Before(now) {
				deadline = now
			}
			deadline = deadline.Add(time.Duration(n) * time.Second / time.Duration(t.bytesPerSecond))
		}

		if !e.emit(t.scratch[:n]) {
			return
		}
		if t.bytesPerSecond > 0 && !sleepUntil(deadline, t.halt) {
			return
		}
		if e.isStopping() {
			return
		}

		e.transfers.Add(1)
		t.complete(h)
		h = h.Other()
	}
}

// emit hands p to the sink and reports whether the loop may continue
func (e *engine) emit(p []byte) bool {
	err := e.sink.write(p)
	if err == nil {
		return true
	}
	if e.isStopping() {
		return false
	}
	e.log.WithError(err).Error("Output write failed, transfer halted")
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	return false
}

// sleepUntil waits for deadline and returns false if halt closes first
func sleepUntil(deadline time.Time, halt <-chan struct{}) bool {
	wait := time.Until(deadline)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-halt:
		return false
	}
}

// waitRunnable blocks while paused and reports whether the loop may continue
func (e *engine) waitRunnable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.paused && !e.stopping {
		e.cond.Wait()
	}
	return !e.stopping
}

func (e *engine) isStopping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopping
}

// Pause holds playback after the half in flight
func (e *engine) Pause() error {
	e.mu.Lock()
	if !e.running || e.stopping {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.paused {
		e.mu.Unlock()
		return nil
	}
	e.paused = true
	e.mu.Unlock()

	e.sink.hold(true)
	e.log.Debug("Transfer paused")
	return nil
}

// Resume continues a paused transfer
func (e *engine) Resume() error {
	e.mu.Lock()
	if !e.running || e.stopping {
		e.mu.Unlock()
		return ErrStopped
	}
	if !e.paused {
		e.mu.Unlock()
		return nil
	}
	e.paused = false
	e.cond.Broadcast()
	e.mu.Unlock()

	e.sink.hold(false)
	e.log.Debug("Transfer resumed")
	return nil
}

// Stop ends the transfer and waits for the device goroutine to exit.
// Stopping an idle output is a no-op.
func (e *engine) Stop() error {
	e.mu.Lock()
	finished := e.done
	if finished == nil {
		e.mu.Unlock()
		return nil
	}
	if !e.stopping {
		e.stopping = true
		close(e.halt)
	}
	e.cond.Broadcast()
	e.mu.Unlock()

	e.sink.interrupt()
	<-finished

	e.mu.Lock()
	if e.done == finished {
		e.done = nil
		e.running = false
		e.paused = false
	}
	e.mu.Unlock()
	e.log.Debug("Transfer stopped")
	return nil
}

// Running reports whether a transfer is active
func (e *engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running && !e.stopping
}

// Paused reports whether the active transfer is paused
func (e *engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Transfers returns the number of halves played since the output was created
func (e *engine) Transfers() uint64 { return e.transfers.Load() }

// SetVolume sets the volume (0-100)
func (e *engine) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	e.volume.Store(int32(volume))
	e.log.WithField("volume", volume).Info("Volume set")
}

// SetMuted sets mute state
func (e *engine) SetMuted(muted bool) {
	e.muted.Store(muted)
	e.log.WithField("muted", muted).Info("Mute changed")
}

// Volume returns current volume
func (e *engine) Volume() int { return int(e.volume.Load()) }

// Muted returns mute state
func (e *engine) Muted() bool { return e.muted.Load() }
