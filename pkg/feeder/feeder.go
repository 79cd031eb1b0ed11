// ABOUTME: Double-buffer feeder that refills halves from a PCM payload
// ABOUTME: Tracks remaining bytes and applies the echo to each refilled half
package feeder

import (
	"errors"
	"io"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/control"
	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/echo"
)

// Config configures a Feeder
type Config struct {
	// BufferSize is the total size of both halves in bytes
	BufferSize int

	// Echo processes each refilled half. Nil disables the effect.
	Echo *echo.Processor

	// Decay is sampled at Start and once per processed half
	Decay control.DecaySource

	// Enable is polled on every Step
	Enable control.EnableSource
}

// Feeder owns the audio buffer and the bookkeeping of one stream
type Feeder struct {
	buf    []byte
	half   int
	echo   *echo.Processor
	decay  control.DecaySource
	enable control.EnableSource

	src       io.Reader
	state     State
	remaining uint32
	bytesRead uint64
	refills   int
	echoOn    bool
	lastDecay float64
	err       error
}

// New allocates the buffer once. It is never reallocated.
func New(config Config) *Feeder {
	if config.BufferSize <= 0 {
		config.BufferSize = audio.BufferSize
	}
	// Halves must hold whole samples.
	config.BufferSize &^= 2*audio.BytesPerSample - 1
	if config.BufferSize == 0 {
		config.BufferSize = audio.BufferSize
	}
	if config.Decay == nil {
		config.Decay = control.Decay(echo.DefaultDecay)
	}
	if config.Enable == nil {
		config.Enable = control.Enabled(config.Echo != nil)
	}

	return &Feeder{
		buf:    make([]byte, config.BufferSize),
		half:   config.BufferSize / 2,
		echo:   config.Echo,
		decay:  config.Decay,
		enable: config.Enable,
	}
}

// Start performs the initial load: up to a full buffer from src, never past
// payload bytes. The whole buffer is echoed when the effect is on.
func (f *Feeder) Start(src io.Reader, payload uint32) (int, error) {
	f.src = io.LimitReader(src, int64(payload))
	f.bytesRead = 0
	f.refills = 0
	f.err = nil

	n, err := f.fill(f.buf)
	f.remaining = payload - uint32(n)
	f.state = Idle

	f.echoOn = f.enable.IsEnabled()
	f.lastDecay = f.decay.Sample()
	if f.echoOn && f.echo != nil {
		f.echo.ProcessPCM16(f.buf, f.lastDecay)
	}
	return n, err
}

// Step consumes one completion signal and runs the resulting action.
func (f *Feeder) Step(sig Signal) Action {
	f.echoOn = f.enable.IsEnabled()

	next, action := Next(f.state, sig)
	f.state = next

	switch action {
	case ActionRefillFirst:
		f.refill(audio.FirstHalf)
	case ActionRefillSecond:
		f.refill(audio.SecondHalf)
	case ActionFinish:
		f.finish()
	}
	return action
}

func (f *Feeder) refill(h audio.Half) {
	start, end := h.Bounds(len(f.buf))
	segment := f.buf[start:end]

	before := f.remaining
	n, _ := f.fill(segment)
	f.refills++

	if before > uint32(f.half) && n > 0 {
		f.remaining -= min(uint32(n), f.remaining)
		if f.echoOn && f.echo != nil {
			f.lastDecay = f.decay.Sample()
			f.echo.ProcessPCM16(segment, f.lastDecay)
		}
		f.state = Idle
		return
	}

	f.remaining = 0
	f.state = EndOfStream
}

// finish resets the counters and drops the source. Closing the underlying
// storage is left to the caller.
func (f *Feeder) finish() {
	f.remaining = 0
	f.src = nil
	f.state = Idle
}

// fill reads as much of p as the source offers and zero-fills the rest.
func (f *Feeder) fill(p []byte) (int, error) {
	if f.src == nil {
		clear(p)
		return 0, nil
	}
	n, err := io.ReadFull(f.src, p)
	clear(p[n:])
	f.bytesRead += uint64(n)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if err != nil {
		f.err = err
	}
	return n, err
}

// Buffer returns the shared audio buffer handed to the transport
func (f *Feeder) Buffer() []byte { return f.buf }

// HalfSize returns the size of one half in bytes
func (f *Feeder) HalfSize() int { return f.half }

// State returns the current state
func (f *Feeder) State() State { return f.state }

// Remaining returns the payload bytes not yet read
func (f *Feeder) Remaining() uint32 { return f.remaining }

// BytesRead returns the payload bytes read since Start
func (f *Feeder) BytesRead() uint64 { return f.bytesRead }

// Refills returns the number of half refills since Start
func (f *Feeder) Refills() int { return f.refills }

// EchoEnabled reports the enable position seen by the last Start or Step
func (f *Feeder) EchoEnabled() bool { return f.echoOn }

// Decay returns the factor used for the last processed segment
func (f *Feeder) Decay() float64 { return f.lastDecay }

// Err returns the last read error other than end of file
func (f *Feeder) Err() error { return f.err }
