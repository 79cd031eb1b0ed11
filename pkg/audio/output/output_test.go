// ABOUTME: Audio output interface and transfer engine tests
// ABOUTME: Verifies circular playback, completion order, pause/stop and volume
package output

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer lets the test read what the engine goroutine wrote
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func pcm(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		audio.PutSample(b, i, s)
	}
	return b
}

func TestBackendsImplementOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
	var _ Output = (*Malgo)(nil)
	var _ Output = (*PortAudio)(nil)
	var _ Output = (*Clocked)(nil)

	var _ VolumeControl = (*Oto)(nil)
	var _ VolumeControl = (*Malgo)(nil)
	var _ VolumeControl = (*PortAudio)(nil)
	var _ VolumeControl = (*Clocked)(nil)
}

func TestNewByName(t *testing.T) {
	for _, name := range Backends {
		out, err := New(name, nil)
		require.NoError(t, err, name)
		require.NotNil(t, out, name)
	}

	_, err := New("alsa-direct", nil)
	assert.Error(t, err)
}

func TestBeginTransferBeforeOpen(t *testing.T) {
	out := NewClocked(&syncBuffer{}, false, nil)

	err := out.BeginTransfer(make([]byte, 16), 8, func(audio.Half) {})
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestBeginTransferRejectsInvalidLengths(t *testing.T) {
	out := NewClocked(&syncBuffer{}, false, nil)
	require.NoError(t, out.Open(48000, 2))
	defer out.Close()

	buf := make([]byte, 16)
	noop := func(audio.Half) {}

	tests := []struct {
		name    string
		buf     []byte
		samples int
		done    CompletionFunc
	}{
		{"zero", buf, 0, noop},
		{"negative", buf, -2, noop},
		{"odd", buf, 7, noop},
		{"past buffer", buf, 10, noop},
		{"over maximum", make([]byte, 2*(MaxTransferSamples+1)), MaxTransferSamples + 1, noop},
		{"no callback", buf, 8, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := out.BeginTransfer(tt.buf, tt.samples, tt.done)
			assert.ErrorIs(t, err, ErrInvalidTransfer)
		})
	}
}

func TestMaxTransferSamples(t *testing.T) {
	out := NewClocked(io.Discard, false, nil)
	require.NoError(t, out.Open(48000, 2))
	defer out.Close()

	buf := make([]byte, 2*(MaxTransferSamples-1))
	require.NoError(t, out.BeginTransfer(buf, MaxTransferSamples-1, func(audio.Half) {}))
	require.NoError(t, out.Stop())
}

func TestCircularPlaybackOrder(t *testing.T) {
	sinkBuf := &syncBuffer{}
	out := NewClocked(sinkBuf, false, nil)
	require.NoError(t, out.Open(48000, 2))
	defer out.Close()

	buf := pcm(1, 2, 3, 4, 5, 6, 7, 8)

	var (
		mu     sync.Mutex
		halves []audio.Half
	)
	six := make(chan struct{})
	err := out.BeginTransfer(buf, 8, func(h audio.Half) {
		mu.Lock()
		defer mu.Unlock()
		if len(halves) < 6 {
			// The half is fully written before it is reported.
			assert.Len(t, sinkBuf.Bytes(), (len(halves)+1)*8)
			halves = append(halves, h)
			if len(halves) == 6 {
				close(six)
			}
		}
	})
	require.NoError(t, err)

	select {
	case <-six:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completions")
	}
	require.NoError(t, out.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []audio.Half{
		audio.FirstHalf, audio.SecondHalf,
		audio.FirstHalf, audio.SecondHalf,
		audio.FirstHalf, audio.SecondHalf,
	}, halves)

	played := sinkBuf.Bytes()
	for i := 0; i+16 <= len(played); i += 16 {
		assert.Equal(t, buf, played[i:i+16], "cycle at byte %d", i)
	}
}

func TestTransferUsesOnlyRequestedLength(t *testing.T) {
	sinkBuf := &syncBuffer{}
	out := NewClocked(sinkBuf, false, nil)
	require.NoError(t, out.Open(48000, 1))
	defer out.Close()

	buf := pcm(1, 2, 3, 4, 9, 9, 9, 9)
	got := make(chan struct{})
	var once sync.Once
	require.NoError(t, out.BeginTransfer(buf, 4, func(h audio.Half) {
		if h == audio.SecondHalf {
			once.Do(func() { close(got) })
		}
	}))
	<-got
	require.NoError(t, out.Stop())

	assert.Equal(t, pcm(1, 2, 3, 4), sinkBuf.Bytes()[:8])
}

func TestPauseHoldsCompletions(t *testing.T) {
	out := NewClocked(io.Discard, false, nil)
	require.NoError(t, out.Open(48000, 2))
	defer out.Close()

	var count atomic.Int64
	require.NoError(t, out.BeginTransfer(make([]byte, 16), 8, func(audio.Half) {
		count.Add(1)
	}))

	require.Eventually(t, func() bool { return count.Load() > 10 }, time.Second, time.Millisecond)
	require.NoError(t, out.Pause())
	assert.True(t, out.Paused())

	time.Sleep(10 * time.Millisecond)
	held := count.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, held, count.Load(), "no completions while paused")

	require.NoError(t, out.Resume())
	require.Eventually(t, func() bool { return count.Load() > held }, time.Second, time.Millisecond)

	require.NoError(t, out.Stop())
}

func TestStopWhilePaused(t *testing.T) {
	out := NewNull(nil)
	require.NoError(t, out.Open(8000, 1))
	defer out.Close()

	require.NoError(t, out.BeginTransfer(make([]byte, 320), 160, func(audio.Half) {}))
	require.NoError(t, out.Pause())

	require.NoError(t, out.Stop())
	assert.False(t, out.Running())
	assert.False(t, out.Paused())
}

func TestStopInterruptsPacedWrite(t *testing.T) {
	out := NewNull(nil)
	// One second per half
	require.NoError(t, out.Open(100, 1))
	defer out.Close()

	require.NoError(t, out.BeginTransfer(make([]byte, 400), 200, func(audio.Half) {
		t.Error("no half should complete")
	}))

	start := time.Now()
	require.NoError(t, out.Stop())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPacedOutputFollowsByteRate(t *testing.T) {
	out := NewNull(nil)
	// 8000 Hz mono: 160 bytes per half is 10ms
	require.NoError(t, out.Open(8000, 1))
	defer out.Close()

	var count atomic.Int64
	start := time.Now()
	require.NoError(t, out.BeginTransfer(make([]byte, 320), 160, func(audio.Half) {
		count.Add(1)
	}))

	require.Eventually(t, func() bool { return count.Load() >= 4 }, 2*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	require.NoError(t, out.Stop())
}

func TestControlWithoutTransfer(t *testing.T) {
	out := NewClocked(io.Discard, false, nil)
	require.NoError(t, out.Open(48000, 2))
	defer out.Close()

	assert.ErrorIs(t, out.Pause(), ErrStopped)
	assert.ErrorIs(t, out.Resume(), ErrStopped)
	assert.NoError(t, out.Stop())
	assert.NoError(t, out.Stop())
}

func TestBeginTransferRestarts(t *testing.T) {
	out := NewClocked(io.Discard, false, nil)
	require.NoError(t, out.Open(48000, 2))
	defer out.Close()

	var first, second atomic.Int64
	require.NoError(t, out.BeginTransfer(make([]byte, 16), 8, func(audio.Half) { first.Add(1) }))
	require.Eventually(t, func() bool { return first.Load() > 0 }, time.Second, time.Millisecond)

	require.NoError(t, out.BeginTransfer(make([]byte, 16), 8, func(audio.Half) { second.Add(1) }))
	stopped := first.Load()
	require.Eventually(t, func() bool { return second.Load() > 0 }, time.Second, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, stopped, first.Load(), "first transfer must not run after restart")
	require.NoError(t, out.Stop())
}

func TestWriteFailureHaltsTransfer(t *testing.T) {
	out := NewClocked(failingWriter{}, false, nil)
	require.NoError(t, out.Open(48000, 2))
	defer out.Close()

	require.NoError(t, out.BeginTransfer(make([]byte, 16), 8, func(audio.Half) {
		t.Error("no half should complete")
	}))

	require.Eventually(t, func() bool { return !out.Running() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, out.Pause(), ErrStopped)
	require.NoError(t, out.Stop())
}

func TestVolumeAppliedToPlayedCopy(t *testing.T) {
	sinkBuf := &syncBuffer{}
	out := NewClocked(sinkBuf, false, nil)
	require.NoError(t, out.Open(48000, 1))
	defer out.Close()
	out.SetVolume(50)

	buf := pcm(1000, -1000, 3, -3)
	orig := bytes.Clone(buf)

	got := make(chan struct{})
	var once sync.Once
	require.NoError(t, out.BeginTransfer(buf, 4, func(h audio.Half) {
		if h == audio.SecondHalf {
			once.Do(func() { close(got) })
		}
	}))
	<-got
	require.NoError(t, out.Stop())

	assert.Equal(t, pcm(500, -500, 2, -2), sinkBuf.Bytes()[:8])
	assert.Equal(t, orig, buf, "caller buffer must not be scaled")
}

func TestMuteSilencesOutput(t *testing.T) {
	sinkBuf := &syncBuffer{}
	out := NewClocked(sinkBuf, false, nil)
	require.NoError(t, out.Open(48000, 1))
	defer out.Close()
	out.SetMuted(true)

	got := make(chan struct{})
	var once sync.Once
	require.NoError(t, out.BeginTransfer(pcm(100, 200, 300, 400), 4, func(h audio.Half) {
		if h == audio.SecondHalf {
			once.Do(func() { close(got) })
		}
	}))
	<-got
	require.NoError(t, out.Stop())

	assert.Equal(t, make([]byte, 8), sinkBuf.Bytes()[:8])
	assert.True(t, out.Muted())
}

func TestSetVolumeClamps(t *testing.T) {
	out := NewNull(nil)

	out.SetVolume(150)
	assert.Equal(t, 100, out.Volume())

	out.SetVolume(-5)
	assert.Equal(t, 0, out.Volume())

	out.SetVolume(42)
	assert.Equal(t, 42, out.Volume())
}

func TestGetVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float64
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{100, true, 0.0},
	}

	for _, tt := range tests {
		if got := getVolumeMultiplier(tt.volume, tt.muted); got != tt.expected {
			t.Errorf("getVolumeMultiplier(%d, %v) = %v, want %v", tt.volume, tt.muted, got, tt.expected)
		}
	}
}

func TestApplyVolumeSaturates(t *testing.T) {
	src := pcm(audio.Max16Bit, audio.Min16Bit)
	dst := make([]byte, len(src))

	n := applyVolume(dst, src, 100, false)
	assert.Equal(t, len(src), n)
	assert.Equal(t, src, dst)

	applyVolume(dst, src, 99, false)
	assert.Equal(t, int16(32439), audio.SampleAt(dst, 0))
	assert.Equal(t, int16(-32440), audio.SampleAt(dst, 1))
}

// newDeviceFreeMalgo returns a Malgo whose ring the test drains in place of
// the device callback
func newDeviceFreeMalgo(sampleRate, channels int) *Malgo {
	m := NewMalgo(nil)
	m.ringBuffer = NewRingBuffer(sampleRate * channels * 2 * ringMillis / 1000)
	m.sampleRate = sampleRate
	m.channels = channels
	m.setPacing(devicePacing(sampleRate, channels))
	m.setOpen(true)
	return m
}

// drainPeriodically reads period bytes from rb on every tick until stop closes
func drainPeriodically(rb *RingBuffer, period int, every time.Duration, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	out := make([]byte, period)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rb.Read(out)
		}
	}
}

func TestDevicePacing(t *testing.T) {
	rate, lead := devicePacing(44100, 2)
	assert.Equal(t, 176400, rate)
	assert.Equal(t, 3528, lead)
}

func TestFramesPerHalf(t *testing.T) {
	tests := []struct {
		halfBytes int
		channels  int
		want      int
	}{
		{512, 2, 128},
		{512, 1, 256},
		{65534, 2, 16383},
		{2, 2, 1},
		{512, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, framesPerHalf(tt.halfBytes, tt.channels), "%d bytes, %d channels", tt.halfBytes, tt.channels)
	}
}

func TestDeviceCompletionsFollowPlayback(t *testing.T) {
	const rate, channels = 44100, 2
	m := newDeviceFreeMalgo(rate, channels)
	defer m.Close()

	// A sound card pulling 10ms periods
	stopDevice := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go drainPeriodically(m.ringBuffer, rate*channels*2/100, 10*time.Millisecond, stopDevice, &wg)

	// 2048-byte halves play for about 11.6ms each
	halfPlay := time.Duration(2048) * time.Second / time.Duration(rate*channels*2)

	var (
		slot        atomic.Int32
		overwrites  atomic.Int64
		completions atomic.Int64
		mu          sync.Mutex
		stamps      []time.Time
	)
	require.NoError(t, m.BeginTransfer(make([]byte, 4096), 2048, func(h audio.Half) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		if slot.Swap(int32(h)+1) != 0 {
			overwrites.Add(1)
		}
		completions.Add(1)
	}))

	// A main loop taking the latest signal every millisecond
	stopPoll := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopPoll:
				return
			case <-ticker.C:
				slot.Swap(0)
			}
		}
	}()

	require.Eventually(t, func() bool { return completions.Load() >= 20 }, 3*time.Second, time.Millisecond)
	require.NoError(t, m.Stop())
	close(stopPoll)
	close(stopDevice)
	wg.Wait()

	assert.Zero(t, overwrites.Load(), "every completion must be taken before the next")

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), halfPlay-50*time.Microsecond,
			"completions %d and %d arrived in a burst", i-1, i)
	}
}

func TestDeviceLeadPrecedesFirstHalf(t *testing.T) {
	// 8000 Hz mono: 20ms of lead is 320 bytes
	m := newDeviceFreeMalgo(8000, 1)
	defer m.Close()

	buf := bytes.Repeat([]byte{7}, 64)
	require.NoError(t, m.BeginTransfer(buf, 32, func(audio.Half) {}))

	require.Eventually(t, func() bool { return m.ringBuffer.Available() >= 352 }, time.Second, time.Millisecond)
	require.NoError(t, m.Stop())

	got := make([]byte, 352)
	m.ringBuffer.Read(got)
	assert.Equal(t, make([]byte, 320), got[:320])
	assert.Equal(t, buf[:32], got[320:])
}
