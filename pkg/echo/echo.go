// ABOUTME: Echo generator with a circular delay line
// ABOUTME: Applies saturating single-tap echo in place, sample by sample
package echo

import (
	"math"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
)

const (
	// DefaultDelay is one second of audio at 48 kHz
	DefaultDelay = 48000

	// DefaultDecay is the attenuation used when no decay source is wired
	DefaultDecay = 0.8
)

// DelayLine is a fixed-capacity circular buffer of past input samples
type DelayLine struct {
	samples []int16
	index   int
}

// NewDelayLine allocates a zeroed delay line
func NewDelayLine(capacity int) *DelayLine {
	if capacity <= 0 {
		capacity = DefaultDelay
	}
	return &DelayLine{samples: make([]int16, capacity)}
}

// Cap returns the delay in samples
func (d *DelayLine) Cap() int { return len(d.samples) }

// Index returns the current read/write cursor
func (d *DelayLine) Index() int { return d.index }

// swap returns the delayed sample at the cursor, stores x in its place and
// advances the cursor.
func (d *DelayLine) swap(x int16) int16 {
	delayed := d.samples[d.index]
	d.samples[d.index] = x
	d.index++
	if d.index == len(d.samples) {
		d.index = 0
	}
	return delayed
}

// Reset zeroes the line and rewinds the cursor
func (d *DelayLine) Reset() {
	clear(d.samples)
	d.index = 0
}

// Processor applies the echo to consecutive segments of one stream
type Processor struct {
	line *DelayLine
}

// NewProcessor creates a processor with a delay of the given number of samples
func NewProcessor(delay int) *Processor {
	return &Processor{line: NewDelayLine(delay)}
}

// Line exposes the delay line, mainly for inspection
func (p *Processor) Line() *DelayLine { return p.line }

// Reset discards all delayed content
func (p *Processor) Reset() { p.line.Reset() }

// Process applies the echo to samples in place
func (p *Processor) Process(samples []int16, decay float64) {
	decay = clampDecay(decay)
	for i, x := range samples {
		samples[i] = mix(x, p.line.swap(x), decay)
	}
}

// ProcessPCM16 applies the echo in place to little-endian 16-bit PCM bytes.
// A trailing odd byte is left untouched.
func (p *Processor) ProcessPCM16(segment []byte, decay float64) {
	decay = clampDecay(decay)
	n := audio.SamplesIn(len(segment))
	for i := 0; i < n; i++ {
		x := audio.SampleAt(segment, i)
		audio.PutSample(segment, i, mix(x, p.line.swap(x), decay))
	}
}

// mix adds the attenuated delayed sample in the int32 domain and saturates
func mix(x, delayed int16, decay float64) int16 {
	tap := int32(math.Round(float64(delayed) * decay))
	return audio.Clamp16(int32(x) + tap)
}

func clampDecay(decay float64) float64 {
	if math.IsNaN(decay) || decay < 0 {
		return 0
	}
	if decay > 1 {
		return 1
	}
	return decay
}
