// ABOUTME: Test tone generator for stream preparation
// ABOUTME: Generates a sine wave at a fixed level for a bounded number of frames
package prep

import (
	"io"
	"math"
)

const (
	// DefaultToneFrequency is A4
	DefaultToneFrequency = 440.0

	// DefaultToneRate is the rate the echo delay is tuned for
	DefaultToneRate = 48000
)

// ToneSource generates a sine tone on every channel
type ToneSource struct {
	frequency   float64
	sampleRate  int
	channels    int
	frames      int
	sampleIndex int
}

// NewToneSource creates a tone of the given length in frames
func NewToneSource(frequency float64, sampleRate, channels, frames int) *ToneSource {
	if frequency <= 0 {
		frequency = DefaultToneFrequency
	}
	if sampleRate <= 0 {
		sampleRate = DefaultToneRate
	}
	if channels <= 0 {
		channels = 2
	}
	return &ToneSource{
		frequency:  frequency,
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
	}
}

func (s *ToneSource) Read(samples []int16) (int, error) {
	numFrames := min(len(samples)/s.channels, s.frames-s.sampleIndex)
	if numFrames <= 0 {
		return 0, io.EOF
	}

	for i := 0; i < numFrames; i++ {
		// Generate sine wave
		t := float64(s.sampleIndex+i) / float64(s.sampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// Convert to 16-bit PCM
		pcmValue := int16(sample * 32767.0 * 0.5) // 50% volume

		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = pcmValue
		}
	}

	s.sampleIndex += numFrames

	return numFrames * s.channels, nil
}

func (s *ToneSource) SampleRate() int { return s.sampleRate }
func (s *ToneSource) Channels() int   { return s.channels }
func (s *ToneSource) Close() error    { return nil }
