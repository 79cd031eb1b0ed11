//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using blocking PortAudio stream writes
package output

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
)

// PortAudio output implementation
type PortAudio struct {
	*engine

	initialized     bool
	stream          *portaudio.Stream
	buffer          []int16
	sampleRate      int
	channels        int
	framesPerBuffer int
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio(log logrus.FieldLogger) *PortAudio {
	p := &PortAudio{}
	p.engine = newEngine(p, log)
	return p
}

// Open initializes PortAudio once and records the stream format. The
// stream itself is opened for the first transfer.
func (p *PortAudio) Open(sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid format: %dHz %d channels", sampleRate, channels)
	}

	if !p.initialized {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		p.initialized = true
	}

	if p.stream != nil && (p.sampleRate != sampleRate || p.channels != channels) {
		p.log.Infof("Format change detected (%dHz/%dch -> %dHz/%dch), reopening stream",
			p.sampleRate, p.channels, sampleRate, channels)
		if err := p.closeStream(); err != nil {
			return err
		}
	}

	p.sampleRate = sampleRate
	p.channels = channels
	p.setPacing(devicePacing(sampleRate, channels))
	p.setOpen(true)
	p.log.WithFields(logrus.Fields{"rate": sampleRate, "channels": channels}).Info("Audio output initialized (portaudio)")
	return nil
}

// prepare opens a stream whose buffer holds one half, reusing the current
// one when it already does
func (p *PortAudio) prepare(halfBytes int) error {
	framesPerBuffer := framesPerHalf(halfBytes, p.channels)
	if p.stream != nil && p.framesPerBuffer == framesPerBuffer {
		return nil
	}
	if err := p.closeStream(); err != nil {
		return err
	}

	p.buffer = make([]int16, framesPerBuffer*p.channels)
	stream, err := portaudio.OpenDefaultStream(0, p.channels, float64(p.sampleRate), framesPerBuffer, &p.buffer)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	p.framesPerBuffer = framesPerBuffer
	return nil
}

// write converts p into stream-sized chunks and blocks on each
func (p *PortAudio) write(pcm []byte) error {
	total := audio.SamplesIn(len(pcm))
	for off := 0; off < total; off += len(p.buffer) {
		n := min(len(p.buffer), total-off)
		for i := 0; i < n; i++ {
			p.buffer[i] = audio.SampleAt(pcm, off+i)
		}
		clear(p.buffer[n:])
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("stream write failed: %w", err)
		}
	}
	return nil
}

// interrupt is a no-op: a blocking write returns within one device buffer
func (p *PortAudio) interrupt() {}

func (p *PortAudio) hold(bool) {}

// closeStream stops and closes the open stream, if any
func (p *PortAudio) closeStream() error {
	if p.stream == nil {
		return nil
	}
	stream := p.stream
	p.stream = nil
	p.framesPerBuffer = 0
	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	p.setOpen(false)
	if err := p.closeStream(); err != nil {
		return err
	}
	if !p.initialized {
		return nil
	}
	p.initialized = false
	return portaudio.Terminate()
}
