// ABOUTME: Conversion from decoded sources to canonical PCM WAV streams
// ABOUTME: Remixes channels, resamples and encodes with go-audio/wav
package prep

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	ilog "github.com/Shrimahe-16/Audio-Echo-Generator/internal/log"
)

const (
	// DefaultChannels matches the stereo output the player opens
	DefaultChannels = 2

	chunkFrames = 4096
)

// Options controls conversion
type Options struct {
	// Channels in the output, default DefaultChannels
	Channels int
	// SampleRate of the output, default the source rate
	SampleRate int
	// MaxFrames truncates the output when positive
	MaxFrames int
	Log       logrus.FieldLogger
}

// Result describes a written stream
type Result struct {
	SampleRate   int
	Channels     int
	Frames       int
	PayloadBytes int
}

// Convert reads src to exhaustion and writes a 16-bit PCM WAV stream to ws
func Convert(src Source, ws io.WriteSeeker, opts Options) (Result, error) {
	if opts.Channels <= 0 {
		opts.Channels = DefaultChannels
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = src.SampleRate()
	}
	log := opts.Log
	if log == nil {
		log = ilog.GetLogger()
	}

	inChannels := src.Channels()
	if inChannels <= 0 || src.SampleRate() <= 0 {
		return Result{}, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupported, inChannels, src.SampleRate())
	}

	var resampler *Resampler
	if opts.SampleRate != src.SampleRate() {
		resampler = NewResampler(src.SampleRate(), opts.SampleRate, opts.Channels)
		log.Debugf("Resampling %d Hz -> %d Hz", src.SampleRate(), opts.SampleRate)
	}

	enc := wav.NewEncoder(ws, opts.SampleRate, 16, opts.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: opts.Channels, SampleRate: opts.SampleRate},
		SourceBitDepth: 16,
	}

	res := Result{SampleRate: opts.SampleRate, Channels: opts.Channels}
	in := make([]int16, chunkFrames*inChannels)
	var mixed, out []int16

	emit := func(samples []int16) error {
		frames := len(samples) / opts.Channels
		if opts.MaxFrames > 0 && res.Frames+frames > opts.MaxFrames {
			frames = opts.MaxFrames - res.Frames
		}
		if frames <= 0 {
			return nil
		}
		buf.Data = buf.Data[:0]
		for _, s := range samples[:frames*opts.Channels] {
			buf.Data = append(buf.Data, int(s))
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("failed to write samples: %w", err)
		}
		res.Frames += frames
		return nil
	}

	for opts.MaxFrames <= 0 || res.Frames < opts.MaxFrames {
		n, err := src.Read(in)
		if n > 0 {
			mixed = Remix(mixed[:0], in[:n-n%inChannels], inChannels, opts.Channels)
			if resampler != nil {
				out = resampler.Resample(out[:0], mixed)
			} else {
				out = mixed
			}
			if werr := emit(out); werr != nil {
				return res, werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read source: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if resampler != nil {
		if err := emit(resampler.Flush(out[:0])); err != nil {
			return res, err
		}
	}

	// An empty source still gets a header
	if res.Frames == 0 {
		buf.Data = buf.Data[:0]
		if err := enc.Write(buf); err != nil {
			return res, fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return res, fmt.Errorf("failed to finalize stream: %w", err)
	}

	res.PayloadBytes = res.Frames * opts.Channels * 2
	log.Infof("Wrote %d frames (%d bytes) at %d Hz, %d channels",
		res.Frames, res.PayloadBytes, res.SampleRate, res.Channels)
	return res, nil
}

// Remix appends samples converted from inCh to outCh interleaved channels.
// Mono is duplicated, downmixing to mono averages, anything else keeps the
// leading channels and pads missing ones with the last input channel.
func Remix(dst, samples []int16, inCh, outCh int) []int16 {
	if inCh == outCh {
		return append(dst, samples...)
	}
	for i := 0; i+inCh <= len(samples); i += inCh {
		frame := samples[i : i+inCh]
		if outCh == 1 {
			sum := 0
			for _, s := range frame {
				sum += int(s)
			}
			dst = append(dst, int16(sum/inCh))
			continue
		}
		for ch := 0; ch < outCh; ch++ {
			dst = append(dst, frame[min(ch, inCh-1)])
		}
	}
	return dst
}
