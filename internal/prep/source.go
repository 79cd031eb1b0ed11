// ABOUTME: Decoded audio sources for stream preparation
// ABOUTME: Reads MP3, FLAC and WAV files as interleaved 16-bit PCM
package prep

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// ErrUnsupported is returned for files prep cannot decode
var ErrUnsupported = errors.New("unsupported audio format")

// Source provides interleaved 16-bit PCM samples
type Source interface {
	// Read fills samples and returns how many were written. It returns
	// io.EOF once the source is exhausted.
	Read(samples []int16) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Close closes the audio source
	Close() error
}

// NewSource opens a file and picks a decoder from its extension
func NewSource(path string) (Source, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return NewMP3Source(path)
	case ".flac":
		return NewFLACSource(path)
	case ".wav", ".wave":
		return NewWAVSource(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac, .wav)", ErrUnsupported, ext)
	}
}

// MP3Source reads from an MP3 file
type MP3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	buf     []byte
}

// NewMP3Source creates a new MP3 audio source
func NewMP3Source(filePath string) (*MP3Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &MP3Source{file: f, decoder: decoder}, nil
}

func (s *MP3Source) Read(samples []int16) (int, error) {
	// MP3 decoder outputs int16 = 2 bytes per sample
	if len(s.buf) < len(samples)*2 {
		s.buf = make([]byte, len(samples)*2)
	}

	n, err := io.ReadFull(s.decoder, s.buf[:len(samples)*2])
	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(s.buf[i*2:]))
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return numSamples, nil
	}
	return numSamples, err
}

func (s *MP3Source) SampleRate() int { return s.decoder.SampleRate() }

// Channels is always 2: the decoder outputs stereo
func (s *MP3Source) Channels() int { return 2 }

func (s *MP3Source) Close() error { return s.file.Close() }

// FLACSource reads from a FLAC file
type FLACSource struct {
	stream   *flac.Stream
	channels int
	bitDepth int
	pending  []int16
}

// NewFLACSource creates a new FLAC audio source
func NewFLACSource(filePath string) (*FLACSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	return &FLACSource{
		stream:   stream,
		channels: int(stream.Info.NChannels),
		bitDepth: int(stream.Info.BitsPerSample),
	}, nil
}

func (s *FLACSource) Read(samples []int16) (int, error) {
	read := 0
	for read < len(samples) {
		if len(s.pending) == 0 {
			frame, err := s.stream.ParseNext()
			if err != nil {
				if errors.Is(err, io.EOF) && read > 0 {
					return read, nil
				}
				return read, err
			}

			// Interleave the frame's subframes
			for i := 0; i < int(frame.BlockSize); i++ {
				for ch := 0; ch < s.channels; ch++ {
					s.pending = append(s.pending, to16(int(frame.Subframes[ch].Samples[i]), s.bitDepth))
				}
			}
		}

		n := copy(samples[read:], s.pending)
		s.pending = s.pending[n:]
		read += n
	}
	return read, nil
}

func (s *FLACSource) SampleRate() int { return int(s.stream.Info.SampleRate) }
func (s *FLACSource) Channels() int   { return s.channels }

// Close closes the stream and its file
func (s *FLACSource) Close() error { return s.stream.Close() }

// WAVSource reads integer PCM of any depth from a WAV file
type WAVSource struct {
	file    *os.File
	decoder *wav.Decoder
	intBuf  *goaudio.IntBuffer
}

// NewWAVSource creates a new WAV audio source
func NewWAVSource(filePath string) (*WAVSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupported, filePath)
	}
	if decoder.WavAudioFormat != 1 {
		f.Close()
		return nil, fmt.Errorf("%w: WAV audio format %d (only integer PCM)", ErrUnsupported, decoder.WavAudioFormat)
	}
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find WAV data chunk: %w", err)
	}

	return &WAVSource{
		file:    f,
		decoder: decoder,
		intBuf: &goaudio.IntBuffer{
			Format:         decoder.Format(),
			SourceBitDepth: int(decoder.BitDepth),
		},
	}, nil
}

func (s *WAVSource) Read(samples []int16) (int, error) {
	if cap(s.intBuf.Data) < len(samples) {
		s.intBuf.Data = make([]int, len(samples))
	}
	s.intBuf.Data = s.intBuf.Data[:len(samples)]

	n, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil {
		return 0, fmt.Errorf("failed to read WAV samples: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	depth := int(s.decoder.BitDepth)
	for i := 0; i < n; i++ {
		v := s.intBuf.Data[i]
		if depth == 8 {
			// 8-bit WAV data is unsigned
			v -= 128
		}
		samples[i] = to16(v, depth)
	}
	return n, nil
}

func (s *WAVSource) SampleRate() int { return int(s.decoder.SampleRate) }
func (s *WAVSource) Channels() int   { return int(s.decoder.NumChans) }
func (s *WAVSource) Close() error    { return s.file.Close() }

// to16 scales a signed sample of the given bit depth to 16 bits
func to16(v, bitDepth int) int16 {
	switch {
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	case bitDepth < 16 && bitDepth > 0:
		return int16(v << (16 - bitDepth))
	default:
		return int16(v)
	}
}
