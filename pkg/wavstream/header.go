// ABOUTME: Stream descriptor header layout and parsing
// ABOUTME: Decodes the 44-byte little-endian header without validation
package wavstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/storage"
)

// HeaderSize is the byte length of the fixed header
const HeaderSize = 44

// Header mirrors the on-disk layout field by field
type Header struct {
	ChunkID       [4]byte
	FileSize      uint32
	FileFormat    [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// Descriptor is what playback needs from the header
type Descriptor struct {
	SampleRate   uint32
	PayloadBytes uint32
}

// Descriptor derives the playback descriptor
func (h Header) Descriptor() Descriptor {
	return Descriptor{
		SampleRate:   h.SampleRate,
		PayloadBytes: h.Subchunk2Size,
	}
}

// NewHeader builds a canonical PCM header for payloadBytes of audio
func NewHeader(sampleRate uint32, channels, bitsPerSample uint16, payloadBytes uint32) Header {
	blockAlign := channels * (bitsPerSample / 8)
	h := Header{
		FileSize:      36 + payloadBytes,
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: bitsPerSample,
		Subchunk2Size: payloadBytes,
	}
	copy(h.ChunkID[:], "RIFF")
	copy(h.FileFormat[:], "WAVE")
	copy(h.Subchunk1ID[:], "fmt ")
	copy(h.Subchunk2ID[:], "data")
	return h
}

// Encode writes the header in its 44-byte little-endian layout
func (h Header) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Decode reads one header from r. A source shorter than HeaderSize yields
// zero for every missing field; only read failures are reported.
func Decode(r io.Reader) (Header, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil &&
		!errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Header{}, fmt.Errorf("failed to read header: %w", err)
	}

	var h Header
	// Cannot fail: raw is exactly the size of Header
	_ = binary.Read(bytes.NewReader(raw[:]), binary.LittleEndian, &h)
	return h, nil
}

// Open opens path, reads its header and returns the handle positioned
// immediately after the header. The caller owns the handle.
func Open(opener storage.Opener, path string) (Descriptor, io.ReadSeekCloser, error) {
	h, err := opener.Open(path)
	if err != nil {
		return Descriptor{}, nil, err
	}

	header, err := Decode(h)
	if err != nil {
		h.Close()
		return Descriptor{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	return header.Descriptor(), h, nil
}
