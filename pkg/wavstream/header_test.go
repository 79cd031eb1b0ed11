// ABOUTME: Tests for stream descriptor parsing
// ABOUTME: Tests field offsets, lenient parsing and handle positioning
package wavstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/storage"
)

// Helper function to create a stream with a canonical header and payload
func createStream(sampleRate uint32, payload []byte) []byte {
	buf := new(bytes.Buffer)
	NewHeader(sampleRate, 2, 16, uint32(len(payload))).Encode(buf)
	buf.Write(payload)
	return buf.Bytes()
}

func TestHeaderEncodedSize(t *testing.T) {
	if binary.Size(Header{}) != HeaderSize {
		t.Fatalf("Header layout is %d bytes, want %d", binary.Size(Header{}), HeaderSize)
	}

	buf := new(bytes.Buffer)
	if err := NewHeader(44100, 2, 16, 0).Encode(buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if buf.Len() != HeaderSize {
		t.Errorf("expected %d bytes, got %d", HeaderSize, buf.Len())
	}
}

func TestDecodeFieldOffsets(t *testing.T) {
	raw := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(raw[4:8], 1_000_036)
	binary.LittleEndian.PutUint16(raw[22:24], 2)
	binary.LittleEndian.PutUint32(raw[24:28], 22050)
	binary.LittleEndian.PutUint16(raw[34:36], 16)
	binary.LittleEndian.PutUint32(raw[40:44], 1_000_000)

	h, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if h.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", h.SampleRate)
	}
	if h.Subchunk2Size != 1_000_000 {
		t.Errorf("Subchunk2Size = %d, want 1000000", h.Subchunk2Size)
	}
	if h.FileSize != 1_000_036 {
		t.Errorf("FileSize = %d, want 1000036", h.FileSize)
	}
	if h.NumChannels != 2 || h.BitsPerSample != 16 {
		t.Errorf("unexpected format fields: %d ch, %d bits", h.NumChannels, h.BitsPerSample)
	}

	desc := h.Descriptor()
	if desc.SampleRate != 22050 || desc.PayloadBytes != 1_000_000 {
		t.Errorf("unexpected descriptor %+v", desc)
	}
}

func TestDecodeDoesNotValidate(t *testing.T) {
	raw := bytes.Repeat([]byte("X"), HeaderSize)
	binary.LittleEndian.PutUint32(raw[24:28], 8000)
	binary.LittleEndian.PutUint32(raw[40:44], 512)

	h, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil for garbage identifiers", err)
	}
	if h.Descriptor() != (Descriptor{SampleRate: 8000, PayloadBytes: 512}) {
		t.Errorf("unexpected descriptor %+v", h.Descriptor())
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	raw := make([]byte, 28)
	binary.LittleEndian.PutUint32(raw[24:28], 16000)

	h, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if h.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", h.SampleRate)
	}
	if h.Subchunk2Size != 0 {
		t.Errorf("missing payload length should read as 0, got %d", h.Subchunk2Size)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device error") }

func TestDecodeReadError(t *testing.T) {
	if _, err := Decode(failingReader{}); err == nil {
		t.Error("expected read error to be reported")
	}
}

func TestOpenPositionsAtPayload(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6}
	store := storage.NewMemory()
	store.Put("song.wav", createStream(48000, payload))

	desc, h, err := Open(store, "song.wav")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()

	if desc.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", desc.SampleRate)
	}
	if desc.PayloadBytes != uint32(len(payload)) {
		t.Errorf("PayloadBytes = %d, want %d", desc.PayloadBytes, len(payload))
	}

	pos, err := h.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if pos != HeaderSize {
		t.Errorf("handle at %d, want %d", pos, HeaderSize)
	}

	rest, _ := io.ReadAll(h)
	if !bytes.Equal(rest, payload) {
		t.Errorf("expected payload %v, got %v", payload, rest)
	}
}

func TestOpenNotFound(t *testing.T) {
	_, h, err := Open(storage.NewMemory(), "missing.wav")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if h != nil {
		t.Error("expected nil handle on failure")
	}
}
