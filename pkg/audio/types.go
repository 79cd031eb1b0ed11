// ABOUTME: Audio type definitions
// ABOUTME: Defines buffer sizing, buffer halves and 16-bit PCM helpers
package audio

import (
	"encoding/binary"
	"fmt"
)

const (
	// 16-bit audio range constants
	Max16Bit = 32767
	Min16Bit = -32768

	// BytesPerSample is the size of one 16-bit PCM sample
	BytesPerSample = 2

	// BufferSize is the playback double buffer capacity in bytes
	BufferSize = 1024

	// HalfSize is the size of one buffer half in bytes
	HalfSize = BufferSize / 2
)

// Half identifies one of the two equal partitions of the playback buffer
type Half int

const (
	FirstHalf Half = iota
	SecondHalf
)

func (h Half) String() string {
	switch h {
	case FirstHalf:
		return "first"
	case SecondHalf:
		return "second"
	default:
		return fmt.Sprintf("Half(%d)", int(h))
	}
}

// Other returns the opposite half
func (h Half) Other() Half {
	if h == FirstHalf {
		return SecondHalf
	}
	return FirstHalf
}

// Bounds returns the byte range [start, end) of the half in a buffer of size bytes
func (h Half) Bounds(size int) (int, int) {
	half := size / 2
	if h == FirstHalf {
		return 0, half
	}
	return half, size
}

// Clamp16 saturates a widened sample to the int16 range
func Clamp16(v int32) int16 {
	if v > Max16Bit {
		return Max16Bit
	}
	if v < Min16Bit {
		return Min16Bit
	}
	return int16(v)
}

// SampleAt reads the i-th little-endian 16-bit sample from b
func SampleAt(b []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(b[i*BytesPerSample:]))
}

// PutSample writes the i-th little-endian 16-bit sample into b
func PutSample(b []byte, i int, v int16) {
	binary.LittleEndian.PutUint16(b[i*BytesPerSample:], uint16(v))
}

// SamplesIn returns the number of whole 16-bit samples held in n bytes
func SamplesIn(n int) int {
	return n / BytesPerSample
}
