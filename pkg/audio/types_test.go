// ABOUTME: Tests for audio types
// ABOUTME: Tests half bounds, clamping and sample access helpers
package audio

import (
	"math"
	"testing"
)

func TestClamp16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100, 100},
		{"negative", -100, -100},
		{"max", 32767, math.MaxInt16},
		{"min", -32768, math.MinInt16},
		{"over max", 40000, math.MaxInt16},
		{"under min", -40000, math.MinInt16},
		{"double max", 65534, math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clamp16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestHalfBounds(t *testing.T) {
	tests := []struct {
		half       Half
		size       int
		start, end int
	}{
		{FirstHalf, BufferSize, 0, 512},
		{SecondHalf, BufferSize, 512, 1024},
		{FirstHalf, 8, 0, 4},
		{SecondHalf, 8, 4, 8},
	}

	for _, tt := range tests {
		start, end := tt.half.Bounds(tt.size)
		if start != tt.start || end != tt.end {
			t.Errorf("%v.Bounds(%d) = [%d,%d), want [%d,%d)",
				tt.half, tt.size, start, end, tt.start, tt.end)
		}
	}
}

func TestHalfOther(t *testing.T) {
	if FirstHalf.Other() != SecondHalf {
		t.Error("expected first half to flip to second")
	}
	if SecondHalf.Other() != FirstHalf {
		t.Error("expected second half to flip to first")
	}
}

func TestHalfString(t *testing.T) {
	if FirstHalf.String() != "first" {
		t.Errorf("expected 'first', got '%s'", FirstHalf.String())
	}
	if SecondHalf.String() != "second" {
		t.Errorf("expected 'second', got '%s'", SecondHalf.String())
	}
	if Half(7).String() != "Half(7)" {
		t.Errorf("expected 'Half(7)', got '%s'", Half(7).String())
	}
}

func TestSampleRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	values := []int16{0, math.MaxInt16, math.MinInt16, -1}

	for i, v := range values {
		PutSample(buf, i, v)
	}
	for i, v := range values {
		if got := SampleAt(buf, i); got != v {
			t.Errorf("sample %d: expected %d, got %d", i, v, got)
		}
	}

	// Little-endian layout
	if buf[2] != 0xFF || buf[3] != 0x7F {
		t.Errorf("expected 0x7FFF stored little-endian, got % x", buf[2:4])
	}
}

func TestSamplesIn(t *testing.T) {
	if SamplesIn(HalfSize) != 256 {
		t.Errorf("expected 256 samples per half, got %d", SamplesIn(HalfSize))
	}
	if SamplesIn(3) != 1 {
		t.Errorf("expected odd byte to be dropped, got %d", SamplesIn(3))
	}
}
