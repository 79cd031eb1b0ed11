// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines buffer sizing, Half and 16-bit PCM conversion helpers
// Package audio provides fundamental types shared by the playback pipeline.
//
// The playback buffer is a fixed BufferSize byte slice split into two
// equal halves. While the output transport reads one half, the refill
// logic owns the other:
//
//	start, end := audio.FirstHalf.Bounds(audio.BufferSize)
//	segment := buf[start:end]
//
// Samples are signed 16-bit little-endian PCM. SampleAt and PutSample
// read and write them in place without converting the whole segment.
package audio
