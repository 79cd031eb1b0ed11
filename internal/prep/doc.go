// Package prep turns audio files into the canonical stream the player reads:
// a 44-byte RIFF header followed by interleaved 16-bit little-endian PCM.
//
// MP3, FLAC and WAV (any integer PCM depth) are decoded, remixed to the
// requested channel count, optionally resampled, and written with
// go-audio/wav. A sine tone source is available for testing.
package prep
