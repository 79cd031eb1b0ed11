// ABOUTME: Software volume for 16-bit PCM
// ABOUTME: Scales samples on their way to the device with clipping protection
package output

import (
	"math"

	"github.com/Shrimahe-16/Audio-Echo-Generator/pkg/audio"
)

// applyVolume copies src into dst applying volume and mute, and returns the
// number of bytes copied. The caller's buffer is never modified.
func applyVolume(dst, src []byte, volume int, muted bool) int {
	n := copy(dst, src)
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1 {
		return n
	}

	for i, total := 0, audio.SamplesIn(n); i < total; i++ {
		scaled := math.Round(float64(audio.SampleAt(dst, i)) * multiplier)
		audio.PutSample(dst, i, audio.Clamp16(int32(scaled)))
	}
	return n
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
