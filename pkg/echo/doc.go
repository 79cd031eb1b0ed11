// ABOUTME: Echo processor package
// ABOUTME: Single-tap delay-and-decay filter over 16-bit PCM segments
// Package echo applies a single feed-forward echo tap to 16-bit PCM audio.
//
// The filter computes
//
//	y[n] = x[n] + decay * x[n - D]
//
// where D is the delay line capacity. The delay line stores only the
// original input samples, so the output never contains echoes of echoes.
// Sums are saturated to the int16 range.
//
// Example:
//
//	p := echo.NewProcessor(echo.DefaultDelay)
//	p.Process(samples, 0.8)        // []int16, in place
//	p.ProcessPCM16(segment, 0.8)   // little-endian bytes, in place
package echo
