// Package output plays a circular PCM buffer on an audio device.
//
// BeginTransfer hands the device a buffer split into two halves. The
// device plays the halves in turn, forever, and reports each finished half
// through a CompletionFunc so the caller can refill it while the other half
// plays. Every backend shares the same transfer engine and software volume;
// they differ only in how a half reaches the hardware.
//
// Example:
//
//	out := output.NewOto(nil)
//	err := out.Open(48000, 2)
//	err = out.BeginTransfer(buf, len(buf)/2, func(h audio.Half) { ... })
package output
