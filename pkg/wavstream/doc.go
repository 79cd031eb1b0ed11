// ABOUTME: Stream descriptor package for fixed-layout PCM headers
// ABOUTME: Parses the 44-byte header and derives sample rate and payload length
// Package wavstream reads the fixed 44-byte stream descriptor that precedes
// raw PCM payload bytes.
//
// Only the sample rate (offset 24) and the sub-chunk-2 size (offset 40) are
// consumed. Identifiers and sizes are not validated: a corrupt header is
// misinterpreted rather than rejected.
//
// Example:
//
//	desc, h, err := wavstream.Open(storage.Dir("/media/usb"), "song.wav")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // could not start
//	}
//	defer h.Close()
//	// h is positioned at the first payload byte
package wavstream
