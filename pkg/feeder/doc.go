// Package feeder keeps a fixed two-half PCM buffer topped up from a stream
// while the output transport drains the other half.
//
// The transport signals which half it has finished with; Step refills that
// half from the source, optionally runs the echo over it and reports when
// the declared payload is exhausted. Next is the pure transition function
// behind Step and can be tested on its own.
package feeder
