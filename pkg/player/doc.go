// Package player runs one echo playback session at a time.
//
// A Session selects a stream from storage, primes the feeder and starts a
// circular transfer on the output. The output's completion callbacks go
// through a Shim into a one-slot Mailbox; Process, polled from the main
// loop, takes the latest signal and lets the feeder refill the half that
// just finished playing.
//
// Example:
//
//	s, err := player.New(player.Config{Storage: storage.Dir("/music"), Output: out})
//	if err := s.Select("song.wav"); err != nil { ... }
//	if err := s.Play(); err != nil { ... }
//	err = s.Run(ctx, time.Millisecond)
package player
