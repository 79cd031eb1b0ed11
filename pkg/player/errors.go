// ABOUTME: Sentinel errors for playback sessions
// ABOUTME: Returned by session commands issued in the wrong mode
package player

import "errors"

var (
	// ErrNoStream is returned when playing or controlling without a selected stream
	ErrNoStream = errors.New("no stream selected")

	// ErrFinished is returned for control commands on a finished session
	ErrFinished = errors.New("session finished")
)
