// ABOUTME: Refill state machine for the double buffer
// ABOUTME: States, completion signals, actions and the pure transition table
package feeder

import "fmt"

// State is the position of the refill state machine
type State int

const (
	Idle State = iota
	AwaitingFirstHalf
	AwaitingSecondHalf
	EndOfStream
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingFirstHalf:
		return "awaiting-first-half"
	case AwaitingSecondHalf:
		return "awaiting-second-half"
	case EndOfStream:
		return "end-of-stream"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Signal is a transport completion event. SignalNone means nothing arrived.
type Signal int32

const (
	SignalNone Signal = iota
	SignalFirstHalf
	SignalSecondHalf
)

func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalFirstHalf:
		return "first-half"
	case SignalSecondHalf:
		return "second-half"
	default:
		return fmt.Sprintf("Signal(%d)", int32(s))
	}
}

// Action is the work Step performs after a transition
type Action int

const (
	ActionNone Action = iota
	ActionRefillFirst
	ActionRefillSecond
	ActionFinish
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRefillFirst:
		return "refill-first"
	case ActionRefillSecond:
		return "refill-second"
	case ActionFinish:
		return "finish"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Next returns the state entered and the action to run when sig is
// observed in s. Pairs without a rule leave the state unchanged.
func Next(s State, sig Signal) (State, Action) {
	switch s {
	case Idle:
		switch sig {
		case SignalFirstHalf:
			return AwaitingFirstHalf, ActionRefillFirst
		case SignalSecondHalf:
			return AwaitingSecondHalf, ActionRefillSecond
		}
	case EndOfStream:
		return Idle, ActionFinish
	}
	return s, ActionNone
}
