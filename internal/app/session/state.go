// Package session provides the global playback session manager.
//
// The session owns at most one live player adapter at any instant, drives an
// ordered playback queue with previous/next navigation, and runs the
// resolve-and-play pipeline that turns a queued track into audible playback.
package session

// State represents the resolve-and-play pipeline state.
type State int

const (
	StateIdle      State = iota // No track playing (queue empty or stopped)
	StateResolving              // A stream URL lookup is in flight
	StatePlaying                // Track is playing
	StatePaused                 // Track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
