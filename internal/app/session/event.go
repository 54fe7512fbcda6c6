package session

import "github.com/osanai/playdeck/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted  EventType = iota // Track started playing
	EventTrackEnded                     // Track finished playing naturally
	EventStateChanged                   // Playback state changed (pause/resume)
	EventResolveFailed                  // Stream resolution returned no usable URL
	EventQueueEnded                     // Natural completion at the last queue position
	EventStopped                        // Playback fully stopped, queue cleared
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventStateChanged:
		return "state_changed"
	case EventResolveFailed:
		return "resolve_failed"
	case EventQueueEnded:
		return "queue_ended"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Affected track (nil for some events)
	State State        // Pipeline state after the transition
}
