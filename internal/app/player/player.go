// Package player defines the playback adapter contract over concrete media engines.
package player

import (
	"time"

	"github.com/osanai/playdeck/internal/domain/track"
)

// Adapter wraps a concrete media engine behind a uniform transport surface.
// An adapter is created for a single source, owned exclusively by the playback
// session, and released exactly once. After Release, all other methods are no-ops.
type Adapter interface {
	// Play starts or restarts playback.
	Play()

	// Pause pauses playback without releasing the underlying engine.
	Pause()

	// Seek moves the playback position. No-op for live streams.
	Seek(to time.Duration)

	// Position returns the current playback position.
	Position() time.Duration

	// Duration returns the total duration, or zero if unknown (live streams).
	Duration() time.Duration

	// OnCompletion registers a callback fired once when the source plays to its
	// natural end. Release unregisters it; a released adapter never fires.
	OnCompletion(fn func())

	// Release pauses the engine, unregisters the completion observer and frees
	// the underlying resources. Idempotent.
	Release()
}

// Factory constructs an adapter for a resolved stream URL.
// The returned adapter is not yet playing.
type Factory interface {
	New(url string, trk track.Track) (Adapter, error)
}
