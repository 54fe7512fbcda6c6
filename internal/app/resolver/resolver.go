// Package resolver defines the stream resolution contract.
package resolver

import (
	"context"

	"github.com/osanai/playdeck/internal/domain/track"
)

// Resolver turns a track's opaque source reference into a playable stream URL.
// A call is single-shot: a failure is terminal for that attempt and the session
// performs no retry of its own.
type Resolver interface {
	Resolve(ctx context.Context, trk track.Track) (string, error)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, trk track.Track) (string, error)

func (f Func) Resolve(ctx context.Context, trk track.Track) (string, error) {
	return f(ctx, trk)
}
