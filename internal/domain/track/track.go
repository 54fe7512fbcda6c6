// Package track provides the Track domain entity.
package track

import "time"

// MediaType classifies how a catalog item can be consumed.
type MediaType string

const (
	MediaTypeAudiobook MediaType = "AUDIOBOOK"
	MediaTypeRadio     MediaType = "RADIO"
	MediaTypeMusic     MediaType = "MUSIC"
	MediaTypeBook      MediaType = "BOOK" // text/PDF content, not playable
)

// Track represents a playable reference to a catalog item.
// Immutable once added to a queue.
type Track struct {
	ID        string        // Catalog item ID (stable, unique within a catalog)
	Title     string        // Display title
	Type      MediaType     // Media type tag
	Source    string        // Opaque source reference handed to the resolver
	ArtworkID string        // Display identifier for artwork lookup (optional)
	Duration  time.Duration // Known duration (zero for live streams)
}

// IsAudio reports whether the track can be handed to an audio player.
func (t *Track) IsAudio() bool {
	switch t.Type {
	case MediaTypeAudiobook, MediaTypeRadio, MediaTypeMusic:
		return true
	default:
		return false
	}
}

// AudioOnly filters tracks down to the audio-capable subset, preserving order.
func AudioOnly(tracks []Track) []Track {
	result := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.IsAudio() {
			result = append(result, t)
		}
	}
	return result
}

// IndexOf returns the position of the track with the given ID, or -1.
func IndexOf(tracks []Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
