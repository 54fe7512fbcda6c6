package session

import "github.com/osanai/playdeck/internal/domain/track"

// Queue is an ordered list of tracks with a current-position cursor.
// Insertion order is playback order. The cursor invariants
// hasPrevious == (cursor > 0) and hasNext == (cursor < len-1) are derived,
// never stored. Queue is not safe for concurrent use; the owning session
// serializes access.
type Queue struct {
	tracks []track.Track
	cursor int
}

// SetTracks replaces the queue wholesale and positions the cursor at startIndex.
func (q *Queue) SetTracks(tracks []track.Track, startIndex int) {
	q.tracks = make([]track.Track, len(tracks))
	copy(q.tracks, tracks)
	q.cursor = startIndex
}

// Append adds tracks to the end of the queue.
func (q *Queue) Append(tracks ...track.Track) {
	q.tracks = append(q.tracks, tracks...)
}

// Clear removes all tracks and resets the cursor.
func (q *Queue) Clear() {
	q.tracks = nil
	q.cursor = 0
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Cursor returns the current position index.
func (q *Queue) Cursor() int {
	return q.cursor
}

// Current returns the track at the cursor, or false if the cursor is out of
// bounds or the queue is empty.
func (q *Queue) Current() (track.Track, bool) {
	if q.cursor < 0 || q.cursor >= len(q.tracks) {
		return track.Track{}, false
	}
	return q.tracks[q.cursor], true
}

// HasPrevious reports whether a track exists before the cursor.
func (q *Queue) HasPrevious() bool {
	return len(q.tracks) > 0 && q.cursor > 0
}

// HasNext reports whether a track exists after the cursor.
func (q *Queue) HasNext() bool {
	return q.cursor < len(q.tracks)-1
}

// Retreat moves the cursor one position back.
// Returns false without moving when HasPrevious is false.
func (q *Queue) Retreat() bool {
	if !q.HasPrevious() {
		return false
	}
	q.cursor--
	return true
}

// Advance moves the cursor one position forward.
// Returns false without moving when HasNext is false.
func (q *Queue) Advance() bool {
	if !q.HasNext() {
		return false
	}
	q.cursor++
	return true
}

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []track.Track {
	result := make([]track.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}
