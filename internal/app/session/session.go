package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osanai/playdeck/internal/app/player"
	"github.com/osanai/playdeck/internal/app/resolver"
	"github.com/osanai/playdeck/internal/domain/track"
)

// Errors
var (
	ErrInvalidPosition = errors.New("queue position out of range")
	ErrTrackNotFound   = errors.New("track not in playable context")
	ErrClosed          = errors.New("session is closed")
)

// ProgressSink receives fire-and-forget playback position updates.
// Implementations must not block the caller.
type ProgressSink interface {
	Record(trackID string, position, duration time.Duration)
}

// Config holds session configuration.
type Config struct {
	ResolveTimeout   time.Duration // Upper bound for a single stream resolution
	ProgressInterval time.Duration // Period of playback position sampling
}

const (
	defaultResolveTimeout   = 15 * time.Second
	defaultProgressInterval = time.Second
)

// Session is the process-wide playback session manager.
//
// It enforces the single-stream invariant: at most one player adapter is
// live at any instant, and starting any new source first tears down the
// previous adapter. All state is guarded by one mutex; asynchronous work
// (stream resolution, position sampling, completion callbacks) re-acquires
// it and is gated by a generation token so that a stale result arriving
// after a newer request cannot write state.
type Session struct {
	mu sync.Mutex

	// Collaborators
	resolver resolver.Resolver
	factory  player.Factory
	progress ProgressSink // may be nil

	// Queue and current-track state
	queue     Queue
	current   *track.Track
	adapter   player.Adapter
	playing   bool
	title     string
	artworkID string
	state     State

	// Generation token. Bumped on every playback request and on stopAll;
	// any async result carrying an older value is discarded on arrival.
	generation uint64

	// Position sampler teardown for the current adapter
	samplerCancel context.CancelFunc

	// Configuration
	config Config

	// Events and notification
	eventCh  chan Event
	notifier *notifier

	// Context
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// New creates a new playback session.
// progress may be nil when no position persistence is wanted.
func New(cfg Config, res resolver.Resolver, factory player.Factory, progress ProgressSink) *Session {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = defaultResolveTimeout
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		resolver: res,
		factory:  factory,
		progress: progress,
		state:    StateIdle,
		config:   cfg,
		eventCh:  make(chan Event, 16),
		notifier: newNotifier(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events returns the event channel.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// Subscribe registers a callback invoked with a state snapshot after every
// published state change. Returns a subscription ID for Unsubscribe.
func (s *Session) Subscribe(fn func(Snapshot)) string {
	return s.notifier.subscribe(fn)
}

// Unsubscribe removes a subscription.
func (s *Session) Unsubscribe(id string) {
	s.notifier.unsubscribe(id)
}

// Snapshot returns an immutable view of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// StartStream installs a freshly constructed adapter as the current one and
// starts playback. Any previously live adapter is torn down first, which is
// what keeps the single-stream invariant. The queue is not touched; callers
// that want queue bookkeeping go through PlayCurrent.
func (s *Session) StartStream(adapter player.Adapter, title, artworkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.installLocked(s.generation, adapter, nil, title, artworkID)
}

// StopAll stops playback, releases the current adapter, clears the queue and
// resets all published fields. Idempotent; safe to call when nothing plays.
// Any in-flight resolution is logically cancelled via the generation token.
func (s *Session) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.teardownAdapterLocked()
	s.queue.Clear()
	s.current = nil
	s.playing = false
	s.title = ""
	s.artworkID = ""
	s.state = StateIdle

	s.sendEventLocked(Event{Type: EventStopped, State: s.state})
	s.publishLocked()
}

// Pause pauses the current adapter. No-op when no adapter is live.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil || !s.playing {
		return
	}

	s.adapter.Pause()
	s.playing = false
	s.state = StatePaused
	s.sendEventLocked(Event{Type: EventStateChanged, Track: s.current, State: s.state})
	s.publishLocked()
}

// Resume resumes the current adapter. No-op when no adapter is live.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil || s.playing {
		return
	}

	s.adapter.Play()
	s.playing = true
	s.state = StatePlaying
	s.sendEventLocked(Event{Type: EventStateChanged, Track: s.current, State: s.state})
	s.publishLocked()
}

// Seek moves the playback position of the current adapter.
// No-op when no adapter is live.
func (s *Session) Seek(to time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return
	}
	s.adapter.Seek(to)
}

// Position returns the playback position of the current adapter, or zero.
func (s *Session) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return 0
	}
	return s.adapter.Position()
}

// SetQueue replaces the playback queue wholesale and positions the cursor
// at startIndex. Playback of the selected track starts on PlayCurrent.
func (s *Session) SetQueue(tracks []track.Track, startIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.SetTracks(tracks, startIndex)
	s.publishLocked()
}

// Append adds tracks to the end of the live queue.
func (s *Session) Append(tracks ...track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.Append(tracks...)
	s.publishLocked()
}

// PlayCurrent starts the resolve-and-play pipeline for the track at the
// queue cursor. Returns ErrInvalidPosition without touching state when the
// cursor is out of bounds. Resolution happens asynchronously; a later
// failure is reported on the event channel, not as a return value.
func (s *Session) PlayCurrent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playCurrentLocked()
}

// PlayPrevious moves the cursor back one position and plays it.
// No-op when there is no previous track.
func (s *Session) PlayPrevious() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.queue.Retreat() {
		zlog.Debug().Msg("session: play previous ignored, already at first track")
		return nil
	}
	return s.playCurrentLocked()
}

// PlayNext moves the cursor forward one position and plays it.
// No-op when there is no next track.
func (s *Session) PlayNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.queue.Advance() {
		zlog.Debug().Msg("session: play next ignored, already at last track")
		return nil
	}
	return s.playCurrentLocked()
}

// StartTrackInContext builds a queue from the audio-capable subset of
// allTracks, positions the cursor at trk, and starts playback. Returns
// ErrTrackNotFound without any state change when trk is absent from the
// filtered subset.
func (s *Session) StartTrackInContext(trk track.Track, allTracks []track.Track) error {
	playable := track.AudioOnly(allTracks)
	idx := track.IndexOf(playable, trk.ID)
	if idx < 0 {
		zlog.Warn().Msgf("session: track not in playable context: id=%s title=%s", trk.ID, trk.Title)
		return errors.Wrapf(ErrTrackNotFound, "track %s", trk.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.SetTracks(playable, idx)
	return s.playCurrentLocked()
}

// HasPrevious reports whether a track exists before the cursor.
func (s *Session) HasPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.HasPrevious()
}

// HasNext reports whether a track exists after the cursor.
func (s *Session) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.HasNext()
}

// QueueTracks returns a copy of the queued tracks.
func (s *Session) QueueTracks() []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Tracks()
}

// Close stops playback and releases session resources.
// The session is unusable afterwards.
func (s *Session) Close() {
	s.StopAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	close(s.eventCh)
}

// playCurrentLocked issues a resolution request for the track at the cursor.
// Must be called with lock held.
func (s *Session) playCurrentLocked() error {
	if s.closed {
		return ErrClosed
	}

	trk, ok := s.queue.Current()
	if !ok {
		zlog.Warn().Msgf("session: invalid queue position: cursor=%d length=%d",
			s.queue.Cursor(), s.queue.Len())
		return errors.Wrapf(ErrInvalidPosition, "cursor %d of %d", s.queue.Cursor(), s.queue.Len())
	}

	// Tear down whatever is playing before the new source resolves. The
	// generation bump logically cancels any resolution still in flight.
	s.generation++
	gen := s.generation
	s.teardownAdapterLocked()
	s.current = &trk
	s.playing = false
	s.state = StateResolving
	s.publishLocked()

	zlog.Debug().Msgf("session: resolving stream: track=%s gen=%d", trk.ID, gen)
	go s.resolveAndStart(gen, trk)

	return nil
}

// resolveAndStart runs the asynchronous half of the pipeline. The generation
// check on re-entry is a hard precondition: a stale resolution writes nothing.
// Resolution and adapter construction both run without the lock held; stream
// backends block on network I/O, and StopAll must never wait behind either.
func (s *Session) resolveAndStart(gen uint64, trk track.Track) {
	ctx, cancel := context.WithTimeout(s.ctx, s.config.ResolveTimeout)
	defer cancel()

	url, err := s.resolver.Resolve(ctx, trk)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		zlog.Debug().Msgf("session: discarding superseded resolution: track=%s gen=%d current=%d",
			trk.ID, gen, s.generation)
		return
	}
	if err != nil {
		zlog.Error().Err(err).Msgf("session: stream resolution failed: track=%s", trk.ID)
		s.state = StateIdle
		s.sendEventLocked(Event{Type: EventResolveFailed, Track: &trk, State: s.state})
		s.publishLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	adapter, err := s.factory.New(url, trk)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// Superseded while the adapter was being built. It never started,
		// so releasing it is the only cleanup needed.
		if adapter != nil {
			adapter.Release()
		}
		zlog.Debug().Msgf("session: discarding superseded adapter: track=%s gen=%d current=%d",
			trk.ID, gen, s.generation)
		return
	}

	if err != nil {
		zlog.Error().Err(err).Msgf("session: player construction failed: track=%s url=%s", trk.ID, url)
		s.state = StateIdle
		s.sendEventLocked(Event{Type: EventResolveFailed, Track: &trk, State: s.state})
		s.publishLocked()
		return
	}

	s.installLocked(gen, adapter, &trk, trk.Title, trk.ArtworkID)
}

// installLocked makes adapter the single live one and starts it.
// Must be called with lock held; gen must be the request's generation.
func (s *Session) installLocked(gen uint64, adapter player.Adapter, trk *track.Track, title, artworkID string) {
	s.teardownAdapterLocked()

	s.adapter = adapter
	s.current = trk
	s.title = title
	s.artworkID = artworkID

	adapter.OnCompletion(func() {
		s.onTrackCompleted(gen)
	})
	adapter.Play()

	s.playing = true
	s.state = StatePlaying
	s.startSamplerLocked(gen)

	zlog.Info().Msgf("session: playback started: title=%s gen=%d", title, gen)
	s.sendEventLocked(Event{Type: EventTrackStarted, Track: s.current, State: s.state})
	s.publishLocked()
}

// onTrackCompleted handles natural end-of-track. Auto-advances when a next
// track exists; otherwise clears the playing flag and stays at the last
// position.
func (s *Session) onTrackCompleted(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}

	ended := s.current
	s.sendEventLocked(Event{Type: EventTrackEnded, Track: ended, State: s.state})

	if s.queue.Advance() {
		_ = s.playCurrentLocked()
		return
	}

	// End of queue: release the dead adapter and drop the playing flag so
	// published state does not claim a stream that no longer exists.
	s.teardownAdapterLocked()
	s.playing = false
	s.state = StateIdle
	zlog.Info().Msgf("session: queue ended: cursor=%d length=%d", s.queue.Cursor(), s.queue.Len())
	s.sendEventLocked(Event{Type: EventQueueEnded, Track: ended, State: s.state})
	s.publishLocked()
}

// teardownAdapterLocked releases the current adapter, if any, and stops the
// position sampler. The adapter's completion observer is unregistered by
// Release, so a torn-down adapter can never fire completion.
// Must be called with lock held.
func (s *Session) teardownAdapterLocked() {
	if s.samplerCancel != nil {
		s.samplerCancel()
		s.samplerCancel = nil
	}
	if s.adapter != nil {
		s.adapter.Release()
		s.adapter = nil
	}
}

// startSamplerLocked starts the periodic position sampler for the current
// adapter. The sampler stops itself when the generation moves on.
// Must be called with lock held.
func (s *Session) startSamplerLocked(gen uint64) {
	if s.progress == nil {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.samplerCancel = cancel

	go func() {
		ticker := time.NewTicker(s.config.ProgressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.sampleProgress(gen) {
					return
				}
			}
		}
	}()
}

// sampleProgress records one position sample. Returns false once the
// generation has moved on and the sampler should stop.
func (s *Session) sampleProgress(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation || s.adapter == nil {
		s.mu.Unlock()
		return false
	}
	if !s.playing {
		s.mu.Unlock()
		return true
	}
	trackID := ""
	if s.current != nil {
		trackID = s.current.ID
	}
	pos := s.adapter.Position()
	dur := s.adapter.Duration()
	s.mu.Unlock()

	if trackID != "" {
		s.progress.Record(trackID, pos, dur)
	}
	return true
}

// snapshotLocked builds an immutable state snapshot.
// Must be called with lock held.
func (s *Session) snapshotLocked() Snapshot {
	var trk *track.Track
	if s.current != nil {
		c := *s.current
		trk = &c
	}
	return Snapshot{
		Track:       trk,
		Title:       s.title,
		ArtworkID:   s.artworkID,
		Playing:     s.playing,
		State:       s.state,
		Cursor:      s.queue.Cursor(),
		QueueLength: s.queue.Len(),
		HasPrevious: s.queue.HasPrevious(),
		HasNext:     s.queue.HasNext(),
	}
}

// publishLocked broadcasts the current snapshot to subscribers.
// Must be called with lock held.
func (s *Session) publishLocked() {
	s.notifier.broadcast(s.snapshotLocked())
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (s *Session) sendEventLocked(e Event) {
	if s.closed {
		return
	}
	select {
	case s.eventCh <- e:
	case <-s.ctx.Done():
	default:
		// Channel full, drop event
	}
}
