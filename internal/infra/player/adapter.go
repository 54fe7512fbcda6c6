// Package player provides beep-backed playback adapter backends.
package player

import (
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

var (
	speakerMu          sync.Mutex
	speakerInitialized bool
)

// initSpeaker initializes the shared output device once, using the sample
// rate of the first decoded source.
func initSpeaker(format beep.Format) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerInitialized {
		return nil
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return err
	}
	speakerInitialized = true
	return nil
}

// adapter is the shared beep-based implementation behind both backends.
// The session owns it exclusively; Release is idempotent and a released
// adapter never fires its completion callback.
type adapter struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	format   beep.Format
	closer   io.Closer // underlying file or response body, may be nil

	ctrl       *beep.Ctrl
	onComplete func()
	started    bool
	released   bool
	live       bool // live stream: no seeking, unknown duration
}

func newAdapter(streamer beep.StreamSeekCloser, format beep.Format, closer io.Closer, live bool) *adapter {
	return &adapter{
		streamer: streamer,
		format:   format,
		closer:   closer,
		live:     live,
	}
}

// Play starts playback on first call and resumes on later ones.
func (a *adapter) Play() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return
	}

	if !a.started {
		a.ctrl = &beep.Ctrl{Streamer: a.streamer}
		speaker.Play(beep.Seq(a.ctrl, beep.Callback(a.fireCompletion)))
		a.started = true
		return
	}

	speaker.Lock()
	a.ctrl.Paused = false
	speaker.Unlock()
}

// Pause pauses playback without releasing the source.
func (a *adapter) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released || a.ctrl == nil {
		return
	}
	speaker.Lock()
	a.ctrl.Paused = true
	speaker.Unlock()
}

// Seek moves the playback position. No-op for live streams.
func (a *adapter) Seek(to time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released || a.live {
		return
	}
	speaker.Lock()
	_ = a.streamer.Seek(a.format.SampleRate.N(to))
	speaker.Unlock()
}

// Position returns the current playback position.
func (a *adapter) Position() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return 0
	}
	speaker.Lock()
	pos := a.streamer.Position()
	speaker.Unlock()
	return a.format.SampleRate.D(pos)
}

// Duration returns the total duration, or zero for live streams.
func (a *adapter) Duration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released || a.live {
		return 0
	}
	speaker.Lock()
	n := a.streamer.Len()
	speaker.Unlock()
	return a.format.SampleRate.D(n)
}

// OnCompletion registers the end-of-source callback. Must be called before
// Play. The callback fires on the engine's goroutine.
func (a *adapter) OnCompletion(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onComplete = fn
}

// Release stops output, unregisters the completion observer and closes the
// underlying source. Idempotent.
func (a *adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return
	}
	a.released = true
	a.onComplete = nil

	if a.started {
		// The session guarantees this is the only live streamer.
		speaker.Clear()
	}
	if a.streamer != nil {
		_ = a.streamer.Close()
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// fireCompletion runs when the source drains naturally. The mixer invokes it
// while holding the speaker mutex, so it must not touch a.mu in the calling
// goroutine: another goroutine may already hold a.mu inside Position/Pause
// waiting for the speaker mutex. The whole body runs detached; a late fire
// is harmless because Release unregisters the callback and the session's
// generation check discards stale completions.
func (a *adapter) fireCompletion() {
	go func() {
		a.mu.Lock()
		if a.released {
			a.mu.Unlock()
			return
		}
		fn := a.onComplete
		a.mu.Unlock()

		if fn != nil {
			fn()
		}
	}()
}
