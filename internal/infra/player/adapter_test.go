package player

import (
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

type stubStreamer struct {
	pos    int
	closed bool
}

func (s *stubStreamer) Stream(samples [][2]float64) (int, bool) { return len(samples), true }
func (s *stubStreamer) Err() error                              { return nil }
func (s *stubStreamer) Len() int                                { return 44100 }
func (s *stubStreamer) Position() int                           { return s.pos }
func (s *stubStreamer) Seek(p int) error                        { s.pos = p; return nil }
func (s *stubStreamer) Close() error                            { s.closed = true; return nil }

func testFormat() beep.Format {
	return beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
}

// The mixer invokes completion callbacks with the speaker mutex held, while
// Position and friends take the adapter mutex and then the speaker mutex.
// fireCompletion must return without waiting on the adapter mutex, even
// when another goroutine sits inside Position holding it.
func TestAdapter_CompletionFromMixerDoesNotDeadlock(t *testing.T) {
	a := newAdapter(&stubStreamer{}, testFormat(), nil, false)

	completed := make(chan struct{})
	a.OnCompletion(func() { close(completed) })

	speaker.Lock()

	posDone := make(chan struct{})
	go func() {
		a.Position() // takes a.mu, then blocks on the speaker mutex
		close(posDone)
	}()
	time.Sleep(50 * time.Millisecond)

	fired := make(chan struct{})
	go func() {
		a.fireCompletion() // as the mixer would, under the speaker mutex
		close(fired)
	}()

	select {
	case <-fired:
	case <-time.After(time.Second):
		speaker.Unlock()
		t.Fatal("fireCompletion blocked while the speaker mutex was held")
	}

	speaker.Unlock()

	select {
	case <-posDone:
	case <-time.After(time.Second):
		t.Fatal("Position never returned")
	}
	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("completion callback never ran")
	}
}

func TestAdapter_ReleasedAdapterNeverFires(t *testing.T) {
	a := newAdapter(&stubStreamer{}, testFormat(), nil, false)

	fired := make(chan struct{}, 1)
	a.OnCompletion(func() { fired <- struct{}{} })
	a.Release()
	a.fireCompletion()

	select {
	case <-fired:
		t.Fatal("released adapter fired completion")
	case <-time.After(100 * time.Millisecond):
	}
}
