// Package progress persists per-item listening progress as key-value JSON records.
package progress

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Record represents the stored progress for one catalog item.
type Record struct {
	Position  time.Duration `json:"position"`
	Duration  time.Duration `json:"duration"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store is a file-backed progress store keyed by item identifier.
// Writes are fire-and-forget: Record updates memory immediately and a
// background flusher persists dirty state, so playback sampling never
// blocks on disk.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
	dirty   bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

const flushInterval = 5 * time.Second

// Open loads (or creates) the store at path and starts the flusher.
func Open(path string) (*Store, error) {
	records := make(map[string]Record)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, errors.Wrapf(err, "failed to parse progress file %s", path)
		}
	case os.IsNotExist(err):
		// First run
	default:
		return nil, errors.Wrapf(err, "failed to read progress file %s", path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		path:    path,
		records: records,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

// Record stores the playback position for an item. Never blocks on I/O.
func (s *Store) Record(itemID string, position, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[itemID] = Record{
		Position:  position,
		Duration:  duration,
		UpdatedAt: time.Now(),
	}
	s.dirty = true
}

// Get returns the stored progress for an item.
func (s *Store) Get(itemID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[itemID]
	return rec, ok
}

// Close flushes pending state and stops the flusher.
func (s *Store) Close() error {
	s.cancel()
	<-s.done
	return s.flush()
}

func (s *Store) flushLoop() {
	defer close(s.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.flush(); err != nil {
				zlog.Error().Err(err).Msgf("progress: flush failed: path=%s", s.path)
			}
		}
	}
}

// flush writes the records to disk if anything changed since the last write.
func (s *Store) flush() error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.dirty = false
	s.mu.Unlock()

	if err != nil {
		return errors.Wrap(err, "failed to encode progress records")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write progress file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace progress file")
	}
	return nil
}
