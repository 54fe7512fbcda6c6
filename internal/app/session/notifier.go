package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/osanai/playdeck/internal/domain/track"
)

// Snapshot is an immutable view of the published session state.
// Consumers read snapshots; they never hold a mutation right.
type Snapshot struct {
	Track       *track.Track // Copy of the current track (nil when idle)
	Title       string
	ArtworkID   string
	Playing     bool
	State       State
	Cursor      int
	QueueLength int
	HasPrevious bool
	HasNext     bool
}

// subscription represents a subscriber's callback registration.
type subscription struct {
	id string
	fn func(Snapshot)
}

// notifier broadcasts state snapshots to registered subscribers.
type notifier struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

func newNotifier() *notifier {
	return &notifier{
		subscriptions: make(map[string]*subscription),
	}
}

// subscribe adds a new subscription and returns the subscription ID.
func (n *notifier) subscribe(fn func(Snapshot)) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New().String()
	n.subscriptions[id] = &subscription{id: id, fn: fn}
	return id
}

// unsubscribe removes a subscription.
func (n *notifier) unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscriptions, id)
}

// broadcast delivers a snapshot to all subscribers.
// Callbacks run on their own goroutines so a slow subscriber cannot block
// session state transitions.
func (n *notifier) broadcast(snap Snapshot) {
	n.mu.RLock()
	subs := make([]*subscription, 0, len(n.subscriptions))
	for _, sub := range n.subscriptions {
		subs = append(subs, sub)
	}
	n.mu.RUnlock()

	for _, sub := range subs {
		go sub.fn(snap)
	}
}
