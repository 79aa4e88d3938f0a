// Package notification provides the notification manager for broadcasting partition events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Kind identifies what happened to a partition.
type Kind string

const (
	KindSubscribed Kind = "subscribed"
	KindBuilt      Kind = "built"
	KindMoved      Kind = "moved"
	KindMerged     Kind = "merged"
	KindReassign   Kind = "reassigned"
	KindEvicted    Kind = "evicted"
)

// Event is sent to subscribers after a partition changes.
type Event struct {
	SequenceNo uint64    `json:"sequence_no"`
	PlaylistID string    `json:"playlist_id"`
	Kind       Kind      `json:"kind"`
	Revision   int       `json:"revision"`
	At         time.Time `json:"at"`
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(Event) error
}

// subscription represents a subscriber's subscription.
// An empty playlistID receives events for every playlist.
type subscription struct {
	id         string
	playlistID string
	stream     Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	sendTimeout   time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   500 * time.Millisecond,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(playlistID string, stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:         id,
		playlistID: playlistID,
		stream:     stream,
	}
	return id
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast sends an event to every subscriber watching its playlist.
// Each send runs in its own goroutine with a timeout so one slow stream
// cannot stall the rest. Subscribers whose send fails are dropped.
func (m *Manager) Broadcast(event Event) {
	event.SequenceNo = m.NextSequenceNo()
	if event.At.IsZero() {
		event.At = time.Now()
	}

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.playlistID == "" || sub.playlistID == event.PlaylistID {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(event)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Msgf("dropping subscriber %s", s.id)
					m.Unsubscribe(s.id)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("subscriber %s timed out on event %d", s.id, event.SequenceNo)
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
