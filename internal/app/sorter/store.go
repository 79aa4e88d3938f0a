// Package sorter holds the sorting sessions of playlists and serializes
// every change to their partitions.
package sorter

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/genresort/internal/domain/partition"
)

// Transition is one committed change to a partition.
type Transition struct {
	Revision int       `json:"revision"`
	Op       string    `json:"op"`
	Summary  string    `json:"summary"`
	At       time.Time `json:"at"`
}

// Mutation changes p in place and describes what it did.
// Returning an error discards every change made to p.
type Mutation func(p *partition.Partition) (summary string, err error)

// entry is one playlist's session. Its mutex serializes all access to the
// partition; sessions of different playlists never share a lock.
type entry struct {
	mu        sync.Mutex
	partition *partition.Partition
	history   []Transition
	evicted   bool
}

// Store keeps the current partition of every playlist being sorted.
type Store struct {
	mu           sync.RWMutex
	entries      map[string]*entry
	historyLimit int
}

// NewStore creates a new Store keeping at most historyLimit transitions per
// playlist (0 keeps none).
func NewStore(historyLimit int) *Store {
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &Store{
		entries:      make(map[string]*entry),
		historyLimit: historyLimit,
	}
}

// Put stores p as the playlist's partition, replacing any previous one and
// its history.
func (s *Store) Put(p *partition.Partition) *partition.Partition {
	s.mu.Lock()
	e, ok := s.entries[p.PlaylistID]
	if !ok {
		e = &entry{}
		s.entries[p.PlaylistID] = e
	}
	// Take the entry before releasing the map so a concurrent Evict
	// cannot detach it in between.
	e.mu.Lock()
	s.mu.Unlock()
	defer e.mu.Unlock()
	e.partition = p.Clone()
	e.history = nil
	e.evicted = false
	e.record(Transition{
		Revision: p.Revision,
		Op:       "build",
		Summary:  buildSummary(p),
		At:       p.UpdatedAt,
	}, s.historyLimit)
	return e.partition.Clone()
}

// Get returns a snapshot of the playlist's partition.
func (s *Store) Get(playlistID string) (*partition.Partition, error) {
	e, err := s.lock(playlistID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.partition.Clone(), nil
}

// Update applies fn to a copy of the playlist's partition and commits the
// copy only if fn succeeds. A commit bumps the revision, stamps UpdatedAt
// and appends a transition. Updates of one playlist run one at a time.
func (s *Store) Update(playlistID, op string, fn Mutation) (*partition.Partition, error) {
	e, err := s.lock(playlistID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	next := e.partition.Clone()
	summary, err := fn(next)
	if err != nil {
		return nil, err
	}

	next.Revision = e.partition.Revision + 1
	next.UpdatedAt = time.Now()
	e.partition = next
	e.record(Transition{
		Revision: next.Revision,
		Op:       op,
		Summary:  summary,
		At:       next.UpdatedAt,
	}, s.historyLimit)

	return next.Clone(), nil
}

// History returns the playlist's transitions, oldest first.
func (s *Store) History(playlistID string) ([]Transition, error) {
	e, err := s.lock(playlistID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return append([]Transition{}, e.history...), nil
}

// Evict ends the playlist's session. It reports whether one existed.
func (s *Store) Evict(playlistID string) bool {
	s.mu.Lock()
	e, ok := s.entries[playlistID]
	delete(s.entries, playlistID)
	s.mu.Unlock()
	if !ok {
		return false
	}

	// Wait for an in-flight update, then invalidate holders of e.
	e.mu.Lock()
	e.evicted = true
	e.partition = nil
	e.history = nil
	e.mu.Unlock()
	return true
}

// Len returns the number of playlists with a session.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// PlaylistIDs returns the playlists with a session, sorted.
func (s *Store) PlaylistIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// lock returns the playlist's entry with its mutex held.
func (s *Store) lock(playlistID string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[playlistID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(partition.ErrNotFound, "no partition for playlist %s", playlistID)
	}

	e.mu.Lock()
	if e.evicted {
		e.mu.Unlock()
		return nil, errors.Wrapf(partition.ErrNotFound, "no partition for playlist %s", playlistID)
	}
	return e, nil
}

func buildSummary(p *partition.Partition) string {
	return fmt.Sprintf("%d tracks in %d genres, %d unresolved artists",
		p.TrackCount(), len(p.Buckets), len(p.Unresolved))
}

func (e *entry) record(t Transition, limit int) {
	if limit == 0 {
		return
	}
	e.history = append(e.history, t)
	if over := len(e.history) - limit; over > 0 {
		e.history = append([]Transition(nil), e.history[over:]...)
	}
}
