package sorter

import (
	"fmt"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/genresort/internal/app/notification"
	"github.com/osa030/genresort/internal/domain/partition"
)

// Notifier receives an event after every committed change.
type Notifier interface {
	Broadcast(event notification.Event)
}

// Mutator applies the structural operations to stored partitions.
type Mutator struct {
	store    *Store
	notifier Notifier
}

// NewMutator creates a new Mutator. notifier may be nil.
func NewMutator(store *Store, notifier Notifier) *Mutator {
	return &Mutator{
		store:    store,
		notifier: notifier,
	}
}

// MoveTrack moves one track into toGenre. fromGenre is only a lookup hint.
func (m *Mutator) MoveTrack(playlistID, uri, fromGenre, toGenre string) (*partition.Partition, partition.MoveResult, error) {
	var result partition.MoveResult
	p, err := m.store.Update(playlistID, "move", func(p *partition.Partition) (string, error) {
		r, err := p.MoveTrack(uri, fromGenre, toGenre)
		if err != nil {
			return "", err
		}
		result = r
		if r.Duplicate {
			return fmt.Sprintf("%s: %s -> %s (already present)", uri, r.From, r.To), nil
		}
		return fmt.Sprintf("%s: %s -> %s", uri, r.From, r.To), nil
	})
	m.finish("move", notification.KindMoved, playlistID, p, err)
	return p, result, err
}

// MergeGenres merges the listed buckets into one.
func (m *Mutator) MergeGenres(playlistID string, labels []string) (*partition.Partition, partition.MergeResult, error) {
	var result partition.MergeResult
	p, err := m.store.Update(playlistID, "merge", func(p *partition.Partition) (string, error) {
		r, err := p.MergeGenres(labels)
		if err != nil {
			return "", err
		}
		result = r
		return fmt.Sprintf("%s -> %q (%d tracks, %d duplicates removed)",
			strings.Join(r.Sources, ", "), r.Label, r.TrackCount, r.DuplicatesRemoved), nil
	})
	m.finish("merge", notification.KindMerged, playlistID, p, err)
	return p, result, err
}

// ReassignByArtist moves every track by artistName into newGenre.
func (m *Mutator) ReassignByArtist(playlistID, artistName, newGenre, currentGenre string) (*partition.Partition, partition.ReassignResult, error) {
	var result partition.ReassignResult
	p, err := m.store.Update(playlistID, "reassign", func(p *partition.Partition) (string, error) {
		r, err := p.ReassignByArtist(artistName, newGenre, currentGenre)
		if err != nil {
			return "", err
		}
		result = r
		return fmt.Sprintf("%s -> %s (%d moved, %d duplicates skipped)",
			r.Artist, r.Genre, r.Moved, r.DuplicatesSkipped), nil
	})
	m.finish("reassign", notification.KindReassign, playlistID, p, err)
	return p, result, err
}

func (m *Mutator) finish(op string, kind notification.Kind, playlistID string, p *partition.Partition, err error) {
	mutationsTotal.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		zlog.Debug().Str("playlist_id", playlistID).Err(err).Msgf("%s rejected", op)
		return
	}

	zlog.Info().Str("playlist_id", playlistID).Msgf("%s committed: revision=%d", op, p.Revision)
	if m.notifier != nil {
		m.notifier.Broadcast(notification.Event{
			PlaylistID: playlistID,
			Kind:       kind,
			Revision:   p.Revision,
			At:         p.UpdatedAt,
		})
	}
}
