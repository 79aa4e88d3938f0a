package sorter

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/genresort/internal/domain/partition"
	"github.com/osa030/genresort/internal/domain/track"
)

func tr(id, artist string) track.Track {
	return track.Track{URI: "spotify:track:" + id, Name: "Song " + id, ArtistName: artist}
}

func newPartition(playlistID string) *partition.Partition {
	p := partition.New(playlistID)
	p.Add("rock", tr("1", "A"))
	p.Add("rock", tr("2", "B"))
	p.Add("jazz", tr("3", "C"))
	p.Buckets[partition.UnknownGenre] = partition.Bucket{}
	return p
}

func TestStore_PutGet(t *testing.T) {
	s := NewStore(10)
	s.Put(newPartition("pl1"))

	got, err := s.Get("pl1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TrackCount())

	// Snapshots are detached from the stored partition.
	got.Buckets["rock"][0] = tr("x", "X")
	delete(got.Buckets, "jazz")

	again, err := s.Get("pl1")
	require.NoError(t, err)
	assert.Equal(t, "spotify:track:1", again.Buckets["rock"][0].URI)
	assert.True(t, again.Has("jazz"))
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore(10)
	_, err := s.Get("nope")
	assert.True(t, partition.IsNotFound(err))

	_, err = s.History("nope")
	assert.True(t, partition.IsNotFound(err))

	_, err = s.Update("nope", "move", func(p *partition.Partition) (string, error) { return "", nil })
	assert.True(t, partition.IsNotFound(err))
}

func TestStore_UpdateCommits(t *testing.T) {
	s := NewStore(10)
	built := s.Put(newPartition("pl1"))

	got, err := s.Update("pl1", "move", func(p *partition.Partition) (string, error) {
		_, err := p.MoveTrack("spotify:track:3", "jazz", "rock")
		return "moved 3", err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Revision)
	assert.Equal(t, built.ID, got.ID)
	assert.False(t, got.Has("jazz"))
	assert.False(t, got.UpdatedAt.Before(built.UpdatedAt))

	history, err := s.History("pl1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "build", history[0].Op)
	assert.Equal(t, Transition{Revision: 1, Op: "move", Summary: "moved 3", At: got.UpdatedAt}, history[1])
}

func TestStore_UpdateFailureLeavesPartitionUnchanged(t *testing.T) {
	s := NewStore(10)
	before := s.Put(newPartition("pl1"))

	_, err := s.Update("pl1", "merge", func(p *partition.Partition) (string, error) {
		// Partial work before failing must not leak.
		delete(p.Buckets, "rock")
		p.Add("jazz", tr("9", "Z"))
		return "", errors.New("boom")
	})
	require.Error(t, err)

	after, err := s.Get("pl1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	history, err := s.History("pl1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStore_PutReplaces(t *testing.T) {
	s := NewStore(10)
	first := s.Put(newPartition("pl1"))
	_, err := s.Update("pl1", "move", func(p *partition.Partition) (string, error) { return "", nil })
	require.NoError(t, err)

	second := s.Put(newPartition("pl1"))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 0, second.Revision)

	history, err := s.History("pl1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "build", history[0].Op)
	assert.Equal(t, 1, s.Len())
}

func TestStore_HistoryLimit(t *testing.T) {
	s := NewStore(3)
	s.Put(newPartition("pl1"))
	for i := 0; i < 5; i++ {
		_, err := s.Update("pl1", "move", func(p *partition.Partition) (string, error) {
			return fmt.Sprintf("step %d", i), nil
		})
		require.NoError(t, err)
	}

	history, err := s.History("pl1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{history[0].Revision, history[1].Revision, history[2].Revision})

	none := NewStore(0)
	none.Put(newPartition("pl1"))
	history, err = none.History("pl1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_Evict(t *testing.T) {
	s := NewStore(10)
	s.Put(newPartition("pl1"))
	s.Put(newPartition("pl2"))
	assert.Equal(t, []string{"pl1", "pl2"}, s.PlaylistIDs())

	assert.True(t, s.Evict("pl1"))
	assert.False(t, s.Evict("pl1"))

	_, err := s.Get("pl1")
	assert.True(t, partition.IsNotFound(err))
	assert.Equal(t, []string{"pl2"}, s.PlaylistIDs())
	assert.Equal(t, 1, s.Len())
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	s := NewStore(1000)
	s.Put(partition.New("pl1"))
	s.Put(partition.New("pl2"))

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		for _, id := range []string{"pl1", "pl2"} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				_, err := s.Update(id, "add", func(p *partition.Partition) (string, error) {
					p.Add("rock", tr(fmt.Sprint(i), "A"))
					return "", nil
				})
				assert.NoError(t, err)
			}(i, id)
		}
	}
	wg.Wait()

	for _, id := range []string{"pl1", "pl2"} {
		p, err := s.Get(id)
		require.NoError(t, err)
		assert.Equal(t, n, p.Revision)
		assert.Len(t, p.Buckets["rock"], n)
	}
}
