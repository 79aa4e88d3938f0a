package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/genresort/internal/domain/track"
)

func tr(id, artist string) track.Track {
	return track.Track{URI: "spotify:track:" + id, Name: "Song " + id, ArtistName: artist}
}

// fixture builds a partition from label -> tracks.
func fixture(buckets map[string][]track.Track) *Partition {
	p := New("playlist-1")
	for label, tracks := range buckets {
		p.Buckets[label] = Bucket{}
		for _, t := range tracks {
			p.Add(label, t)
		}
	}
	return p
}

func TestPartition_Add(t *testing.T) {
	p := New("playlist-1")

	assert.True(t, p.Add("rock", tr("a", "X")))
	assert.True(t, p.Add("rock", tr("b", "X")))
	assert.False(t, p.Add("rock", tr("a", "X")), "duplicate URI must be rejected")
	assert.True(t, p.Add("jazz", tr("a", "X")))

	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, p.Buckets["rock"].URIs())
	assert.Equal(t, 3, p.TrackCount())
	assert.Equal(t, []string{"jazz", "rock"}, p.Labels())
}

func TestPartition_New(t *testing.T) {
	p1 := New("playlist-1")
	p2 := New("playlist-1")

	assert.NotEmpty(t, p1.ID)
	assert.NotEqual(t, p1.ID, p2.ID)
	assert.Equal(t, "playlist-1", p1.PlaylistID)
	assert.Empty(t, p1.Buckets)
	assert.Zero(t, p1.Revision)
}

func TestPartition_TrackURIs(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X"), tr("b", "Y")},
	})

	uris, err := p.TrackURIs("rock")
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, uris)

	_, err = p.TrackURIs("jazz")
	assert.True(t, IsNotFound(err))
}

func TestPartition_Clone(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X")},
	})
	p.Unresolved = []string{"artist-1"}

	c := p.Clone()
	c.Add("rock", tr("b", "X"))
	c.Buckets["jazz"] = Bucket{tr("c", "Z")}
	c.Unresolved[0] = "changed"

	assert.Equal(t, p.ID, c.ID)
	assert.Len(t, p.Buckets["rock"], 1)
	assert.False(t, p.Has("jazz"))
	assert.Equal(t, "artist-1", p.Unresolved[0])
}

func TestMergedLabel(t *testing.T) {
	assert.Equal(t, "jazz + rock", MergedLabel([]string{"rock", "jazz"}))
	assert.Equal(t, "a + b + c", MergedLabel([]string{"c", "a", "b"}))
}
