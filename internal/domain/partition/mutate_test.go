package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/genresort/internal/domain/track"
)

func TestMoveTrack(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		from      string
		to        string
		wantFrom  string
		wantDup   bool
		wantRock  []string
		wantJazz  []string
		wantCount int
	}{
		{
			name:      "move with hint",
			uri:       "spotify:track:a",
			from:      "rock",
			to:        "jazz",
			wantFrom:  "rock",
			wantRock:  []string{"spotify:track:b"},
			wantJazz:  []string{"spotify:track:c", "spotify:track:a"},
			wantCount: 3,
		},
		{
			name:      "move without hint scans all buckets",
			uri:       "spotify:track:c",
			to:        "rock",
			wantFrom:  "jazz",
			wantRock:  []string{"spotify:track:a", "spotify:track:b", "spotify:track:c"},
			wantJazz:  nil,
			wantCount: 3,
		},
		{
			name:      "wrong hint falls back to scan",
			uri:       "spotify:track:c",
			from:      "rock",
			to:        "pop",
			wantFrom:  "jazz",
			wantRock:  []string{"spotify:track:a", "spotify:track:b"},
			wantJazz:  nil,
			wantCount: 3,
		},
		{
			name:      "unknown hint bucket falls back to scan",
			uri:       "spotify:track:b",
			from:      "metal",
			to:        "jazz",
			wantFrom:  "rock",
			wantRock:  []string{"spotify:track:a"},
			wantJazz:  []string{"spotify:track:c", "spotify:track:b"},
			wantCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture(map[string][]track.Track{
				"rock": {tr("a", "X"), tr("b", "Y")},
				"jazz": {tr("c", "Z")},
			})

			res, err := p.MoveTrack(tt.uri, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, res.From)
			assert.Equal(t, tt.to, res.To)
			assert.Equal(t, tt.wantDup, res.Duplicate)
			assert.Equal(t, tt.uri, res.Track.URI)

			assert.Equal(t, tt.wantRock, urisOrNil(p, "rock"))
			assert.Equal(t, tt.wantJazz, urisOrNil(p, "jazz"))
			assert.Equal(t, tt.wantCount, p.TrackCount())
		})
	}
}

func TestMoveTrack_NotFound(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X")},
	})
	before := p.Clone()

	_, err := p.MoveTrack("spotify:track:missing", "rock", "jazz")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, before.Buckets, p.Buckets)
}

func TestMoveTrack_InvalidInput(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X")},
	})

	_, err := p.MoveTrack("", "rock", "jazz")
	assert.True(t, IsInvalidInput(err))

	_, err = p.MoveTrack("spotify:track:a", "rock", "  ")
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, []string{"spotify:track:a"}, p.Buckets["rock"].URIs())
}

func TestMoveTrack_DuplicateInTarget(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X"), tr("b", "X")},
		"jazz": {tr("a", "X")},
	})

	res, err := p.MoveTrack("spotify:track:a", "rock", "jazz")
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Len(t, p.Buckets["jazz"], 1, "target size must be unchanged")
	assert.Equal(t, []string{"spotify:track:b"}, p.Buckets["rock"].URIs(), "source shrinks by one")
}

func TestMoveTrack_RoundTrip(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X"), tr("b", "Y")},
		"jazz": {tr("c", "Z")},
	})

	_, err := p.MoveTrack("spotify:track:a", "rock", "jazz")
	require.NoError(t, err)
	_, err = p.MoveTrack("spotify:track:a", "jazz", "rock")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"spotify:track:a", "spotify:track:b"}, p.Buckets["rock"].URIs())
	assert.Equal(t, []string{"spotify:track:c"}, p.Buckets["jazz"].URIs())
}

func TestMoveTrack_EmptiedBuckets(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock":       {tr("a", "X")},
		UnknownGenre: {tr("b", "Y")},
	})

	_, err := p.MoveTrack("spotify:track:a", "", "jazz")
	require.NoError(t, err)
	assert.False(t, p.Has("rock"), "emptied bucket is dropped")

	_, err = p.MoveTrack("spotify:track:b", "", "jazz")
	require.NoError(t, err)
	assert.True(t, p.Has(UnknownGenre), "unknown bucket is only removed by merge")
	assert.Empty(t, p.Buckets[UnknownGenre])
}

func TestMergeGenres(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X"), tr("b", "Y")},
		"jazz": {tr("b", "Y"), tr("c", "Z")},
		"pop":  {tr("d", "W")},
	})

	res, err := p.MergeGenres([]string{"rock", "jazz"})
	require.NoError(t, err)

	assert.Equal(t, "jazz + rock", res.Label)
	assert.Equal(t, []string{"rock", "jazz"}, res.Sources)
	assert.Empty(t, res.Missing)
	assert.Equal(t, 1, res.DuplicatesRemoved)
	assert.Equal(t, 3, res.TrackCount)
	assert.Equal(t,
		[]string{"spotify:track:a", "spotify:track:b", "spotify:track:c"},
		p.Buckets["jazz + rock"].URIs())
	assert.False(t, p.Has("rock"))
	assert.False(t, p.Has("jazz"))
	assert.True(t, p.Has("pop"))
}

func TestMergeGenres_LabelOrderDrivesTrackOrder(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X")},
		"jazz": {tr("c", "Z")},
	})

	res, err := p.MergeGenres([]string{"jazz", "rock"})
	require.NoError(t, err)
	assert.Equal(t, "jazz + rock", res.Label)
	assert.Equal(t, []string{"spotify:track:c", "spotify:track:a"}, p.Buckets[res.Label].URIs())
}

func TestMergeGenres_PartiallyMissing(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "X")},
	})

	res, err := p.MergeGenres([]string{"rock", "metal"})
	require.NoError(t, err)
	assert.Equal(t, "metal + rock", res.Label)
	assert.Equal(t, []string{"metal"}, res.Missing)
	assert.Equal(t, []string{"spotify:track:a"}, p.Buckets["metal + rock"].URIs())
	assert.False(t, p.Has("rock"))
}

func TestMergeGenres_IntoExistingMergedBucket(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"jazz + rock": {tr("a", "X")},
		"rock":        {tr("a", "X"), tr("b", "Y")},
		"jazz":        {tr("c", "Z")},
	})

	res, err := p.MergeGenres([]string{"rock", "jazz"})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"spotify:track:a", "spotify:track:b", "spotify:track:c"},
		p.Buckets["jazz + rock"].URIs())
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

func TestMergeGenres_Errors(t *testing.T) {
	tests := []struct {
		name        string
		labels      []string
		wantInvalid bool
		wantMissing bool
	}{
		{name: "single label", labels: []string{"rock"}, wantInvalid: true},
		{name: "no labels", labels: nil, wantInvalid: true},
		{name: "same label twice", labels: []string{"rock", "rock"}, wantInvalid: true},
		{name: "empty label", labels: []string{"rock", ""}, wantInvalid: true},
		{name: "all nonexistent", labels: []string{"metal", "folk"}, wantMissing: true},
		{name: "existing but empty", labels: []string{UnknownGenre, "folk"}, wantMissing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture(map[string][]track.Track{
				"rock":       {tr("a", "X")},
				UnknownGenre: {},
			})
			before := p.Clone()

			_, err := p.MergeGenres(tt.labels)
			require.Error(t, err)
			assert.Equal(t, tt.wantInvalid, IsInvalidInput(err))
			assert.Equal(t, tt.wantMissing, IsNotFound(err))
			assert.Equal(t, before.Buckets, p.Buckets, "failed merge must not mutate")
		})
	}
}

func TestMergeGenres_RemovesUnknownExplicitly(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock":       {tr("a", "X")},
		UnknownGenre: {tr("b", "Y")},
	})

	res, err := p.MergeGenres([]string{UnknownGenre, "rock"})
	require.NoError(t, err)
	assert.Equal(t, "rock + unknown", res.Label)
	assert.False(t, p.Has(UnknownGenre))
}

func TestReassignByArtist(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock":       {tr("a", "Queen"), tr("b", "Other")},
		"pop":        {tr("c", "queen")},
		UnknownGenre: {tr("d", "QUEEN")},
	})

	res, err := p.ReassignByArtist("Queen", "glam rock", "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Moved)
	assert.Zero(t, res.DuplicatesSkipped)
	assert.Equal(t, []string{"pop", "rock", UnknownGenre}, res.Sources)

	assert.ElementsMatch(t,
		[]string{"spotify:track:a", "spotify:track:c", "spotify:track:d"},
		p.Buckets["glam rock"].URIs())
	assert.Equal(t, []string{"spotify:track:b"}, p.Buckets["rock"].URIs())
	assert.False(t, p.Has("pop"))
	assert.True(t, p.Has(UnknownGenre))
	assert.Equal(t, 4, p.TrackCount())
}

func TestReassignByArtist_CurrentGenreScope(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "Queen")},
		"pop":  {tr("c", "Queen")},
	})

	res, err := p.ReassignByArtist("queen", "jazz", "rock")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, []string{"spotify:track:c"}, p.Buckets["pop"].URIs())
	assert.Equal(t, []string{"spotify:track:a"}, p.Buckets["jazz"].URIs())
}

func TestReassignByArtist_MissingCurrentGenreSearchesAll(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "Queen")},
		"pop":  {tr("c", "Queen")},
	})

	res, err := p.ReassignByArtist("queen", "jazz", "metal")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Moved)
}

func TestReassignByArtist_TargetExcluded(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "Queen")},
	})
	before := p.Clone()

	_, err := p.ReassignByArtist("Queen", "rock", "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, before.Buckets, p.Buckets)
}

func TestReassignByArtist_SecondCallNotFound(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "Queen"), tr("b", "Queen")},
	})

	_, err := p.ReassignByArtist("Queen", "glam", "")
	require.NoError(t, err)
	after := p.Clone()

	_, err = p.ReassignByArtist("Queen", "glam", "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, after.Buckets, p.Buckets, "second call must not mutate")
}

func TestReassignByArtist_DuplicateInTarget(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "Queen")},
		"glam": {tr("a", "Queen")},
	})

	res, err := p.ReassignByArtist("Queen", "glam", "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, 1, res.DuplicatesSkipped)
	assert.Len(t, p.Buckets["glam"], 1)
	assert.False(t, p.Has("rock"))
}

func TestReassignByArtist_InvalidInput(t *testing.T) {
	p := fixture(map[string][]track.Track{
		"rock": {tr("a", "Queen")},
	})

	_, err := p.ReassignByArtist("", "glam", "")
	assert.True(t, IsInvalidInput(err))

	_, err = p.ReassignByArtist("Queen", "", "")
	assert.True(t, IsInvalidInput(err))
}

func urisOrNil(p *Partition, label string) []string {
	b, ok := p.Buckets[label]
	if !ok {
		return nil
	}
	return b.URIs()
}
