package genre

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/genresort/internal/domain/partition"
	"github.com/osa030/genresort/internal/domain/track"
)

// Builder produces the initial partition of a playlist.
// Each track goes to exactly one bucket: its primary artist's first genre
// tag, or partition.UnknownGenre when the artist has none.
type Builder struct {
	resolver *Resolver
	fallback *Fallback // optional
}

// NewBuilder creates a new Builder. fallback may be nil.
func NewBuilder(resolver *Resolver, fallback *Fallback) *Builder {
	return &Builder{
		resolver: resolver,
		fallback: fallback,
	}
}

// Build partitions sources by primary genre, keeping input order within
// each bucket. Sources without a primary artist are skipped.
func (b *Builder) Build(ctx context.Context, playlistID string, sources []track.Source) *partition.Partition {
	artists := make([]Artist, 0)
	seen := make(map[string]bool)
	kept := make([]track.Source, 0, len(sources))
	for _, s := range sources {
		if !s.HasArtist() {
			continue
		}
		kept = append(kept, s)
		if !seen[s.ArtistID] {
			seen[s.ArtistID] = true
			artists = append(artists, Artist{ID: s.ArtistID, Name: s.Track.ArtistName})
		}
	}

	ids := make([]string, len(artists))
	for i, a := range artists {
		ids[i] = a.ID
	}
	res := b.resolver.Resolve(ctx, ids)
	if b.fallback != nil {
		b.fallback.Fill(ctx, artists, &res)
	}

	p := partition.New(playlistID)
	p.Unresolved = res.Unresolved
	for _, s := range kept {
		p.Add(primaryGenre(res.Tags(s.ArtistID)), s.Track)
	}

	zlog.Info().Msgf("built partition: playlist=%s tracks=%d skipped=%d genres=%d unresolved_artists=%d",
		playlistID, len(kept), len(sources)-len(kept), len(p.Buckets), len(res.Unresolved))

	return p
}

func primaryGenre(tags []string) string {
	if len(tags) == 0 || tags[0] == "" {
		return partition.UnknownGenre
	}
	return tags[0]
}
