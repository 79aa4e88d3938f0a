package sorter

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/genresort/internal/app/notification"
	"github.com/osa030/genresort/internal/domain/partition"
	"github.com/osa030/genresort/internal/domain/playlist"
	"github.com/osa030/genresort/internal/domain/track"
	"github.com/osa030/genresort/internal/infra/config"
)

// PlaylistSource reads the user's playlists.
type PlaylistSource interface {
	ListPlaylists(ctx context.Context) ([]playlist.Playlist, error)
	GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error)
}

// Exporter writes a bucket out as a new playlist.
type Exporter interface {
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
	GetPlaylistURL(playlistID string) string
}

// PartitionBuilder produces the initial partition of a playlist.
type PartitionBuilder interface {
	Build(ctx context.Context, playlistID string, sources []track.Source) *partition.Partition
}

// ExportResult describes a playlist created from a bucket.
type ExportResult struct {
	PlaylistID string
	URL        string
	Name       string
	TrackCount int
}

// Service is the entry point of the transport layer into sorting sessions.
type Service struct {
	config   *config.Config
	source   PlaylistSource
	exporter Exporter
	builder  PartitionBuilder
	store    *Store
	mutator  *Mutator
	notifier *notification.Manager
}

// NewService creates a new Service.
func NewService(
	cfg *config.Config,
	source PlaylistSource,
	exporter Exporter,
	builder PartitionBuilder,
	notifier *notification.Manager,
) *Service {
	if notifier == nil {
		notifier = notification.NewManager()
	}
	store := NewStore(cfg.HistoryLimit())
	return &Service{
		config:   cfg,
		source:   source,
		exporter: exporter,
		builder:  builder,
		store:    store,
		mutator:  NewMutator(store, notifier),
		notifier: notifier,
	}
}

// ListPlaylists returns the user's playlists.
func (s *Service) ListPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	playlists, err := s.source.ListPlaylists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}
	return playlists, nil
}

// SortPlaylist fetches a playlist and builds its partition, replacing any
// partition the playlist already had. playlistURL may be a URL, URI or ID.
func (s *Service) SortPlaylist(ctx context.Context, playlistURL string) (*partition.Partition, error) {
	pl, err := s.source.GetPlaylist(ctx, playlistURL)
	if err != nil {
		buildsTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "failed to fetch playlist")
	}
	return s.build(ctx, pl.ID, pl.Name, pl.Sources)
}

// BuildPartition builds and stores the partition of already fetched sources.
func (s *Service) BuildPartition(ctx context.Context, playlistID string, sources []track.Source) (*partition.Partition, error) {
	if playlistID == "" {
		return nil, errors.Wrap(partition.ErrInvalidInput, "playlist id is required")
	}
	return s.build(ctx, playlistID, "", sources)
}

func (s *Service) build(ctx context.Context, playlistID, name string, sources []track.Source) (*partition.Partition, error) {
	start := time.Now()
	p := s.builder.Build(ctx, playlistID, sources)
	// A canceled build may have degraded every lookup to unknown; keep the current session.
	if err := ctx.Err(); err != nil {
		buildsTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "build canceled")
	}
	p.PlaylistName = name
	buildDuration.Observe(time.Since(start).Seconds())
	buildsTotal.WithLabelValues("ok").Inc()
	unresolvedArtists.Add(float64(len(p.Unresolved)))

	snapshot := s.store.Put(p)
	activeSessions.Set(float64(s.store.Len()))

	zlog.Info().Str("playlist_id", playlistID).Msgf("sorting session started: genres=%d tracks=%d",
		len(snapshot.Buckets), snapshot.TrackCount())
	s.publish(notification.KindBuilt, snapshot)
	return snapshot, nil
}

// GetPartition returns the playlist's current partition.
func (s *Service) GetPartition(playlistID string) (*partition.Partition, error) {
	return s.store.Get(playlistID)
}

// MoveTrack moves one track into toGenre.
func (s *Service) MoveTrack(playlistID, trackURI, fromGenre, toGenre string) (*partition.Partition, partition.MoveResult, error) {
	return s.mutator.MoveTrack(playlistID, trackURI, fromGenre, toGenre)
}

// MergeGenres merges the listed genres into one bucket.
func (s *Service) MergeGenres(playlistID string, labels []string) (*partition.Partition, partition.MergeResult, error) {
	return s.mutator.MergeGenres(playlistID, labels)
}

// ReassignByArtist moves every track by an artist into newGenre.
func (s *Service) ReassignByArtist(playlistID, artistName, newGenre, currentGenre string) (*partition.Partition, partition.ReassignResult, error) {
	return s.mutator.ReassignByArtist(playlistID, artistName, newGenre, currentGenre)
}

// BucketTrackURIs returns the ordered track URIs of one genre.
func (s *Service) BucketTrackURIs(playlistID, genre string) ([]string, error) {
	p, err := s.store.Get(playlistID)
	if err != nil {
		return nil, err
	}
	return p.TrackURIs(genre)
}

// ExportBucket creates a new playlist holding one genre's tracks. An empty
// name is derived from the export name template.
func (s *Service) ExportBucket(ctx context.Context, playlistID, genre, name string) (*ExportResult, error) {
	res, err := s.exportBucket(ctx, playlistID, genre, name)
	exportsTotal.WithLabelValues(outcome(err)).Inc()
	return res, err
}

func (s *Service) exportBucket(ctx context.Context, playlistID, genre, name string) (*ExportResult, error) {
	p, err := s.store.Get(playlistID)
	if err != nil {
		return nil, err
	}
	uris, err := p.TrackURIs(genre)
	if err != nil {
		return nil, err
	}
	if len(uris) == 0 {
		return nil, errors.Wrapf(partition.ErrInvalidInput, "genre %q has no tracks", genre)
	}
	if name == "" {
		name = s.config.ExportName(genre, p.PlaylistName)
	}

	newID, err := s.exporter.CreatePlaylist(ctx, name, s.config.Export.Description, s.config.Export.Public)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create playlist")
	}
	if err := s.exporter.AddTracksToPlaylist(ctx, newID, uris); err != nil {
		return nil, errors.Wrapf(err, "playlist %s created but tracks could not be added", newID)
	}

	zlog.Info().Str("playlist_id", playlistID).Msgf("exported genre %q to playlist %s (%d tracks)", genre, newID, len(uris))
	return &ExportResult{
		PlaylistID: newID,
		URL:        s.exporter.GetPlaylistURL(newID),
		Name:       name,
		TrackCount: len(uris),
	}, nil
}

// Evict ends the playlist's sorting session and discards its partition.
func (s *Service) Evict(playlistID string) error {
	if !s.store.Evict(playlistID) {
		return errors.Wrapf(partition.ErrNotFound, "no partition for playlist %s", playlistID)
	}
	activeSessions.Set(float64(s.store.Len()))
	zlog.Info().Str("playlist_id", playlistID).Msg("sorting session ended")
	s.publish(notification.KindEvicted, &partition.Partition{PlaylistID: playlistID})
	return nil
}

// History returns the committed transitions of the playlist's partition.
func (s *Service) History(playlistID string) ([]Transition, error) {
	return s.store.History(playlistID)
}

// Sessions returns the playlists currently being sorted.
func (s *Service) Sessions() []string {
	return s.store.PlaylistIDs()
}

// Subscribe registers stream for change events of one playlist, or of all
// playlists when playlistID is empty.
func (s *Service) Subscribe(playlistID string, stream notification.Stream) string {
	return s.notifier.Subscribe(playlistID, stream)
}

// NextSequenceNo reserves a sequence number for an event sent outside Broadcast.
func (s *Service) NextSequenceNo() uint64 {
	return s.notifier.NextSequenceNo()
}

// Unsubscribe removes a subscription.
func (s *Service) Unsubscribe(subscriptionID string) {
	s.notifier.Unsubscribe(subscriptionID)
}

func (s *Service) publish(kind notification.Kind, p *partition.Partition) {
	s.notifier.Broadcast(notification.Event{
		PlaylistID: p.PlaylistID,
		Kind:       kind,
		Revision:   p.Revision,
		At:         p.UpdatedAt,
	})
}
