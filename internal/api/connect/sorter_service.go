// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/genresort/internal/api/sortv1"
	"github.com/osa030/genresort/internal/app/notification"
	"github.com/osa030/genresort/internal/app/sorter"
	"github.com/osa030/genresort/internal/domain/partition"
)

// SorterService implements the SorterService RPC.
type SorterService struct {
	sorter *sorter.Service

	done     chan struct{}
	doneOnce sync.Once
}

// NewSorterService creates a new SorterService.
func NewSorterService(svc *sorter.Service) *SorterService {
	return &SorterService{
		sorter: svc,
		done:   make(chan struct{}),
	}
}

// Ensure SorterService implements the interface.
var _ sortv1.SorterServiceHandler = (*SorterService)(nil)

// Close ends every open WatchPartition stream.
func (s *SorterService) Close() {
	s.doneOnce.Do(func() { close(s.done) })
}

// ListPlaylists returns the user's playlists.
func (s *SorterService) ListPlaylists(
	ctx context.Context,
	req *connect.Request[sortv1.ListPlaylistsRequest],
) (*connect.Response[sortv1.ListPlaylistsResponse], error) {
	playlists, err := s.sorter.ListPlaylists(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &sortv1.ListPlaylistsResponse{Playlists: make([]*sortv1.Playlist, 0, len(playlists))}
	for _, p := range playlists {
		resp.Playlists = append(resp.Playlists, &sortv1.Playlist{
			ID:         p.ID,
			Name:       p.Name,
			URL:        p.URL,
			ImageURL:   p.ImageURL,
			TrackCount: p.TrackCount,
		})
	}
	return connect.NewResponse(resp), nil
}

// SortPlaylist builds the genre partition of a playlist.
func (s *SorterService) SortPlaylist(
	ctx context.Context,
	req *connect.Request[sortv1.SortPlaylistRequest],
) (*connect.Response[sortv1.SortPlaylistResponse], error) {
	if req.Msg.PlaylistURL == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("playlist_url is required"))
	}

	p, err := s.sorter.SortPlaylist(ctx, req.Msg.PlaylistURL)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.SortPlaylistResponse{Partition: toPartition(p)}), nil
}

// GetPartition returns the current partition of a playlist.
func (s *SorterService) GetPartition(
	ctx context.Context,
	req *connect.Request[sortv1.GetPartitionRequest],
) (*connect.Response[sortv1.GetPartitionResponse], error) {
	p, err := s.sorter.GetPartition(req.Msg.PlaylistID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.GetPartitionResponse{Partition: toPartition(p)}), nil
}

// MoveTrack moves a track to another genre.
func (s *SorterService) MoveTrack(
	ctx context.Context,
	req *connect.Request[sortv1.MoveTrackRequest],
) (*connect.Response[sortv1.MoveTrackResponse], error) {
	m := req.Msg
	p, res, err := s.sorter.MoveTrack(m.PlaylistID, m.TrackURI, m.FromGenre, m.ToGenre)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.MoveTrackResponse{
		Partition: toPartition(p),
		From:      res.From,
		To:        res.To,
		Duplicate: res.Duplicate,
	}), nil
}

// MergeGenres merges genres into one.
func (s *SorterService) MergeGenres(
	ctx context.Context,
	req *connect.Request[sortv1.MergeGenresRequest],
) (*connect.Response[sortv1.MergeGenresResponse], error) {
	p, res, err := s.sorter.MergeGenres(req.Msg.PlaylistID, req.Msg.Genres)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.MergeGenresResponse{
		Partition:         toPartition(p),
		Label:             res.Label,
		Missing:           res.Missing,
		DuplicatesRemoved: res.DuplicatesRemoved,
	}), nil
}

// ReassignByArtist moves all tracks of an artist to another genre.
func (s *SorterService) ReassignByArtist(
	ctx context.Context,
	req *connect.Request[sortv1.ReassignByArtistRequest],
) (*connect.Response[sortv1.ReassignByArtistResponse], error) {
	m := req.Msg
	p, res, err := s.sorter.ReassignByArtist(m.PlaylistID, m.ArtistName, m.NewGenre, m.CurrentGenre)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.ReassignByArtistResponse{
		Partition:         toPartition(p),
		Moved:             res.Moved,
		DuplicatesSkipped: res.DuplicatesSkipped,
	}), nil
}

// GetBucketTrackURIs returns the track URIs of one genre.
func (s *SorterService) GetBucketTrackURIs(
	ctx context.Context,
	req *connect.Request[sortv1.GetBucketTrackURIsRequest],
) (*connect.Response[sortv1.GetBucketTrackURIsResponse], error) {
	uris, err := s.sorter.BucketTrackURIs(req.Msg.PlaylistID, req.Msg.Genre)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.GetBucketTrackURIsResponse{TrackURIs: uris}), nil
}

// ExportBucket saves one genre as a new playlist.
func (s *SorterService) ExportBucket(
	ctx context.Context,
	req *connect.Request[sortv1.ExportBucketRequest],
) (*connect.Response[sortv1.ExportBucketResponse], error) {
	res, err := s.sorter.ExportBucket(ctx, req.Msg.PlaylistID, req.Msg.Genre, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.ExportBucketResponse{
		PlaylistID: res.PlaylistID,
		URL:        res.URL,
		Name:       res.Name,
		TrackCount: res.TrackCount,
	}), nil
}

// EndSession discards the partition of a playlist.
func (s *SorterService) EndSession(
	ctx context.Context,
	req *connect.Request[sortv1.EndSessionRequest],
) (*connect.Response[sortv1.EndSessionResponse], error) {
	if err := s.sorter.Evict(req.Msg.PlaylistID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&sortv1.EndSessionResponse{}), nil
}

// GetHistory returns the committed changes of a partition.
func (s *SorterService) GetHistory(
	ctx context.Context,
	req *connect.Request[sortv1.GetHistoryRequest],
) (*connect.Response[sortv1.GetHistoryResponse], error) {
	history, err := s.sorter.History(req.Msg.PlaylistID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &sortv1.GetHistoryResponse{Transitions: make([]*sortv1.Transition, 0, len(history))}
	for _, t := range history {
		resp.Transitions = append(resp.Transitions, &sortv1.Transition{
			Revision: t.Revision,
			Op:       t.Op,
			Summary:  t.Summary,
			At:       t.At,
		})
	}
	return connect.NewResponse(resp), nil
}

// WatchPartition streams change events until the client goes away or the
// server shuts down. The first event confirms the subscription and carries
// the current revision when the playlist has a partition.
func (s *SorterService) WatchPartition(
	ctx context.Context,
	req *connect.Request[sortv1.WatchPartitionRequest],
	stream *connect.ServerStream[sortv1.PartitionEvent],
) error {
	adapter := &eventStreamAdapter{stream: stream}
	subscriptionID := s.sorter.Subscribe(req.Msg.PlaylistID, adapter)
	defer s.sorter.Unsubscribe(subscriptionID)
	// Runs before Unsubscribe: a broadcast already holding the adapter must
	// not write to a stream whose handler has returned.
	defer adapter.close()

	initial := notification.Event{
		SequenceNo: s.sorter.NextSequenceNo(),
		PlaylistID: req.Msg.PlaylistID,
		Kind:       notification.KindSubscribed,
		At:         time.Now(),
	}
	if req.Msg.PlaylistID != "" {
		if p, err := s.sorter.GetPartition(req.Msg.PlaylistID); err == nil {
			initial.Revision = p.Revision
		}
	}
	if err := adapter.Send(initial); err != nil {
		return err
	}

	zlog.Debug().Msgf("watch started: subscription=%s playlist=%q", subscriptionID, req.Msg.PlaylistID)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

// eventStreamAdapter adapts connect.ServerStream to notification.Stream.
// Broadcasts for different playlists may overlap, so sends are serialized.
type eventStreamAdapter struct {
	mu     sync.Mutex
	closed bool
	stream *connect.ServerStream[sortv1.PartitionEvent]
}

var errStreamClosed = errors.New("event stream closed")

func (a *eventStreamAdapter) Send(e notification.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errStreamClosed
	}
	return a.stream.Send(&sortv1.PartitionEvent{
		SequenceNo: e.SequenceNo,
		PlaylistID: e.PlaylistID,
		Kind:       string(e.Kind),
		Revision:   e.Revision,
		At:         e.At,
	})
}

func (a *eventStreamAdapter) close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

// toConnectError maps domain errors to RPC codes.
func toConnectError(err error) error {
	switch {
	case partition.IsNotFound(err):
		return connect.NewError(connect.CodeNotFound, err)
	case partition.IsInvalidInput(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		zlog.Error().Err(err).Msg("request failed")
		return connect.NewError(connect.CodeInternal, err)
	}
}

func toPartition(p *partition.Partition) *sortv1.Partition {
	out := &sortv1.Partition{
		ID:                  p.ID,
		PlaylistID:          p.PlaylistID,
		PlaylistName:        p.PlaylistName,
		Revision:            p.Revision,
		Genres:              make([]*sortv1.Genre, 0, len(p.Buckets)),
		UnresolvedArtistIDs: p.Unresolved,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	for _, label := range p.Labels() {
		g := &sortv1.Genre{Label: label, Tracks: make([]*sortv1.Track, 0, len(p.Buckets[label]))}
		for _, t := range p.Buckets[label] {
			g.Tracks = append(g.Tracks, &sortv1.Track{
				URI:           t.URI,
				Name:          t.Name,
				ArtistName:    t.ArtistName,
				AlbumImageURL: t.AlbumImageURL,
			})
		}
		out.Genres = append(out.Genres, g)
	}
	return out
}
