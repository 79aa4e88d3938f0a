package sortv1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// SorterServiceName is the fully-qualified name of the SorterService.
const SorterServiceName = "genresort.v1.SorterService"

// Procedure paths of the SorterService RPCs.
const (
	SorterServiceListPlaylistsProcedure      = "/genresort.v1.SorterService/ListPlaylists"
	SorterServiceSortPlaylistProcedure       = "/genresort.v1.SorterService/SortPlaylist"
	SorterServiceGetPartitionProcedure       = "/genresort.v1.SorterService/GetPartition"
	SorterServiceMoveTrackProcedure          = "/genresort.v1.SorterService/MoveTrack"
	SorterServiceMergeGenresProcedure        = "/genresort.v1.SorterService/MergeGenres"
	SorterServiceReassignByArtistProcedure   = "/genresort.v1.SorterService/ReassignByArtist"
	SorterServiceGetBucketTrackURIsProcedure = "/genresort.v1.SorterService/GetBucketTrackURIs"
	SorterServiceExportBucketProcedure       = "/genresort.v1.SorterService/ExportBucket"
	SorterServiceEndSessionProcedure         = "/genresort.v1.SorterService/EndSession"
	SorterServiceGetHistoryProcedure         = "/genresort.v1.SorterService/GetHistory"
	SorterServiceWatchPartitionProcedure     = "/genresort.v1.SorterService/WatchPartition"
)

// SorterServiceHandler is implemented by the server side of the SorterService.
type SorterServiceHandler interface {
	ListPlaylists(context.Context, *connect.Request[ListPlaylistsRequest]) (*connect.Response[ListPlaylistsResponse], error)
	SortPlaylist(context.Context, *connect.Request[SortPlaylistRequest]) (*connect.Response[SortPlaylistResponse], error)
	GetPartition(context.Context, *connect.Request[GetPartitionRequest]) (*connect.Response[GetPartitionResponse], error)
	MoveTrack(context.Context, *connect.Request[MoveTrackRequest]) (*connect.Response[MoveTrackResponse], error)
	MergeGenres(context.Context, *connect.Request[MergeGenresRequest]) (*connect.Response[MergeGenresResponse], error)
	ReassignByArtist(context.Context, *connect.Request[ReassignByArtistRequest]) (*connect.Response[ReassignByArtistResponse], error)
	GetBucketTrackURIs(context.Context, *connect.Request[GetBucketTrackURIsRequest]) (*connect.Response[GetBucketTrackURIsResponse], error)
	ExportBucket(context.Context, *connect.Request[ExportBucketRequest]) (*connect.Response[ExportBucketResponse], error)
	EndSession(context.Context, *connect.Request[EndSessionRequest]) (*connect.Response[EndSessionResponse], error)
	GetHistory(context.Context, *connect.Request[GetHistoryRequest]) (*connect.Response[GetHistoryResponse], error)
	WatchPartition(context.Context, *connect.Request[WatchPartitionRequest], *connect.ServerStream[PartitionEvent]) error
}

// NewSorterServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself. Messages are always exchanged as JSON.
func NewSorterServiceHandler(svc SorterServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	handlers := map[string]http.Handler{
		SorterServiceListPlaylistsProcedure:      connect.NewUnaryHandler(SorterServiceListPlaylistsProcedure, svc.ListPlaylists, opts...),
		SorterServiceSortPlaylistProcedure:       connect.NewUnaryHandler(SorterServiceSortPlaylistProcedure, svc.SortPlaylist, opts...),
		SorterServiceGetPartitionProcedure:       connect.NewUnaryHandler(SorterServiceGetPartitionProcedure, svc.GetPartition, opts...),
		SorterServiceMoveTrackProcedure:          connect.NewUnaryHandler(SorterServiceMoveTrackProcedure, svc.MoveTrack, opts...),
		SorterServiceMergeGenresProcedure:        connect.NewUnaryHandler(SorterServiceMergeGenresProcedure, svc.MergeGenres, opts...),
		SorterServiceReassignByArtistProcedure:   connect.NewUnaryHandler(SorterServiceReassignByArtistProcedure, svc.ReassignByArtist, opts...),
		SorterServiceGetBucketTrackURIsProcedure: connect.NewUnaryHandler(SorterServiceGetBucketTrackURIsProcedure, svc.GetBucketTrackURIs, opts...),
		SorterServiceExportBucketProcedure:       connect.NewUnaryHandler(SorterServiceExportBucketProcedure, svc.ExportBucket, opts...),
		SorterServiceEndSessionProcedure:         connect.NewUnaryHandler(SorterServiceEndSessionProcedure, svc.EndSession, opts...),
		SorterServiceGetHistoryProcedure:         connect.NewUnaryHandler(SorterServiceGetHistoryProcedure, svc.GetHistory, opts...),
		SorterServiceWatchPartitionProcedure:     connect.NewServerStreamHandler(SorterServiceWatchPartitionProcedure, svc.WatchPartition, opts...),
	}

	return "/" + SorterServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// SorterServiceClient is a client for the SorterService.
type SorterServiceClient struct {
	listPlaylists      *connect.Client[ListPlaylistsRequest, ListPlaylistsResponse]
	sortPlaylist       *connect.Client[SortPlaylistRequest, SortPlaylistResponse]
	getPartition       *connect.Client[GetPartitionRequest, GetPartitionResponse]
	moveTrack          *connect.Client[MoveTrackRequest, MoveTrackResponse]
	mergeGenres        *connect.Client[MergeGenresRequest, MergeGenresResponse]
	reassignByArtist   *connect.Client[ReassignByArtistRequest, ReassignByArtistResponse]
	getBucketTrackURIs *connect.Client[GetBucketTrackURIsRequest, GetBucketTrackURIsResponse]
	exportBucket       *connect.Client[ExportBucketRequest, ExportBucketResponse]
	endSession         *connect.Client[EndSessionRequest, EndSessionResponse]
	getHistory         *connect.Client[GetHistoryRequest, GetHistoryResponse]
	watchPartition     *connect.Client[WatchPartitionRequest, PartitionEvent]
}

// NewSorterServiceClient constructs a client for the SorterService at
// baseURL (for example, http://localhost:8080).
func NewSorterServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SorterServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &SorterServiceClient{
		listPlaylists:      connect.NewClient[ListPlaylistsRequest, ListPlaylistsResponse](httpClient, baseURL+SorterServiceListPlaylistsProcedure, opts...),
		sortPlaylist:       connect.NewClient[SortPlaylistRequest, SortPlaylistResponse](httpClient, baseURL+SorterServiceSortPlaylistProcedure, opts...),
		getPartition:       connect.NewClient[GetPartitionRequest, GetPartitionResponse](httpClient, baseURL+SorterServiceGetPartitionProcedure, opts...),
		moveTrack:          connect.NewClient[MoveTrackRequest, MoveTrackResponse](httpClient, baseURL+SorterServiceMoveTrackProcedure, opts...),
		mergeGenres:        connect.NewClient[MergeGenresRequest, MergeGenresResponse](httpClient, baseURL+SorterServiceMergeGenresProcedure, opts...),
		reassignByArtist:   connect.NewClient[ReassignByArtistRequest, ReassignByArtistResponse](httpClient, baseURL+SorterServiceReassignByArtistProcedure, opts...),
		getBucketTrackURIs: connect.NewClient[GetBucketTrackURIsRequest, GetBucketTrackURIsResponse](httpClient, baseURL+SorterServiceGetBucketTrackURIsProcedure, opts...),
		exportBucket:       connect.NewClient[ExportBucketRequest, ExportBucketResponse](httpClient, baseURL+SorterServiceExportBucketProcedure, opts...),
		endSession:         connect.NewClient[EndSessionRequest, EndSessionResponse](httpClient, baseURL+SorterServiceEndSessionProcedure, opts...),
		getHistory:         connect.NewClient[GetHistoryRequest, GetHistoryResponse](httpClient, baseURL+SorterServiceGetHistoryProcedure, opts...),
		watchPartition:     connect.NewClient[WatchPartitionRequest, PartitionEvent](httpClient, baseURL+SorterServiceWatchPartitionProcedure, opts...),
	}
}

func (c *SorterServiceClient) ListPlaylists(ctx context.Context, req *connect.Request[ListPlaylistsRequest]) (*connect.Response[ListPlaylistsResponse], error) {
	return c.listPlaylists.CallUnary(ctx, req)
}

func (c *SorterServiceClient) SortPlaylist(ctx context.Context, req *connect.Request[SortPlaylistRequest]) (*connect.Response[SortPlaylistResponse], error) {
	return c.sortPlaylist.CallUnary(ctx, req)
}

func (c *SorterServiceClient) GetPartition(ctx context.Context, req *connect.Request[GetPartitionRequest]) (*connect.Response[GetPartitionResponse], error) {
	return c.getPartition.CallUnary(ctx, req)
}

func (c *SorterServiceClient) MoveTrack(ctx context.Context, req *connect.Request[MoveTrackRequest]) (*connect.Response[MoveTrackResponse], error) {
	return c.moveTrack.CallUnary(ctx, req)
}

func (c *SorterServiceClient) MergeGenres(ctx context.Context, req *connect.Request[MergeGenresRequest]) (*connect.Response[MergeGenresResponse], error) {
	return c.mergeGenres.CallUnary(ctx, req)
}

func (c *SorterServiceClient) ReassignByArtist(ctx context.Context, req *connect.Request[ReassignByArtistRequest]) (*connect.Response[ReassignByArtistResponse], error) {
	return c.reassignByArtist.CallUnary(ctx, req)
}

func (c *SorterServiceClient) GetBucketTrackURIs(ctx context.Context, req *connect.Request[GetBucketTrackURIsRequest]) (*connect.Response[GetBucketTrackURIsResponse], error) {
	return c.getBucketTrackURIs.CallUnary(ctx, req)
}

func (c *SorterServiceClient) ExportBucket(ctx context.Context, req *connect.Request[ExportBucketRequest]) (*connect.Response[ExportBucketResponse], error) {
	return c.exportBucket.CallUnary(ctx, req)
}

func (c *SorterServiceClient) EndSession(ctx context.Context, req *connect.Request[EndSessionRequest]) (*connect.Response[EndSessionResponse], error) {
	return c.endSession.CallUnary(ctx, req)
}

func (c *SorterServiceClient) GetHistory(ctx context.Context, req *connect.Request[GetHistoryRequest]) (*connect.Response[GetHistoryResponse], error) {
	return c.getHistory.CallUnary(ctx, req)
}

func (c *SorterServiceClient) WatchPartition(ctx context.Context, req *connect.Request[WatchPartitionRequest]) (*connect.ServerStreamForClient[PartitionEvent], error) {
	return c.watchPartition.CallServerStream(ctx, req)
}
