// Package sortv1 declares the genresort.v1 wire messages and the
// SorterService handler and client.
package sortv1

import "time"

type Track struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	ArtistName    string `json:"artist_name"`
	AlbumImageURL string `json:"album_image_url,omitempty"`
}

type Genre struct {
	Label  string   `json:"label"`
	Tracks []*Track `json:"tracks"`
}

type Partition struct {
	ID                  string    `json:"id"`
	PlaylistID          string    `json:"playlist_id"`
	PlaylistName        string    `json:"playlist_name,omitempty"`
	Revision            int       `json:"revision"`
	Genres              []*Genre  `json:"genres"` // sorted by label
	UnresolvedArtistIDs []string  `json:"unresolved_artist_ids,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	ImageURL   string `json:"image_url,omitempty"`
	TrackCount int    `json:"track_count"`
}

type Transition struct {
	Revision int       `json:"revision"`
	Op       string    `json:"op"`
	Summary  string    `json:"summary"`
	At       time.Time `json:"at"`
}

type ListPlaylistsRequest struct{}

type ListPlaylistsResponse struct {
	Playlists []*Playlist `json:"playlists"`
}

type SortPlaylistRequest struct {
	// PlaylistURL accepts a playlist URL, URI or bare ID.
	PlaylistURL string `json:"playlist_url"`
}

type SortPlaylistResponse struct {
	Partition *Partition `json:"partition"`
}

type GetPartitionRequest struct {
	PlaylistID string `json:"playlist_id"`
}

type GetPartitionResponse struct {
	Partition *Partition `json:"partition"`
}

type MoveTrackRequest struct {
	PlaylistID string `json:"playlist_id"`
	TrackURI   string `json:"track_uri"`
	FromGenre  string `json:"from_genre,omitempty"` // lookup hint
	ToGenre    string `json:"to_genre"`
}

type MoveTrackResponse struct {
	Partition *Partition `json:"partition"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Duplicate bool       `json:"duplicate"`
}

type MergeGenresRequest struct {
	PlaylistID string   `json:"playlist_id"`
	Genres     []string `json:"genres"`
}

type MergeGenresResponse struct {
	Partition         *Partition `json:"partition"`
	Label             string     `json:"label"`
	Missing           []string   `json:"missing,omitempty"`
	DuplicatesRemoved int        `json:"duplicates_removed"`
}

type ReassignByArtistRequest struct {
	PlaylistID   string `json:"playlist_id"`
	ArtistName   string `json:"artist_name"`
	NewGenre     string `json:"new_genre"`
	CurrentGenre string `json:"current_genre,omitempty"`
}

type ReassignByArtistResponse struct {
	Partition         *Partition `json:"partition"`
	Moved             int        `json:"moved"`
	DuplicatesSkipped int        `json:"duplicates_skipped"`
}

type GetBucketTrackURIsRequest struct {
	PlaylistID string `json:"playlist_id"`
	Genre      string `json:"genre"`
}

type GetBucketTrackURIsResponse struct {
	TrackURIs []string `json:"track_uris"`
}

type ExportBucketRequest struct {
	PlaylistID string `json:"playlist_id"`
	Genre      string `json:"genre"`
	Name       string `json:"name,omitempty"`
}

type ExportBucketResponse struct {
	PlaylistID string `json:"playlist_id"`
	URL        string `json:"url"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
}

type EndSessionRequest struct {
	PlaylistID string `json:"playlist_id"`
}

type EndSessionResponse struct{}

type GetHistoryRequest struct {
	PlaylistID string `json:"playlist_id"`
}

type GetHistoryResponse struct {
	Transitions []*Transition `json:"transitions"`
}

type WatchPartitionRequest struct {
	// PlaylistID limits events to one playlist; empty watches all.
	PlaylistID string `json:"playlist_id,omitempty"`
}

type PartitionEvent struct {
	SequenceNo uint64    `json:"sequence_no"`
	PlaylistID string    `json:"playlist_id"`
	Kind       string    `json:"kind"`
	Revision   int       `json:"revision"`
	At         time.Time `json:"at"`
}
