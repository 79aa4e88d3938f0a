// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/genresort/internal/domain/playlist"
	"github.com/osa030/genresort/internal/domain/track"
)

const (
	pageLimit      = 50  // playlists per page
	itemsPageLimit = 100 // playlist items per page
	maxArtistIDs   = 50  // artists per GetArtists call
	maxAddTracks   = 100 // tracks per AddTracksToPlaylist call
)

// Scopes are the OAuth scopes required by the server.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(Scopes...),
	)

	// Token source refreshes the access token on demand.
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	httpClient := auth.Client(ctx, token)

	return NewWithClient(spotify.New(httpClient), cfg.Market), nil
}

// NewWithClient wraps an existing spotify.Client.
func NewWithClient(client *spotify.Client, market string) *Client {
	if market == "" {
		market = "JP"
	}
	return &Client{
		client:     client,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// ListPlaylists returns every playlist of the current user.
func (c *Client) ListPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	var playlists []playlist.Playlist
	offset := 0

	for {
		var page *spotify.SimplePlaylistPage
		err := c.retry(func() error {
			p, err := c.client.CurrentUsersPlaylists(ctx,
				spotify.Limit(pageLimit),
				spotify.Offset(offset),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to list playlists")
		}

		for _, p := range page.Playlists {
			playlists = append(playlists, convertPlaylist(p))
		}

		if len(page.Playlists) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return playlists, nil
}

// GetPlaylist retrieves a playlist's name and all of its tracks with their
// primary artist. Episodes and local files are skipped.
func (c *Client) GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var full *spotify.FullPlaylist
	err := c.retry(func() error {
		p, err := c.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("id,name,images"))
		if err != nil {
			return err
		}
		full = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "playlist does not exist or is not accessible")
	}

	result := &playlist.Playlist{
		ID:   playlistID,
		Name: full.Name,
		URL:  c.GetPlaylistURL(playlistID),
	}
	if len(full.Images) > 0 {
		result.ImageURL = full.Images[0].URL
	}

	offset := 0
	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(itemsPageLimit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}
		result.TrackCount = int(page.Total)

		for _, item := range page.Items {
			// Only process tracks (exclude episodes and local files)
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				result.Sources = append(result.Sources, convertSource(item.Track.Track))
			}
		}

		if len(page.Items) < itemsPageLimit {
			break
		}
		offset += itemsPageLimit
	}

	zlog.Debug().Msgf("fetched playlist: id=%s name=%s tracks=%d", playlistID, result.Name, len(result.Sources))
	return result, nil
}

// FetchGenres returns the genre tags of up to 50 artists. It makes exactly
// one request; callers own pacing and failure policy.
func (c *Client) FetchGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	if len(artistIDs) > maxArtistIDs {
		return nil, errors.Newf("too many artists in one request: %d > %d", len(artistIDs), maxArtistIDs)
	}
	ids := make([]spotify.ID, len(artistIDs))
	for i, id := range artistIDs {
		ids[i] = spotify.ID(id)
	}

	artists, err := c.client.GetArtists(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get artists")
	}

	genres := make(map[string][]string, len(artists))
	for _, a := range artists {
		// Unknown IDs come back as null entries.
		if a == nil {
			continue
		}
		genres[string(a.ID)] = a.Genres
	}
	return genres, nil
}

// CreatePlaylist creates a new playlist for the current user and returns its ID.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get current user")
	}

	var created *spotify.FullPlaylist
	err = c.retry(func() error {
		p, err := c.client.CreatePlaylistForUser(ctx, user.ID, name, description, public, false)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create playlist")
	}

	return string(created.ID), nil
}

// AddTracksToPlaylist adds tracks to a playlist in request-sized chunks.
// trackIDs can be Spotify IDs, URLs, or URIs.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := make([]spotify.ID, len(trackIDs))
	for i, trackID := range trackIDs {
		ids[i] = spotify.ID(extractTrackID(trackID))
	}

	for i := 0; i < len(ids); i += maxAddTracks {
		end := i + maxAddTracks
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		err := c.retry(func() error {
			_, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
			return err
		})
		if err != nil {
			return errors.Wrap(err, "failed to add tracks to playlist")
		}
	}

	return nil
}

// GetPlaylistURL returns the Spotify URL for a playlist.
func (c *Client) GetPlaylistURL(playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/playlist/%s", playlistID)
}

// convertSource converts a Spotify FullTrack to a partition source.
// The first listed artist is the primary artist.
func convertSource(t *spotify.FullTrack) track.Source {
	var artistID, artistName string
	if len(t.Artists) > 0 {
		artistID = string(t.Artists[0].ID)
		artistName = t.Artists[0].Name
	}

	var albumArt string
	if len(t.Album.Images) > 0 {
		albumArt = t.Album.Images[0].URL
	}

	uri := string(t.URI)
	if uri == "" {
		uri = "spotify:track:" + string(t.ID)
	}

	return track.Source{
		Track: track.Track{
			URI:           uri,
			Name:          t.Name,
			ArtistName:    artistName,
			AlbumImageURL: albumArt,
		},
		ArtistID: artistID,
	}
}

func convertPlaylist(p spotify.SimplePlaylist) playlist.Playlist {
	var image string
	if len(p.Images) > 0 {
		image = p.Images[0].URL
	}
	return playlist.Playlist{
		ID:         string(p.ID),
		Name:       p.Name,
		URL:        fmt.Sprintf("https://open.spotify.com/playlist/%s", p.ID),
		ImageURL:   image,
		TrackCount: int(p.Tracks.Total),
	}
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	return extractID(input, "track")
}

// extractID handles "spotify:<kind>:ID", "https://open.spotify.com/[intl-xx/]<kind>/ID?..."
// and bare IDs.
func extractID(input, kind string) string {
	input = strings.TrimSpace(input)
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	if sep := "/" + kind + "/"; strings.Contains(input, "open.spotify.com") && strings.Contains(input, sep) {
		parts := strings.Split(input, sep)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
