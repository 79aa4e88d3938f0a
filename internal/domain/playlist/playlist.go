// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/genresort/internal/domain/track"

// Playlist represents a Spotify playlist owned or followed by the user.
type Playlist struct {
	ID         string         // Spotify Playlist ID
	Name       string         // Playlist name
	URL        string         // Spotify URL
	ImageURL   string         // Cover image URL (optional)
	TrackCount int            // Total number of items reported by Spotify
	Sources    []track.Source // Tracks with their primary artist (only when fetched)
}
