// Package track provides the Track domain entity.
package track

import "strings"

// Track represents a Spotify track as shown in a genre bucket.
// Values are immutable once created; URI is the key within a bucket.
type Track struct {
	URI           string `json:"uri"`             // Spotify track URI (spotify:track:...)
	Name          string `json:"name"`            // Track name
	ArtistName    string `json:"artist_name"`     // Primary artist display name
	AlbumImageURL string `json:"album_image_url"` // Album art URL (optional)
}

// Source is a track together with its primary artist ID.
// It is the input unit for building a partition.
type Source struct {
	Track    Track
	ArtistID string // Spotify artist ID of the first-listed artist
}

// HasArtist reports whether the source has a primary artist reference.
func (s Source) HasArtist() bool {
	return strings.TrimSpace(s.ArtistID) != ""
}

// IsByArtist reports whether the track's primary artist matches name,
// ignoring case. The match is exact otherwise (no trimming, no partial match).
func (t Track) IsByArtist(name string) bool {
	return strings.EqualFold(t.ArtistName, name)
}
