// Package partition provides the genre Partition of a playlist and the
// structural operations that reorganize it.
//
// Track lookup is a linear scan over the buckets (O(total tracks)); a bucket
// hint is checked first when the caller has one.
package partition

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osa030/genresort/internal/domain/track"
)

const (
	// UnknownGenre is the reserved label for tracks whose artist has no genre tags.
	UnknownGenre = "unknown"
	// MergeSeparator joins sorted labels to name a merged bucket.
	MergeSeparator = " + "
)

// Bucket is an ordered list of tracks, unique by URI, in insertion order.
type Bucket []track.Track

// IndexOf returns the position of uri in the bucket, or -1.
func (b Bucket) IndexOf(uri string) int {
	for i, t := range b {
		if t.URI == uri {
			return i
		}
	}
	return -1
}

// Contains reports whether a track with uri is in the bucket.
func (b Bucket) Contains(uri string) bool {
	return b.IndexOf(uri) >= 0
}

// URIs returns the track URIs in bucket order.
func (b Bucket) URIs() []string {
	uris := make([]string, len(b))
	for i, t := range b {
		uris[i] = t.URI
	}
	return uris
}

// Partition maps genre labels to buckets for one playlist.
// Its ID is assigned on build and survives every mutation.
type Partition struct {
	ID           string
	PlaylistID   string
	PlaylistName string
	Revision     int
	Buckets      map[string]Bucket
	Unresolved   []string // artist IDs whose genre lookup failed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New creates an empty partition for a playlist.
func New(playlistID string) *Partition {
	now := time.Now()
	return &Partition{
		ID:         uuid.New().String(),
		PlaylistID: playlistID,
		Buckets:    make(map[string]Bucket),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Add appends t to the genre bucket, creating it when absent.
// Returns false if the bucket already holds the URI.
func (p *Partition) Add(genre string, t track.Track) bool {
	b := p.Buckets[genre]
	if b.Contains(t.URI) {
		return false
	}
	p.Buckets[genre] = append(b, t)
	return true
}

// Labels returns all bucket labels sorted lexicographically.
func (p *Partition) Labels() []string {
	labels := make([]string, 0, len(p.Buckets))
	for label := range p.Buckets {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// TrackCount returns the number of tracks across all buckets.
func (p *Partition) TrackCount() int {
	n := 0
	for _, b := range p.Buckets {
		n += len(b)
	}
	return n
}

// Has reports whether a bucket named label exists.
func (p *Partition) Has(label string) bool {
	_, ok := p.Buckets[label]
	return ok
}

// TrackURIs returns the ordered URIs of one bucket.
func (p *Partition) TrackURIs(label string) ([]string, error) {
	b, ok := p.Buckets[label]
	if !ok {
		return nil, notFoundf("genre %q", label)
	}
	return b.URIs(), nil
}

// Clone returns a deep copy that shares no slices or maps with p.
func (p *Partition) Clone() *Partition {
	c := *p
	c.Buckets = make(map[string]Bucket, len(p.Buckets))
	for label, b := range p.Buckets {
		c.Buckets[label] = append(make(Bucket, 0, len(b)), b...)
	}
	c.Unresolved = append([]string(nil), p.Unresolved...)
	return &c
}

// locate finds uri, checking the hint bucket first and then every bucket.
func (p *Partition) locate(uri, hint string) (string, int, bool) {
	if hint != "" {
		if b, ok := p.Buckets[hint]; ok {
			if i := b.IndexOf(uri); i >= 0 {
				return hint, i, true
			}
		}
	}
	for _, label := range p.Labels() {
		if label == hint {
			continue
		}
		if i := p.Buckets[label].IndexOf(uri); i >= 0 {
			return label, i, true
		}
	}
	return "", -1, false
}

// removeAt drops the track at index i of label. A bucket left empty is
// deleted, except the reserved unknown bucket.
func (p *Partition) removeAt(label string, i int) track.Track {
	b := p.Buckets[label]
	t := b[i]
	b = append(b[:i:i], b[i+1:]...)
	if len(b) == 0 && label != UnknownGenre {
		delete(p.Buckets, label)
		return t
	}
	p.Buckets[label] = b
	return t
}

// MergedLabel returns the deterministic name of a merge of labels.
func MergedLabel(labels []string) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return strings.Join(sorted, MergeSeparator)
}
