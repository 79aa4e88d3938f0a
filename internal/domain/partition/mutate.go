package partition

import (
	"strings"

	"github.com/osa030/genresort/internal/domain/track"
)

// Every operation below validates its input and locates its targets before
// touching p, so a returned error means p is unchanged.

// MoveResult describes a completed MoveTrack.
type MoveResult struct {
	Track     track.Track
	From      string
	To        string
	Duplicate bool // target already held the URI; nothing was appended
}

// MergeResult describes a completed MergeGenres.
type MergeResult struct {
	Label             string
	Sources           []string // labels that existed and were merged
	Missing           []string // requested labels that did not exist
	TrackCount        int
	DuplicatesRemoved int
}

// ReassignResult describes a completed ReassignByArtist.
type ReassignResult struct {
	Artist            string
	Genre             string
	Moved             int
	DuplicatesSkipped int
	Sources           []string
}

// MoveTrack moves the track with uri into toGenre. fromGenre is a lookup
// hint; when it is empty, absent, or does not hold the track, every bucket is
// scanned.
func (p *Partition) MoveTrack(uri, fromGenre, toGenre string) (MoveResult, error) {
	if uri == "" {
		return MoveResult{}, invalidf("track uri is required")
	}
	if strings.TrimSpace(toGenre) == "" {
		return MoveResult{}, invalidf("target genre is required")
	}

	from, idx, ok := p.locate(uri, fromGenre)
	if !ok {
		return MoveResult{}, notFoundf("track %s", uri)
	}

	t := p.removeAt(from, idx)
	dup := !p.Add(toGenre, t)

	return MoveResult{Track: t, From: from, To: toGenre, Duplicate: dup}, nil
}

// MergeGenres merges the listed buckets into one named by MergedLabel.
// Tracks keep the order the labels were given in; the first occurrence of a
// URI wins. Labels that do not exist are ignored as long as one does.
func (p *Partition) MergeGenres(labels []string) (MergeResult, error) {
	distinct := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			return MergeResult{}, invalidf("genre label must not be empty")
		}
		if !seen[l] {
			seen[l] = true
			distinct = append(distinct, l)
		}
	}
	if len(distinct) < 2 {
		return MergeResult{}, invalidf("at least 2 genres are required to merge, got %d", len(distinct))
	}

	var sources, missing []string
	total := 0
	for _, l := range distinct {
		b, ok := p.Buckets[l]
		if !ok {
			missing = append(missing, l)
			continue
		}
		sources = append(sources, l)
		total += len(b)
	}
	if len(sources) == 0 {
		return MergeResult{}, notFoundf("none of the genres %v", distinct)
	}
	if total == 0 {
		return MergeResult{}, notFoundf("genres %v contain no tracks", sources)
	}

	label := MergedLabel(distinct)

	// A bucket already carrying the merged name (from an earlier merge) keeps
	// its tracks in front.
	merged := append(Bucket(nil), p.Buckets[label]...)
	total += len(merged)
	for _, l := range sources {
		for _, t := range p.Buckets[l] {
			if !merged.Contains(t.URI) {
				merged = append(merged, t)
			}
		}
	}

	for _, l := range sources {
		delete(p.Buckets, l)
	}
	p.Buckets[label] = merged

	return MergeResult{
		Label:             label,
		Sources:           sources,
		Missing:           missing,
		TrackCount:        len(merged),
		DuplicatesRemoved: total - len(merged),
	}, nil
}

// ReassignByArtist moves every track whose primary artist equals artistName
// (case-insensitive) into newGenre. The search covers currentGenre only when
// it names an existing bucket, otherwise all buckets; newGenre itself is
// never searched.
func (p *Partition) ReassignByArtist(artistName, newGenre, currentGenre string) (ReassignResult, error) {
	if artistName == "" {
		return ReassignResult{}, invalidf("artist name is required")
	}
	if strings.TrimSpace(newGenre) == "" {
		return ReassignResult{}, invalidf("target genre is required")
	}

	scope := p.Labels()
	if currentGenre != "" && p.Has(currentGenre) {
		scope = []string{currentGenre}
	}

	type match struct {
		label string
		uri   string
	}
	var matches []match
	for _, label := range scope {
		if label == newGenre {
			continue
		}
		for _, t := range p.Buckets[label] {
			if t.IsByArtist(artistName) {
				matches = append(matches, match{label: label, uri: t.URI})
			}
		}
	}
	if len(matches) == 0 {
		return ReassignResult{}, notFoundf("tracks by %q", artistName)
	}

	res := ReassignResult{Artist: artistName, Genre: newGenre}
	for _, m := range matches {
		i := p.Buckets[m.label].IndexOf(m.uri)
		t := p.removeAt(m.label, i)
		if !p.Add(newGenre, t) {
			res.DuplicatesSkipped++
		}
		res.Moved++
		if len(res.Sources) == 0 || res.Sources[len(res.Sources)-1] != m.label {
			res.Sources = append(res.Sources, m.label)
		}
	}
	return res, nil
}
