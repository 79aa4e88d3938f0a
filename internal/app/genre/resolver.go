// Package genre resolves artist genres from the catalog and builds the
// initial genre partition of a playlist.
package genre

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/osa030/genresort/internal/domain/partition"
)

// MaxBatchSize is the catalog's cap on artist IDs per lookup.
const MaxBatchSize = 50

// Fetcher looks up the genre tags of a batch of artists.
// Artists unknown to the catalog may be absent from the result.
type Fetcher interface {
	FetchGenres(ctx context.Context, artistIDs []string) (map[string][]string, error)
}

// Resolution is the outcome of one Resolve call.
type Resolution struct {
	Genres        map[string][]string // artist ID -> ordered genre tags
	Unresolved    []string            // artist IDs from failed batches
	Batches       int
	FailedBatches int
}

// Tags returns the genre tags of an artist, or nil.
func (r Resolution) Tags(artistID string) []string {
	return r.Genres[artistID]
}

// ResolverConfig configures batching and pacing.
type ResolverConfig struct {
	BatchSize   int           // artists per catalog call (1..MaxBatchSize)
	BatchDelay  time.Duration // minimum spacing between successive calls
	Concurrency int           // concurrent calls in flight (1 = sequential)
}

// Resolver fetches artist genres in bounded, paced batches.
// A failed batch is logged and skipped; it never fails the whole call,
// and no call is retried.
type Resolver struct {
	fetcher     Fetcher
	batchSize   int
	delay       time.Duration
	concurrency int
}

// NewResolver creates a new Resolver.
func NewResolver(fetcher Fetcher, cfg ResolverConfig) *Resolver {
	size := cfg.BatchSize
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Resolver{
		fetcher:     fetcher,
		batchSize:   size,
		delay:       cfg.BatchDelay,
		concurrency: concurrency,
	}
}

// Resolve returns the genre tags of every artist it could look up.
func (r *Resolver) Resolve(ctx context.Context, artistIDs []string) Resolution {
	batches := splitBatches(dedupe(artistIDs), r.batchSize)
	res := Resolution{
		Genres:  make(map[string][]string),
		Batches: len(batches),
	}
	if len(batches) == 0 {
		return res
	}

	limiter := newPacer(r.delay)
	results := make([]map[string][]string, len(batches))
	failed := make([]bool, len(batches))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				zlog.Warn().Msgf("genre batch skipped: batch=%d/%d size=%d error=%v", i+1, len(batches), len(batch), err)
				failed[i] = true
				return nil
			}
			genres, err := r.fetcher.FetchGenres(ctx, batch)
			if err != nil {
				zlog.Warn().Msgf("genre batch failed, artists fall back to %s: batch=%d/%d size=%d error=%v",
					partition.UnknownGenre, i+1, len(batches), len(batch), err)
				failed[i] = true
				return nil
			}
			results[i] = genres
			return nil
		})
	}
	// Batch errors are recorded above, never returned.
	_ = g.Wait()

	for i, batch := range batches {
		if failed[i] {
			res.FailedBatches++
			res.Unresolved = append(res.Unresolved, batch...)
			continue
		}
		for _, id := range batch {
			if tags, ok := results[i][id]; ok {
				res.Genres[id] = tags
			}
		}
	}

	zlog.Debug().Msgf("resolved artist genres: artists=%d batches=%d failed=%d",
		len(res.Genres), res.Batches, res.FailedBatches)

	return res
}

// newPacer returns a limiter that lets one call through immediately and
// spaces the rest by at least delay.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// dedupe removes empty and repeated IDs, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// splitBatches splits ids into consecutive chunks of at most size.
func splitBatches(ids []string, size int) [][]string {
	var batches [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
