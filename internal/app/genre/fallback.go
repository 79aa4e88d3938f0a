package genre

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/genresort/internal/infra/config"
	"github.com/osa030/genresort/internal/infra/lastfm"
)

// TagLookup returns tags for an artist by display name.
type TagLookup interface {
	ArtistTags(ctx context.Context, artistName string, limit, minCount int) ([]string, error)
}

// LastFmFallbackConfig holds the settings of the "lastfm" fallback.
type LastFmFallbackConfig struct {
	APIKey     string   `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	MaxLookups int      `yaml:"max_lookups" mapstructure:"max_lookups" default:"50" validate:"gte=1,lte=500"`
	TagCount   int      `yaml:"tag_count" mapstructure:"tag_count" default:"5" validate:"gte=1,lte=100"`
	MinCount   int      `yaml:"min_count" mapstructure:"min_count" default:"10" validate:"gte=0,lte=100"`
	DelayMs    int      `yaml:"delay_ms" mapstructure:"delay_ms" default:"250" validate:"gte=0"`
	IgnoreTags []string `yaml:"ignore_tags" mapstructure:"ignore_tags"`
}

// Artist identifies an artist for a fallback lookup.
type Artist struct {
	ID   string
	Name string
}

// Fallback fills in genres for artists the catalog knows but has no genre
// tags for. Lookups are paced like catalog batches and never retried.
type Fallback struct {
	lookup     TagLookup
	maxLookups int
	tagCount   int
	minCount   int
	delay      time.Duration
	ignore     map[string]bool
}

// NewFallback creates a new Fallback.
func NewFallback(lookup TagLookup, cfg LastFmFallbackConfig) *Fallback {
	ignore := make(map[string]bool, len(cfg.IgnoreTags))
	for _, t := range cfg.IgnoreTags {
		ignore[strings.ToLower(t)] = true
	}
	return &Fallback{
		lookup:     lookup,
		maxLookups: cfg.MaxLookups,
		tagCount:   cfg.TagCount,
		minCount:   cfg.MinCount,
		delay:      time.Duration(cfg.DelayMs) * time.Millisecond,
		ignore:     ignore,
	}
}

// NewFallbackFromConfig creates the fallback configured in cfg.
// Returns nil when no fallback is configured.
func NewFallbackFromConfig(cfg config.FallbackConfig) (*Fallback, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "lastfm":
		var lcfg LastFmFallbackConfig
		if err := mapstructure.Decode(cfg.Settings, &lcfg); err != nil {
			return nil, errors.Wrap(err, "failed to decode settings")
		}
		if err := defaults.Set(&lcfg); err != nil {
			return nil, errors.Wrap(err, "failed to set defaults")
		}
		if err := validator.New().Struct(lcfg); err != nil {
			return nil, errors.Wrap(err, "validation failed")
		}
		client, err := lastfm.New(lastfm.Config{APIKey: lcfg.APIKey})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create last.fm client")
		}
		zlog.Info().Msgf("genre fallback enabled: type=lastfm max_lookups=%d", lcfg.MaxLookups)
		return NewFallback(client, lcfg), nil
	default:
		return nil, errors.Newf("unsupported genre fallback type: %s", cfg.Type)
	}
}

// Fill looks up artists that have no tags in res and stores what it finds.
// Artists from failed catalog batches are left alone. Returns the number of
// artists filled.
func (f *Fallback) Fill(ctx context.Context, artists []Artist, res *Resolution) int {
	unresolved := make(map[string]bool, len(res.Unresolved))
	for _, id := range res.Unresolved {
		unresolved[id] = true
	}

	limiter := newPacer(f.delay)
	lookups, filled := 0, 0
	for _, a := range artists {
		if unresolved[a.ID] || len(res.Genres[a.ID]) > 0 || a.Name == "" {
			continue
		}
		if lookups >= f.maxLookups {
			zlog.Debug().Msgf("genre fallback lookup limit reached: limit=%d", f.maxLookups)
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		lookups++

		tags, err := f.lookup.ArtistTags(ctx, a.Name, f.tagCount, f.minCount)
		if err != nil {
			zlog.Warn().Msgf("genre fallback lookup failed: artist=%s error=%v", a.Name, err)
			continue
		}
		tags = f.filter(tags)
		if len(tags) == 0 {
			continue
		}
		res.Genres[a.ID] = tags
		filled++
	}

	if lookups > 0 {
		zlog.Info().Msgf("genre fallback finished: lookups=%d filled=%d", lookups, filled)
	}
	return filled
}

func (f *Fallback) filter(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || f.ignore[strings.ToLower(t)] {
			continue
		}
		out = append(out, t)
	}
	return out
}
