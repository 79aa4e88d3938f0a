// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Spotify SpotifyConfig `yaml:"spotify"`
	Genres  GenresConfig  `yaml:"genres"`
	Export  ExportConfig  `yaml:"export"`
	Store   StoreConfig   `yaml:"store"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr        string `yaml:"addr" default:":8080"`
	APIToken    string `yaml:"api_token"`
	MetricsPath string `yaml:"metrics_path" default:"/metrics" validate:"omitempty,startswith=/"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// GenresConfig controls artist genre resolution.
type GenresConfig struct {
	BatchSize    int            `yaml:"batch_size" default:"50" validate:"gte=1,lte=50"`
	BatchDelayMs *int           `yaml:"batch_delay_ms" default:"100" validate:"omitempty,gte=0,lte=10000"`
	Concurrency  int            `yaml:"concurrency" default:"1" validate:"gte=1,lte=8"`
	Fallback     FallbackConfig `yaml:"fallback"`
}

// FallbackConfig selects an optional secondary genre source.
// Settings are decoded by the source itself.
type FallbackConfig struct {
	Type     string         `yaml:"type" validate:"omitempty,oneof=none lastfm"`
	Settings map[string]any `yaml:"settings"`
}

// ExportConfig controls playlists created from a genre bucket.
type ExportConfig struct {
	// NameTemplate may contain {genre} and {playlist}.
	NameTemplate string `yaml:"name_template" default:"{genre} ({playlist})" validate:"required"`
	Description  string `yaml:"description" default:"Sorted by genre"`
	Public       bool   `yaml:"public"`
}

// StoreConfig controls the in-memory partition store.
type StoreConfig struct {
	// Pointer so that an explicit 0 (keep no history) survives defaults.Set.
	HistoryLimit *int `yaml:"history_limit" default:"100" validate:"omitempty,gte=0"`
}

const (
	defaultBatchDelayMs = 100
	defaultHistoryLimit = 100
)

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, then applies environment
// overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("GENRESORT_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" && c.Genres.Fallback.Type == "lastfm" {
		if c.Genres.Fallback.Settings == nil {
			c.Genres.Fallback.Settings = make(map[string]any)
		}
		c.Genres.Fallback.Settings["api_key"] = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	if !strings.Contains(c.Export.NameTemplate, "{genre}") {
		return errors.Newf("export.name_template must contain {genre}: %q", c.Export.NameTemplate)
	}
	return nil
}

// BatchDelay returns the pause between genre lookups.
func (c *Config) BatchDelay() time.Duration {
	ms := defaultBatchDelayMs
	if c.Genres.BatchDelayMs != nil {
		ms = *c.Genres.BatchDelayMs
	}
	return time.Duration(ms) * time.Millisecond
}

// HistoryLimit returns the number of transitions kept per session.
func (c *Config) HistoryLimit() int {
	if c.Store.HistoryLimit == nil {
		return defaultHistoryLimit
	}
	return *c.Store.HistoryLimit
}

// ExportName renders the export name template for a bucket.
func (c *Config) ExportName(genre, playlistName string) string {
	r := strings.NewReplacer("{genre}", genre, "{playlist}", playlistName)
	name := strings.TrimSpace(r.Replace(c.Export.NameTemplate))
	// Drop a dangling "()" when the source playlist name is unknown.
	name = strings.TrimSpace(strings.TrimSuffix(name, "()"))
	return name
}

// AuthEnabled reports whether RPC requests must carry the API token.
func (c *Config) AuthEnabled() bool {
	return c.Server.APIToken != ""
}
