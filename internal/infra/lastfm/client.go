// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int // Tag weight (0-100, relative to the top tag)
}

// artistTopTagsResponse is the body of artist.getTopTags.
type artistTopTagsResponse struct {
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
}

// apiError represents an error response from Last.fm API.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// GetArtistTopTags retrieves the top tags of an artist, strongest first.
// Reference: https://www.last.fm/api/show/artist.getTopTags
func (c *Client) GetArtistTopTags(ctx context.Context, artistName string, limit int) ([]Tag, error) {
	if strings.TrimSpace(artistName) == "" {
		return nil, errors.New("artist name is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	params := url.Values{}
	params.Set("method", "artist.getTopTags")
	params.Set("artist", artistName)
	params.Set("autocorrect", "1")

	var response artistTopTagsResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to get top tags for artist %q", artistName)
	}

	tags := make([]Tag, 0, limit)
	for _, t := range response.TopTags.Tag {
		if len(tags) >= limit {
			break
		}
		tags = append(tags, Tag{Name: t.Name, Count: t.Count})
	}
	zlog.Debug().Msgf("last.fm tags for artist: artist=%s count=%d", artistName, len(tags))

	return tags, nil
}

// ArtistTags returns up to limit tag names whose weight is at least minCount.
func (c *Client) ArtistTags(ctx context.Context, artistName string, limit, minCount int) ([]string, error) {
	tags, err := c.GetArtistTopTags(ctx, artistName, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Count < minCount {
			continue
		}
		names = append(names, strings.ToLower(t.Name))
	}
	return names, nil
}

// call performs a GET request for the given method parameters and decodes
// the JSON body into out.
func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	// Last.fm reports most failures with HTTP 200 and an error body.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("last.fm returned status %s", resp.Status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to parse %s response", params.Get("method")))
	}
	return nil
}
