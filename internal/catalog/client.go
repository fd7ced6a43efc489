// Package catalog fetches anime and episode renditions from the backend.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/justchokingaround/animeplay/internal/config"
)

// ErrNotFound is returned when the backend has no such anime or episode
var ErrNotFound = errors.New("not found")

// ClientConfig holds configuration for the backend client
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
	UserAgent  string
	Debug      bool
	Logger     *slog.Logger
}

// ConfigFrom builds a ClientConfig from application config
func ConfigFrom(cfg *config.Config, logger *slog.Logger) ClientConfig {
	return ClientConfig{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		CacheTTL: cfg.API.CacheTTL,
		Debug:    cfg.Advanced.Debug,
		Logger:   logger,
	}
}

// Client talks to the anime backend
type Client struct {
	baseURL  string
	resty    *resty.Client
	logger   *slog.Logger
	anime    *Cache[*Anime]
	episode  *Cache[*Episode]
	episodes *Cache[[]Episode]
}

// NewClient creates a backend client with retries on network errors, 5xx
// and 429 responses
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	// zero means the default, negative disables retries
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 3
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "animeplay/1.0"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		// Retry on network errors
		if err != nil {
			return true
		}
		// Retry on 5xx server errors and 429 rate limiting
		return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
	})

	c := &Client{
		baseURL:  cfg.BaseURL,
		resty:    restyClient,
		logger:   cfg.Logger,
		anime:    NewCache[*Anime](cfg.CacheTTL),
		episode:  NewCache[*Episode](cfg.CacheTTL),
		episodes: NewCache[[]Episode](cfg.CacheTTL),
	}

	if cfg.Debug {
		restyClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			c.logger.Debug("HTTP Request", "method", r.Method, "url", r.URL)
			return nil
		})
		restyClient.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
			c.logger.Debug("HTTP Response",
				"status", r.StatusCode(),
				"url", r.Request.URL,
				"time", r.Time(),
			)
			return nil
		})
	}

	return c
}

// Anime fetches one anime
func (c *Client) Anime(ctx context.Context, id string) (*Anime, error) {
	if a, ok := c.anime.Get(id); ok {
		return a, nil
	}

	var anime Anime
	if err := c.get(ctx, "/anime/"+url.PathEscape(id), nil, &anime); err != nil {
		return nil, fmt.Errorf("get anime %s: %w", id, err)
	}
	c.anime.Set(id, &anime)
	return &anime, nil
}

// Episode fetches one episode
func (c *Client) Episode(ctx context.Context, id string) (*Episode, error) {
	if e, ok := c.episode.Get(id); ok {
		return e, nil
	}

	var episode Episode
	if err := c.get(ctx, "/episodes/"+url.PathEscape(id), nil, &episode); err != nil {
		return nil, fmt.Errorf("get episode %s: %w", id, err)
	}
	c.episode.Set(id, &episode)
	return &episode, nil
}

// Episodes fetches every episode of an anime ordered by episode number
func (c *Client) Episodes(ctx context.Context, animeID string) ([]Episode, error) {
	if eps, ok := c.episodes.Get(animeID); ok {
		return eps, nil
	}

	var episodes []Episode
	if err := c.get(ctx, "/episodes", map[string]string{"anime_id": animeID}, &episodes); err != nil {
		return nil, fmt.Errorf("list episodes of %s: %w", animeID, err)
	}
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})

	c.episodes.Set(animeID, episodes)
	for i := range episodes {
		c.episode.Set(episodes[i].ID.String(), &episodes[i])
	}
	return episodes, nil
}

// get performs a GET request against the backend and decodes the body
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, result any) error {
	req := c.resty.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return fmt.Errorf("HTTP request failed (is the API server running at %s?): %w", c.baseURL, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode() >= 400 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(resp.Body(), &errorResp); err == nil && errorResp.Error != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode(), errorResp.Error)
		}
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
