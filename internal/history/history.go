// Package history persists per-episode watch progress.
package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ErrInvalidEntry is returned for entries that cannot be stored
var ErrInvalidEntry = errors.New("invalid history entry")

// Entry is the saved progress of one episode
type Entry struct {
	AnimeID       string  `json:"anime_id"`
	EpisodeID     string  `json:"episode_id"`
	Title         string  `json:"title"`
	EpisodeNumber int     `json:"episode_number"`
	ThumbnailURL  string  `json:"thumbnail_url"`
	AnimeTitle    string  `json:"anime_title"`
	ProgressPct   float64 `json:"progress_pct"`
	TimestampMs   int64   `json:"timestamp_ms"`
}

// Key identifies an entry
type Key struct {
	AnimeID   string
	EpisodeID string
}

// Key returns the entry's identity
func (e Entry) Key() Key {
	return Key{AnimeID: e.AnimeID, EpisodeID: e.EpisodeID}
}

// WatchedAt converts TimestampMs
func (e Entry) WatchedAt() time.Time {
	return time.UnixMilli(e.TimestampMs)
}

// Validate checks the identity and progress range
func (e Entry) Validate() error {
	if e.AnimeID == "" || e.EpisodeID == "" {
		return fmt.Errorf("%w: missing anime or episode id", ErrInvalidEntry)
	}
	if math.IsNaN(e.ProgressPct) || e.ProgressPct < 0 || e.ProgressPct > 100 {
		return fmt.Errorf("%w: progress %v out of range", ErrInvalidEntry, e.ProgressPct)
	}
	return nil
}

// SortOrder defines the sorting order for history items
type SortOrder string

const (
	SortRecentFirst  SortOrder = "recent_first"
	SortOldestFirst  SortOrder = "oldest_first"
	SortTitleAsc     SortOrder = "title_asc"
	SortProgressDesc SortOrder = "progress_desc"
)

// ListOptions filters and orders List results
type ListOptions struct {
	AnimeID string
	Limit   int
	Offset  int
	SortBy  SortOrder
}

// Store is the watch history collaborator. Put overwrites the entry with the
// same key unless the stored one has a later timestamp.
type Store interface {
	Get(ctx context.Context, animeID, episodeID string) (mo.Option[Entry], error)
	Put(ctx context.Context, e Entry) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
	Delete(ctx context.Context, animeID, episodeID string) error
	Clear(ctx context.Context) (int64, error)
}

// RecentAnime keeps the most recent entry per anime, preserving the order
// of a recent-first list
func RecentAnime(entries []Entry) []Entry {
	return lo.UniqBy(entries, func(e Entry) string {
		return e.AnimeID
	})
}
