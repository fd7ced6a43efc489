package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/justchokingaround/animeplay/internal/database"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps history in the watch_history table
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore creates a store over db
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func toEntry(r database.WatchHistory) Entry {
	return Entry{
		AnimeID:       r.AnimeID,
		EpisodeID:     r.EpisodeID,
		Title:         r.Title,
		EpisodeNumber: r.EpisodeNumber,
		ThumbnailURL:  r.ThumbnailURL,
		AnimeTitle:    r.AnimeTitle,
		ProgressPct:   r.ProgressPct,
		TimestampMs:   r.TimestampMs,
	}
}

func toRecord(e Entry) database.WatchHistory {
	return database.WatchHistory{
		AnimeID:       e.AnimeID,
		EpisodeID:     e.EpisodeID,
		Title:         e.Title,
		EpisodeNumber: e.EpisodeNumber,
		ThumbnailURL:  e.ThumbnailURL,
		AnimeTitle:    e.AnimeTitle,
		ProgressPct:   e.ProgressPct,
		TimestampMs:   e.TimestampMs,
	}
}

// Get implements Store
func (s *SQLStore) Get(ctx context.Context, animeID, episodeID string) (mo.Option[Entry], error) {
	if s.db == nil {
		return mo.None[Entry](), fmt.Errorf("database connection is nil")
	}

	var record database.WatchHistory
	err := s.db.WithContext(ctx).
		Where("anime_id = ? AND episode_id = ?", animeID, episodeID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mo.None[Entry](), nil
		}
		return mo.None[Entry](), fmt.Errorf("failed to fetch history: %w", err)
	}
	return mo.Some(toEntry(record)), nil
}

// Put implements Store
func (s *SQLStore) Put(ctx context.Context, e Entry) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := e.Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.WatchHistory
		err := tx.Where("anime_id = ? AND episode_id = ?", e.AnimeID, e.EpisodeID).First(&existing).Error
		switch {
		case err == nil && existing.TimestampMs > e.TimestampMs:
			// a newer write already landed
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to fetch history: %w", err)
		}

		record := toRecord(e)
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "anime_id"}, {Name: "episode_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "episode_number", "thumbnail_url", "anime_title",
				"progress_pct", "timestamp_ms", "updated_at",
			}),
		}).Create(&record).Error
	})
}

// List implements Store
func (s *SQLStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := s.db.WithContext(ctx).Model(&database.WatchHistory{})

	if opts.AnimeID != "" {
		query = query.Where("anime_id = ?", opts.AnimeID)
	}

	switch opts.SortBy {
	case SortOldestFirst:
		query = query.Order("timestamp_ms ASC")
	case SortTitleAsc:
		query = query.Order("anime_title ASC").Order("episode_number ASC")
	case SortProgressDesc:
		query = query.Order("progress_pct DESC")
	default: // SortRecentFirst
		query = query.Order("timestamp_ms DESC")
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var records []database.WatchHistory
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	return lo.Map(records, func(r database.WatchHistory, _ int) Entry {
		return toEntry(r)
	}), nil
}

// Delete implements Store
func (s *SQLStore) Delete(ctx context.Context, animeID, episodeID string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	return s.db.WithContext(ctx).
		Where("anime_id = ? AND episode_id = ?", animeID, episodeID).
		Delete(&database.WatchHistory{}).Error
}

// Clear implements Store
func (s *SQLStore) Clear(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&database.WatchHistory{})
	return result.RowsAffected, result.Error
}
