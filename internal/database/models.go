package database

import (
	"time"

	"gorm.io/gorm"
)

// WatchHistory is one episode's saved progress. (anime_id, episode_id) is
// unique; the row with the later TimestampMs wins.
type WatchHistory struct {
	ID            uint    `gorm:"primaryKey"`
	AnimeID       string  `gorm:"not null;uniqueIndex:idx_watch_key"`
	EpisodeID     string  `gorm:"not null;uniqueIndex:idx_watch_key"`
	Title         string  `gorm:"not null;default:''"`
	EpisodeNumber int     `gorm:"default:0"`
	ThumbnailURL  string  `gorm:"default:''"`
	AnimeTitle    string  `gorm:"not null;default:'';index"`
	ProgressPct   float64 `gorm:"not null;default:0"`
	TimestampMs   int64   `gorm:"not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName overrides the table name
func (WatchHistory) TableName() string {
	return "watch_history"
}

// Setting represents a key-value store for application settings
type Setting struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (Setting) TableName() string {
	return "settings"
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&WatchHistory{},
		&Setting{},
	)
}
