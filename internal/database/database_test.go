package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/justchokingaround/animeplay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "nested", "test.db"),
		MaxConnections: 1,
		WALMode:        true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	assert.True(t, db.Migrator().HasTable(&WatchHistory{}))
	assert.True(t, db.Migrator().HasTable(&Setting{}))
	assert.True(t, db.Migrator().HasIndex(&WatchHistory{}, "idx_watch_key"))
}

func TestInitSetsGlobal(t *testing.T) {
	t.Cleanup(func() {
		_ = Close()
		DB = nil
	})

	require.NoError(t, Init(&config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "global.db"),
		MaxConnections: 2,
	}))
	assert.NotNil(t, GetDB())
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := GetSetting(db, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SaveSetting(db, "theme", "dark"))
	require.NoError(t, SaveSetting(db, "theme", "light"))

	value, ok, err := GetSetting(db, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)

	var count int64
	require.NoError(t, db.Model(&Setting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, DeleteSetting(db, "theme"))
	require.NoError(t, DeleteSetting(db, "theme"))
	_, ok, err = GetSetting(db, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVolumeRoundTrip(t *testing.T) {
	db := openTestDB(t)

	_, _, ok, err := LoadVolume(db)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SaveVolume(db, 0.35, true))

	volume, muted, ok, err := LoadVolume(db)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.35, volume)
	assert.True(t, muted)
}

func TestVolumeStore(t *testing.T) {
	store := VolumeStore{DB: openTestDB(t)}
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 0.8, false))
	require.NoError(t, store.Save(ctx, 0.6, false))

	volume, muted, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.6, volume)
	assert.False(t, muted)
}
