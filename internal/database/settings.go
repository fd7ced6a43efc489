package database

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting keys used by the player
const (
	SettingVolume = "player.volume"
	SettingMuted  = "player.muted"
)

// GetSetting returns the stored value for key.
// ok is false if nothing is stored (not an error).
func GetSetting(db *gorm.DB, key string) (value string, ok bool, err error) {
	var s Setting
	err = db.Where(map[string]any{"key": key}).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return s.Value, true, nil
}

// SaveSetting stores or replaces key
func SaveSetting(db *gorm.DB, key, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

// DeleteSetting removes key. Missing keys are not an error.
func DeleteSetting(db *gorm.DB, key string) error {
	return db.Where(map[string]any{"key": key}).Delete(&Setting{}).Error
}

// LoadVolume reads the remembered volume and mute state
func LoadVolume(db *gorm.DB) (volume float64, muted bool, ok bool, err error) {
	raw, found, err := GetSetting(db, SettingVolume)
	if err != nil || !found {
		return 0, false, false, err
	}
	volume, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, false, nil
	}

	rawMuted, found, err := GetSetting(db, SettingMuted)
	if err != nil {
		return 0, false, false, err
	}
	if found {
		muted, _ = strconv.ParseBool(rawMuted)
	}
	return volume, muted, true, nil
}

// SaveVolume remembers volume and mute state
func SaveVolume(db *gorm.DB, volume float64, muted bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := SaveSetting(tx, SettingVolume, strconv.FormatFloat(volume, 'f', -1, 64)); err != nil {
			return err
		}
		return SaveSetting(tx, SettingMuted, strconv.FormatBool(muted))
	})
}

// VolumeStore remembers the player's volume in the settings table
type VolumeStore struct {
	DB *gorm.DB
}

// Load returns the remembered volume, if any
func (s VolumeStore) Load(ctx context.Context) (volume float64, muted bool, ok bool, err error) {
	return LoadVolume(s.DB.WithContext(ctx))
}

// Save stores volume and mute state
func (s VolumeStore) Save(ctx context.Context, volume float64, muted bool) error {
	return SaveVolume(s.DB.WithContext(ctx), volume, muted)
}
