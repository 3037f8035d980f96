package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// playerRating is the persisted row shape.
type playerRating struct {
	ExternalID string `gorm:"primaryKey;column:external_id"`
	Rating     float64
	UpdatedAt  time.Time
}

func (playerRating) TableName() string {
	return "player_ratings"
}

// SQLiteStore implements Store on a SQLite database via gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if absent) the database at path and
// migrates the ratings table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	if err := db.AutoMigrate(&playerRating{}); err != nil {
		return nil, fmt.Errorf("migrate registry %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// FetchByKeys returns the persisted ratings for the keys that exist.
func (s *SQLiteStore) FetchByKeys(ctx context.Context, keys []ExternalKey) ([]PlayerRating, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = string(key)
	}

	var rows []playerRating
	err := s.db.WithContext(ctx).Where("external_id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrFetch)
	}

	out := make([]PlayerRating, len(rows))
	for i, row := range rows {
		out[i] = PlayerRating{Key: ExternalKey(row.ExternalID), Rating: row.Rating}
	}
	return out, nil
}

// WriteRating upserts the rating row for one player.
func (s *SQLiteStore) WriteRating(ctx context.Context, key ExternalKey, rating float64) error {
	var row playerRating
	err := s.db.WithContext(ctx).Where(playerRating{ExternalID: string(key)}).First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = playerRating{ExternalID: string(key), Rating: rating}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("%v: %w", err, ErrWrite)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrWrite)
	}

	row.Rating = rating
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("%v: %w", err, ErrWrite)
	}
	return nil
}
