package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Narration returns the cached narration for day, if any.
func (s *Store) Narration(ctx context.Context, day string) (string, bool, error) {
	var rec NarrationRecord
	err := s.db.WithContext(ctx).Where("date = ?", day).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read narration %s: %w", day, err)
	}
	return rec.Text, true, nil
}

// SaveNarration stores text as the narration of day unless one already
// exists. An existing entry is never replaced; the returned bool reports
// whether text was stored.
func (s *Store) SaveNarration(ctx context.Context, day, text string) (bool, error) {
	rec := NarrationRecord{Date: day, Text: text, CreatedAt: s.now().UTC()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("save narration %s: %w", day, res.Error)
	}
	return res.RowsAffected == 1, nil
}
