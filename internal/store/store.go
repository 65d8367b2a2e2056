// Package store persists market snapshots, price points and daily narrations
// in an embedded SQLite database through gorm.
//
// Points and snapshots are append-only. The only path that deletes rows is
// Prune, driven by the configured retention policy.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seenimoa/marketradar/internal/infra"
)

// ErrEmpty is returned when the store holds no snapshot yet.
var ErrEmpty = errors.New("store is empty")

// --- Records ---

// PointRecord is one (asset class, symbol, timestamp, price) observation.
type PointRecord struct {
	ID     uint    `gorm:"primaryKey"`
	Class  string  `gorm:"size:16;not null;index:idx_points_lookup,priority:1"`
	Symbol string  `gorm:"size:32;not null;index:idx_points_lookup,priority:2"`
	TS     int64   `gorm:"column:ts;not null;index:idx_points_lookup,priority:3"` // unix millis, UTC
	Price  float64 `gorm:"not null"`
	Source string  `gorm:"size:32"`
}

func (PointRecord) TableName() string { return "price_points" }

// SnapshotRecord holds a whole snapshot in its storable JSON form.
type SnapshotRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Date      string `gorm:"size:10;not null;index"`
	CrawlTime string `gorm:"size:5;not null"`
	Items     int
	Payload   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (SnapshotRecord) TableName() string { return "snapshots" }

// NarrationRecord is the cached narration of one day.
type NarrationRecord struct {
	Date      string `gorm:"primaryKey;size:10"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (NarrationRecord) TableName() string { return "narrations" }

// --- Store ---

// Store is safe for concurrent use.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now for lookback windows and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) the database file at path and migrates
// the schema.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	// WAL plus a busy timeout lets separate processes write the same file.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store handle: %w", err)
	}
	// One connection serializes writers inside this process.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&PointRecord{}, &SnapshotRecord{}, &NarrationRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = infra.OrDefault(s.logger)
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats summarizes the store contents.
type Stats struct {
	Points     int64
	Snapshots  int64
	Narrations int64
	Symbols    int64
	Oldest     time.Time
	Newest     time.Time
}

// Stats counts stored rows.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&PointRecord{}).Count(&st.Points).Error; err != nil {
		return st, fmt.Errorf("count points: %w", err)
	}
	if err := db.Model(&SnapshotRecord{}).Count(&st.Snapshots).Error; err != nil {
		return st, fmt.Errorf("count snapshots: %w", err)
	}
	if err := db.Model(&NarrationRecord{}).Count(&st.Narrations).Error; err != nil {
		return st, fmt.Errorf("count narrations: %w", err)
	}
	pairs := db.Model(&PointRecord{}).Distinct("class", "symbol")
	if err := db.Table("(?) AS pairs", pairs).Count(&st.Symbols).Error; err != nil {
		return st, fmt.Errorf("count symbols: %w", err)
	}
	if st.Points > 0 {
		var bounds struct {
			Oldest int64
			Newest int64
		}
		if err := db.Model(&PointRecord{}).Select("MIN(ts) AS oldest, MAX(ts) AS newest").Scan(&bounds).Error; err != nil {
			return st, fmt.Errorf("point bounds: %w", err)
		}
		st.Oldest = time.UnixMilli(bounds.Oldest).UTC()
		st.Newest = time.UnixMilli(bounds.Newest).UTC()
	}
	return st, nil
}

// PruneResult reports how many rows Prune removed.
type PruneResult struct {
	Points     int64
	Snapshots  int64
	Narrations int64
}

// Prune deletes points and snapshots recorded before cutoff, and narrations
// of days before cutoff's day bucket.
func (s *Store) Prune(ctx context.Context, cutoff time.Time, cutoffDay string) (PruneResult, error) {
	var res PruneResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Where("ts < ?", cutoff.UnixMilli()).Delete(&PointRecord{})
		if r.Error != nil {
			return fmt.Errorf("prune points: %w", r.Error)
		}
		res.Points = r.RowsAffected

		r = tx.Where("created_at < ?", cutoff.UTC()).Delete(&SnapshotRecord{})
		if r.Error != nil {
			return fmt.Errorf("prune snapshots: %w", r.Error)
		}
		res.Snapshots = r.RowsAffected

		if cutoffDay != "" {
			r = tx.Where("date < ?", cutoffDay).Delete(&NarrationRecord{})
			if r.Error != nil {
				return fmt.Errorf("prune narrations: %w", r.Error)
			}
			res.Narrations = r.RowsAffected
		}
		return nil
	})
	if err != nil {
		return PruneResult{}, err
	}
	s.logger.Info("store pruned", "before", cutoff, "points", res.Points, "snapshots", res.Snapshots, "narrations", res.Narrations)
	return res, nil
}
