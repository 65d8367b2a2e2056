package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/seenimoa/marketradar/pkg/models"
)

// Persist appends the snapshot and one point per quote. Persisting the same
// snapshot twice stores duplicate points. Quotes without a capture time are
// stamped with the store clock.
func (s *Store) Persist(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return errors.New("persist: nil snapshot")
	}
	payload, err := json.Marshal(snap.Storable())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	stamp := s.now()
	var points []PointRecord
	for _, class := range []models.AssetClass{models.AssetCrypto, models.AssetStock} {
		for _, q := range snap.Quotes(class) {
			at := q.CapturedAt
			if at.IsZero() {
				at = stamp
			}
			points = append(points, PointRecord{
				Class:  string(class),
				Symbol: q.Symbol,
				TS:     at.UnixMilli(),
				Price:  q.Price,
				Source: q.Source,
			})
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := SnapshotRecord{
			Date:      snap.Date(),
			CrawlTime: snap.CrawlTime(),
			Items:     snap.TotalItems(),
			Payload:   string(payload),
			CreatedAt: stamp.UTC(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		if len(points) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(points, 200).Error; err != nil {
			return fmt.Errorf("insert points: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("snapshot persisted", "date", snap.Date(), "crawl_time", snap.CrawlTime(), "points", len(points))
	return nil
}

// PersistPoints appends backfilled points for one symbol, skipping
// timestamps already stored for it. It returns the number of new points.
func (s *Store) PersistPoints(ctx context.Context, class models.AssetClass, symbol, source string, pts []models.Point) (int, error) {
	if len(pts) == 0 {
		return 0, nil
	}

	var inserted int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		minTS, maxTS := pts[0].Timestamp.UnixMilli(), pts[0].Timestamp.UnixMilli()
		for _, p := range pts {
			ts := p.Timestamp.UnixMilli()
			minTS, maxTS = min(minTS, ts), max(maxTS, ts)
		}

		var existing []int64
		if err := tx.Model(&PointRecord{}).
			Where("class = ? AND symbol = ? AND ts BETWEEN ? AND ?", string(class), symbol, minTS, maxTS).
			Pluck("ts", &existing).Error; err != nil {
			return fmt.Errorf("load existing points: %w", err)
		}
		seen := make(map[int64]bool, len(existing))
		for _, ts := range existing {
			seen[ts] = true
		}

		var recs []PointRecord
		for _, p := range pts {
			ts := p.Timestamp.UnixMilli()
			if seen[ts] || p.Price <= 0 {
				continue
			}
			seen[ts] = true
			recs = append(recs, PointRecord{Class: string(class), Symbol: symbol, TS: ts, Price: p.Price, Source: source})
		}
		if len(recs) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(recs, 500).Error; err != nil {
			return fmt.Errorf("insert points: %w", err)
		}
		inserted = len(recs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// QueryHistory returns the points of one symbol captured within the last
// lookbackHours, oldest first. A cold store yields an empty series. Read
// errors are logged and also yield an empty series.
func (s *Store) QueryHistory(ctx context.Context, class models.AssetClass, symbol string, lookbackHours int) []models.Point {
	since := s.now().Add(-time.Duration(lookbackHours) * time.Hour).UnixMilli()

	var recs []PointRecord
	err := s.db.WithContext(ctx).
		Where("class = ? AND symbol = ? AND ts >= ?", string(class), symbol, since).
		Order("ts ASC, id ASC").
		Find(&recs).Error
	if err != nil {
		s.logger.Warn("query history failed", "class", class, "symbol", symbol, "hours", lookbackHours, "error", err)
		return []models.Point{}
	}

	out := make([]models.Point, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.Point{Timestamp: time.UnixMilli(r.TS).UTC(), Price: r.Price})
	}
	return out
}

// LatestSnapshot returns the most recently persisted snapshot, or ErrEmpty.
func (s *Store) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var rec SnapshotRecord
	err := s.db.WithContext(ctx).Order("id DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	snap, err := models.DecodeSnapshot([]byte(rec.Payload))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", rec.ID, err)
	}
	return snap, nil
}

// Symbols lists the distinct symbols with stored points for class.
func (s *Store) Symbols(ctx context.Context, class models.AssetClass) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&PointRecord{}).
		Where("class = ?", string(class)).
		Distinct().Order("symbol").Pluck("symbol", &out).Error
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return out, nil
}
