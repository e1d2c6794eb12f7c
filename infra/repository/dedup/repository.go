package dedup

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgdedup "github.com/ccxiaoji/autoledger/pkg/dedup"
)

// counterRetention bounds how long spent rate-window counters stay around
// before Cleanup sweeps them. Counter rows are tiny; a day is plenty.
const counterRetention = 24 * time.Hour

// Store implements the dedup contract over gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now()
	row := DedupKey{Key: key, ExpiresAt: now.Add(ttl), CreatedAt: now}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	// Key exists; reclaim it only when the previous reservation expired.
	res = s.db.WithContext(ctx).Model(&DedupKey{}).
		Where("key = ? AND expires_at <= ?", key, now).
		Update("expires_at", now.Add(ttl))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&DedupKey{}).
		Where("key = ? AND expires_at > ?", key, s.now()).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) Put(ctx context.Context, key string, ttl time.Duration) error {
	now := s.now()
	row := DedupKey{Key: key, ExpiresAt: now.Add(ttl), CreatedAt: now}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (s *Store) IncrementSource(ctx context.Context, source string, window time.Duration) (int64, error) {
	bucket := s.now().UnixMilli() / window.Milliseconds()
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := DedupCounter{Source: source, Bucket: bucket}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		res := tx.Model(&DedupCounter{}).
			Where("source = ? AND bucket = ?", source, bucket).
			Update("count", gorm.Expr("count + 1"))
		if res.Error != nil {
			return res.Error
		}
		var current DedupCounter
		if err := tx.Take(&current, "source = ? AND bucket = ?", source, bucket).Error; err != nil {
			return err
		}
		count = current.Count
		return nil
	})
	return count, err
}

func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	now := s.now()
	res := s.db.WithContext(ctx).Delete(&DedupKey{}, "expires_at <= ?", now)
	if res.Error != nil {
		return 0, res.Error
	}
	removed := res.RowsAffected
	if err := s.db.WithContext(ctx).
		Delete(&DedupCounter{}, "updated_at < ?", now.Add(-counterRetention)).Error; err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *Store) Stats(ctx context.Context) (pkgdedup.Stats, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&DedupKey{}).Count(&n).Error
	return pkgdedup.Stats{Keys: n}, err
}
