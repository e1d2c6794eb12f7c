package debug

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) repository.DebugRecordRepository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, record domain.DebugRecord) error {
	m := fromDomain(record)
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *repo) Recent(ctx context.Context, limit int) ([]domain.DebugRecord, error) {
	var models []DebugRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.DebugRecord, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *repo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&DebugRecord{}, "created_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
