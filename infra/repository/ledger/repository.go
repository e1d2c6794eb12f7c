package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) repository.LedgerRepository {
	return &repo{db: db}
}

func (r *repo) Get(ctx context.Context, id string) (*domain.Ledger, error) {
	var m Ledger
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ledger %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	l := toDomain(m)
	return &l, nil
}

func (r *repo) GetDefault(ctx context.Context, userID string) (*domain.Ledger, error) {
	var m Ledger
	err := r.db.WithContext(ctx).Where("user_id = ? AND is_default = ? AND is_active = ?", userID, true, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l := toDomain(m)
	return &l, nil
}
