package account

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

func New(db *gorm.DB) repository.AccountRepository {
	return &repo{db: db}
}

func (r *repo) Get(ctx context.Context, id string) (*domain.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	a := toDomain(m)
	return &a, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	var models []Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("is_default DESC, id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *repo) GetDefault(ctx context.Context, userID string) (*domain.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).Where("user_id = ? AND is_default = ?", userID, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := toDomain(m)
	return &a, nil
}
