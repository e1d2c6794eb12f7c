package category

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

func New(db *gorm.DB) repository.CategoryRepository {
	return &repo{db: db}
}

func (r *repo) Get(ctx context.Context, id string) (*domain.Category, error) {
	var m Category
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	c := toDomain(m)
	return &c, nil
}

func (r *repo) LeafCategories(ctx context.Context, userID string, t domain.CategoryType) ([]domain.Category, error) {
	leaves, err := r.byLevel(ctx, userID, t, 2)
	if err != nil {
		return nil, err
	}
	if len(leaves) > 0 {
		return leaves, nil
	}
	return r.byLevel(ctx, userID, t, 1)
}

func (r *repo) FrequentCategories(ctx context.Context, userID string, t domain.CategoryType, limit int) ([]domain.Category, error) {
	var models []Category
	err := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.*").
		Joins("JOIN transactions ON transactions.category_id = categories.id").
		Where("categories.user_id = ? AND categories.type = ? AND categories.is_active = ?", userID, t, true).
		Group("categories.id").
		Order("COUNT(transactions.id) DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *repo) byLevel(ctx context.Context, userID string, t domain.CategoryType, level int) ([]domain.Category, error) {
	var models []Category
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND is_active = ? AND level = ?", userID, t, true, level).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}
