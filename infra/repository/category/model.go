// Package category is the gorm-backed category repository.
package category

import "github.com/ccxiaoji/autoledger/pkg/domain"

// Category is the persisted form of a booking category.
type Category struct {
	ID       string `gorm:"type:varchar(64);primaryKey"`
	UserID   string `gorm:"type:varchar(64);index;not null"`
	Name     string `gorm:"type:varchar(128);not null"`
	Type     string `gorm:"type:varchar(16);not null"`
	Level    int
	IsActive bool
}

func (Category) TableName() string { return "categories" }

func toDomain(m Category) domain.Category {
	return domain.Category{
		ID:       m.ID,
		UserID:   m.UserID,
		Name:     m.Name,
		Type:     domain.CategoryType(m.Type),
		Level:    m.Level,
		IsActive: m.IsActive,
	}
}
