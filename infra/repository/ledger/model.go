// Package ledger is the gorm-backed ledger repository.
package ledger

import "github.com/ccxiaoji/autoledger/pkg/domain"

// Ledger is the persisted form of a bookkeeping book.
type Ledger struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	UserID    string `gorm:"type:varchar(64);index;not null"`
	Name      string `gorm:"type:varchar(128)"`
	IsActive  bool
	IsDefault bool
	Color     string `gorm:"type:varchar(16)"`
	Icon      string `gorm:"type:varchar(64)"`
}

func (Ledger) TableName() string { return "ledgers" }

func toDomain(m Ledger) domain.Ledger {
	return domain.Ledger{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		IsActive:  m.IsActive,
		IsDefault: m.IsDefault,
		Color:     m.Color,
		Icon:      m.Icon,
	}
}
