// Package account is the gorm-backed account repository.
package account

import "github.com/ccxiaoji/autoledger/pkg/domain"

// Account is the persisted form of a payment account.
type Account struct {
	ID           string `gorm:"type:varchar(64);primaryKey"`
	UserID       string `gorm:"type:varchar(64);index;not null"`
	Name         string `gorm:"type:varchar(128)"`
	Type         string `gorm:"type:varchar(16);not null"`
	BalanceCents int64
	IsDefault    bool
}

func (Account) TableName() string { return "accounts" }

func toDomain(m Account) domain.Account {
	return domain.Account{
		ID:           m.ID,
		UserID:       m.UserID,
		Name:         m.Name,
		Type:         domain.AccountType(m.Type),
		BalanceCents: m.BalanceCents,
		IsDefault:    m.IsDefault,
	}
}
