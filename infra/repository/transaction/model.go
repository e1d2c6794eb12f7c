// Package transaction is the gorm-backed transaction repository.
package transaction

import (
	"time"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
)

// Transaction is the persisted form of a booking.
type Transaction struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	AccountID   string `gorm:"type:varchar(64);index;not null"`
	AmountCents int64  `gorm:"not null"`
	CategoryID  string `gorm:"type:varchar(64);index;not null"`
	Note        string `gorm:"type:varchar(512)"`
	LedgerID    string `gorm:"type:varchar(64);index;not null"`

	TransferID           string `gorm:"type:varchar(64);index"`
	TransferType         string `gorm:"type:varchar(8)"`
	RelatedTransactionID string `gorm:"type:varchar(64)"`

	TransactionDate *time.Time
	Latitude        *float64
	Longitude       *float64
	Address         string `gorm:"type:varchar(256)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Transaction) TableName() string { return "transactions" }

func fromCreate(create dto.TransactionCreate) Transaction {
	return Transaction{
		ID:                   create.ID,
		AccountID:            create.AccountID,
		AmountCents:          create.AmountCents,
		CategoryID:           create.CategoryID,
		Note:                 create.Note,
		LedgerID:             create.LedgerID,
		TransferID:           create.TransferID,
		TransferType:         create.TransferType,
		RelatedTransactionID: create.RelatedTransactionID,
		TransactionDate:      create.TransactionDate,
		Latitude:             create.Latitude,
		Longitude:            create.Longitude,
		Address:              create.Address,
	}
}

func toDomain(m Transaction) domain.Transaction {
	tx := domain.Transaction{
		ID:                   m.ID,
		AccountID:            m.AccountID,
		AmountCents:          m.AmountCents,
		CategoryID:           m.CategoryID,
		Note:                 m.Note,
		LedgerID:             m.LedgerID,
		TransferID:           m.TransferID,
		TransferType:         domain.TransferType(m.TransferType),
		RelatedTransactionID: m.RelatedTransactionID,
		TransactionDate:      m.TransactionDate,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.Latitude != nil && m.Longitude != nil {
		tx.Location = &domain.Location{
			Latitude:  *m.Latitude,
			Longitude: *m.Longitude,
			Address:   m.Address,
		}
	}
	return tx
}

func fromUpdate(update dto.TransactionUpdate) map[string]any {
	fields := map[string]any{}
	if update.AccountID != nil {
		fields["account_id"] = *update.AccountID
	}
	if update.AmountCents != nil {
		fields["amount_cents"] = *update.AmountCents
	}
	if update.CategoryID != nil {
		fields["category_id"] = *update.CategoryID
	}
	if update.Note != nil {
		fields["note"] = *update.Note
	}
	if update.TransferID != nil {
		fields["transfer_id"] = *update.TransferID
	}
	if update.TransferType != nil {
		fields["transfer_type"] = *update.TransferType
	}
	if update.RelatedTransactionID != nil {
		fields["related_transaction_id"] = *update.RelatedTransactionID
	}
	return fields
}
