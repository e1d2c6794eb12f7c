// Package relation is the gorm-backed transaction↔ledger relation repository.
package relation

import (
	"time"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
)

// TransactionLedgerRelation is one appearance of a transaction in a ledger.
type TransactionLedgerRelation struct {
	ID                 string `gorm:"type:varchar(64);primaryKey"`
	TransactionID      string `gorm:"type:varchar(64);not null;uniqueIndex:idx_relation_tx_ledger"`
	LedgerID           string `gorm:"type:varchar(64);not null;uniqueIndex:idx_relation_tx_ledger;index"`
	RelationType       string `gorm:"type:varchar(24);not null"`
	SyncSourceLedgerID string `gorm:"type:varchar(64)"`
	CreatedAt          time.Time
}

func (TransactionLedgerRelation) TableName() string {
	return "transaction_ledger_relations"
}

func fromCreate(create dto.RelationCreate) TransactionLedgerRelation {
	return TransactionLedgerRelation{
		ID:                 create.ID,
		TransactionID:      create.TransactionID,
		LedgerID:           create.LedgerID,
		RelationType:       create.RelationType,
		SyncSourceLedgerID: create.SyncSourceLedgerID,
		CreatedAt:          time.Now(),
	}
}

func toDomain(m TransactionLedgerRelation) domain.TransactionLedgerRelation {
	return domain.TransactionLedgerRelation{
		ID:                 m.ID,
		TransactionID:      m.TransactionID,
		LedgerID:           m.LedgerID,
		RelationType:       domain.RelationType(m.RelationType),
		SyncSourceLedgerID: m.SyncSourceLedgerID,
		CreatedAt:          m.CreatedAt,
	}
}
