// Package ledgerlink is the gorm-backed ledger link repository.
package ledgerlink

import (
	"time"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

// LedgerLink is the persisted form of a sync relationship.
type LedgerLink struct {
	ID              string `gorm:"type:varchar(64);primaryKey"`
	ParentLedgerID  string `gorm:"type:varchar(64);index;not null"`
	ChildLedgerID   string `gorm:"type:varchar(64);index;not null"`
	SyncMode        string `gorm:"type:varchar(24);not null"`
	AutoSyncEnabled bool
	IsActive        bool `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (LedgerLink) TableName() string { return "ledger_links" }

func fromDomain(l domain.LedgerLink) LedgerLink {
	return LedgerLink{
		ID:              l.ID,
		ParentLedgerID:  l.ParentLedgerID,
		ChildLedgerID:   l.ChildLedgerID,
		SyncMode:        string(l.SyncMode),
		AutoSyncEnabled: l.AutoSyncEnabled,
		IsActive:        l.IsActive,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func toDomain(m LedgerLink) domain.LedgerLink {
	return domain.LedgerLink{
		ID:              m.ID,
		ParentLedgerID:  m.ParentLedgerID,
		ChildLedgerID:   m.ChildLedgerID,
		SyncMode:        domain.SyncMode(m.SyncMode),
		AutoSyncEnabled: m.AutoSyncEnabled,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
