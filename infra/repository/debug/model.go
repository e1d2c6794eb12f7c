// Package debug is the gorm-backed audit record repository.
package debug

import (
	"time"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

// DebugRecord is one persisted processing trace.
type DebugRecord struct {
	ID         string `gorm:"type:varchar(64);primaryKey"`
	Status     string `gorm:"type:varchar(32);not null;index"`
	SourceType string `gorm:"type:varchar(16);not null"`
	Title      string `gorm:"type:varchar(255)"`
	Text       string `gorm:"type:text"`

	AmountCents int64
	Merchant    string `gorm:"type:varchar(255)"`
	Direction   string `gorm:"type:varchar(16)"`
	Confidence  float64

	AccountID  string `gorm:"type:varchar(64)"`
	CategoryID string `gorm:"type:varchar(64)"`
	LedgerID   string `gorm:"type:varchar(64)"`
	Reason     string `gorm:"type:varchar(512)"`

	TransactionID string `gorm:"type:varchar(64)"`
	Error         string `gorm:"type:text"`
	Automatic     bool
	ProcessingMs  int64
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (DebugRecord) TableName() string { return "debug_records" }

func fromDomain(rec domain.DebugRecord) DebugRecord {
	return DebugRecord{
		ID:            rec.ID,
		Status:        string(rec.Status),
		SourceType:    string(rec.SourceType),
		Title:         rec.Title,
		Text:          rec.Text,
		AmountCents:   rec.AmountCents,
		Merchant:      rec.Merchant,
		Direction:     string(rec.Direction),
		Confidence:    rec.Confidence,
		AccountID:     rec.AccountID,
		CategoryID:    rec.CategoryID,
		LedgerID:      rec.LedgerID,
		Reason:        rec.Reason,
		TransactionID: rec.TransactionID,
		Error:         rec.Error,
		Automatic:     rec.Automatic,
		ProcessingMs:  rec.ProcessingMs,
		CreatedAt:     rec.CreatedAt,
	}
}

func toDomain(m DebugRecord) domain.DebugRecord {
	return domain.DebugRecord{
		ID:            m.ID,
		Status:        domain.DebugStatus(m.Status),
		SourceType:    domain.SourceType(m.SourceType),
		Title:         m.Title,
		Text:          m.Text,
		AmountCents:   m.AmountCents,
		Merchant:      m.Merchant,
		Direction:     domain.Direction(m.Direction),
		Confidence:    m.Confidence,
		AccountID:     m.AccountID,
		CategoryID:    m.CategoryID,
		LedgerID:      m.LedgerID,
		Reason:        m.Reason,
		TransactionID: m.TransactionID,
		Error:         m.Error,
		Automatic:     m.Automatic,
		ProcessingMs:  m.ProcessingMs,
		CreatedAt:     m.CreatedAt,
	}
}
