// Package repository defines the persistence contracts of the pipeline.
// Implementations live in infra/repository; persistence detail (schema,
// engine) is out of scope for the core.
package repository

import (
	"context"
	"time"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
)

// AccountRepository reads payment accounts. Accounts are managed by an
// external collaborator; the pipeline never writes them.
type AccountRepository interface {
	Get(ctx context.Context, id string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Account, error)
	// GetDefault returns (nil, nil) when the user has no default account.
	GetDefault(ctx context.Context, userID string) (*domain.Account, error)
}

// CategoryRepository reads booking categories.
type CategoryRepository interface {
	Get(ctx context.Context, id string) (*domain.Category, error)
	// LeafCategories returns the active leaf (level 2) categories of the
	// given type, falling back to level-1 parents when no leaves exist.
	LeafCategories(ctx context.Context, userID string, t domain.CategoryType) ([]domain.Category, error)
	// FrequentCategories returns the most used categories of the type,
	// most frequent first, at most limit entries.
	FrequentCategories(ctx context.Context, userID string, t domain.CategoryType, limit int) ([]domain.Category, error)
}

// LedgerRepository reads ledgers.
type LedgerRepository interface {
	Get(ctx context.Context, id string) (*domain.Ledger, error)
	// GetDefault returns (nil, nil) when the user has no default ledger.
	GetDefault(ctx context.Context, userID string) (*domain.Ledger, error)
}

// TransactionRepository persists transactions.
type TransactionRepository interface {
	Create(ctx context.Context, create dto.TransactionCreate) error
	Get(ctx context.Context, id string) (*domain.Transaction, error)
	Update(ctx context.Context, id string, update dto.TransactionUpdate) error
	Delete(ctx context.Context, id string) error
	ListByLedger(ctx context.Context, ledgerID string) ([]domain.Transaction, error)
}

// LedgerLinkRepository persists the directed sync relationships between
// ledgers. Owned by the link registry; the sync engine only reads it.
type LedgerLinkRepository interface {
	Create(ctx context.Context, link domain.LedgerLink) error
	Get(ctx context.Context, id string) (*domain.LedgerLink, error)
	// LinksForLedger returns every link the ledger occupies either side of.
	LinksForLedger(ctx context.Context, ledgerID string) ([]domain.LedgerLink, error)
	ActiveLinks(ctx context.Context) ([]domain.LedgerLink, error)
	AutoSyncLinks(ctx context.Context) ([]domain.LedgerLink, error)
	// LinkBetween returns (nil, nil) when no active link exists between the
	// unordered pair.
	LinkBetween(ctx context.Context, ledgerA, ledgerB string) (*domain.LedgerLink, error)
	UpdateSyncMode(ctx context.Context, id string, mode domain.SyncMode) error
	SetAutoSyncEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
	DeleteAllForLedger(ctx context.Context, ledgerID string) error
}

// TransactionLedgerRelationRepository persists transaction↔ledger rows.
type TransactionLedgerRelationRepository interface {
	Create(ctx context.Context, create dto.RelationCreate) error
	ForTransaction(ctx context.Context, transactionID string) ([]domain.TransactionLedgerRelation, error)
	// ForTransactionInLedger returns (nil, nil) when the transaction has no
	// row in the ledger.
	ForTransactionInLedger(ctx context.Context, transactionID, ledgerID string) (*domain.TransactionLedgerRelation, error)
	ByLedgerAndType(ctx context.Context, ledgerID string, t domain.RelationType) ([]domain.TransactionLedgerRelation, error)
	Delete(ctx context.Context, id string) error
	// DeleteSyncedForTransaction removes every non-PRIMARY row of the
	// transaction, never the PRIMARY one.
	DeleteSyncedForTransaction(ctx context.Context, transactionID string) error
}

// DebugRecordRepository is the write contract of the audit sink.
type DebugRecordRepository interface {
	Create(ctx context.Context, record domain.DebugRecord) error
	Recent(ctx context.Context, limit int) ([]domain.DebugRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UnitOfWork runs repository work in one transaction boundary so a single
// event's writes are never interleaved with another event's writes to the
// same rows.
type UnitOfWork interface {
	// Do executes fn within a transaction; an error rolls it back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	Accounts() AccountRepository
	Categories() CategoryRepository
	Ledgers() LedgerRepository
	Transactions() TransactionRepository
	LedgerLinks() LedgerLinkRepository
	Relations() TransactionLedgerRelationRepository
	DebugRecords() DebugRecordRepository
}
