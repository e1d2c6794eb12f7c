// Package fixtures provides map-backed test doubles for the persistence and
// parsing contracts. They keep insertion order so chain fallbacks that pick
// "the first" entry are deterministic under test.
package fixtures

import (
	"context"
	"time"

	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// MemoryUow is an in-memory unit of work. Do runs the function directly;
// there is no rollback, tests assert on end state.
type MemoryUow struct {
	AccountRepo  *AccountRepo
	CategoryRepo *CategoryRepo
	LedgerRepo   *LedgerRepo
	TxRepo       *TransactionRepo
	LinkRepo     *LedgerLinkRepo
	RelationRepo *RelationRepo
	DebugRepo    *DebugRepo
}

func NewMemoryUow() *MemoryUow {
	return &MemoryUow{
		AccountRepo:  NewAccountRepo(),
		CategoryRepo: NewCategoryRepo(),
		LedgerRepo:   NewLedgerRepo(),
		TxRepo:       NewTransactionRepo(),
		LinkRepo:     NewLedgerLinkRepo(),
		RelationRepo: NewRelationRepo(),
		DebugRepo:    NewDebugRepo(),
	}
}

func (u *MemoryUow) Do(_ context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(u)
}

func (u *MemoryUow) Accounts() repository.AccountRepository   { return u.AccountRepo }
func (u *MemoryUow) Categories() repository.CategoryRepository { return u.CategoryRepo }
func (u *MemoryUow) Ledgers() repository.LedgerRepository     { return u.LedgerRepo }
func (u *MemoryUow) Transactions() repository.TransactionRepository { return u.TxRepo }
func (u *MemoryUow) LedgerLinks() repository.LedgerLinkRepository { return u.LinkRepo }
func (u *MemoryUow) Relations() repository.TransactionLedgerRelationRepository {
	return u.RelationRepo
}
func (u *MemoryUow) DebugRecords() repository.DebugRecordRepository { return u.DebugRepo }

func now() time.Time { return time.Now() }
