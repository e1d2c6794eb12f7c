package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ccxiaoji/autoledger/infra/repository/account"
	"github.com/ccxiaoji/autoledger/infra/repository/category"
	"github.com/ccxiaoji/autoledger/infra/repository/debug"
	"github.com/ccxiaoji/autoledger/infra/repository/ledger"
	"github.com/ccxiaoji/autoledger/infra/repository/ledgerlink"
	"github.com/ccxiaoji/autoledger/infra/repository/relation"
	"github.com/ccxiaoji/autoledger/infra/repository/transaction"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// UoW provides the transaction boundary and repository access in one
// abstraction. Repositories obtained from a UoW inside Do share the
// transaction's session, so their writes commit or roll back together.
type UoW struct {
	db *gorm.DB
}

// NewUoW creates a UoW over the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn in a transaction, handing it a UoW bound to the transaction
// session. Returning an error rolls the transaction back.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: tx})
	})
}

func (u *UoW) Accounts() repository.AccountRepository {
	return account.New(u.db)
}

func (u *UoW) Categories() repository.CategoryRepository {
	return category.New(u.db)
}

func (u *UoW) Ledgers() repository.LedgerRepository {
	return ledger.New(u.db)
}

func (u *UoW) Transactions() repository.TransactionRepository {
	return transaction.New(u.db)
}

func (u *UoW) LedgerLinks() repository.LedgerLinkRepository {
	return ledgerlink.New(u.db)
}

func (u *UoW) Relations() repository.TransactionLedgerRelationRepository {
	return relation.New(u.db)
}

func (u *UoW) DebugRecords() repository.DebugRecordRepository {
	return debug.New(u.db)
}
