package txcreate_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccxiaoji/autoledger/internal/fixtures"
	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/service/txcreate"
)

const userID = "user-1"

type noopSyncer struct {
	calls int
	err   error
}

func (s *noopSyncer) SyncToLinkedLedgers(context.Context, domain.Transaction, string, []string) (int, error) {
	s.calls++
	return 0, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededUow() *fixtures.MemoryUow {
	uow := fixtures.NewMemoryUow()
	uow.AccountRepo.Add(domain.Account{ID: "acc-1", UserID: userID, Type: domain.AccountTypeAlipay, BalanceCents: 10000})
	uow.AccountRepo.Add(domain.Account{ID: "acc-2", UserID: userID, Type: domain.AccountTypeBank, BalanceCents: 500000})
	uow.CategoryRepo.Add(domain.Category{ID: "cat-exp", UserID: userID, Name: "日常", Type: domain.CategoryExpense, Level: 2, IsActive: true})
	uow.CategoryRepo.Add(domain.Category{ID: "cat-transfer-out", UserID: userID, Name: "转账支出", Type: domain.CategoryExpense, Level: 2, IsActive: true})
	uow.CategoryRepo.Add(domain.Category{ID: "cat-inc", UserID: userID, Name: "其他收入", Type: domain.CategoryIncome, Level: 2, IsActive: true})
	uow.LedgerRepo.Add(domain.Ledger{ID: "ledger-1", UserID: userID, IsActive: true, IsDefault: true})
	return uow
}

func validCreate() dto.TransactionCreate {
	return dto.TransactionCreate{
		AccountID:   "acc-1",
		AmountCents: 2500,
		CategoryID:  "cat-exp",
		LedgerID:    "ledger-1",
		Note:        "咖啡",
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and returns the transaction", func(t *testing.T) {
		uow := seededUow()
		svc := txcreate.New(uow, &noopSyncer{}, testLogger())

		tx, err := svc.Create(ctx, validCreate())
		require.NoError(t, err)
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, int64(2500), tx.AmountCents)
		assert.Equal(t, "ledger-1", tx.LedgerID)
	})

	t.Run("rejects blank ids", func(t *testing.T) {
		svc := txcreate.New(seededUow(), &noopSyncer{}, testLogger())
		create := validCreate()
		create.AccountID = ""
		_, err := svc.Create(ctx, create)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc := txcreate.New(seededUow(), &noopSyncer{}, testLogger())
		create := validCreate()
		create.CategoryID = "cat-missing"
		_, err := svc.Create(ctx, create)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCreateTransfer(t *testing.T) {
	ctx := context.Background()

	validTransfer := func() dto.TransferCreate {
		return dto.TransferCreate{
			FromAccountID: "acc-2",
			ToAccountID:   "acc-1",
			AmountCents:   10000,
			LedgerID:      "ledger-1",
		}
	}

	t.Run("creates two linked legs sharing a transfer id", func(t *testing.T) {
		uow := seededUow()
		svc := txcreate.New(uow, &noopSyncer{}, testLogger())

		out, in, err := svc.CreateTransfer(ctx, validTransfer())
		require.NoError(t, err)

		assert.Equal(t, out.TransferID, in.TransferID)
		assert.NotEmpty(t, out.TransferID)
		assert.Equal(t, domain.TransferOut, out.TransferType)
		assert.Equal(t, domain.TransferIn, in.TransferType)
		assert.Equal(t, in.ID, out.RelatedTransactionID)
		assert.Equal(t, out.ID, in.RelatedTransactionID)
		assert.Equal(t, "cat-transfer-out", out.CategoryID, "transfer-named expense category preferred")
		assert.Equal(t, "cat-inc", in.CategoryID)
	})

	t.Run("rejects same source and target", func(t *testing.T) {
		svc := txcreate.New(seededUow(), &noopSyncer{}, testLogger())
		create := validTransfer()
		create.ToAccountID = create.FromAccountID
		_, _, err := svc.CreateTransfer(ctx, create)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("balance check blocks an overdraft", func(t *testing.T) {
		svc := txcreate.New(seededUow(), &noopSyncer{}, testLogger())
		create := validTransfer()
		create.FromAccountID = "acc-1" // balance 10000
		create.ToAccountID = "acc-2"
		create.AmountCents = 20000
		create.CheckBalance = true
		_, _, err := svc.CreateTransfer(ctx, create)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("failed incoming leg deletes the outgoing one", func(t *testing.T) {
		uow := seededUow()
		uow.TxRepo.FailCreateFor = "acc-1" // incoming leg lands on acc-1
		svc := txcreate.New(uow, &noopSyncer{}, testLogger())

		_, _, err := svc.CreateTransfer(ctx, validTransfer())
		require.Error(t, err)
		assert.Empty(t, uow.TxRepo.All(), "no dangling outgoing leg")
	})
}

func TestCreateLinked(t *testing.T) {
	ctx := context.Background()

	validLinked := func() dto.LinkedTransactionCreate {
		return dto.LinkedTransactionCreate{
			PrimaryLedgerID: "ledger-1",
			AccountID:       "acc-1",
			AmountCents:     2500,
			CategoryID:      "cat-exp",
			AutoSync:        true,
		}
	}

	t.Run("creates transaction with primary relation and syncs", func(t *testing.T) {
		uow := seededUow()
		syncer := &noopSyncer{}
		svc := txcreate.New(uow, syncer, testLogger())

		tx, err := svc.CreateLinked(ctx, validLinked())
		require.NoError(t, err)

		rels, err := uow.RelationRepo.ForTransaction(ctx, tx.ID)
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, domain.RelationPrimary, rels[0].RelationType)
		assert.Equal(t, 1, syncer.calls)
	})

	t.Run("sync failure does not undo the transaction", func(t *testing.T) {
		uow := seededUow()
		svc := txcreate.New(uow, &noopSyncer{err: domain.ErrDependency}, testLogger())

		tx, err := svc.CreateLinked(ctx, validLinked())
		require.NoError(t, err)
		got, err := uow.TxRepo.Get(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, got.ID)
	})

	t.Run("auto sync disabled skips the syncer", func(t *testing.T) {
		syncer := &noopSyncer{}
		svc := txcreate.New(seededUow(), syncer, testLogger())

		create := validLinked()
		create.AutoSync = false
		_, err := svc.CreateLinked(ctx, create)
		require.NoError(t, err)
		assert.Zero(t, syncer.calls)
	})
}
