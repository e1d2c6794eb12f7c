package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ccxiaoji/autoledger/infra"
	infrarepo "github.com/ccxiaoji/autoledger/infra/repository"
	"github.com/ccxiaoji/autoledger/infra/repository/account"
	"github.com/ccxiaoji/autoledger/infra/repository/category"
	"github.com/ccxiaoji/autoledger/infra/repository/ledger"
	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "autoledger.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	return db
}

func seedWorld(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&account.Account{
		ID: "acc-1", UserID: "u1", Name: "支付宝", Type: "ALIPAY", IsDefault: true,
	}).Error)
	require.NoError(t, db.Create(&category.Category{
		ID: "cat-1", UserID: "u1", Name: "餐饮", Type: "EXPENSE", Level: 2, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&ledger.Ledger{
		ID: "led-1", UserID: "u1", Name: "日常", IsActive: true, IsDefault: true,
	}).Error)
	require.NoError(t, db.Create(&ledger.Ledger{
		ID: "led-2", UserID: "u1", Name: "家庭", IsActive: true,
	}).Error)
}

func TestUoWCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedWorld(t, db)
	uow := infrarepo.NewUoW(db)

	txID := uuid.New().String()

	t.Run("commits transaction and relation together", func(t *testing.T) {
		err := uow.Do(ctx, func(u repository.UnitOfWork) error {
			if err := u.Transactions().Create(ctx, dto.TransactionCreate{
				ID: txID, AccountID: "acc-1", AmountCents: -2550, CategoryID: "cat-1", LedgerID: "led-1", Note: "午餐",
			}); err != nil {
				return err
			}
			return u.Relations().Create(ctx, dto.RelationCreate{
				TransactionID: txID, LedgerID: "led-1", RelationType: string(domain.RelationPrimary),
			})
		})
		require.NoError(t, err)

		tx, err := uow.Transactions().Get(ctx, txID)
		require.NoError(t, err)
		assert.Equal(t, int64(-2550), tx.AmountCents)

		rels, err := uow.Relations().ForTransaction(ctx, txID)
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, domain.RelationPrimary, rels[0].RelationType)
	})

	t.Run("rolls back every write on error", func(t *testing.T) {
		rollbackID := uuid.New().String()
		err := uow.Do(ctx, func(u repository.UnitOfWork) error {
			if err := u.Transactions().Create(ctx, dto.TransactionCreate{
				ID: rollbackID, AccountID: "acc-1", AmountCents: -100, CategoryID: "cat-1", LedgerID: "led-1",
			}); err != nil {
				return err
			}
			return errors.New("boom")
		})
		require.Error(t, err)

		_, err = uow.Transactions().Get(ctx, rollbackID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update and delete report missing rows", func(t *testing.T) {
		note := "改备注"
		err := uow.Transactions().Update(ctx, "missing", dto.TransactionUpdate{Note: &note})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, uow.Transactions().Delete(ctx, "missing"), domain.ErrNotFound)
	})
}

func TestReadRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedWorld(t, db)
	uow := infrarepo.NewUoW(db)

	t.Run("default account and ledger", func(t *testing.T) {
		acc, err := uow.Accounts().GetDefault(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, acc)
		assert.Equal(t, domain.AccountTypeAlipay, acc.Type)

		led, err := uow.Ledgers().GetDefault(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, led)
		assert.Equal(t, "led-1", led.ID)
	})

	t.Run("no default yields nil without error", func(t *testing.T) {
		acc, err := uow.Accounts().GetDefault(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, acc)
	})

	t.Run("leaf categories fall back to level one", func(t *testing.T) {
		leaves, err := uow.Categories().LeafCategories(ctx, "u1", domain.CategoryExpense)
		require.NoError(t, err)
		require.Len(t, leaves, 1)
		assert.Equal(t, "cat-1", leaves[0].ID)

		require.NoError(t, db.Create(&category.Category{
			ID: "cat-coarse", UserID: "u2", Name: "支出", Type: "EXPENSE", Level: 1, IsActive: true,
		}).Error)
		coarse, err := uow.Categories().LeafCategories(ctx, "u2", domain.CategoryExpense)
		require.NoError(t, err)
		require.Len(t, coarse, 1)
		assert.Equal(t, 1, coarse[0].Level)
	})

	t.Run("frequent categories order by usage", func(t *testing.T) {
		require.NoError(t, db.Create(&category.Category{
			ID: "cat-2", UserID: "u1", Name: "交通", Type: "EXPENSE", Level: 2, IsActive: true,
		}).Error)
		for i := 0; i < 3; i++ {
			require.NoError(t, uow.Transactions().Create(ctx, dto.TransactionCreate{
				AccountID: "acc-1", AmountCents: -100, CategoryID: "cat-2", LedgerID: "led-1",
			}))
		}
		require.NoError(t, uow.Transactions().Create(ctx, dto.TransactionCreate{
			AccountID: "acc-1", AmountCents: -100, CategoryID: "cat-1", LedgerID: "led-1",
		}))

		frequent, err := uow.Categories().FrequentCategories(ctx, "u1", domain.CategoryExpense, 5)
		require.NoError(t, err)
		require.NotEmpty(t, frequent)
		assert.Equal(t, "cat-2", frequent[0].ID)
	})
}

func TestLedgerLinkRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedWorld(t, db)
	uow := infrarepo.NewUoW(db)
	links := uow.LedgerLinks()

	link := domain.LedgerLink{
		ID:              uuid.New().String(),
		ParentLedgerID:  "led-1",
		ChildLedgerID:   "led-2",
		SyncMode:        domain.SyncBidirectional,
		AutoSyncEnabled: true,
		IsActive:        true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, links.Create(ctx, link))

	t.Run("finds the link from either side", func(t *testing.T) {
		got, err := links.LinkBetween(ctx, "led-2", "led-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, link.ID, got.ID)

		none, err := links.LinkBetween(ctx, "led-1", "led-9")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("auto sync listing follows the flag", func(t *testing.T) {
		auto, err := links.AutoSyncLinks(ctx)
		require.NoError(t, err)
		require.Len(t, auto, 1)

		require.NoError(t, links.SetAutoSyncEnabled(ctx, link.ID, false))
		auto, err = links.AutoSyncLinks(ctx)
		require.NoError(t, err)
		assert.Empty(t, auto)
	})

	t.Run("updates sync mode", func(t *testing.T) {
		require.NoError(t, links.UpdateSyncMode(ctx, link.ID, domain.SyncParentToChild))
		got, err := links.Get(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SyncParentToChild, got.SyncMode)

		err = links.UpdateSyncMode(ctx, "missing", domain.SyncBidirectional)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete all clears the ledger's links", func(t *testing.T) {
		require.NoError(t, links.DeleteAllForLedger(ctx, "led-2"))
		all, err := links.LinksForLedger(ctx, "led-1")
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestRelationAndDebugRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedWorld(t, db)
	uow := infrarepo.NewUoW(db)

	t.Run("synced relations removable without touching primary", func(t *testing.T) {
		rels := uow.Relations()
		require.NoError(t, rels.Create(ctx, dto.RelationCreate{
			TransactionID: "tx-1", LedgerID: "led-1", RelationType: string(domain.RelationPrimary),
		}))
		require.NoError(t, rels.Create(ctx, dto.RelationCreate{
			TransactionID: "tx-1", LedgerID: "led-2",
			RelationType: string(domain.RelationSyncedFromParent), SyncSourceLedgerID: "led-1",
		}))

		inLedger, err := rels.ForTransactionInLedger(ctx, "tx-1", "led-2")
		require.NoError(t, err)
		require.NotNil(t, inLedger)
		assert.Equal(t, "led-1", inLedger.SyncSourceLedgerID)

		require.NoError(t, rels.DeleteSyncedForTransaction(ctx, "tx-1"))
		remaining, err := rels.ForTransaction(ctx, "tx-1")
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, domain.RelationPrimary, remaining[0].RelationType)

		missing, err := rels.ForTransactionInLedger(ctx, "tx-1", "led-2")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("debug records list newest first and prune by age", func(t *testing.T) {
		records := uow.DebugRecords()
		old := domain.DebugRecord{
			Status: domain.DebugSkippedDuplicate, SourceType: domain.SourceWeChat,
			CreatedAt: time.Now().Add(-48 * time.Hour),
		}
		fresh := domain.DebugRecord{
			Status: domain.DebugSuccessAuto, SourceType: domain.SourceAlipay,
			TransactionID: "tx-1", Automatic: true,
		}
		require.NoError(t, records.Create(ctx, old))
		require.NoError(t, records.Create(ctx, fresh))

		recent, err := records.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, domain.DebugSuccessAuto, recent[0].Status)

		pruned, err := records.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), pruned)
	})
}
