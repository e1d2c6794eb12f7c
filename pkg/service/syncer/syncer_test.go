package syncer_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccxiaoji/autoledger/internal/fixtures"
	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/service/syncer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type world struct {
	uow *fixtures.MemoryUow
	svc *syncer.Service
}

func newWorld() *world {
	uow := fixtures.NewMemoryUow()
	return &world{uow: uow, svc: syncer.New(uow, testLogger())}
}

func (w *world) addLink(parent, child string, mode domain.SyncMode, autoSync bool) domain.LedgerLink {
	link := domain.LedgerLink{
		ID:              uuid.NewString(),
		ParentLedgerID:  parent,
		ChildLedgerID:   child,
		SyncMode:        mode,
		AutoSyncEnabled: autoSync,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
	_ = w.uow.LinkRepo.Create(context.Background(), link)
	return link
}

func (w *world) addTransaction(ledgerID string) domain.Transaction {
	ctx := context.Background()
	id := uuid.NewString()
	_ = w.uow.TxRepo.Create(ctx, dto.TransactionCreate{
		ID: id, AccountID: "acc", AmountCents: 1000, CategoryID: "cat", LedgerID: ledgerID,
	})
	_ = w.uow.RelationRepo.Create(ctx, dto.RelationCreate{
		TransactionID: id, LedgerID: ledgerID, RelationType: string(domain.RelationPrimary),
	})
	tx, _ := w.uow.TxRepo.Get(ctx, id)
	return *tx
}

func (w *world) relations(t *testing.T, txID string) []domain.TransactionLedgerRelation {
	t.Helper()
	rels, err := w.uow.RelationRepo.ForTransaction(context.Background(), txID)
	require.NoError(t, err)
	return rels
}

func TestSyncToLinkedLedgers(t *testing.T) {
	ctx := context.Background()

	t.Run("replicates across auto-sync links", func(t *testing.T) {
		w := newWorld()
		w.addLink("main", "family", domain.SyncBidirectional, true)
		w.addLink("main", "travel", domain.SyncParentToChild, true)
		tx := w.addTransaction("main")

		synced, err := w.svc.SyncToLinkedLedgers(ctx, tx, "main", nil)
		require.NoError(t, err)
		assert.Equal(t, 2, synced)

		rels := w.relations(t, tx.ID)
		require.Len(t, rels, 3)
		byLedger := map[string]domain.TransactionLedgerRelation{}
		for _, rel := range rels {
			byLedger[rel.LedgerID] = rel
		}
		assert.Equal(t, domain.RelationPrimary, byLedger["main"].RelationType)
		assert.Equal(t, domain.RelationSyncedFromParent, byLedger["family"].RelationType)
		assert.Equal(t, "main", byLedger["family"].SyncSourceLedgerID)
		assert.Equal(t, domain.RelationSyncedFromParent, byLedger["travel"].RelationType)
	})

	t.Run("child origin marks synced-from-child", func(t *testing.T) {
		w := newWorld()
		w.addLink("main", "family", domain.SyncBidirectional, true)
		tx := w.addTransaction("family")

		synced, err := w.svc.SyncToLinkedLedgers(ctx, tx, "family", nil)
		require.NoError(t, err)
		require.Equal(t, 1, synced)

		rels := w.relations(t, tx.ID)
		for _, rel := range rels {
			if rel.LedgerID == "main" {
				assert.Equal(t, domain.RelationSyncedFromChild, rel.RelationType)
			}
		}
	})

	t.Run("mode blocks the reverse direction", func(t *testing.T) {
		w := newWorld()
		w.addLink("main", "family", domain.SyncParentToChild, true)
		tx := w.addTransaction("family")

		synced, err := w.svc.SyncToLinkedLedgers(ctx, tx, "family", nil)
		require.NoError(t, err)
		assert.Zero(t, synced)
		assert.Len(t, w.relations(t, tx.ID), 1)
	})

	t.Run("existing appearance is not duplicated", func(t *testing.T) {
		w := newWorld()
		w.addLink("main", "family", domain.SyncBidirectional, true)
		tx := w.addTransaction("main")

		_, err := w.svc.SyncToLinkedLedgers(ctx, tx, "main", nil)
		require.NoError(t, err)
		synced, err := w.svc.SyncToLinkedLedgers(ctx, tx, "main", nil)
		require.NoError(t, err)
		assert.Zero(t, synced)
		assert.Len(t, w.relations(t, tx.ID), 2)
	})

	t.Run("explicit targets require a link", func(t *testing.T) {
		w := newWorld()
		w.addLink("main", "family", domain.SyncBidirectional, false)
		tx := w.addTransaction("main")

		synced, err := w.svc.SyncToLinkedLedgers(ctx, tx, "main", []string{"family", "unlinked"})
		assert.Equal(t, 1, synced, "linked target replicated even with auto-sync off")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestManualSync(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.addLink("main", "family", domain.SyncBidirectional, false)
	tx := w.addTransaction("main")

	synced, err := w.svc.ManualSync(ctx, tx.ID, "main", []string{"family"})
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	t.Run("existing appearance conflicts", func(t *testing.T) {
		synced, err := w.svc.ManualSync(ctx, tx.ID, "main", []string{"family"})
		assert.Zero(t, synced)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Len(t, w.relations(t, tx.ID), 2)
	})

	t.Run("blank ids rejected", func(t *testing.T) {
		_, err := w.svc.ManualSync(ctx, "", "main", nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRemoveAndUpdateSynced(t *testing.T) {
	ctx := context.Background()

	t.Run("remove deletes only synced rows", func(t *testing.T) {
		w := newWorld()
		w.addLink("main", "family", domain.SyncBidirectional, true)
		tx := w.addTransaction("main")
		_, err := w.svc.SyncToLinkedLedgers(ctx, tx, "main", nil)
		require.NoError(t, err)

		require.NoError(t, w.svc.RemoveSyncedRelations(ctx, tx.ID))
		rels := w.relations(t, tx.ID)
		require.Len(t, rels, 1)
		assert.Equal(t, domain.RelationPrimary, rels[0].RelationType)
	})

	t.Run("update resyncs from the primary ledger", func(t *testing.T) {
		w := newWorld()
		w.addLink("main", "family", domain.SyncBidirectional, true)
		tx := w.addTransaction("main")
		_, err := w.svc.SyncToLinkedLedgers(ctx, tx, "main", nil)
		require.NoError(t, err)

		w.addLink("main", "travel", domain.SyncParentToChild, true)
		synced, err := w.svc.UpdateSynced(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, synced)
		assert.Len(t, w.relations(t, tx.ID), 3)
	})

	t.Run("update without primary fails", func(t *testing.T) {
		w := newWorld()
		_, err := w.svc.UpdateSynced(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBatchSync(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.addLink("main", "family", domain.SyncBidirectional, true)
	first := w.addTransaction("main")
	w.addTransaction("main")
	w.addTransaction("family")

	// One transaction already replicated; batch picks up the other.
	_, err := w.svc.SyncToLinkedLedgers(ctx, first, "main", nil)
	require.NoError(t, err)

	synced, err := w.svc.BatchSync(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
}
