package ledgerlink_test

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
	"github.com/ccxiaoji/autoledger/pkg/service/ledgerlink"
)

const userID = "user-1"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(ledgerIDs ...string) (*fixtures.MemoryUow, *ledgerlink.Service) {
	uow := fixtures.NewMemoryUow()
	for _, id := range ledgerIDs {
		uow.LedgerRepo.Add(domain.Ledger{ID: id, UserID: userID, IsActive: true})
	}
	return uow, ledgerlink.New(uow, testLogger())
}

func create(parent, child string) dto.LedgerLinkCreate {
	return dto.LedgerLinkCreate{
		ParentLedgerID:  parent,
		ChildLedgerID:   child,
		SyncMode:        string(domain.SyncBidirectional),
		AutoSyncEnabled: true,
	}
}

func TestCreateLink(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active link", func(t *testing.T) {
		_, svc := seeded("a", "b")
		link, err := svc.CreateLink(ctx, create("a", "b"))
		require.NoError(t, err)
		assert.True(t, link.IsActive)
		assert.Equal(t, domain.SyncBidirectional, link.SyncMode)
	})

	t.Run("rejects self link", func(t *testing.T) {
		_, svc := seeded("a")
		_, err := svc.CreateLink(ctx, create("a", "a"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects unknown ledger", func(t *testing.T) {
		_, svc := seeded("a")
		_, err := svc.CreateLink(ctx, create("a", "ghost"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("rejects inactive ledger", func(t *testing.T) {
		uow, svc := seeded("a")
		uow.LedgerRepo.Add(domain.Ledger{ID: "b", UserID: userID, IsActive: false})
		_, err := svc.CreateLink(ctx, create("a", "b"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects cross-owner link", func(t *testing.T) {
		uow, svc := seeded("a")
		uow.LedgerRepo.Add(domain.Ledger{ID: "b", UserID: "user-2", IsActive: true})
		_, err := svc.CreateLink(ctx, create("a", "b"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects duplicate pair either way round", func(t *testing.T) {
		_, svc := seeded("a", "b")
		_, err := svc.CreateLink(ctx, create("a", "b"))
		require.NoError(t, err)

		_, err = svc.CreateLink(ctx, create("b", "a"))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("rejects a link closing a longer cycle", func(t *testing.T) {
		_, svc := seeded("a", "b", "c")
		_, err := svc.CreateLink(ctx, create("a", "b"))
		require.NoError(t, err)
		_, err = svc.CreateLink(ctx, create("b", "c"))
		require.NoError(t, err)

		_, err = svc.CreateLink(ctx, create("c", "a"))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestDirectionalQueries(t *testing.T) {
	ctx := context.Background()
	_, svc := seeded("parent", "child", "other")

	link, err := svc.CreateLink(ctx, dto.LedgerLinkCreate{
		ParentLedgerID: "parent",
		ChildLedgerID:  "child",
		SyncMode:       string(domain.SyncParentToChild),
	})
	require.NoError(t, err)

	t.Run("parent-to-child flows out of the parent only", func(t *testing.T) {
		out, err := svc.OutgoingLinks(ctx, "parent")
		require.NoError(t, err)
		assert.Len(t, out, 1)

		out, err = svc.OutgoingLinks(ctx, "child")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("parent-to-child flows into the child only", func(t *testing.T) {
		in, err := svc.IncomingLinks(ctx, "child")
		require.NoError(t, err)
		assert.Len(t, in, 1)

		in, err = svc.IncomingLinks(ctx, "parent")
		require.NoError(t, err)
		assert.Empty(t, in)
	})

	t.Run("bidirectional flows both ways", func(t *testing.T) {
		require.NoError(t, svc.UpdateSyncMode(ctx, link.ID, domain.SyncBidirectional))
		out, err := svc.OutgoingLinks(ctx, "child")
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("has active link matches unordered", func(t *testing.T) {
		ok, err := svc.HasActiveLink(ctx, "child", "parent")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.HasActiveLink(ctx, "parent", "other")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLinkLifecycle(t *testing.T) {
	ctx := context.Background()
	_, svc := seeded("a", "b", "c")

	link, err := svc.CreateLink(ctx, create("a", "b"))
	require.NoError(t, err)
	_, err = svc.CreateLink(ctx, create("b", "c"))
	require.NoError(t, err)

	t.Run("auto sync toggle", func(t *testing.T) {
		require.NoError(t, svc.SetAutoSync(ctx, link.ID, false))
		auto, err := svc.AutoSyncLinks(ctx)
		require.NoError(t, err)
		assert.Len(t, auto, 1)
	})

	t.Run("network stats", func(t *testing.T) {
		stats, err := svc.NetworkStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.ActiveLinks)
		assert.Equal(t, 1, stats.AutoSyncLinks)
		assert.Equal(t, 3, stats.ConnectedLedgers)
	})

	t.Run("delete frees the pair", func(t *testing.T) {
		require.NoError(t, svc.DeleteLink(ctx, link.ID))
		ok, err := svc.HasActiveLink(ctx, "a", "b")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = svc.CreateLink(ctx, create("a", "b"))
		assert.NoError(t, err)
	})

	t.Run("delete all for ledger", func(t *testing.T) {
		require.NoError(t, svc.DeleteAllForLedger(ctx, "b"))
		links, err := svc.ActiveLinks(ctx)
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}
