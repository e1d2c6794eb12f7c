// Package syncer replicates transactions across ledger links. Replication
// never copies the transaction row; it adds relation rows marking the
// transaction's appearance in each target ledger.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// Service is the sync engine.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{
		uow:    uow,
		logger: logger.With("component", "syncer"),
	}
}

// SyncToLinkedLedgers replicates tx from sourceLedgerID across its
// auto-sync links, or to the named target ledgers when given. Per-target
// failures are joined and returned after all targets were attempted; the
// count reports how many succeeded.
func (s *Service) SyncToLinkedLedgers(ctx context.Context, tx domain.Transaction, sourceLedgerID string, targetLedgerIDs []string) (int, error) {
	if len(targetLedgerIDs) > 0 {
		return s.syncToTargets(ctx, tx, sourceLedgerID, targetLedgerIDs, false)
	}

	links, err := s.uow.LedgerLinks().AutoSyncLinks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load auto-sync links: %w", err)
	}
	var (
		synced int
		errs   []error
	)
	for _, link := range links {
		if !link.SyncsFrom(sourceLedgerID) {
			continue
		}
		ok, err := s.syncOne(ctx, tx, link, sourceLedgerID, false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			synced++
		}
	}
	if synced > 0 {
		s.logger.Info("📚 transaction replicated", "transaction_id", tx.ID, "source_ledger", sourceLedgerID, "synced", synced)
	}
	return synced, errors.Join(errs...)
}

// ManualSync replicates an existing transaction to the named ledgers,
// regardless of the links' auto-sync flag. A target the transaction already
// appears in is reported as ErrConflict rather than skipped.
func (s *Service) ManualSync(ctx context.Context, transactionID, sourceLedgerID string, targetLedgerIDs []string) (int, error) {
	if transactionID == "" || sourceLedgerID == "" {
		return 0, fmt.Errorf("%w: blank transaction or ledger id", domain.ErrValidation)
	}
	tx, err := s.uow.Transactions().Get(ctx, transactionID)
	if err != nil {
		return 0, err
	}
	return s.syncToTargets(ctx, *tx, sourceLedgerID, targetLedgerIDs, true)
}

// RemoveSyncedRelations deletes every replicated appearance of the
// transaction. The PRIMARY row always survives.
func (s *Service) RemoveSyncedRelations(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("%w: blank transaction id", domain.ErrValidation)
	}
	if err := s.uow.Relations().DeleteSyncedForTransaction(ctx, transactionID); err != nil {
		return fmt.Errorf("remove synced relations: %w", err)
	}
	s.logger.Info("🧹 synced relations removed", "transaction_id", transactionID)
	return nil
}

// UpdateSynced refreshes the replicated appearances after the transaction
// changed: existing synced rows are removed, then replication runs again
// from the primary ledger. The two steps are not atomic; a failure between
// them leaves the transaction visible in its primary ledger only, which a
// later resync repairs.
func (s *Service) UpdateSynced(ctx context.Context, transactionID string) (int, error) {
	rels, err := s.uow.Relations().ForTransaction(ctx, transactionID)
	if err != nil {
		return 0, fmt.Errorf("load relations: %w", err)
	}
	primary := ""
	for _, rel := range rels {
		if rel.RelationType == domain.RelationPrimary {
			primary = rel.LedgerID
			break
		}
	}
	if primary == "" {
		return 0, fmt.Errorf("%w: transaction %s has no primary relation", domain.ErrNotFound, transactionID)
	}

	if err := s.RemoveSyncedRelations(ctx, transactionID); err != nil {
		return 0, err
	}
	tx, err := s.uow.Transactions().Get(ctx, transactionID)
	if err != nil {
		return 0, err
	}
	return s.SyncToLinkedLedgers(ctx, *tx, primary, nil)
}

// BatchSync replicates every transaction of the ledger across its auto-sync
// links, counting transactions that gained at least one new appearance.
func (s *Service) BatchSync(ctx context.Context, sourceLedgerID string) (int, error) {
	if sourceLedgerID == "" {
		return 0, fmt.Errorf("%w: blank ledger id", domain.ErrValidation)
	}
	txs, err := s.uow.Transactions().ListByLedger(ctx, sourceLedgerID)
	if err != nil {
		return 0, fmt.Errorf("list ledger transactions: %w", err)
	}
	var (
		synced int
		errs   []error
	)
	for _, tx := range txs {
		n, err := s.SyncToLinkedLedgers(ctx, tx, sourceLedgerID, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("transaction %s: %w", tx.ID, err))
		}
		if n > 0 {
			synced++
		}
	}
	s.logger.Info("📦 batch sync finished", "source_ledger", sourceLedgerID, "transactions", len(txs), "synced", synced)
	return synced, errors.Join(errs...)
}

func (s *Service) syncToTargets(ctx context.Context, tx domain.Transaction, sourceLedgerID string, targetLedgerIDs []string, conflictOnExisting bool) (int, error) {
	var (
		synced int
		errs   []error
	)
	for _, target := range targetLedgerIDs {
		link, err := s.uow.LedgerLinks().LinkBetween(ctx, sourceLedgerID, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target, err))
			continue
		}
		if link == nil {
			errs = append(errs, fmt.Errorf("target %s: %w: ledgers not linked", target, domain.ErrValidation))
			continue
		}
		if !link.SyncsFrom(sourceLedgerID) {
			errs = append(errs, fmt.Errorf("target %s: %w: link mode blocks this direction", target, domain.ErrValidation))
			continue
		}
		ok, err := s.syncOne(ctx, tx, *link, sourceLedgerID, conflictOnExisting)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			synced++
		}
	}
	return synced, errors.Join(errs...)
}

// syncOne adds the relation row in the link's far ledger. An existing row
// for the (transaction, ledger) pair means the appearance is already there;
// automatic replication skips it silently, which also breaks replication
// loops on bidirectional links, while manual sync surfaces it as a conflict.
func (s *Service) syncOne(ctx context.Context, tx domain.Transaction, link domain.LedgerLink, sourceLedgerID string, conflictOnExisting bool) (bool, error) {
	target := link.OtherLedgerID(sourceLedgerID)
	if target == "" {
		return false, fmt.Errorf("%w: ledger %s is not on link %s", domain.ErrValidation, sourceLedgerID, link.ID)
	}

	existing, err := s.uow.Relations().ForTransactionInLedger(ctx, tx.ID, target)
	if err != nil {
		return false, fmt.Errorf("check relation in %s: %w", target, err)
	}
	if existing != nil {
		if conflictOnExisting {
			return false, fmt.Errorf("target %s: %w: transaction already appears there", target, domain.ErrConflict)
		}
		return false, nil
	}

	relationType := domain.RelationSyncedFromChild
	if link.IsParent(sourceLedgerID) {
		relationType = domain.RelationSyncedFromParent
	}
	if err := s.uow.Relations().Create(ctx, dto.RelationCreate{
		TransactionID:      tx.ID,
		LedgerID:           target,
		RelationType:       string(relationType),
		SyncSourceLedgerID: sourceLedgerID,
	}); err != nil {
		return false, fmt.Errorf("create relation in %s: %w", target, err)
	}
	return true, nil
}
