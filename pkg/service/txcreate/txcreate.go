// Package txcreate creates transactions: plain bookings, two-leg transfers
// and ledger-linked bookings that replicate across the link graph.
package txcreate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// LedgerSyncer replicates a transaction across the ledger link graph.
// Implemented by the syncer service; txcreate only needs this slice of it.
type LedgerSyncer interface {
	SyncToLinkedLedgers(ctx context.Context, tx domain.Transaction, sourceLedgerID string, targetLedgerIDs []string) (synced int, err error)
}

// Service creates transactions against the unit of work.
type Service struct {
	uow      repository.UnitOfWork
	syncer   LedgerSyncer
	validate *validator.Validate
	logger   *slog.Logger
}

func New(uow repository.UnitOfWork, syncer LedgerSyncer, logger *slog.Logger) *Service {
	return &Service{
		uow:      uow,
		syncer:   syncer,
		validate: validator.New(),
		logger:   logger.With("component", "txcreate"),
	}
}

// Create validates and persists one transaction. Referenced account,
// category and ledger must exist.
func (s *Service) Create(ctx context.Context, create dto.TransactionCreate) (*domain.Transaction, error) {
	if err := s.validate.Struct(create); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if create.ID == "" {
		create.ID = uuid.NewString()
	}

	var tx *domain.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := s.checkReferences(ctx, uow, create.AccountID, create.CategoryID, create.LedgerID); err != nil {
			return err
		}
		if err := uow.Transactions().Create(ctx, create); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		var err error
		tx, err = uow.Transactions().Get(ctx, create.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("💰 transaction created", "transaction_id", tx.ID, "amount_cents", tx.AmountCents, "ledger_id", tx.LedgerID)
	return tx, nil
}

// CreateTransfer books a transfer as two legs sharing a transfer id: an
// outgoing leg on the source account and an incoming leg on the target.
// When the incoming leg fails the outgoing one is deleted again; a failed
// compensation is surfaced distinctly so the caller knows a dangling leg
// remains.
func (s *Service) CreateTransfer(ctx context.Context, create dto.TransferCreate) (out, in *domain.Transaction, err error) {
	if err := s.validate.Struct(create); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		from, err := uow.Accounts().Get(ctx, create.FromAccountID)
		if err != nil {
			return fmt.Errorf("source account: %w", err)
		}
		if _, err := uow.Accounts().Get(ctx, create.ToAccountID); err != nil {
			return fmt.Errorf("target account: %w", err)
		}
		if _, err := uow.Ledgers().Get(ctx, create.LedgerID); err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		if create.CheckBalance && from.BalanceCents < create.AmountCents {
			return fmt.Errorf("%w: insufficient balance on %s", domain.ErrValidation, from.ID)
		}

		outCategory, err := s.transferCategory(ctx, uow, from.UserID, domain.CategoryExpense)
		if err != nil {
			return err
		}
		inCategory, err := s.transferCategory(ctx, uow, from.UserID, domain.CategoryIncome)
		if err != nil {
			return err
		}

		transferID := uuid.NewString()
		outID, inID := uuid.NewString(), uuid.NewString()
		note := create.Note
		if note == "" {
			note = "转账"
		}

		outCreate := dto.TransactionCreate{
			ID:                   outID,
			AccountID:            create.FromAccountID,
			AmountCents:          create.AmountCents,
			CategoryID:           outCategory,
			Note:                 note,
			LedgerID:             create.LedgerID,
			TransferID:           transferID,
			TransferType:         string(domain.TransferOut),
			RelatedTransactionID: inID,
			TransactionDate:      create.TransactionDate,
		}
		if err := uow.Transactions().Create(ctx, outCreate); err != nil {
			return fmt.Errorf("create outgoing leg: %w", err)
		}

		inCreate := outCreate
		inCreate.ID = inID
		inCreate.AccountID = create.ToAccountID
		inCreate.CategoryID = inCategory
		inCreate.TransferType = string(domain.TransferIn)
		inCreate.RelatedTransactionID = outID
		if err := uow.Transactions().Create(ctx, inCreate); err != nil {
			if delErr := uow.Transactions().Delete(ctx, outID); delErr != nil {
				s.logger.Error("❌ transfer compensation failed, outgoing leg dangling",
					"transaction_id", outID, "error", delErr)
				return fmt.Errorf("create incoming leg: %v; compensating delete of %s also failed: %w", err, outID, delErr)
			}
			return fmt.Errorf("create incoming leg: %w", err)
		}

		if out, err = uow.Transactions().Get(ctx, outID); err != nil {
			return err
		}
		in, err = uow.Transactions().Get(ctx, inID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("🔁 transfer created",
		"transfer_id", out.TransferID, "from", create.FromAccountID, "to", create.ToAccountID, "amount_cents", create.AmountCents)
	return out, in, nil
}

// CreateLinked books a transaction under its primary ledger, records the
// PRIMARY relation and, when requested, replicates it to linked ledgers.
// Replication failures do not undo the created transaction.
func (s *Service) CreateLinked(ctx context.Context, create dto.LinkedTransactionCreate) (*domain.Transaction, error) {
	if err := s.validate.Struct(create); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	tx, err := s.Create(ctx, dto.TransactionCreate{
		AccountID:       create.AccountID,
		AmountCents:     create.AmountCents,
		CategoryID:      create.CategoryID,
		Note:            create.Note,
		LedgerID:        create.PrimaryLedgerID,
		TransactionDate: create.TransactionDate,
	})
	if err != nil {
		return nil, err
	}

	if err := s.uow.Relations().Create(ctx, dto.RelationCreate{
		TransactionID: tx.ID,
		LedgerID:      create.PrimaryLedgerID,
		RelationType:  string(domain.RelationPrimary),
	}); err != nil {
		return nil, fmt.Errorf("create primary relation: %w", err)
	}

	if create.AutoSync {
		synced, err := s.syncer.SyncToLinkedLedgers(ctx, *tx, create.PrimaryLedgerID, create.TargetLedgerIDs)
		if err != nil {
			s.logger.Warn("⚠️ linked transaction created but replication incomplete",
				"transaction_id", tx.ID, "synced", synced, "error", err)
		}
	}
	return tx, nil
}

func (s *Service) checkReferences(ctx context.Context, uow repository.UnitOfWork, accountID, categoryID, ledgerID string) error {
	if _, err := uow.Accounts().Get(ctx, accountID); err != nil {
		return fmt.Errorf("account: %w", err)
	}
	if _, err := uow.Categories().Get(ctx, categoryID); err != nil {
		return fmt.Errorf("category: %w", err)
	}
	if _, err := uow.Ledgers().Get(ctx, ledgerID); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return nil
}

// transferCategory picks the category for a transfer leg: a category named
// for transfers when one exists, otherwise the first leaf of the type.
func (s *Service) transferCategory(ctx context.Context, uow repository.UnitOfWork, userID string, t domain.CategoryType) (string, error) {
	leaves, err := uow.Categories().LeafCategories(ctx, userID, t)
	if err != nil {
		return "", fmt.Errorf("transfer category: %w", err)
	}
	if len(leaves) == 0 {
		return "", fmt.Errorf("%w: no %s category for transfer leg", domain.ErrDependency, t)
	}
	for _, c := range leaves {
		if strings.Contains(c.Name, "转账") {
			return c.ID, nil
		}
	}
	return leaves[0].ID, nil
}
