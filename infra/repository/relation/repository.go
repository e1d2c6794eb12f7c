package relation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) repository.TransactionLedgerRelationRepository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, create dto.RelationCreate) error {
	m := fromCreate(create)
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *repo) ForTransaction(ctx context.Context, transactionID string) ([]domain.TransactionLedgerRelation, error) {
	return r.list(ctx, r.db.Where("transaction_id = ?", transactionID))
}

func (r *repo) ForTransactionInLedger(ctx context.Context, transactionID, ledgerID string) (*domain.TransactionLedgerRelation, error) {
	var m TransactionLedgerRelation
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND ledger_id = ?", transactionID, ledgerID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rel := toDomain(m)
	return &rel, nil
}

func (r *repo) ByLedgerAndType(ctx context.Context, ledgerID string, t domain.RelationType) ([]domain.TransactionLedgerRelation, error) {
	return r.list(ctx, r.db.Where("ledger_id = ? AND relation_type = ?", ledgerID, string(t)))
}

func (r *repo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&TransactionLedgerRelation{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("relation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *repo) DeleteSyncedForTransaction(ctx context.Context, transactionID string) error {
	return r.db.WithContext(ctx).
		Delete(&TransactionLedgerRelation{},
			"transaction_id = ? AND relation_type <> ?", transactionID, string(domain.RelationPrimary)).
		Error
}

func (r *repo) list(ctx context.Context, q *gorm.DB) ([]domain.TransactionLedgerRelation, error) {
	var models []TransactionLedgerRelation
	if err := q.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.TransactionLedgerRelation, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}
