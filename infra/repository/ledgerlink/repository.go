package ledgerlink

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) repository.LedgerLinkRepository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, link domain.LedgerLink) error {
	m := fromDomain(link)
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *repo) Get(ctx context.Context, id string) (*domain.LedgerLink, error) {
	var m LedgerLink
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ledger link %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	l := toDomain(m)
	return &l, nil
}

func (r *repo) LinksForLedger(ctx context.Context, ledgerID string) ([]domain.LedgerLink, error) {
	return r.list(ctx, r.db.Where("parent_ledger_id = ? OR child_ledger_id = ?", ledgerID, ledgerID))
}

func (r *repo) ActiveLinks(ctx context.Context) ([]domain.LedgerLink, error) {
	return r.list(ctx, r.db.Where("is_active = ?", true))
}

func (r *repo) AutoSyncLinks(ctx context.Context) ([]domain.LedgerLink, error) {
	return r.list(ctx, r.db.Where("is_active = ? AND auto_sync_enabled = ?", true, true))
}

func (r *repo) LinkBetween(ctx context.Context, ledgerA, ledgerB string) (*domain.LedgerLink, error) {
	var m LedgerLink
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND ((parent_ledger_id = ? AND child_ledger_id = ?) OR (parent_ledger_id = ? AND child_ledger_id = ?))",
			true, ledgerA, ledgerB, ledgerB, ledgerA).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l := toDomain(m)
	return &l, nil
}

func (r *repo) UpdateSyncMode(ctx context.Context, id string, mode domain.SyncMode) error {
	return r.updateFields(ctx, id, map[string]any{"sync_mode": string(mode)})
}

func (r *repo) SetAutoSyncEnabled(ctx context.Context, id string, enabled bool) error {
	return r.updateFields(ctx, id, map[string]any{"auto_sync_enabled": enabled})
}

func (r *repo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&LedgerLink{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ledger link %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *repo) DeleteAllForLedger(ctx context.Context, ledgerID string) error {
	return r.db.WithContext(ctx).
		Delete(&LedgerLink{}, "parent_ledger_id = ? OR child_ledger_id = ?", ledgerID, ledgerID).Error
}

func (r *repo) list(ctx context.Context, q *gorm.DB) ([]domain.LedgerLink, error) {
	var models []LedgerLink
	if err := q.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.LedgerLink, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *repo) updateFields(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&LedgerLink{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ledger link %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
