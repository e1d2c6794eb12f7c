package fixtures

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
)

// LedgerLinkRepo is a slice-backed ledger link repository.
type LedgerLinkRepo struct {
	mu       sync.Mutex
	items    []domain.LedgerLink
	FailWith error
}

func NewLedgerLinkRepo() *LedgerLinkRepo { return &LedgerLinkRepo{} }

func (r *LedgerLinkRepo) Create(_ context.Context, link domain.LedgerLink) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, link)
	return nil
}

func (r *LedgerLinkRepo) Get(_ context.Context, id string) (*domain.LedgerLink, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			l := r.items[i]
			return &l, nil
		}
	}
	return nil, fmt.Errorf("ledger link %s: %w", id, domain.ErrNotFound)
}

func (r *LedgerLinkRepo) LinksForLedger(_ context.Context, ledgerID string) ([]domain.LedgerLink, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LedgerLink
	for _, l := range r.items {
		if l.IsParent(ledgerID) || l.IsChild(ledgerID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LedgerLinkRepo) ActiveLinks(_ context.Context) ([]domain.LedgerLink, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LedgerLink
	for _, l := range r.items {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LedgerLinkRepo) AutoSyncLinks(_ context.Context) ([]domain.LedgerLink, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LedgerLink
	for _, l := range r.items {
		if l.IsActive && l.AutoSyncEnabled {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LedgerLinkRepo) LinkBetween(_ context.Context, ledgerA, ledgerB string) (*domain.LedgerLink, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		l := r.items[i]
		if !l.IsActive {
			continue
		}
		if (l.ParentLedgerID == ledgerA && l.ChildLedgerID == ledgerB) ||
			(l.ParentLedgerID == ledgerB && l.ChildLedgerID == ledgerA) {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *LedgerLinkRepo) UpdateSyncMode(_ context.Context, id string, mode domain.SyncMode) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].SyncMode = mode
			r.items[i].UpdatedAt = now()
			return nil
		}
	}
	return fmt.Errorf("ledger link %s: %w", id, domain.ErrNotFound)
}

func (r *LedgerLinkRepo) SetAutoSyncEnabled(_ context.Context, id string, enabled bool) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].AutoSyncEnabled = enabled
			r.items[i].UpdatedAt = now()
			return nil
		}
	}
	return fmt.Errorf("ledger link %s: %w", id, domain.ErrNotFound)
}

func (r *LedgerLinkRepo) Delete(_ context.Context, id string) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("ledger link %s: %w", id, domain.ErrNotFound)
}

func (r *LedgerLinkRepo) DeleteAllForLedger(_ context.Context, ledgerID string) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, l := range r.items {
		if !l.IsParent(ledgerID) && !l.IsChild(ledgerID) {
			kept = append(kept, l)
		}
	}
	r.items = kept
	return nil
}

// RelationRepo is a slice-backed transaction↔ledger relation repository.
type RelationRepo struct {
	mu       sync.Mutex
	items    []domain.TransactionLedgerRelation
	FailWith error
}

func NewRelationRepo() *RelationRepo { return &RelationRepo{} }

func (r *RelationRepo) Create(_ context.Context, create dto.RelationCreate) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := create.ID
	if id == "" {
		id = uuid.NewString()
	}
	r.items = append(r.items, domain.TransactionLedgerRelation{
		ID:                 id,
		TransactionID:      create.TransactionID,
		LedgerID:           create.LedgerID,
		RelationType:       domain.RelationType(create.RelationType),
		SyncSourceLedgerID: create.SyncSourceLedgerID,
		CreatedAt:          now(),
	})
	return nil
}

func (r *RelationRepo) ForTransaction(_ context.Context, transactionID string) ([]domain.TransactionLedgerRelation, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TransactionLedgerRelation
	for _, rel := range r.items {
		if rel.TransactionID == transactionID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *RelationRepo) ForTransactionInLedger(_ context.Context, transactionID, ledgerID string) (*domain.TransactionLedgerRelation, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].TransactionID == transactionID && r.items[i].LedgerID == ledgerID {
			rel := r.items[i]
			return &rel, nil
		}
	}
	return nil, nil
}

func (r *RelationRepo) ByLedgerAndType(_ context.Context, ledgerID string, t domain.RelationType) ([]domain.TransactionLedgerRelation, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TransactionLedgerRelation
	for _, rel := range r.items {
		if rel.LedgerID == ledgerID && rel.RelationType == t {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *RelationRepo) Delete(_ context.Context, id string) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("relation %s: %w", id, domain.ErrNotFound)
}

func (r *RelationRepo) DeleteSyncedForTransaction(_ context.Context, transactionID string) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, rel := range r.items {
		if rel.TransactionID == transactionID && rel.RelationType.IsSynced() {
			continue
		}
		kept = append(kept, rel)
	}
	r.items = kept
	return nil
}

// DebugRepo is a slice-backed audit sink.
type DebugRepo struct {
	mu       sync.Mutex
	items    []domain.DebugRecord
	FailWith error
}

func NewDebugRepo() *DebugRepo { return &DebugRepo{} }

func (r *DebugRepo) Create(_ context.Context, record domain.DebugRecord) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, record)
	return nil
}

func (r *DebugRepo) Recent(_ context.Context, limit int) ([]domain.DebugRecord, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.items)
	if limit < n {
		n = limit
	}
	out := make([]domain.DebugRecord, 0, n)
	for i := len(r.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.items[i])
	}
	return out, nil
}

func (r *DebugRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if r.FailWith != nil {
		return 0, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	kept := r.items[:0]
	for _, rec := range r.items {
		if rec.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.items = kept
	return removed, nil
}

// All returns every stored record in insertion order.
func (r *DebugRepo) All() []domain.DebugRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DebugRecord, len(r.items))
	copy(out, r.items)
	return out
}
