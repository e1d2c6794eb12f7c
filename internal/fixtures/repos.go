package fixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
)

// AccountRepo is a slice-backed account repository. Set FailWith to make
// every call return that error.
type AccountRepo struct {
	mu       sync.Mutex
	items    []domain.Account
	FailWith error
}

func NewAccountRepo() *AccountRepo { return &AccountRepo{} }

func (r *AccountRepo) Add(a domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, a)
}

func (r *AccountRepo) Get(_ context.Context, id string) (*domain.Account, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			a := r.items[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
}

func (r *AccountRepo) ListByUser(_ context.Context, userID string) ([]domain.Account, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Account
	for _, a := range r.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AccountRepo) GetDefault(_ context.Context, userID string) (*domain.Account, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].UserID == userID && r.items[i].IsDefault {
			a := r.items[i]
			return &a, nil
		}
	}
	return nil, nil
}

// CategoryRepo is a slice-backed category repository. Frequent holds the
// canned answer of FrequentCategories, most frequent first.
type CategoryRepo struct {
	mu       sync.Mutex
	items    []domain.Category
	Frequent []domain.Category
	FailWith error
}

func NewCategoryRepo() *CategoryRepo { return &CategoryRepo{} }

func (r *CategoryRepo) Add(c domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, c)
}

func (r *CategoryRepo) Get(_ context.Context, id string) (*domain.Category, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			c := r.items[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
}

func (r *CategoryRepo) LeafCategories(_ context.Context, userID string, t domain.CategoryType) ([]domain.Category, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byLevel := func(level int) []domain.Category {
		var out []domain.Category
		for _, c := range r.items {
			if c.UserID == userID && c.Type == t && c.IsActive && c.Level == level {
				out = append(out, c)
			}
		}
		return out
	}
	if leaves := byLevel(2); len(leaves) > 0 {
		return leaves, nil
	}
	return byLevel(1), nil
}

func (r *CategoryRepo) FrequentCategories(_ context.Context, _ string, t domain.CategoryType, limit int) ([]domain.Category, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Category
	for _, c := range r.Frequent {
		if c.Type == t && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

// LedgerRepo is a slice-backed ledger repository.
type LedgerRepo struct {
	mu       sync.Mutex
	items    []domain.Ledger
	FailWith error
}

func NewLedgerRepo() *LedgerRepo { return &LedgerRepo{} }

func (r *LedgerRepo) Add(l domain.Ledger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, l)
}

func (r *LedgerRepo) Get(_ context.Context, id string) (*domain.Ledger, error) {
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
	return nil, fmt.Errorf("ledger %s: %w", id, domain.ErrNotFound)
}

func (r *LedgerRepo) GetDefault(_ context.Context, userID string) (*domain.Ledger, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].UserID == userID && r.items[i].IsDefault && r.items[i].IsActive {
			l := r.items[i]
			return &l, nil
		}
	}
	return nil, nil
}

// TransactionRepo is a slice-backed transaction repository.
type TransactionRepo struct {
	mu       sync.Mutex
	items    []domain.Transaction
	FailWith error
	// FailCreateFor makes Create fail for one account id, for compensation
	// tests.
	FailCreateFor string
}

func NewTransactionRepo() *TransactionRepo { return &TransactionRepo{} }

func (r *TransactionRepo) Create(_ context.Context, create dto.TransactionCreate) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	if r.FailCreateFor != "" && create.AccountID == r.FailCreateFor {
		return fmt.Errorf("create transaction for %s: %w", create.AccountID, domain.ErrDependency)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := create.ID
	if id == "" {
		id = uuid.NewString()
	}
	tx := domain.Transaction{
		ID:                   id,
		AccountID:            create.AccountID,
		AmountCents:          create.AmountCents,
		CategoryID:           create.CategoryID,
		Note:                 create.Note,
		LedgerID:             create.LedgerID,
		TransferID:           create.TransferID,
		TransferType:         domain.TransferType(create.TransferType),
		RelatedTransactionID: create.RelatedTransactionID,
		TransactionDate:      create.TransactionDate,
		CreatedAt:            now(),
		UpdatedAt:            now(),
	}
	if create.Latitude != nil && create.Longitude != nil {
		tx.Location = &domain.Location{
			Latitude:  *create.Latitude,
			Longitude: *create.Longitude,
			Address:   create.Address,
		}
	}
	r.items = append(r.items, tx)
	return nil
}

func (r *TransactionRepo) Get(_ context.Context, id string) (*domain.Transaction, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			tx := r.items[i]
			return &tx, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
}

func (r *TransactionRepo) Update(_ context.Context, id string, update dto.TransactionUpdate) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		tx := &r.items[i]
		if update.AccountID != nil {
			tx.AccountID = *update.AccountID
		}
		if update.AmountCents != nil {
			tx.AmountCents = *update.AmountCents
		}
		if update.CategoryID != nil {
			tx.CategoryID = *update.CategoryID
		}
		if update.Note != nil {
			tx.Note = *update.Note
		}
		if update.TransferID != nil {
			tx.TransferID = *update.TransferID
		}
		if update.TransferType != nil {
			tx.TransferType = domain.TransferType(*update.TransferType)
		}
		if update.RelatedTransactionID != nil {
			tx.RelatedTransactionID = *update.RelatedTransactionID
		}
		tx.UpdatedAt = now()
		return nil
	}
	return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
}

func (r *TransactionRepo) Delete(_ context.Context, id string) error {
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
	return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
}

func (r *TransactionRepo) ListByLedger(_ context.Context, ledgerID string) ([]domain.Transaction, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.items {
		if tx.LedgerID == ledgerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// All returns every stored transaction in insertion order.
func (r *TransactionRepo) All() []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, len(r.items))
	copy(out, r.items)
	return out
}
