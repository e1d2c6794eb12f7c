package dto

import "time"

// TransactionCreate is the creator's input. Validated with struct tags
// before any repository call: amount must be non-zero, the referenced ids
// non-blank.
type TransactionCreate struct {
	ID          string `validate:"omitempty,uuid4"`
	AccountID   string `validate:"required"`
	AmountCents int64  `validate:"required"`
	CategoryID  string `validate:"required"`
	Note        string
	LedgerID    string `validate:"required"`

	TransferID           string
	TransferType         string
	RelatedTransactionID string

	TransactionDate *time.Time
	Latitude        *float64
	Longitude       *float64
	Address         string
}

// TransactionUpdate carries optional field updates.
type TransactionUpdate struct {
	AccountID            *string
	AmountCents          *int64
	CategoryID           *string
	Note                 *string
	TransferID           *string
	TransferType         *string
	RelatedTransactionID *string
}

// TransferCreate is the input of the two-leg transfer variant.
type TransferCreate struct {
	FromAccountID   string `validate:"required"`
	ToAccountID     string `validate:"required,nefield=FromAccountID"`
	AmountCents     int64  `validate:"required,gt=0"`
	Note            string
	LedgerID        string `validate:"required"`
	TransactionDate *time.Time
	CheckBalance    bool
}

// LinkedTransactionCreate is the input of the ledger-linked variant: the
// transaction is created under PrimaryLedgerID with a PRIMARY relation and
// then replicated per active links (or to TargetLedgerIDs when given).
type LinkedTransactionCreate struct {
	PrimaryLedgerID string `validate:"required"`
	AccountID       string `validate:"required"`
	AmountCents     int64  `validate:"required"`
	CategoryID      string `validate:"required"`
	Note            string
	TransactionDate *time.Time
	AutoSync        bool
	TargetLedgerIDs []string
}
