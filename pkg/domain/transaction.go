package domain

import "time"

// TransferType marks which leg of a transfer a transaction is.
type TransferType string

const (
	TransferOut TransferType = "OUT"
	TransferIn  TransferType = "IN"
)

// Location is an optional place a transaction happened at.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Transaction is a persisted financial transaction. The sign of the amount
// is conveyed through the category type rather than the raw value.
type Transaction struct {
	ID          string
	AccountID   string
	AmountCents int64
	CategoryID  string
	Note        string
	// LedgerID is the ledger the transaction is primarily recorded under.
	LedgerID  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Transfer linkage, set on transfer legs only.
	TransferID           string
	TransferType         TransferType
	RelatedTransactionID string

	TransactionDate *time.Time
	Location        *Location
}
