package dto

// LedgerLinkCreate is the registry's creation input.
type LedgerLinkCreate struct {
	ParentLedgerID  string `validate:"required"`
	ChildLedgerID   string `validate:"required,nefield=ParentLedgerID"`
	SyncMode        string `validate:"required,oneof=BIDIRECTIONAL PARENT_TO_CHILD CHILD_TO_PARENT"`
	AutoSyncEnabled bool
}

// RelationCreate inserts one transaction↔ledger relation row.
type RelationCreate struct {
	ID                 string
	TransactionID      string `validate:"required"`
	LedgerID           string `validate:"required"`
	RelationType       string `validate:"required,oneof=PRIMARY SYNCED_FROM_PARENT SYNCED_FROM_CHILD"`
	SyncSourceLedgerID string
}
