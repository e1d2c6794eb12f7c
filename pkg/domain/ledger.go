package domain

import "time"

// Ledger is a bookkeeping book owned by a user. Created and edited by an
// external management component; the sync engine only reads id, owner and
// the active flag.
type Ledger struct {
	ID        string
	UserID    string
	Name      string
	IsActive  bool
	IsDefault bool
	Color     string
	Icon      string
}

// SyncMode controls which direction transactions replicate across a link.
type SyncMode string

const (
	SyncBidirectional SyncMode = "BIDIRECTIONAL"
	SyncParentToChild SyncMode = "PARENT_TO_CHILD"
	SyncChildToParent SyncMode = "CHILD_TO_PARENT"
)

// LedgerLink is a configured sync relationship between two ledgers.
// Invariants: ParentLedgerID != ChildLedgerID; at most one active link per
// unordered ledger pair; both ledgers belong to the same owner.
type LedgerLink struct {
	ID              string
	ParentLedgerID  string
	ChildLedgerID   string
	SyncMode        SyncMode
	AutoSyncEnabled bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsParent reports whether ledgerID occupies the parent side of the link.
func (l LedgerLink) IsParent(ledgerID string) bool {
	return l.ParentLedgerID == ledgerID
}

// IsChild reports whether ledgerID occupies the child side of the link.
func (l LedgerLink) IsChild(ledgerID string) bool {
	return l.ChildLedgerID == ledgerID
}

// OtherLedgerID returns the opposite side of the link, or "" when ledgerID
// is on neither side.
func (l LedgerLink) OtherLedgerID(ledgerID string) string {
	switch ledgerID {
	case l.ParentLedgerID:
		return l.ChildLedgerID
	case l.ChildLedgerID:
		return l.ParentLedgerID
	default:
		return ""
	}
}

// SyncsFrom reports whether a transaction recorded under sourceLedgerID
// replicates across this link, given the link's sync mode.
func (l LedgerLink) SyncsFrom(sourceLedgerID string) bool {
	switch l.SyncMode {
	case SyncBidirectional:
		return l.IsParent(sourceLedgerID) || l.IsChild(sourceLedgerID)
	case SyncParentToChild:
		return l.IsParent(sourceLedgerID)
	case SyncChildToParent:
		return l.IsChild(sourceLedgerID)
	default:
		return false
	}
}

// RelationType tags how a transaction appears in a ledger.
type RelationType string

const (
	// RelationPrimary is the canonical ledger the transaction was recorded
	// under. Exactly one per transaction.
	RelationPrimary          RelationType = "PRIMARY"
	RelationSyncedFromParent RelationType = "SYNCED_FROM_PARENT"
	RelationSyncedFromChild  RelationType = "SYNCED_FROM_CHILD"
)

// IsSynced reports whether the relation is a replicated appearance rather
// than the primary row.
func (t RelationType) IsSynced() bool { return t != RelationPrimary }

// TransactionLedgerRelation records one appearance of a transaction in a
// ledger. Invariants: exactly one PRIMARY relation per transaction; a
// (TransactionID, LedgerID) pair is unique across all rows; SyncSourceLedgerID
// is set for SYNCED_* rows only.
type TransactionLedgerRelation struct {
	ID            string
	TransactionID string
	LedgerID      string
	RelationType  RelationType
	// SyncSourceLedgerID is the ledger the transaction replicated from.
	SyncSourceLedgerID string
	CreatedAt          time.Time
}

// LedgerNetworkStats summarizes the link graph.
type LedgerNetworkStats struct {
	TotalLinks       int
	ActiveLinks      int
	AutoSyncLinks    int
	ConnectedLedgers int
}
