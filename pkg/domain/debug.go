package domain

import "time"

// DebugStatus classifies the outcome captured by a debug record.
type DebugStatus string

const (
	DebugSuccessAuto          DebugStatus = "SUCCESS_AUTO"
	DebugSuccessManual        DebugStatus = "SUCCESS_MANUAL"
	DebugSkippedDuplicate     DebugStatus = "SKIPPED_DUPLICATE"
	DebugSkippedLowConfidence DebugStatus = "SKIPPED_LOW_CONFIDENCE"
	DebugParseFailed          DebugStatus = "PARSE_FAILED"
	DebugProcessFailed        DebugStatus = "PROCESS_FAILED"
	DebugUnknownError         DebugStatus = "UNKNOWN_ERROR"
)

// DebugRecord is a write-once audit entry capturing one decision trace.
// Stored by an external sink; only the write contract matters here.
type DebugRecord struct {
	ID         string
	Status     DebugStatus
	SourceType SourceType
	Title      string
	Text       string

	// Parsed fields, zero when parsing never happened.
	AmountCents int64
	Merchant    string
	Direction   Direction
	Confidence  float64

	// Recommendation outcome, empty when the stage was not reached.
	AccountID  string
	CategoryID string
	LedgerID   string
	Reason     string

	TransactionID string
	Error         string
	Automatic     bool
	ProcessingMs  int64
	CreatedAt     time.Time
}
