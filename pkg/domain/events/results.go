// Package events defines the result events published for every processed
// notification. Exactly one of them is emitted per event that entered the
// pipeline; the presentation and audit layers subscribe by Type.
package events

import (
	"github.com/ccxiaoji/autoledger/pkg/domain"
)

// Event type names used for bus routing.
const (
	EventTransactionCreated   = "autoledger.transaction_created"
	EventConfirmationRequired = "autoledger.confirmation_required"
	EventManualConfirmed      = "autoledger.manual_confirmed"
	EventSkipped              = "autoledger.skipped"
	EventParseFailed          = "autoledger.parse_failed"
	EventProcessingFailed     = "autoledger.processing_failed"
)

// TransactionCreated is published when a transaction was auto-created.
type TransactionCreated struct {
	Transaction    domain.Transaction        `json:"transaction"`
	Notification   domain.ParsedNotification `json:"notification"`
	Recommendation domain.Recommendation     `json:"recommendation"`
}

func (TransactionCreated) Type() string { return EventTransactionCreated }

// ConfirmationRequired is published when the decision engine asks the user
// to confirm. Candidates holds the primary proposal first, followed by up
// to two alternates.
type ConfirmationRequired struct {
	Notification   domain.ParsedNotification `json:"notification"`
	Recommendation domain.Recommendation     `json:"recommendation"`
	Candidates     []domain.Transaction      `json:"candidates"`
}

func (ConfirmationRequired) Type() string { return EventConfirmationRequired }

// ManualConfirmed is published after a user-confirmed candidate was created.
type ManualConfirmed struct {
	Transaction  domain.Transaction        `json:"transaction"`
	Notification domain.ParsedNotification `json:"notification"`
}

func (ManualConfirmed) Type() string { return EventManualConfirmed }

// Skipped is published for duplicates and unsupported notifications.
type Skipped struct {
	PackageName string `json:"package_name"`
	Reason      string `json:"reason"`
}

func (Skipped) Type() string { return EventSkipped }

// ParseFailed is published when the external parser rejected the event.
type ParseFailed struct {
	PackageName string `json:"package_name"`
	Reason      string `json:"reason"`
}

func (ParseFailed) Type() string { return EventParseFailed }

// ProcessingFailed is published for every error outcome, including dedup
// store failures, which must never be silently treated as duplicates.
type ProcessingFailed struct {
	Message string `json:"message"`
}

func (ProcessingFailed) Type() string { return EventProcessingFailed }
