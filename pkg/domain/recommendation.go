package domain

// Recommendation is the recommender's proposal for booking a notification.
// AccountID and CategoryID are empty when no suitable candidate was found.
// Ephemeral, produced once per notification.
type Recommendation struct {
	AccountID  string
	CategoryID string
	LedgerID   string
	// Confidence is in [0,1] and already folds in the parser's confidence.
	Confidence float64
	// Reason names the signals that contributed, for display and audit.
	Reason string
}
