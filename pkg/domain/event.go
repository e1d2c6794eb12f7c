package domain

// Event is implemented by everything published on the result bus.
type Event interface {
	Type() string
}

// RawEvent is a device-level payment notification as delivered by the
// external capture layer. It is transient and never persisted beyond a
// single processing cycle.
type RawEvent struct {
	// PackageName identifies the source application.
	PackageName string
	Title       string
	Text        string
	// PostTime is the notification post time in epoch milliseconds.
	PostTime int64
	// NotificationKey is the opaque key assigned by the capture layer.
	NotificationKey string
	// GroupSummary marks aggregate notifications that bundle several
	// individual ones and must not be booked on their own.
	GroupSummary bool
}

// Content returns the normalized title+text used for content hashing
// and keyword matching.
func (e RawEvent) Content() string {
	return e.Title + " " + e.Text
}
