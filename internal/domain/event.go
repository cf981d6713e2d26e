package domain

import "time"

type EventType string

const (
	EventListingPublished EventType = "listing.published"
	EventListingFailed    EventType = "listing.failed"
	EventListingReposted  EventType = "listing.reposted"
)

// ListingEvent is a lifecycle notification emitted to downstream consumers
// (dashboard, audit log) after a marketplace action completes.
type ListingEvent struct {
	Type      EventType `json:"type"`
	AccountID string    `json:"account_id"`
	ListingID int64     `json:"listing_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
