package publishing

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"scalency/internal/domain"
)

// Analyzer turns raw image bytes into structured listing attributes. It is
// best effort: any error degrades the flow to an empty, manually editable
// draft instead of blocking it.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*domain.AnalysisResult, error)
}

// StatusClient reports the state of a remote publish task.
type StatusClient interface {
	Status(ctx context.Context, taskID string) (*domain.TaskStatus, error)
}

// Backend is the two-phase submission contract: ingest a draft snapshot,
// then start publication of the resulting listing.
type Backend interface {
	StatusClient
	Ingest(ctx context.Context, sub domain.ListingSubmission) (int64, error)
	Publish(ctx context.Context, listingID int64) (string, error)
}

// EventPublisher emits listing lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.ListingEvent) error
}
