package repost

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"scalency/internal/domain"
)

type AccountStore interface {
	Get(ctx context.Context, id string) (*domain.Account, error)
}

type ListingStore interface {
	Get(ctx context.Context, id int64) (*domain.Listing, error)
	MarkReposted(ctx context.Context, id int64, at time.Time) error
}

// Runner dispatches the actual repost through the bridge.
type Runner interface {
	Repost(ctx context.Context, accountID, username, itemID string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.ListingEvent) error
}
