// Package repost pushes an already-listed item back to the top of the
// marketplace. Every repost is a repeat action, so it must pass the
// account's rate-limit guard before the bridge is asked to act.
package repost

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"scalency/internal/domain"
	"scalency/internal/ratelimit"
)

// RateLimitError is a rejected precondition, not a bridge failure. The
// remaining wait must be shown to the user verbatim so they know when to
// retry.
type RateLimitError struct {
	MinDelay  time.Duration
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf(
		"minimum delay of %d minutes between posts has not elapsed: %d minutes remaining",
		int(e.MinDelay.Minutes()),
		int(e.Remaining.Minutes()),
	)
}

type Service struct {
	accounts AccountStore
	listings ListingStore
	runner   Runner
	events   EventPublisher
	now      func() time.Time
	logger   *slog.Logger
}

// NewService wires the repost flow. events may be nil; now defaults to
// time.Now.
func NewService(accounts AccountStore, listings ListingStore, runner Runner, events EventPublisher, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		accounts: accounts,
		listings: listings,
		runner:   runner,
		events:   events,
		now:      now,
		logger:   logger,
	}
}

// Repost re-promotes listingID for accountID. A listing that was reposted
// too recently is rejected with a RateLimitError carrying the remaining
// wait.
func (s *Service) Repost(ctx context.Context, accountID string, listingID int64) error {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	listing, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return fmt.Errorf("load listing: %w", err)
	}

	minDelay := time.Duration(account.Settings.MinDelayBetweenPosts) * time.Minute
	if listing.LastReposted != nil {
		sinceLast := s.now().Sub(*listing.LastReposted)
		if dec := ratelimit.Check(sinceLast, minDelay); !dec.Allowed {
			s.logger.Info("repost rejected by rate limit",
				"account", accountID,
				"listing_id", listingID,
				"remaining", dec.Remaining,
			)
			return &RateLimitError{MinDelay: minDelay, Remaining: dec.Remaining}
		}
	}

	itemID := strconv.FormatInt(listingID, 10)
	if err := s.runner.Repost(ctx, account.ID, account.Username, itemID); err != nil {
		return fmt.Errorf("dispatch repost: %w", err)
	}

	repostedAt := s.now()
	if err := s.listings.MarkReposted(ctx, listingID, repostedAt); err != nil {
		return fmt.Errorf("record repost: %w", err)
	}

	s.logger.Info("listing reposted", "account", accountID, "listing_id", listingID)

	if s.events != nil {
		event := domain.ListingEvent{
			Type:      domain.EventListingReposted,
			AccountID: accountID,
			ListingID: listingID,
			Timestamp: repostedAt.UTC(),
		}
		if err := s.events.PublishEvent(ctx, event); err != nil {
			s.logger.Warn("failed to publish repost event", "error", err)
		}
	}

	return nil
}
