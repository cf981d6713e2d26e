// Package ratelimit decides whether a repeat marketplace action is allowed
// for an account. Posting again before the configured cool-down has elapsed
// risks tripping the marketplace's anti-abuse detection, so every repost is
// checked here first.
package ratelimit

import "time"

// Decision is the outcome of a guard check. When the action is rejected,
// Remaining carries the wait left before it would be allowed; it must be
// surfaced to the user verbatim.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}

// Check approves the action iff at least minDelay has passed since the last
// one. The guard holds no state: the caller supplies the elapsed time.
func Check(sinceLast, minDelay time.Duration) Decision {
	if sinceLast >= minDelay {
		return Decision{Allowed: true}
	}
	return Decision{Remaining: minDelay - sinceLast}
}
