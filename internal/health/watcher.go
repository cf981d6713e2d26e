package health

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Checker reports whether the bridge backend is reachable.
type Checker interface {
	CheckHealth(ctx context.Context) bool
}

// Watcher polls backend health on a fixed interval and exposes the latest
// result. Submission is gated on Online by the caller.
type Watcher struct {
	checker  Checker
	interval time.Duration
	logger   *slog.Logger
	online   atomic.Bool
}

func NewWatcher(checker Checker, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		checker:  checker,
		interval: interval,
		logger:   logger,
	}
}

// Online returns the result of the most recent health check.
func (w *Watcher) Online() bool {
	return w.online.Load()
}

// Start runs the watch loop until ctx is done. The first check runs
// immediately so Online is meaningful right after startup.
func (w *Watcher) Start(ctx context.Context) error {
	w.check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("health watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	online := w.checker.CheckHealth(checkCtx)
	if w.online.Swap(online) != online {
		if online {
			w.logger.Info("bridge is online")
		} else {
			w.logger.Warn("bridge is offline")
		}
	}
}
