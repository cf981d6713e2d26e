package health

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	healthy atomic.Bool
}

func (s *stubChecker) CheckHealth(context.Context) bool {
	return s.healthy.Load()
}

func TestWatcher_TracksBackendState(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	checker := &stubChecker{}
	checker.healthy.Store(true)

	w := NewWatcher(checker, 2*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	require.Eventually(t, w.Online, 2*time.Second, time.Millisecond)

	checker.healthy.Store(false)
	require.Eventually(t, func() bool { return !w.Online() }, 2*time.Second, time.Millisecond)

	checker.healthy.Store(true)
	require.Eventually(t, w.Online, 2*time.Second, time.Millisecond)
}

func TestWatcher_StartsOffline(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	w := NewWatcher(&stubChecker{}, time.Minute, logger)
	assert.False(t, w.Online())
}
