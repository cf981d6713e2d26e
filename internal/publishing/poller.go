package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scalency/internal/domain"
)

const (
	defaultPollInterval = 1500 * time.Millisecond
	defaultPollTimeout  = 5 * time.Minute
)

// TaskObserver receives normalized observations from a poll loop. The
// poller never mutates job state itself; the owner of the job applies what
// is reported here.
type TaskObserver interface {
	TaskProgress(stage domain.Stage, pct int, action string)
	TaskSucceeded()
	TaskFailed(message string)
	TaskTimedOut(after time.Duration)
}

// Poller repeatedly queries remote task status on a fixed cadence until a
// terminal outcome, translating vendor stage names into a monotonic
// progress percentage. Transient poll errors are swallowed and retried on
// the next tick.
type Poller struct {
	client   StatusClient
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

type PollerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

func NewPoller(client StatusClient, cfg PollerConfig, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultPollTimeout
	}
	return &Poller{
		client:   client,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Handle controls one running poll loop. Stop cancels it; after Stop
// returns no further observations are delivered.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the loop and waits for it to wind down.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed when the loop has exited, terminal or canceled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start launches the poll loop for taskID and returns its handle. The
// caller must Stop the handle on teardown; the loop also stops by itself on
// a terminal outcome or when the total poll duration exceeds the timeout.
func (p *Poller) Start(taskID string, obs TaskObserver) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go p.run(ctx, taskID, obs, h)
	return h
}

func (p *Poller) run(ctx context.Context, taskID string, obs TaskObserver, h *Handle) {
	defer close(h.done)

	logger := p.logger.With("task_id", taskID)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.timeout)
	defer deadline.Stop()

	lastPct := 0
	for {
		select {
		case <-ctx.Done():
			return

		case <-deadline.C:
			logger.Error("publish task timed out", "after", p.timeout)
			obs.TaskTimedOut(p.timeout)
			return

		case <-ticker.C:
			status, err := p.client.Status(ctx, taskID)
			if ctx.Err() != nil {
				// Canceled mid-request; a late response must not
				// resurrect the job.
				return
			}
			if err != nil {
				logger.Debug("transient poll error", "error", err)
				continue
			}

			if status.Stage != "" {
				pct, known := status.Stage.Progress()
				switch {
				case !known:
					logger.Warn("unknown pipeline stage", "stage", status.Stage)
				case pct > lastPct:
					lastPct = pct
					action := status.CurrentAction
					if action == "" {
						action = "Working"
					}
					obs.TaskProgress(status.Stage, pct, action)
				}
			}

			switch status.Status {
			case domain.RunStateSuccess:
				obs.TaskSucceeded()
				return
			case domain.RunStateFailure:
				message := status.Error
				if message == "" {
					message = "publish failed"
				}
				obs.TaskFailed(message)
				return
			}
		}
	}
}

// timeoutMessage is the terminal error recorded for a stuck remote job.
func timeoutMessage(after time.Duration) string {
	return fmt.Sprintf("publish timed out after %s", after)
}
