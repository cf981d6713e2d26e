package publishing

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scalency/internal/domain"
)

type State string

const (
	StateUpload     State = "UPLOAD"
	StateAnalyzing  State = "ANALYZING"
	StateDraft      State = "DRAFT"
	StateSubmitting State = "SUBMITTING"
	StatePublishing State = "PUBLISHING"
	StateSuccess    State = "SUCCESS"
	StateFailure    State = "FAILURE"
)

// Snapshot is an immutable view of the orchestrator handed to subscribers
// on every transition. Rendering layers consume snapshots; they never own
// state themselves.
type Snapshot struct {
	State    State
	Draft    domain.ListingDraft
	Progress int
	Stage    domain.Stage
	Logs     []string
	Err      string
}

type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	LogCapacity  int
}

// Orchestrator drives one listing from image upload through AI analysis,
// draft editing and two-phase submission to a terminal outcome. It owns the
// draft, its submit-time snapshot and the single active PublishJob; the
// poller only reports observations, which are applied here.
type Orchestrator struct {
	analyzer Analyzer
	backend  Backend
	events   EventPublisher
	poller   *Poller
	logger   *slog.Logger
	account  domain.Account

	mu       sync.Mutex
	state    State
	draft    domain.ListingDraft
	snapshot *domain.ListingDraft
	image    []byte
	job      *domain.PublishJob
	result   *domain.PublishJob
	progress int
	stage    domain.Stage
	handle   *Handle
	logs     *LogStream
	lastErr  string
	subs     []func(Snapshot)
	done     chan domain.Outcome
}

// NewOrchestrator builds an orchestrator for one account. events may be nil
// when no broker is configured.
func NewOrchestrator(account domain.Account, analyzer Analyzer, backend Backend, events EventPublisher, cfg Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		analyzer: analyzer,
		backend:  backend,
		events:   events,
		poller: NewPoller(backend, PollerConfig{
			Interval: cfg.PollInterval,
			Timeout:  cfg.PollTimeout,
		}, logger),
		logger:  logger.With("account", account.ID),
		account: account,
		state:   StateUpload,
		logs:    NewLogStream(cfg.LogCapacity),
	}
}

// Subscribe registers a callback invoked with a state snapshot after every
// transition. Callbacks must not call back into the orchestrator.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
}

// Snapshot returns the current state view.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		State:    o.state,
		Draft:    o.draft.Clone(),
		Progress: o.progress,
		Stage:    o.stage,
		Logs:     o.logs.Lines(),
		Err:      o.lastErr,
	}
}

// notify publishes the current snapshot to subscribers. Called without the
// lock held.
func (o *Orchestrator) notify() {
	o.mu.Lock()
	snap := o.snapshotLocked()
	subs := append([](func(Snapshot))(nil), o.subs...)
	o.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// UploadImage accepts raw image bytes and runs AI analysis. Analysis
// failure is non-fatal: the flow still reaches an editable, empty draft. A
// second upload while analysis is in flight is rejected with
// domain.ErrAnalysisInFlight.
func (o *Orchestrator) UploadImage(ctx context.Context, image []byte) error {
	o.mu.Lock()
	switch o.state {
	case StateAnalyzing:
		o.mu.Unlock()
		return domain.ErrAnalysisInFlight
	case StateUpload, StateDraft:
	default:
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("cannot upload image in state %s", state)
	}
	o.state = StateAnalyzing
	o.image = append([]byte(nil), image...)
	o.draft = domain.NewListingDraft(uuid.NewString())
	o.snapshot = nil
	o.lastErr = ""
	o.mu.Unlock()
	o.notify()

	res, err := o.analyzer.Analyze(ctx, image)

	o.mu.Lock()
	if err != nil {
		// AnalysisFailed: degrade to an empty draft rather than block
		// manual entry.
		o.logger.Warn("image analysis failed", "error", err)
		o.logs.Append("[WARN] AI analysis failed. Fill in the listing manually.")
		o.state = StateDraft
		o.mu.Unlock()
		o.notify()
		return nil
	}
	o.draft.ApplyAnalysis(*res)
	o.state = StateDraft
	o.mu.Unlock()
	o.notify()
	return nil
}

// EditDraft applies a mutation to the draft. Only valid while in DRAFT.
func (o *Orchestrator) EditDraft(fn func(*domain.ListingDraft)) error {
	o.mu.Lock()
	if o.state != StateDraft {
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("cannot edit draft in state %s", state)
	}
	fn(&o.draft)
	o.mu.Unlock()
	o.notify()
	return nil
}

// Submit snapshots the draft, ingests it and starts remote publication.
// Either call failing returns the orchestrator to DRAFT with the snapshot
// preserved and surfaces exactly one fatal error.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateDraft {
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("cannot submit in state %s", state)
	}
	snap := o.draft.Clone()
	o.snapshot = &snap
	o.state = StateSubmitting
	o.lastErr = ""
	o.logs.Append("[SYSTEM] Initiating publication for @%s...", o.account.Username)
	o.logs.Append("[SYSTEM] Establishing bridge tunnel...")
	sub := snap.Submission(base64.StdEncoding.EncodeToString(o.image))
	o.mu.Unlock()
	o.notify()

	listingID, err := o.backend.Ingest(ctx, sub)
	if err != nil {
		return o.failSubmission(domain.FailureIngest, err)
	}

	taskID, err := o.backend.Publish(ctx, listingID)
	if err != nil {
		return o.failSubmission(domain.FailurePublishStart, err)
	}

	o.mu.Lock()
	o.job = &domain.PublishJob{ListingID: listingID, TaskID: taskID}
	o.result = nil
	o.progress = 0
	o.stage = ""
	o.state = StatePublishing
	o.done = make(chan domain.Outcome, 1)
	o.handle = o.poller.Start(taskID, o)
	o.logger.Info("publish task started", "listing_id", listingID, "task_id", taskID)
	o.mu.Unlock()
	o.notify()
	return nil
}

func (o *Orchestrator) failSubmission(kind domain.FailureKind, err error) error {
	failure := domain.NewPublishFailure(kind, err)

	o.mu.Lock()
	o.logger.Error("submission failed", "kind", string(kind), "error", err)
	o.logs.Append("[ERROR] %s", failure.Error())
	o.lastErr = failure.Error()
	o.state = StateDraft
	o.mu.Unlock()
	o.notify()
	return failure
}

// Wait blocks until the in-flight publish attempt reaches a terminal
// outcome or ctx is done. Only valid after a successful Submit.
func (o *Orchestrator) Wait(ctx context.Context) (domain.Outcome, error) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return domain.OutcomeNone, fmt.Errorf("no publish attempt in flight")
	}
	select {
	case <-ctx.Done():
		return domain.OutcomeNone, ctx.Err()
	case outcome := <-done:
		return outcome, nil
	}
}

// Job returns a copy of the active publish job, if any. The job only
// exists while in PUBLISHING; it is discarded on every exit from it.
func (o *Orchestrator) Job() (domain.PublishJob, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return domain.PublishJob{}, false
	}
	return *o.job, true
}

// Result returns the terminal record of the last publish attempt, if one
// has finished.
func (o *Orchestrator) Result() (domain.PublishJob, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return domain.PublishJob{}, false
	}
	return *o.result, true
}

// Logs returns the retained progress lines, oldest first.
func (o *Orchestrator) Logs() []string {
	return o.logs.Lines()
}

// Cancel stops any running poll loop and discards the active job. From
// PUBLISHING it returns to DRAFT with the snapshot restored; no observation
// arriving after Cancel mutates anything.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	handle := o.handle
	o.handle = nil
	if o.state == StatePublishing {
		o.job = nil
		o.progress = 0
		o.stage = ""
		if o.snapshot != nil {
			o.draft = o.snapshot.Clone()
		}
		o.state = StateDraft
	}
	o.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}
	o.notify()
}

// TaskProgress implements TaskObserver. Progress is applied to the owned
// job; the monotonicity rule is enforced by the poller.
func (o *Orchestrator) TaskProgress(stage domain.Stage, pct int, action string) {
	o.mu.Lock()
	if o.state != StatePublishing || o.job == nil {
		o.mu.Unlock()
		return
	}
	o.job.Stage = stage
	o.job.ProgressPct = pct
	o.progress = pct
	o.stage = stage
	o.logs.Append("[STATE] %s :: %s", stage, action)
	o.mu.Unlock()
	o.notify()
}

// TaskSucceeded implements TaskObserver.
func (o *Orchestrator) TaskSucceeded() {
	o.mu.Lock()
	if o.state != StatePublishing || o.job == nil {
		o.mu.Unlock()
		return
	}
	o.job.ProgressPct = 100
	o.job.Terminal = domain.OutcomeSuccess
	o.progress = 100
	o.logs.Append("[SUCCESS] Listing is live on the marketplace.")
	o.state = StateSuccess
	job := *o.job
	o.result = &job
	o.job = nil
	done := o.done
	handle := o.handle
	o.handle = nil
	o.mu.Unlock()

	o.notify()
	o.emitEvent(domain.ListingEvent{
		Type:      domain.EventListingPublished,
		AccountID: o.account.ID,
		ListingID: job.ListingID,
		TaskID:    job.TaskID,
		Timestamp: time.Now().UTC(),
	})
	done <- domain.OutcomeSuccess
	if handle != nil {
		handle.cancel()
	}
}

// TaskFailed implements TaskObserver. FAILURE immediately returns to DRAFT
// with the snapshot restored as the editable draft.
func (o *Orchestrator) TaskFailed(message string) {
	o.mu.Lock()
	if o.state != StatePublishing || o.job == nil {
		o.mu.Unlock()
		return
	}
	o.job.Terminal = domain.OutcomeFailure
	o.job.Err = message
	o.logs.Append("[ERROR] %s", message)
	o.lastErr = message
	o.state = StateFailure
	job := *o.job
	o.result = &job
	o.mu.Unlock()
	o.notify()

	o.mu.Lock()
	o.job = nil
	if o.snapshot != nil {
		o.draft = o.snapshot.Clone()
	}
	o.state = StateDraft
	done := o.done
	handle := o.handle
	o.handle = nil
	o.mu.Unlock()

	o.notify()
	o.emitEvent(domain.ListingEvent{
		Type:      domain.EventListingFailed,
		AccountID: o.account.ID,
		ListingID: job.ListingID,
		TaskID:    job.TaskID,
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
	done <- domain.OutcomeFailure
	if handle != nil {
		handle.cancel()
	}
}

// TaskTimedOut implements TaskObserver.
func (o *Orchestrator) TaskTimedOut(after time.Duration) {
	o.TaskFailed(timeoutMessage(after))
}

func (o *Orchestrator) emitEvent(event domain.ListingEvent) {
	if o.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.events.PublishEvent(ctx, event); err != nil {
		o.logger.Warn("failed to publish lifecycle event", "type", string(event.Type), "error", err)
	}
}
