package domain

import (
	"errors"
	"fmt"
)

// ErrAnalysisInFlight is returned when a second image is uploaded while an
// analysis call is still running.
var ErrAnalysisInFlight = errors.New("image analysis already in flight")

type FailureKind string

const (
	FailureIngest       FailureKind = "ingest"
	FailurePublishStart FailureKind = "publish_start"
	FailureRemoteJob    FailureKind = "remote_job"
	FailureTimeout      FailureKind = "timeout"
)

// PublishFailure is a fatal failure of one submission attempt. The draft
// snapshot survives it; the user is returned to an editable draft.
type PublishFailure struct {
	Kind FailureKind
	Err  error
}

func (e *PublishFailure) Error() string {
	return fmt.Sprintf("publish failed (%s): %v", e.Kind, e.Err)
}

func (e *PublishFailure) Unwrap() error {
	return e.Err
}

// NewPublishFailure wraps err with the failure kind of the attempt.
func NewPublishFailure(kind FailureKind, err error) *PublishFailure {
	return &PublishFailure{Kind: kind, Err: err}
}
