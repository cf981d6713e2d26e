package domain

// Stage is a named step in the remote publishing pipeline, as reported by
// the status endpoint.
type Stage string

const (
	StageInit                Stage = "INIT"
	StageAuth                Stage = "AUTH"
	StageMediaUpload         Stage = "MEDIA_UPLOAD"
	StageTextFields          Stage = "TEXT_FIELDS"
	StageCategoryResolution  Stage = "CATEGORY_RESOLUTION"
	StageAttributeResolution Stage = "ATTRIBUTE_RESOLUTION"
	StagePricing             Stage = "PRICING"
	StagePublish             Stage = "PUBLISH"
	StageConfirmation        Stage = "CONFIRMATION"
)

var stageProgress = map[Stage]int{
	StageInit:                5,
	StageAuth:                15,
	StageMediaUpload:         30,
	StageTextFields:          40,
	StageCategoryResolution:  55,
	StageAttributeResolution: 70,
	StagePricing:             80,
	StagePublish:             90,
	StageConfirmation:        100,
}

// Progress maps a stage to its normalized percentage. The second return is
// false for stages outside the known pipeline.
func (s Stage) Progress() (int, bool) {
	pct, ok := stageProgress[s]
	return pct, ok
}

type RunState string

const (
	RunStateRunning RunState = "RUNNING"
	RunStateSuccess RunState = "SUCCESS"
	RunStateFailure RunState = "FAILURE"
)

// TaskStatus is one status report for a remote publish task.
type TaskStatus struct {
	Status        RunState
	Stage         Stage
	CurrentAction string
	Error         string
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "none"
	}
}

// PublishJob tracks one remote submission. TaskID is assigned exactly once;
// ProgressPct never decreases for the lifetime of the job.
type PublishJob struct {
	ListingID   int64
	TaskID      string
	Stage       Stage
	ProgressPct int
	Terminal    Outcome
	Err         string
}
