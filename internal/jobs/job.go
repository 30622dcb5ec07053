package jobs

import (
	"time"

	"github.com/studypath/studypath/internal/syllabus"
)

// Status is the lifecycle state of a job or of a single step.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Terminal reports whether no further automatic transitions occur.
func (s Status) Terminal() bool { return s == StatusSuccess || s == StatusError }

// StepName identifies one of the four fixed pipeline stages.
type StepName string

const (
	StepExtract   StepName = "Extract"
	StepStructure StepName = "Structure"
	StepPlan      StepName = "Plan"
	StepSave      StepName = "Save"
)

// StepNames is the fixed execution order. A job's step list never changes
// length or order after creation.
var StepNames = [4]StepName{StepExtract, StepStructure, StepPlan, StepSave}

type Step struct {
	Name   StepName `json:"name"`
	Status Status   `json:"status"`
	Detail string   `json:"detail,omitempty"`
}

// Result is attached when the Save step succeeds: the persisted history
// record reference plus the sanitized plan.
type Result struct {
	HistoryID string        `json:"history_id"`
	Plan      syllabus.Plan `json:"plan_data"`
}

// Job is one asynchronous run of the syllabus pipeline for one input text.
// OwnerID scopes every read and mutation; OriginalInput is retained so a
// retry can re-run the pipeline without the caller resubmitting.
type Job struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"-"`
	Status        Status    `json:"status"`
	Detail        string    `json:"detail,omitempty"`
	Steps         []Step    `json:"steps"`
	Result        *Result   `json:"result,omitempty"`
	OriginalInput string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// sealed marks a job forced to terminal error by the watchdog; step
	// updates are rejected until a retry reopens it.
	sealed bool
	// generation is bumped on every (re)schedule so a stale watchdog timer
	// cannot seal a retried job.
	generation uint64
}

// derive recomputes the job status from its steps: error if any step failed,
// success when all four succeeded, running once any step has been touched,
// pending otherwise.
func (j *Job) derive() {
	anyError := false
	allSuccess := true
	anyTouched := false
	for _, s := range j.Steps {
		switch s.Status {
		case StatusError:
			anyError = true
			allSuccess = false
		case StatusSuccess:
			anyTouched = true
		case StatusRunning:
			anyTouched = true
			allSuccess = false
		default:
			allSuccess = false
		}
	}
	switch {
	case anyError:
		j.Status = StatusError
	case allSuccess:
		j.Status = StatusSuccess
	case anyTouched:
		j.Status = StatusRunning
	default:
		j.Status = StatusPending
	}
}

// snapshot returns a copy safe to hand out while the store mutates the
// original.
func (j *Job) snapshot() Job {
	out := *j
	out.Steps = append([]Step(nil), j.Steps...)
	if j.Result != nil {
		res := *j.Result
		out.Result = &res
	}
	return out
}
