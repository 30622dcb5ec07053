package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("job not found")
	ErrForbidden   = errors.New("job belongs to another user")
	ErrNotTerminal = errors.New("job is still in progress")
)

// Store is an in-process job table. Jobs are volatile by design: a process
// restart orphans in-flight jobs and pollers observe them as not-found, the
// same as an eviction. All access is keyed by job id and checked against the
// owner id before anything is exposed.
type Store struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	watchdog  time.Duration
	retention time.Duration
}

// NewStore builds a job table. watchdog is the deadline after which a
// non-terminal job is forced to error; retention is how long a record stays
// resident before eviction, counted from creation.
func NewStore(watchdog, retention time.Duration) *Store {
	return &Store{
		jobs:      make(map[string]*Job),
		watchdog:  watchdog,
		retention: retention,
	}
}

// Create inserts a new job with all four steps pending and arms its watchdog
// and retention timers. The returned snapshot carries the opaque id handed to
// the caller.
func (s *Store) Create(ownerID, input string) Job {
	now := time.Now().UTC()
	job := &Job{
		ID:            newJobID(),
		OwnerID:       ownerID,
		Status:        StatusPending,
		Steps:         newSteps(),
		OriginalInput: input,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	gen := job.generation
	s.mu.Unlock()

	s.armWatchdog(job.ID, gen)
	time.AfterFunc(s.retention, func() { s.Evict(job.ID) })
	return job.snapshot()
}

func newSteps() []Step {
	steps := make([]Step, len(StepNames))
	for i, name := range StepNames {
		steps[i] = Step{Name: name, Status: StatusPending}
	}
	return steps
}

func newJobID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Errorf("crypto/rand failed: %w", err))
	}
	return hex.EncodeToString(b[:])
}

// Get returns a snapshot of the job. A lookup by the wrong owner reports
// ErrForbidden so the API layer can choose the status code; the payload is
// withheld either way.
func (s *Store) Get(jobID, ownerID string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.OwnerID != ownerID {
		return Job{}, ErrForbidden
	}
	return job.snapshot(), nil
}

// UpdateStep mutates the named step and recomputes the derived job status.
// It is a no-op when the job has been evicted or sealed by the watchdog, so
// a late upstream reply cannot resurrect a timed-out record.
func (s *Store) UpdateStep(jobID string, name StepName, status Status, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.sealed {
		return
	}
	for i := range job.Steps {
		if job.Steps[i].Name == name {
			job.Steps[i].Status = status
			job.Steps[i].Detail = detail
			break
		}
	}
	job.derive()
	job.UpdatedAt = time.Now().UTC()
}

// FinishSave marks the Save step successful and attaches the result under a
// single lock, so pollers never observe one without the other.
func (s *Store) FinishSave(jobID, detail string, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.sealed {
		return
	}
	for i := range job.Steps {
		if job.Steps[i].Name == StepSave {
			job.Steps[i].Status = StatusSuccess
			job.Steps[i].Detail = detail
			break
		}
	}
	job.Result = res
	job.derive()
	job.UpdatedAt = time.Now().UTC()
}

// ResetForRetry validates ownership, rejects retries while the job is still
// in flight, resets error steps to pending, clears the watchdog seal and
// re-arms a fresh watchdog. It returns the original input so the caller can
// reschedule a full pipeline run.
func (s *Store) ResetForRetry(jobID, ownerID string) (string, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return "", ErrNotFound
	}
	if job.OwnerID != ownerID {
		s.mu.Unlock()
		return "", ErrForbidden
	}
	if !job.Status.Terminal() {
		s.mu.Unlock()
		return "", ErrNotTerminal
	}
	for i := range job.Steps {
		if job.Steps[i].Status == StatusError {
			job.Steps[i].Status = StatusPending
			job.Steps[i].Detail = ""
		}
	}
	job.sealed = false
	job.Detail = ""
	job.Result = nil
	job.Status = StatusPending
	job.UpdatedAt = time.Now().UTC()
	job.generation++
	gen := job.generation
	input := job.OriginalInput
	s.mu.Unlock()

	s.armWatchdog(jobID, gen)
	return input, nil
}

// Evict removes the job record; subsequent polls see not-found.
func (s *Store) Evict(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}

// Len reports resident jobs; used by tests and the metrics gauge.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Store) armWatchdog(jobID string, gen uint64) {
	time.AfterFunc(s.watchdog, func() { s.sealIfStale(jobID, gen) })
}

// sealIfStale forces a still-non-terminal job to error. The generation check
// keeps a watchdog from a previous schedule from touching a retried run.
func (s *Store) sealIfStale(jobID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.generation != gen || job.Status.Terminal() {
		return
	}
	job.Status = StatusError
	job.Detail = fmt.Sprintf("job timed out after %s", s.watchdog)
	job.sealed = true
	job.UpdatedAt = time.Now().UTC()
	watchdogTimeouts.Inc()
}
