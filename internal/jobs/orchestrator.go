package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/studypath/studypath/internal/store"
	"github.com/studypath/studypath/internal/syllabus"
	"github.com/studypath/studypath/provider"
)

// PlanSaver persists a finished plan and returns its record id.
type PlanSaver interface {
	SavePlan(ctx context.Context, rec store.PlanRecord) (string, error)
}

// Runner executes the four-step pipeline for one job at a time per call.
// Run is meant to be launched on its own goroutine by the HTTP layer; all
// observable progress flows through the Store.
type Runner struct {
	Store    *Store
	Provider provider.CompletionProvider
	Plans    PlanSaver
	Logger   *log.Logger
	Timeout  time.Duration
}

// Run drives a full pipeline for the job. The context deadline matches the
// store watchdog, so a run that overshoots it is already sealed as timed out
// and its late updates are dropped.
func (r *Runner) Run(jobID, input, ownerID string) {
	jobsStarted.Inc()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	status := r.run(ctx, jobID, input, ownerID)

	jobDuration.Observe(time.Since(start).Seconds())
	jobsFinished.WithLabelValues(string(status)).Inc()
}

func (r *Runner) run(ctx context.Context, jobID, input, ownerID string) Status {
	// Extract. PDF text arrives pre-extracted from the client; this stage
	// normalizes it into a prompt-sized body.
	r.Store.UpdateStep(jobID, StepExtract, StatusRunning, "")
	text, err := syllabus.NormalizeText(input)
	if err != nil {
		return r.fail(jobID, StepExtract, fmt.Sprintf("Extraction failed: %v", err))
	}
	r.Store.UpdateStep(jobID, StepExtract, StatusSuccess,
		fmt.Sprintf("Text normalized (%d chars)", len(text)))

	// Structure.
	r.Store.UpdateStep(jobID, StepStructure, StatusRunning, "")
	rawOutline, err := r.Provider.Complete(ctx, syllabus.StructurePrompt(text))
	if err != nil {
		r.Logger.Printf("job %s: structure call failed: %v", jobID, err)
		return r.fail(jobID, StepStructure, fmt.Sprintf("Structuring failed: %v", err))
	}
	var outline syllabus.Outline
	if err := json.Unmarshal(rawOutline, &outline); err != nil {
		return r.fail(jobID, StepStructure, fmt.Sprintf("Structuring failed: malformed outline: %v", err))
	}
	r.Store.UpdateStep(jobID, StepStructure, StatusSuccess, "Syllabus structured")

	// Plan.
	r.Store.UpdateStep(jobID, StepPlan, StatusRunning, "")
	rawPlan, err := r.Provider.Complete(ctx, syllabus.PlanPrompt(outline))
	if err != nil {
		r.Logger.Printf("job %s: plan call failed: %v", jobID, err)
		return r.fail(jobID, StepPlan, fmt.Sprintf("Planning failed: %v", err))
	}
	r.Store.UpdateStep(jobID, StepPlan, StatusSuccess, "Study plan generated")

	// Save.
	r.Store.UpdateStep(jobID, StepSave, StatusRunning, "")
	plan := syllabus.SanitizePlan(rawPlan)
	title := plan.Title
	if title == "" {
		title = "Syllabus Study Plan"
	}
	modules, err := json.Marshal(plan.Modules)
	if err != nil {
		return r.fail(jobID, StepSave, fmt.Sprintf("Save failed: %v", err))
	}
	metadata, err := json.Marshal(map[string]interface{}{
		"job_id":          jobID,
		"structured_data": outline,
		"source":          "syllabus-agent",
	})
	if err != nil {
		return r.fail(jobID, StepSave, fmt.Sprintf("Save failed: %v", err))
	}
	historyID, err := r.Plans.SavePlan(ctx, store.PlanRecord{
		UserID:   ownerID,
		Title:    title,
		Modules:  modules,
		Metadata: metadata,
	})
	if err != nil {
		r.Logger.Printf("job %s: save failed: %v", jobID, err)
		return r.fail(jobID, StepSave, fmt.Sprintf("Save failed: %v", err))
	}
	plan.Title = title
	r.Store.FinishSave(jobID, "Plan saved to history", &Result{
		HistoryID: historyID,
		Plan:      plan,
	})

	r.Logger.Printf("job %s: pipeline finished, history %s", jobID, historyID)
	return StatusSuccess
}

func (r *Runner) fail(jobID string, step StepName, detail string) Status {
	stepFailures.WithLabelValues(string(step)).Inc()
	r.Store.UpdateStep(jobID, step, StatusError, detail)
	return StatusError
}
