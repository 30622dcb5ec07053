package server

import (
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/studypath/studypath/internal/jobs"
)

// JobsHandler exposes the async syllabus pipeline: start, poll, retry.
type JobsHandler struct {
	Jobs          *jobs.Store
	Runner        *jobs.Runner
	MinInputChars int
	Logger        *log.Logger
}

func (h *JobsHandler) Register(g *echo.Group) {
	g.POST("/syllabus-plan/start", h.start)
	g.GET("/jobs/:job_id", h.get)
	g.POST("/jobs/:job_id/retry", h.retry)
}

// Start
//
//	@Summary		Start a syllabus planning job
//	@Description	Accepts extracted PDF text and schedules the pipeline; poll the returned job id
//	@Tags			jobs
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		StartJobRequest	true	"Extracted syllabus text"
//	@Success		202		{object}	StartJobResponse
//	@Failure		400		{object}	HTTPError
//	@Router			/api/agent/syllabus-plan/start [post]
func (h *JobsHandler) start(c echo.Context) error {
	var req StartJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	text := strings.TrimSpace(req.PDFText)
	if utf8.RuneCountInString(text) < h.MinInputChars {
		return echo.NewHTTPError(http.StatusBadRequest,
			"pdf_text too short: the extracted syllabus must contain meaningful content")
	}
	userID := c.Get("user_id").(string)

	job := h.Jobs.Create(userID, text)
	h.Logger.Printf("job %s started for user %s (%d chars)", job.ID, userID, len(text))
	go h.Runner.Run(job.ID, text, userID)

	return c.JSON(http.StatusAccepted, StartJobResponse{JobID: job.ID})
}

// Get
//
//	@Summary	Poll job status
//	@Tags		jobs
//	@Produce	json
//	@Param		job_id	path		string	true	"Job id"
//	@Success	200		{object}	jobs.Job
//	@Failure	403		{object}	HTTPError
//	@Failure	404		{object}	HTTPError
//	@Router		/api/agent/jobs/{job_id} [get]
func (h *JobsHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	job, err := h.Jobs.Get(c.Param("job_id"), userID)
	if err != nil {
		return jobError(err)
	}
	return c.JSON(http.StatusOK, job)
}

// Retry
//
//	@Summary		Retry a failed job
//	@Description	Re-runs the whole pipeline against the originally submitted text
//	@Tags			jobs
//	@Produce		json
//	@Param			job_id	path		string	true	"Job id"
//	@Success		202		{object}	RetryResponse
//	@Failure		403		{object}	HTTPError
//	@Failure		404		{object}	HTTPError
//	@Failure		409		{object}	HTTPError
//	@Router			/api/agent/jobs/{job_id}/retry [post]
func (h *JobsHandler) retry(c echo.Context) error {
	userID := c.Get("user_id").(string)
	jobID := c.Param("job_id")
	input, err := h.Jobs.ResetForRetry(jobID, userID)
	if err != nil {
		return jobError(err)
	}
	h.Logger.Printf("job %s retried by user %s", jobID, userID)
	go h.Runner.Run(jobID, input, userID)
	return c.JSON(http.StatusAccepted, RetryResponse{Status: "accepted"})
}

func jobError(err error) error {
	switch err {
	case jobs.ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "job not found or expired")
	case jobs.ErrForbidden:
		return echo.NewHTTPError(http.StatusForbidden, "job belongs to another user")
	case jobs.ErrNotTerminal:
		return echo.NewHTTPError(http.StatusConflict, "job is still in progress")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
