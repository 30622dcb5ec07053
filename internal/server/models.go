package server

import (
	"encoding/json"
	"time"
)

// HTTPError is the uniform error body produced by the error handler.
type HTTPError struct {
	Error string `json:"error"`
}

type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// StartJobRequest carries syllabus text already extracted from the PDF on
// the client side.
type StartJobRequest struct {
	PDFText string `json:"pdf_text"`
}

type StartJobResponse struct {
	JobID string `json:"job_id"`
}

type RetryResponse struct {
	Status string `json:"status"`
}

type SavePlanRequest struct {
	Title   string          `json:"title"`
	Modules json.RawMessage `json:"modules"`
}

// PlanSummary is the list-view shape: no module bodies, just headline stats.
type PlanSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	TotalTasks int       `json:"total_tasks"`
	TopicCount int       `json:"topic_count"`
}

type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

type PlanListResponse struct {
	Plans      []PlanSummary `json:"plans"`
	Pagination Pagination    `json:"pagination"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

type MeResponse struct {
	UserID string `json:"user_id"`
}
