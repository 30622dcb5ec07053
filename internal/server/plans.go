package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/studypath/studypath/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	maxTitleLen     = 200
	historyCap      = 100
	planCacheTTL    = time.Hour
)

// PlansHandler serves the saved-plan history: list, save, fetch, delete.
type PlansHandler struct {
	Store  *store.Store
	Cache  *PlanCache
	Logger *log.Logger
}

func (h *PlansHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.save)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
	g.DELETE("", h.clear)
}

// List
//
//	@Summary	List saved plans
//	@Tags		plans
//	@Produce	json
//	@Param		page	query		int	false	"Page number (1-based)"
//	@Param		limit	query		int	false	"Page size, max 50"
//	@Success	200		{object}	PlanListResponse
//	@Router		/api/plans [get]
func (h *PlansHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", defaultPageSize)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	ctx := c.Request().Context()
	total, err := h.Store.CountPlans(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	recs, err := h.Store.ListPlans(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	summaries := make([]PlanSummary, 0, len(recs))
	for _, rec := range recs {
		tasks, topics := planStats(rec.Modules)
		summaries = append(summaries, PlanSummary{
			ID:         rec.ID,
			Title:      rec.Title,
			CreatedAt:  rec.CreatedAt,
			TotalTasks: tasks,
			TopicCount: topics,
		})
	}

	totalPages := (total + limit - 1) / limit
	return c.JSON(http.StatusOK, PlanListResponse{
		Plans: summaries,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasNext:     page < totalPages,
			HasPrev:     page > 1 && total > 0,
		},
	})
}

// Save
//
//	@Summary		Save a plan manually
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SavePlanRequest	true	"Plan payload"
//	@Success		201		{object}	IDResponse
//	@Failure		400		{object}	HTTPError
//	@Router			/api/plans [post]
func (h *PlansHandler) save(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req SavePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if len(req.Title) > maxTitleLen {
		return echo.NewHTTPError(http.StatusBadRequest, "title too long")
	}
	if err := validateModules(req.Modules); err != nil {
		return err
	}

	ctx := c.Request().Context()
	metadata := json.RawMessage(`{"source":"manual"}`)
	id, err := h.Store.SavePlan(ctx, store.PlanRecord{
		UserID:   userID,
		Title:    req.Title,
		Modules:  req.Modules,
		Metadata: metadata,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if pruned, err := h.Store.PrunePlans(ctx, userID, historyCap); err != nil {
		h.Logger.Printf("prune plans for user %s: %v", userID, err)
	} else if pruned > 0 {
		h.Logger.Printf("pruned %d old plans for user %s", pruned, userID)
	}

	return c.JSON(http.StatusCreated, IDResponse{ID: id})
}

// Get
//
//	@Summary	Fetch a plan by id
//	@Tags		plans
//	@Produce	json
//	@Param		id	path		string	true	"Plan id"
//	@Success	200	{object}	store.PlanRecord
//	@Failure	404	{object}	HTTPError
//	@Router		/api/plans/{id} [get]
func (h *PlansHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "plan not found")
	}

	ctx := c.Request().Context()
	if rec, ok := h.Cache.Get(ctx, userID, id); ok {
		return c.JSON(http.StatusOK, rec)
	}
	rec, found, err := h.Store.GetPlanByID(ctx, id, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "plan not found")
	}
	h.Cache.Put(ctx, rec)
	return c.JSON(http.StatusOK, rec)
}

// Delete
//
//	@Summary	Delete a plan
//	@Tags		plans
//	@Produce	json
//	@Param		id	path		string	true	"Plan id"
//	@Success	200	{object}	DeletedResponse
//	@Failure	404	{object}	HTTPError
//	@Router		/api/plans/{id} [delete]
func (h *PlansHandler) delete(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "plan not found")
	}

	ctx := c.Request().Context()
	deleted, err := h.Store.DeletePlan(ctx, id, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "plan not found")
	}
	h.Cache.Invalidate(ctx, userID, id)
	return c.JSON(http.StatusOK, DeletedResponse{Deleted: 1})
}

// Clear
//
//	@Summary	Delete all plans for the current user
//	@Tags		plans
//	@Produce	json
//	@Success	200	{object}	DeletedResponse
//	@Router		/api/plans [delete]
func (h *PlansHandler) clear(c echo.Context) error {
	userID := c.Get("user_id").(string)
	ctx := c.Request().Context()

	ids, err := h.Store.ListPlanIDs(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	n, err := h.Store.ClearPlans(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Cache.Invalidate(ctx, userID, ids...)
	h.Logger.Printf("cleared %d plans for user %s", n, userID)
	return c.JSON(http.StatusOK, DeletedResponse{Deleted: n})
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// planStats counts tasks and topics in a stored modules document without
// decoding into the full plan types.
func planStats(modules json.RawMessage) (tasks, topics int) {
	var mods []struct {
		Topic string            `json:"topic"`
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(modules, &mods); err != nil {
		return 0, 0
	}
	for _, m := range mods {
		tasks += len(m.Tasks)
		if strings.TrimSpace(m.Topic) != "" {
			topics++
		}
	}
	return tasks, topics
}

func validateModules(raw json.RawMessage) error {
	if len(raw) == 0 {
		return errInvalidModules
	}
	var mods []struct {
		Topic string `json:"topic"`
		Tasks []struct {
			Description string `json:"description"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(raw, &mods); err != nil {
		return errInvalidModules
	}
	if len(mods) == 0 {
		return errInvalidModules
	}
	for _, m := range mods {
		if strings.TrimSpace(m.Topic) == "" {
			return errInvalidModules
		}
		for _, t := range m.Tasks {
			if strings.TrimSpace(t.Description) == "" {
				return errInvalidModules
			}
		}
	}
	return nil
}

var errInvalidModules = echo.NewHTTPError(http.StatusBadRequest,
	"modules must be a non-empty array with non-empty topics and task descriptions")
