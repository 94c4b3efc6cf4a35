package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/hiring-pipeline/internal/backend"
	"github.com/justsurfingit/hiring-pipeline/internal/dtos"
	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/services"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
	"github.com/justsurfingit/hiring-pipeline/internal/workflow"
)

// HistoryReader is satisfied by services.GormJournal.
type HistoryReader interface {
	History(ctx context.Context, applicationID string) ([]models.StatusChangeEvent, error)
}

// ApplicationHandler serves the employer dashboard and status changes.
type ApplicationHandler struct {
	Dashboard *services.DashboardService
	Mutations *services.MutationService
	Store     *services.ApplicationStore
	Selection *services.Selection
	LoginPath string

	// History is nil when the journal is disabled.
	History HistoryReader
}

func NewApplicationHandler(d *services.DashboardService, m *services.MutationService, s *services.ApplicationStore, loginPath string) *ApplicationHandler {
	return &ApplicationHandler{
		Dashboard: d,
		Mutations: m,
		Store:     s,
		Selection: services.NewSelection(),
		LoginPath: loginPath,
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetDashboard is GET /dashboard: reloads jobs and applications.
func (h *ApplicationHandler) GetDashboard(c *gin.Context) {
	summary, err := h.Dashboard.Load(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := dtos.DashboardResponse{
		Success: true,
		Summary: summary,
		Data:    h.Store.Snapshot(),
		Jobs:    h.Dashboard.Jobs(),
	}
	if summary.Partial {
		resp.Warning = "Some jobs could not be loaded; the list below may be incomplete."
		for _, f := range summary.FailedJobs {
			resp.Failed = append(resp.Failed, dtos.FailedJob{JobID: f.JobID, Title: f.Title, Error: f.Err.Error()})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListApplications is GET /applications: the cached collection, optionally
// filtered by ?status=.
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	apps := h.Store.Snapshot()
	if st := models.ApplicationStatus(c.Query("status")); st != "" {
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + string(st)})
			return
		}
		filtered := apps[:0]
		for _, a := range apps {
			if a.Status == st {
				filtered = append(filtered, a)
			}
		}
		apps = filtered
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"data":            apps,
		"statusBreakdown": h.Store.Breakdown(),
	})
}

// UpdateStatus is PUT /applications/:id/status.
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dtos.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	id := c.Param("id")
	current := req.Current
	if app, ok := h.Store.Get(id); ok {
		if current != "" && current != app.Status {
			c.JSON(http.StatusConflict, gin.H{
				"error":         "application status changed, reload before updating",
				"currentStatus": app.Status,
			})
			return
		}
		current = app.Status
	} else if current == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not loaded: " + id})
		return
	}

	app, err := h.Mutations.ApplyStatus(c.Request.Context(), id, current, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": app})
}

// BulkUpdateStatus is POST /applications/bulk-status. Partial failure is a
// 200 with the failed ids listed.
func (h *ApplicationHandler) BulkUpdateStatus(c *gin.Context) {
	var req dtos.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + string(req.Status)})
		return
	}

	h.respondBulk(c, h.Mutations.ApplyStatusBulk(c.Request.Context(), req.IDs, req.Status))
}

func (h *ApplicationHandler) respondBulk(c *gin.Context, result *services.BulkResult) {
	resp := dtos.NewBulkStatusResponse(result)
	for _, f := range result.Failed {
		if isSessionError(f.Err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": f.Err.Error(), "redirect": h.LoginPath, "result": resp})
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetSelection is GET /selection.
func (h *ApplicationHandler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ids": h.Selection.IDs()})
}

// ToggleSelection is POST /selection/items/:id. Only loaded applications can be
// selected.
func (h *ApplicationHandler) ToggleSelection(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.Store.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not loaded: " + id})
		return
	}
	h.Selection.Toggle(id)
	c.JSON(http.StatusOK, gin.H{"ids": h.Selection.IDs()})
}

// ClearSelection is DELETE /selection.
func (h *ApplicationHandler) ClearSelection(c *gin.Context) {
	h.Selection.Clear()
	c.JSON(http.StatusOK, gin.H{"ids": []string{}})
}

// UpdateSelectionStatus is POST /selection/status. Afterwards only the failed
// ids stay selected so the same request retries them.
func (h *ApplicationHandler) UpdateSelectionStatus(c *gin.Context) {
	var req dtos.SelectionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + string(req.Status)})
		return
	}
	ids := h.Selection.IDs()
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no applications selected"})
		return
	}

	result := h.Mutations.ApplyStatusBulk(c.Request.Context(), ids, req.Status)
	h.Selection.Keep(result.RetryIDs())
	h.respondBulk(c, result)
}

// GetHistory is GET /applications/:id/history.
func (h *ApplicationHandler) GetHistory(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "status journal is disabled"})
		return
	}
	events, err := h.History.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read history: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
}

func (h *ApplicationHandler) respondError(c *gin.Context, err error) {
	var forbidden *backend.ForbiddenError
	var exhausted *services.AllCandidatesExhaustedError
	var mutation *services.MutationError

	switch {
	case isSessionError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "redirect": h.LoginPath})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &exhausted), errors.As(err, &mutation):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func isSessionError(err error) bool {
	var authErr *backend.AuthenticationError
	return errors.As(err, &authErr) ||
		errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrStaleResult)
}
