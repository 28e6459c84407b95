package migration

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/shared/server/respond"
)

// Handler exposes the manual migration trigger.
type Handler struct {
	Engine *Engine
	Apps   applications.Repo
}

// NewHandler constructs a Handler.
func NewHandler(engine *Engine, apps applications.Repo) *Handler {
	return &Handler{Engine: engine, Apps: apps}
}

// RegisterRoutes attaches migration routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/migrate-files", h.migrate)
}

type migrateRequest struct {
	InvitationCode string `json:"invitationCode"`
}

type migrateResponse struct {
	Success       bool   `json:"success"`
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
}

// migrate re-runs document migration for the latest submitted application
// under an invitation code. Safe to call repeatedly.
func (h *Handler) migrate(c *gin.Context) {
	var req migrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.InvitationCode))
	if code == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invitationCode is required", nil)
		return
	}

	app, err := h.Apps.GetLatestByInvitation(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "no submitted application for invitation code", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load application", nil)
		return
	}

	if err := h.Engine.RunNow(c.Request.Context(), code, app.ID); err != nil {
		respond.Error(c, http.StatusBadGateway, "migration_error", "migration run did not complete", gin.H{
			"applicationId": app.ID,
		})
		return
	}

	refreshed, err := h.Apps.GetByID(c.Request.Context(), app.ID)
	status := app.Status
	if err == nil {
		status = refreshed.Status
	}

	respond.JSON(c, http.StatusOK, migrateResponse{
		Success:       true,
		ApplicationID: app.ID,
		Status:        status,
	})
}
