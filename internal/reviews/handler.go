package reviews

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/shared/server/respond"
)

// Handler wires back-office review routes.
type Handler struct {
	Svc  *Service
	Apps *applications.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, apps *applications.Service) *Handler {
	return &Handler{Svc: svc, Apps: apps}
}

// RegisterRoutes attaches review routes to the (admin-gated) router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/application/:id/reviews", h.list)
	rg.POST("/application/:id/review", h.review)
	rg.POST("/application/:id/approve-all", h.approveAll)
	rg.POST("/application/:id/delete", h.remove)
}

type reviewEntry struct {
	Section    string `json:"section"`
	Status     string `json:"status"`
	Note       string `json:"note,omitempty"`
	ReviewedBy string `json:"reviewedBy,omitempty"`
	ReviewedAt string `json:"reviewedAt,omitempty"`
}

func toEntry(rv SectionReview) reviewEntry {
	e := reviewEntry{
		Section:    rv.Section,
		Status:     rv.Status,
		Note:       rv.Note,
		ReviewedBy: rv.ReviewedBy,
	}
	if !rv.ReviewedAt.IsZero() {
		e.ReviewedAt = rv.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return e
}

func (h *Handler) resolve(c *gin.Context) (applications.Application, bool) {
	app, err := h.Apps.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load application", nil)
		}
		return applications.Application{}, false
	}
	return app, true
}

func (h *Handler) list(c *gin.Context) {
	app, ok := h.resolve(c)
	if !ok {
		return
	}

	stored, err := h.Svc.List(c.Request.Context(), app.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list reviews", nil)
		return
	}

	entries := make([]reviewEntry, 0, len(stored))
	for _, rv := range stored {
		entries = append(entries, toEntry(rv))
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"applicationId": app.ID,
		"status":        app.Status,
		"reviews":       entries,
	})
}

type reviewRequest struct {
	Section  string `json:"section"`
	Status   string `json:"status"`
	Note     string `json:"note"`
	Reviewer string `json:"reviewer"`
}

func (h *Handler) review(c *gin.Context) {
	app, ok := h.resolve(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	review, err := h.Svc.SetSectionStatus(c.Request.Context(), app, req.Section, req.Status, req.Note, req.Reviewer)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save review", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"success": true,
		"review":  toEntry(review),
	})
}

type approveAllRequest struct {
	Reviewer string `json:"reviewer"`
	Note     string `json:"note"`
}

func (h *Handler) approveAll(c *gin.Context) {
	app, ok := h.resolve(c)
	if !ok {
		return
	}

	var req approveAllRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.Svc.ApproveAll(c.Request.Context(), app, req.Reviewer, req.Note); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to approve application", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"success":       true,
		"applicationId": app.ID,
		"status":        applications.StatusCompleted,
	})
}

func (h *Handler) remove(c *gin.Context) {
	app, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := h.Svc.DeleteApplication(c.Request.Context(), app); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete application", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"success":       true,
		"applicationId": app.ID,
	})
}
