package notes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/shared/server/respond"
)

const maxNoteLength = 4000

// Handler wires note routes. Work is thin enough to live in the handler.
type Handler struct {
	Repo Repo
	Apps *applications.Service
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo, apps *applications.Service) *Handler {
	return &Handler{Repo: repo, Apps: apps}
}

// RegisterRoutes attaches note routes to the (admin-gated) router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/application/:id/notes", h.list)
	rg.POST("/application/:id/note", h.create)
}

type noteEntry struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
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

	stored, err := h.Repo.ListByApplication(c.Request.Context(), app.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list notes", nil)
		return
	}

	entries := make([]noteEntry, 0, len(stored))
	for _, n := range stored {
		entries = append(entries, noteEntry{
			ID:        n.ID,
			Author:    n.Author,
			Text:      n.Text,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"applicationId": app.ID,
		"notes":         entries,
	})
}

type createNoteRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

func (h *Handler) create(c *gin.Context) {
	app, ok := h.resolve(c)
	if !ok {
		return
	}

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	req.Author = strings.TrimSpace(req.Author)
	req.Text = strings.TrimSpace(req.Text)
	if req.Author == "" || req.Text == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "author and text are required", nil)
		return
	}
	if len(req.Text) > maxNoteLength {
		respond.Error(c, http.StatusBadRequest, "validation_error", "note text too long", nil)
		return
	}

	note := Note{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Author:        req.Author,
		Text:          req.Text,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.Repo.Create(c.Request.Context(), note); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save note", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"success": true,
		"note": noteEntry{
			ID:        note.ID,
			Author:    note.Author,
			Text:      note.Text,
			CreatedAt: note.CreatedAt.Format(time.RFC3339),
		},
	})
}
