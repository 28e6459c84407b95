package applications

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"partner-portal-backend/internal/drafts"
	"partner-portal-backend/internal/invitations"
	"partner-portal-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches submission and status routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/epc-application", h.submit)
	rg.GET("/status", h.status)
}

type submitResponse struct {
	Success       bool   `json:"success"`
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
}

func (h *Handler) submit(c *gin.Context) {
	var payload SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("invitationCode", strings.TrimSpace(payload.InvitationCode))

	app, err := h.Svc.Submit(c.Request.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invitationCode must be exactly 8 characters", nil)
		case errors.Is(err, invitations.ErrNotFound):
			respond.Error(c, http.StatusForbidden, "invalid_invitation", "invitation code not recognized", nil)
		case errors.Is(err, drafts.ErrInvitationNotUsable):
			respond.Error(c, http.StatusForbidden, "invalid_invitation", "invitation is no longer active", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create application", nil)
		}
		return
	}
	c.Set("applicationId", app.ID)

	respond.JSON(c, http.StatusCreated, submitResponse{
		Success:       true,
		ApplicationID: app.ID,
		Status:        app.Status,
	})
}

type fileResponse struct {
	ID               string `json:"id"`
	FieldName        string `json:"fieldName"`
	OriginalFilename string `json:"originalFilename"`
	FileSize         int64  `json:"fileSize"`
	ContentType      string `json:"contentType,omitempty"`
	ExternalURL      string `json:"externalUrl,omitempty"`
	ExternalID       string `json:"externalId,omitempty"`
	UploadedAt       string `json:"uploadedAt"`
}

type draftResponse struct {
	ID               string `json:"id"`
	FieldName        string `json:"fieldName"`
	OriginalFilename string `json:"originalFilename"`
	SizeBytes        int64  `json:"sizeBytes"`
	UploadedAt       string `json:"uploadedAt"`
}

type statusResponse struct {
	ApplicationID  string         `json:"applicationId"`
	InvitationCode string         `json:"invitationCode"`
	CompanyName    string         `json:"companyName"`
	Status         string         `json:"status"`
	SubmittedAt    string         `json:"submittedAt,omitempty"`
	PartnerLogoURL string         `json:"partnerLogoUrl,omitempty"`
	Outstanding    []draftResponse `json:"outstandingDrafts"`
	MigratedFiles  []fileResponse  `json:"migratedFiles"`
}

func (h *Handler) status(c *gin.Context) {
	code := strings.TrimSpace(c.Query("invitationCode"))
	c.Set("invitationCode", code)

	report, err := h.Svc.Status(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invitationCode is required", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no application for invitation code", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch status", nil)
		}
		return
	}

	resp := statusResponse{
		ApplicationID:  report.Application.ID,
		InvitationCode: report.Application.InvitationCode,
		CompanyName:    report.Application.CompanyName,
		Status:         report.Application.Status,
		PartnerLogoURL: report.Application.PartnerLogoURL,
		Outstanding:    make([]draftResponse, 0, len(report.Outstanding)),
		MigratedFiles:  make([]fileResponse, 0, len(report.MigratedFiles)),
	}
	if report.Application.SubmittedAt != nil {
		resp.SubmittedAt = report.Application.SubmittedAt.UTC().Format(time.RFC3339)
	}
	for _, d := range report.Outstanding {
		resp.Outstanding = append(resp.Outstanding, draftResponse{
			ID:               d.ID,
			FieldName:        d.FieldName,
			OriginalFilename: d.OriginalFilename,
			SizeBytes:        d.SizeBytes,
			UploadedAt:       d.UploadedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, f := range report.MigratedFiles {
		resp.MigratedFiles = append(resp.MigratedFiles, fileResponse{
			ID:               f.ID,
			FieldName:        f.FieldName,
			OriginalFilename: f.OriginalFilename,
			FileSize:         f.FileSize,
			ContentType:      f.ContentType,
			ExternalURL:      f.ExternalURL,
			ExternalID:       f.ExternalID,
			UploadedAt:       f.UploadedAt.UTC().Format(time.RFC3339),
		})
	}

	respond.JSON(c, http.StatusOK, resp)
}
