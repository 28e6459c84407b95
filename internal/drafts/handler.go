package drafts

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"partner-portal-backend/internal/invitations"
	"partner-portal-backend/internal/shared/server/respond"
)

const maxUploadSize = 15 << 20 // 15MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches draft upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload-file", h.upload)
}

type base64UploadRequest struct {
	InvitationCode string `json:"invitationCode"`
	FieldName      string `json:"fieldName"`
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType"`
	FileContent    string `json:"fileContent"`
}

type uploadResponse struct {
	Success    bool   `json:"success"`
	DraftID    string `json:"draftId"`
	ScratchKey string `json:"scratchKey"`
	SizeBytes  int64  `json:"sizeBytes"`
}

// upload accepts either a multipart form (invitationCode, fieldName, file)
// or a JSON body with base64 file content.
func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.uploadMultipart(c)
		return
	}
	h.uploadBase64(c)
}

func (h *Handler) uploadMultipart(c *gin.Context) {
	invitationCode := strings.TrimSpace(c.PostForm("invitationCode"))
	fieldName := strings.TrimSpace(c.PostForm("fieldName"))
	c.Set("invitationCode", invitationCode)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	fileContentType := fileHeader.Header.Get("Content-Type")
	draft, err := h.Svc.Put(c.Request.Context(), invitationCode, fieldName, fileHeader.Filename, fileContentType, file)
	h.respondUpload(c, draft, err)
}

func (h *Handler) uploadBase64(c *gin.Context) {
	var req base64UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("invitationCode", strings.TrimSpace(req.InvitationCode))

	raw, err := base64.StdEncoding.DecodeString(req.FileContent)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileContent is not valid base64", nil)
		return
	}

	draft, err := h.Svc.Put(
		c.Request.Context(),
		strings.TrimSpace(req.InvitationCode),
		strings.TrimSpace(req.FieldName),
		strings.TrimSpace(req.FileName),
		strings.TrimSpace(req.ContentType),
		bytes.NewReader(raw),
	)
	h.respondUpload(c, draft, err)
}

func (h *Handler) respondUpload(c *gin.Context, draft DraftFile, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invitationCode, fieldName and file are required", nil)
		case errors.Is(err, invitations.ErrNotFound):
			respond.Error(c, http.StatusForbidden, "invalid_invitation", "invitation code not recognized", nil)
		case errors.Is(err, ErrInvitationNotUsable):
			respond.Error(c, http.StatusForbidden, "invalid_invitation", "invitation is no longer active", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store file", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, uploadResponse{
		Success:    true,
		DraftID:    draft.ID,
		ScratchKey: draft.ScratchKey,
		SizeBytes:  draft.SizeBytes,
	})
}
