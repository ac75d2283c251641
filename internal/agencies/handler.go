package agencies

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/i18n"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/response"
)

// Handler handles agency HTTP endpoints for both areas.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an agencies handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Me handles GET /agency/profile.
func (h *Handler) Me(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	a, err := h.svc.Me(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, a)
}

// DocumentUploadRequest is the body for POST /agency/document/upload-url.
type DocumentUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type"`
}

// RequestDocumentUpload handles POST /agency/document/upload-url.
func (h *Handler) RequestDocumentUpload(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	var req DocumentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "file_name is required")
		return
	}
	ticket, err := h.svc.RequestDocumentUpload(c.Request.Context(), p, req.FileName, req.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, ticket)
}

// DocumentConfirmRequest is the body for POST /agency/document/confirm.
type DocumentConfirmRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// ConfirmDocument handles POST /agency/document/confirm.
func (h *Handler) ConfirmDocument(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	var req DocumentConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "object_key is required")
		return
	}
	a, err := h.svc.ConfirmDocument(c.Request.Context(), p, req.ObjectKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, a)
}

// List handles GET /admin/agencies?status=.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), models.AgencyStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/agencies/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agency id")
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, a)
}

// DocumentURL handles GET /admin/agencies/:id/document.
func (h *Handler) DocumentURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agency id")
		return
	}
	url, err := h.svc.DocumentURL(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"download_url": url})
}

// Decide returns the handler for POST /admin/agencies/:id/{approve,suspend,reject}.
func (h *Handler) Decide(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid agency id")
			return
		}
		a, err := h.svc.Decide(c.Request.Context(), id, action)
		if err != nil {
			h.fail(c, err)
			return
		}
		response.OK(c, a)
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	printer := i18n.Printer(c.Request)
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "agency not found")
	case errors.Is(err, ErrInvalidStatusChange):
		response.Conflict(c, "this status change is not allowed")
	case errors.Is(err, ErrStorageUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, "storage.unavailable", i18n.Message(printer, "storage.unavailable"))
	case errors.Is(err, ErrInvalidDocument):
		response.Fail(c, http.StatusBadRequest, "attachment.file_invalid", i18n.Message(printer, "attachment.file_invalid"))
	case errors.Is(err, ErrDocumentMissing):
		response.Fail(c, http.StatusBadRequest, "attachment.missing", i18n.Message(printer, "attachment.missing"))
	case errors.Is(err, ErrNoDocument):
		response.NotFound(c, "no document on file")
	default:
		h.logger.Error("agency request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "something went wrong, please try again")
	}
}
