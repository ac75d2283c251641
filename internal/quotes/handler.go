package quotes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/i18n"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/response"
)

const defaultPageSize = 50

// Handler serves quote endpoints for both areas. The caller's role decides what each one does.
type Handler struct {
	svc         *Service
	attachments *Attachments
	logger      *zap.Logger
}

// NewHandler creates a quotes handler.
func NewHandler(svc *Service, attachments *Attachments, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, attachments: attachments, logger: logger}
}

// Create handles POST /agency/quotes.
func (h *Handler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.svc.Create(c.Request.Context(), p, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"id": res.Quote.ID, "quote": res.Quote})
}

// List handles GET /agency/quotes and GET /admin/quotes.
func (h *Handler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	f := ListFilter{Limit: defaultPageSize}
	if raw := c.Query("status"); raw != "" {
		s, ok := models.ParseStatus(raw)
		if !ok {
			response.BadRequest(c, "unknown status")
			return
		}
		f.Status = s
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n <= defaultPageSize {
		f.Limit = n
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		f.Offset = n
	}
	list, err := h.svc.List(c.Request.Context(), p, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /agency/quotes/:id and GET /admin/quotes/:id.
func (h *Handler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	view, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, view)
}

// Transition handles POST .../quotes/:id/status.
func (h *Handler) Transition(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	var in TransitionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "status is required")
		return
	}
	res, err := h.svc.Transition(c.Request.Context(), p, id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"quote":      res.Quote,
		"from":       res.From,
		"to":         res.To,
		"projection": Project(res.To, p.Role.Side()),
	})
}

// AttachmentUploadRequest is the body for POST .../quotes/:id/attachments/upload-url.
type AttachmentUploadRequest struct {
	Kind        string `json:"kind" binding:"required"`
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type"`
}

// RequestAttachmentUpload handles POST .../quotes/:id/attachments/upload-url.
func (h *Handler) RequestAttachmentUpload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	var req AttachmentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "kind and file_name are required")
		return
	}
	kind, valid := ParseAttachmentKind(req.Kind)
	if !valid {
		h.fail(c, ErrAttachmentKind)
		return
	}
	upload, err := h.attachments.RequestUpload(c.Request.Context(), p, id, kind, req.FileName, req.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, upload)
}

// ConfirmAttachment handles POST .../quotes/:id/attachments.
func (h *Handler) ConfirmAttachment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	var in ConfirmInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "kind, object_key and file_name are required")
		return
	}
	att, err := h.attachments.Confirm(c.Request.Context(), p, id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, att)
}

// ListAttachments handles GET .../quotes/:id/attachments.
func (h *Handler) ListAttachments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	list, err := h.attachments.List(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// AttachmentURL handles GET .../quotes/:id/attachments/:attachmentId.
func (h *Handler) AttachmentURL(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	attID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		response.BadRequest(c, "invalid attachment id")
		return
	}
	url, err := h.attachments.DownloadURL(c.Request.Context(), p, id, attID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"download_url": url})
}

func principal(c *gin.Context) (ctxutil.Principal, bool) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
	}
	return p, ok
}

func quoteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quote id")
		return uuid.Nil, false
	}
	return id, true
}

// fail maps service errors onto the envelope. Messages are localized; persistence detail is only logged.
func (h *Handler) fail(c *gin.Context, err error) {
	printer := i18n.Printer(c.Request)
	localized := func(status int, key string, args ...any) {
		response.Fail(c, status, key, i18n.Message(printer, key, args...))
	}

	var verr *ValidationError
	var terr *TransitionError
	switch {
	case errors.As(err, &verr):
		key, args := verr.MessageKey()
		localized(http.StatusBadRequest, key, args...)
	case errors.As(err, &terr):
		key, args := terr.MessageKey()
		c.JSON(http.StatusConflict, response.Body{
			Success: false,
			Error:   i18n.Message(printer, key, args...),
			Code:    key,
			Data:    terr,
		})
	case errors.Is(err, ErrNoAgency):
		localized(http.StatusForbidden, "quote.no_agency")
	case errors.Is(err, ErrAgencyNotActive):
		localized(http.StatusForbidden, "quote.agency_not_active")
	case errors.Is(err, ErrForbidden):
		localized(http.StatusForbidden, "quote.forbidden")
	case errors.Is(err, ErrNotFound):
		localized(http.StatusNotFound, "quote.not_found")
	case errors.Is(err, ErrAttachmentNotFound):
		localized(http.StatusNotFound, "attachment.not_found")
	case errors.Is(err, ErrAttachmentKind):
		localized(http.StatusBadRequest, "attachment.kind_invalid")
	case errors.Is(err, ErrAttachmentFile):
		localized(http.StatusBadRequest, "attachment.file_invalid")
	case errors.Is(err, ErrAttachmentMissing):
		localized(http.StatusBadRequest, "attachment.missing")
	case errors.Is(err, ErrStorageUnavailable):
		localized(http.StatusServiceUnavailable, "storage.unavailable")
	case errors.Is(err, ErrCreateFailed):
		localized(http.StatusInternalServerError, "quote.create_failed")
	case errors.Is(err, ErrUpdateFailed):
		localized(http.StatusInternalServerError, "quote.update_failed")
	default:
		h.logger.Error("quote request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "something went wrong, please try again")
	}
}
