package notifications

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/response"
)

// Feed is the read and read-state side of notifications.
type Feed interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// maxPageSize caps ?limit= on the polling feed.
const maxPageSize = 50

// Handler serves the polling notification feed for both areas.
type Handler struct {
	feed     Feed
	pageSize int
	logger   *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(feed Feed, pageSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Handler{feed: feed, pageSize: pageSize, logger: logger}
}

// List handles GET .../notifications?limit=.
func (h *Handler) List(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	limit := h.pageSize
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = min(n, maxPageSize)
	}
	list, err := h.feed.List(c.Request.Context(), p.UserID, limit)
	if err != nil {
		h.logger.Error("list notifications", zap.String("user_id", p.UserID.String()), zap.Error(err))
		response.Internal(c, "failed to load notifications")
		return
	}
	response.OK(c, list)
}

// UnreadCount handles GET .../notifications/unread-count.
func (h *Handler) UnreadCount(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	n, err := h.feed.UnreadCount(c.Request.Context(), p.UserID)
	if err != nil {
		h.logger.Error("unread count", zap.String("user_id", p.UserID.String()), zap.Error(err))
		response.Internal(c, "failed to load notifications")
		return
	}
	response.OK(c, gin.H{"unread": n})
}

// MarkRead handles POST .../notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	if err := h.feed.MarkRead(c.Request.Context(), p.UserID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "notification not found")
			return
		}
		h.logger.Error("mark notification read", zap.String("notification_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to update notification")
		return
	}
	response.OK(c, gin.H{"id": id, "is_read": true})
}

// MarkAllRead handles POST .../notifications/read-all.
func (h *Handler) MarkAllRead(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	n, err := h.feed.MarkAllRead(c.Request.Context(), p.UserID)
	if err != nil {
		h.logger.Error("mark all read", zap.String("user_id", p.UserID.String()), zap.Error(err))
		response.Internal(c, "failed to update notifications")
		return
	}
	response.OK(c, gin.H{"updated": n})
}
