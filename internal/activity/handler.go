package activity

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/response"
)

// Reader serves the activity feeds.
type Reader interface {
	List(ctx context.Context, f Filter) ([]models.ActivityLogEntry, error)
}

// StatusCounter reports how many quote requests sit in each status.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

// dashboardFeedSize is the number of entries on the operator dashboard widget.
const dashboardFeedSize = 10

// Handler handles activity feed HTTP endpoints (operator area only).
type Handler struct {
	reader  Reader
	counter StatusCounter
	logger  *zap.Logger
}

// NewHandler creates an activity handler.
func NewHandler(reader Reader, counter StatusCounter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reader: reader, counter: counter, logger: logger}
}

// Feed handles GET /admin/activity?entity_type=&entity_id=&limit=.
func (h *Handler) Feed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.reader.List(c.Request.Context(), Filter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Limit:      limit,
	})
	if err != nil {
		h.logger.Error("list activity", zap.Error(err))
		response.Internal(c, "failed to load activity")
		return
	}
	response.OK(c, list)
}

// EntityHistory returns a handler for GET .../:id/activity on one entity type.
func (h *Handler) EntityHistory(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		list, err := h.reader.List(c.Request.Context(), Filter{
			EntityType: entityType,
			EntityID:   c.Param("id"),
			Limit:      limit,
		})
		if err != nil {
			h.logger.Error("entity history", zap.String("entity_type", entityType), zap.Error(err))
			response.Internal(c, "failed to load activity")
			return
		}
		response.OK(c, list)
	}
}

// DashboardView is the operator landing page payload.
type DashboardView struct {
	Counts         map[models.Status]int     `json:"counts"`
	RecentActivity []models.ActivityLogEntry `json:"recent_activity"`
}

// Dashboard handles GET /admin. Any operator-area role may see it.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := h.counter.CountByStatus(ctx)
	if err != nil {
		h.logger.Error("dashboard counts", zap.Error(err))
		response.Internal(c, "failed to load dashboard")
		return
	}
	recent, err := h.reader.List(ctx, Filter{Limit: dashboardFeedSize})
	if err != nil {
		h.logger.Error("dashboard activity", zap.Error(err))
		response.Internal(c, "failed to load dashboard")
		return
	}
	response.OK(c, DashboardView{Counts: counts, RecentActivity: recent})
}
