package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListByQuote handles GET /admin/quotes/:id/emails.
// Mounted under the operator area, so the quotes section is already checked.
func (h *Handler) ListByQuote(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quote id")
		return
	}
	logs, err := h.repo.ListByQuote(c.Request.Context(), quoteID)
	if err != nil {
		h.logger.Error("list email logs", zap.String("quote_id", quoteID.String()), zap.Error(err))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}
