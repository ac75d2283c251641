package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/response"
	"github.com/aura-travel/backend/pkg/utils"
)

// EntityType is the activity log entity type for users.
const EntityType = "user"

// Store is the identity and role store as the handler uses it.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	RoleFor(ctx context.Context, userID uuid.UUID) (models.Role, error)
	RegisterAgency(ctx context.Context, p RegisterAgencyParams) (*models.User, *models.Agency, error)
	List(ctx context.Context) ([]models.UserPublic, error)
	Sections(ctx context.Context, userID uuid.UUID) ([]models.OperatorPermission, error)
	GrantSection(ctx context.Context, userID uuid.UUID, section models.Section) error
	RevokeSection(ctx context.Context, userID uuid.UUID, section models.Section) error
}

// ActivityLogger writes audit entries.
type ActivityLogger interface {
	Log(ctx context.Context, e activity.Entry) error
}

// SessionCookie configures the cookie the session token is also delivered in.
type SessionCookie struct {
	Name   string
	Secure bool
}

// RegisterRequest is the body for POST /auth/register. It always creates a pending agency.
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FullName   string `json:"full_name" binding:"required"`
	AgencyName string `json:"agency_name" binding:"required"`
	Phone      string `json:"phone"`
	VATNumber  string `json:"vat_number"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token  string            `json:"token"`
	User   models.UserPublic `json:"user"`
	Agency *models.Agency    `json:"agency,omitempty"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	store          Store
	jwt            *JWTService
	activity       ActivityLogger
	cookie         SessionCookie
	documentWindow time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewHandler creates an auth handler. documentWindow is how long a new agency has to upload its document.
func NewHandler(store Store, jwt *JWTService, activity ActivityLogger, cookie SessionCookie, documentWindow time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:          store,
		jwt:            jwt,
		activity:       activity,
		cookie:         cookie,
		documentWindow: documentWindow,
		logger:         logger,
		now:            time.Now,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email, password (8+ characters), full_name and agency_name are required")
		return
	}
	req.Email = NormalizeEmail(req.Email)

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}

	user, agency, err := h.store.RegisterAgency(c.Request.Context(), RegisterAgencyParams{
		Email:         req.Email,
		PasswordHash:  hash,
		FullName:      req.FullName,
		AgencyName:    req.AgencyName,
		Phone:         req.Phone,
		VATNumber:     req.VATNumber,
		DocumentDueAt: h.now().Add(h.documentWindow),
	})
	if errors.Is(err, ErrEmailTaken) {
		response.Conflict(c, "email already registered")
		return
	}
	if err != nil {
		h.logger.Error("register agency", zap.String("email", req.Email), zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	h.setCookie(c, token)
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic(models.RoleAgency), Agency: agency})
}

// Login handles POST /auth/login. A principal without a role cannot sign in.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}
	req.Email = NormalizeEmail(req.Email)

	user, err := h.store.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("login lookup", zap.Error(err))
		}
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	role, err := h.store.RoleFor(c.Request.Context(), user.ID)
	if err != nil {
		if !errors.Is(err, ErrNoRole) {
			h.logger.Error("login role lookup", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		response.Fail(c, http.StatusForbidden, "no_role", "this account has no access yet")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	h.setCookie(c, token)
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic(role)})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.NoContent(c)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	p, ok := ctxutil.PrincipalFrom(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}
	response.OK(c, gin.H{"id": p.UserID, "email": p.Email, "role": p.Role})
}

func (h *Handler) setCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.jwt.TTL().Seconds()), "/", "", h.cookie.Secure, true)
}

// List handles GET /admin/users.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// Sections handles GET /admin/users/:id/sections.
func (h *Handler) Sections(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	list, err := h.store.Sections(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list sections", zap.String("user_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load sections")
		return
	}
	response.OK(c, list)
}

// SectionRequest is the body for POST /admin/users/:id/sections.
type SectionRequest struct {
	Section string `json:"section" binding:"required"`
}

// GrantSection handles POST /admin/users/:id/sections.
func (h *Handler) GrantSection(c *gin.Context) {
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "section is required")
		return
	}
	h.changeSection(c, req.Section, true)
}

// RevokeSection handles DELETE /admin/users/:id/sections/:section.
func (h *Handler) RevokeSection(c *gin.Context) {
	h.changeSection(c, c.Param("section"), false)
}

func (h *Handler) changeSection(c *gin.Context, raw string, grant bool) {
	ctx := c.Request.Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	section, err := models.ParseSection(raw)
	if err != nil {
		response.BadRequest(c, "unknown section")
		return
	}
	role, err := h.store.RoleFor(ctx, id)
	if errors.Is(err, ErrNoRole) {
		response.NotFound(c, "user has no role")
		return
	}
	if err != nil {
		h.logger.Error("section target role", zap.String("user_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to update sections")
		return
	}
	if !role.NeedsSectionGrant() {
		response.BadRequest(c, "sections only apply to operators")
		return
	}

	action, change := "user.section_grant", models.FieldChange{Field: "section"}
	value := string(section)
	if grant {
		err = h.store.GrantSection(ctx, id, section)
		change.To = &value
	} else {
		action = "user.section_revoke"
		err = h.store.RevokeSection(ctx, id, section)
		change.From = &value
	}
	if err != nil {
		h.logger.Error("update section", zap.String("user_id", id.String()), zap.String("section", value), zap.Error(err))
		response.Internal(c, "failed to update sections")
		return
	}
	if err := h.activity.Log(ctx, activity.Entry{
		Action:     action,
		EntityType: EntityType,
		EntityID:   id.String(),
		Detail:     value,
		Changes:    []models.FieldChange{change},
	}); err != nil {
		h.logger.Error("section activity", zap.String("user_id", id.String()), zap.Error(err))
	}
	list, err := h.store.Sections(ctx, id)
	if err != nil {
		h.logger.Error("list sections", zap.String("user_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load sections")
		return
	}
	response.OK(c, list)
}
