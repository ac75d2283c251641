package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/auth"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/response"
)

// Area prefixes. They never overlap.
const (
	OperatorPrefix = "/admin"
	AgencyPrefix   = "/agency"
)

// Area is the protected zone a path belongs to.
type Area int

const (
	AreaPublic Area = iota
	AreaOperator
	AreaAgency
)

// Reason says why the gate refused a request.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNoRole          Reason = "no_role"
	ReasonUnauthorized    Reason = "unauthorized"
	ReasonNoPermission    Reason = "no_permission"
)

// SectionTable maps the first operator path segment to the section an operator must hold.
// Segments not listed (the dashboard, notifications) need no grant.
var SectionTable = map[string]models.Section{
	"quotes":       models.SectionQuotes,
	"agencies":     models.SectionAgencies,
	"tours":        models.SectionCatalog,
	"cruises":      models.SectionCatalog,
	"ships":        models.SectionCatalog,
	"destinations": models.SectionCatalog,
	"media":        models.SectionMedia,
	"blog":         models.SectionBlog,
	"activity":     models.SectionActivity,
	"users":        models.SectionUsers,
}

// RoleStore is the identity and role lookup the gate consults on every request.
type RoleStore interface {
	RoleFor(ctx context.Context, userID uuid.UUID) (models.Role, error)
	HasSection(ctx context.Context, userID uuid.UUID, section models.Section) (bool, error)
}

// Classify returns the area of path and the remainder after the area prefix.
func Classify(path string) (Area, string) {
	if rest, ok := under(path, OperatorPrefix); ok {
		return AreaOperator, rest
	}
	if rest, ok := under(path, AgencyPrefix); ok {
		return AreaAgency, rest
	}
	return AreaPublic, path
}

func under(path, prefix string) (string, bool) {
	if path == prefix {
		return "", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return strings.TrimPrefix(path, prefix+"/"), true
	}
	return "", false
}

// SectionFor returns the section guarding an operator-area remainder.
func SectionFor(rest string) (models.Section, bool) {
	segment, _, _ := strings.Cut(strings.Trim(rest, "/"), "/")
	s, ok := SectionTable[segment]
	return s, ok
}

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Allow    bool
	Reason   Reason
	Redirect string
	Role     models.Role
}

func deny(reason Reason, redirect string) Decision {
	return Decision{Reason: reason, Redirect: redirect}
}

// Decide returns the gate outcome for one request. userID is uuid.Nil when no valid session was presented.
// Any lookup failure is a denial.
func Decide(ctx context.Context, path string, userID uuid.UUID, roles RoleStore) (Decision, error) {
	area, rest := Classify(path)
	if area == AreaPublic {
		return Decision{Allow: true}, nil
	}
	if userID == uuid.Nil {
		return deny(ReasonUnauthenticated, "/login?next="+url.QueryEscape(path)), nil
	}
	role, err := roles.RoleFor(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrNoRole) {
			err = nil
		}
		return deny(ReasonNoRole, "/?error=no_role"), err
	}

	switch area {
	case AreaAgency:
		if role.Side() != models.SideAgency {
			return deny(ReasonUnauthorized, "/?error=unauthorized"), nil
		}
	case AreaOperator:
		if role.Side() != models.SideOperator {
			return deny(ReasonUnauthorized, "/?error=unauthorized"), nil
		}
		if role.NeedsSectionGrant() {
			if section, gated := SectionFor(rest); gated {
				ok, err := roles.HasSection(ctx, userID, section)
				if err != nil || !ok {
					return deny(ReasonNoPermission, OperatorPrefix+"?error=no_permission"), err
				}
			}
		}
	}
	return Decision{Allow: true, Role: role}, nil
}

// Gate authorizes every request under the operator and agency areas before any handler runs.
// Browsers are redirected; API clients get a JSON denial carrying the same redirect.
func Gate(jwtService *auth.JWTService, roles RoleStore, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if area, _ := Classify(path); area == AreaPublic {
			c.Next()
			return
		}

		var claims *auth.Claims
		userID := uuid.Nil
		if token := credential(c, cookieName); token != "" {
			if cl, err := jwtService.Validate(token); err == nil {
				claims, userID = cl, cl.UserID
			}
		}

		d, err := Decide(c.Request.Context(), path, userID, roles)
		if err != nil {
			logger.Error("access gate lookup failed",
				zap.String("path", path),
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		if !d.Allow {
			refuse(c, d)
			return
		}

		p := ctxutil.Principal{UserID: claims.UserID, Email: claims.Email, Role: d.Role}
		c.Request = c.Request.WithContext(ctxutil.WithPrincipal(c.Request.Context(), p))
		c.Set(ContextRole, string(d.Role))
		c.Next()
	}
}

func refuse(c *gin.Context, d Decision) {
	if wantsHTML(c.Request) {
		c.Redirect(http.StatusFound, d.Redirect)
		c.Abort()
		return
	}
	status := http.StatusForbidden
	if d.Reason == ReasonUnauthenticated {
		status = http.StatusUnauthorized
	}
	response.Denied(c, status, string(d.Reason), d.Redirect)
	c.Abort()
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
