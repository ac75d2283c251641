package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/utils"
)

type memStore struct {
	users      map[string]*models.User
	roles      map[uuid.UUID]models.Role
	sections   map[uuid.UUID]map[models.Section]bool
	registered *RegisterAgencyParams
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		roles:    map[uuid.UUID]models.Role{},
		sections: map[uuid.UUID]map[models.Section]bool{},
	}
}

func (s *memStore) add(t *testing.T, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{ID: uuid.New(), Email: email, Password: hash, FullName: email}
	s.users[email] = u
	if role != "" {
		s.roles[u.ID] = role
	}
	return u
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *memStore) RoleFor(_ context.Context, userID uuid.UUID) (models.Role, error) {
	r, ok := s.roles[userID]
	if !ok {
		return "", ErrNoRole
	}
	return r, nil
}

func (s *memStore) RegisterAgency(_ context.Context, p RegisterAgencyParams) (*models.User, *models.Agency, error) {
	if _, ok := s.users[p.Email]; ok {
		return nil, nil, ErrEmailTaken
	}
	s.registered = &p
	u := &models.User{ID: uuid.New(), Email: p.Email, Password: p.PasswordHash, FullName: p.FullName}
	s.users[p.Email] = u
	s.roles[u.ID] = models.RoleAgency
	due := p.DocumentDueAt
	return u, &models.Agency{ID: uuid.New(), UserID: u.ID, Name: p.AgencyName, Status: models.AgencyStatusPending, DocumentDueAt: &due}, nil
}

func (s *memStore) List(context.Context) ([]models.UserPublic, error) {
	var out []models.UserPublic
	for _, u := range s.users {
		out = append(out, u.ToPublic(s.roles[u.ID]))
	}
	return out, nil
}

func (s *memStore) Sections(_ context.Context, userID uuid.UUID) ([]models.OperatorPermission, error) {
	var out []models.OperatorPermission
	for sec := range s.sections[userID] {
		out = append(out, models.OperatorPermission{UserID: userID, Section: sec})
	}
	return out, nil
}

func (s *memStore) GrantSection(_ context.Context, userID uuid.UUID, section models.Section) error {
	if s.sections[userID] == nil {
		s.sections[userID] = map[models.Section]bool{}
	}
	s.sections[userID][section] = true
	return nil
}

func (s *memStore) RevokeSection(_ context.Context, userID uuid.UUID, section models.Section) error {
	delete(s.sections[userID], section)
	return nil
}

type activityLog struct{ entries []activity.Entry }

func (l *activityLog) Log(_ context.Context, e activity.Entry) error {
	l.entries = append(l.entries, e)
	return nil
}

func setup(store *memStore, log *activityLog) (*gin.Engine, *JWTService) {
	gin.SetMode(gin.TestMode)
	jwtSvc := NewJWTService("test-secret", 2)
	h := NewHandler(store, jwtSvc, log, SessionCookie{Name: "session"}, 7*24*time.Hour, nil)
	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/logout", h.Logout)
	r.POST("/admin/users/:id/sections", h.GrantSection)
	r.DELETE("/admin/users/:id/sections/:section", h.RevokeSection)
	return r, jwtSvc
}

func post(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	store := newMemStore()
	op := store.add(t, "ops@operator.test", "correct-horse", models.RoleOperator)
	store.add(t, "limbo@operator.test", "correct-horse", "")
	r, jwtSvc := setup(store, &activityLog{})

	w := post(r, http.MethodPost, "/auth/login", LoginRequest{Email: "ops@operator.test", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.RoleOperator, body.Data.User.Role)
	claims, err := jwtSvc.Validate(body.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, op.ID, claims.UserID)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, "session", w.Result().Cookies()[0].Name)
	assert.True(t, w.Result().Cookies()[0].HttpOnly)

	w = post(r, http.MethodPost, "/auth/login", LoginRequest{Email: "ops@operator.test", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, http.MethodPost, "/auth/login", LoginRequest{Email: "nobody@operator.test", Password: "correct-horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, http.MethodPost, "/auth/login", LoginRequest{Email: "limbo@operator.test", Password: "correct-horse"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"no_role"`)
}

func TestRegister_CreatesPendingAgency(t *testing.T) {
	store := newMemStore()
	r, _ := setup(store, &activityLog{})
	before := time.Now()

	w := post(r, http.MethodPost, "/auth/register", RegisterRequest{
		Email: "desk@sunway.test", Password: "long-enough", FullName: "Marta Rossi", AgencyName: "Sunway Travel",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Agency)
	assert.Equal(t, models.AgencyStatusPending, body.Data.Agency.Status)
	assert.Equal(t, models.RoleAgency, body.Data.User.Role)
	require.NotNil(t, store.registered)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), store.registered.DocumentDueAt, time.Minute)
	assert.True(t, utils.CheckPassword("long-enough", store.registered.PasswordHash))

	w = post(r, http.MethodPost, "/auth/register", RegisterRequest{
		Email: "desk@sunway.test", Password: "long-enough", FullName: "Marta Rossi", AgencyName: "Sunway Travel",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(r, http.MethodPost, "/auth/register", RegisterRequest{Email: "x@y.test", Password: "short", FullName: "X", AgencyName: "Y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_EmailIgnoresCase(t *testing.T) {
	store := newMemStore()
	r, _ := setup(store, &activityLog{})

	w := post(r, http.MethodPost, "/auth/register", RegisterRequest{
		Email: "Desk@Sunway.test", Password: "long-enough", FullName: "Marta Rossi", AgencyName: "Sunway Travel",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.registered)
	assert.Equal(t, "desk@sunway.test", store.registered.Email)

	w = post(r, http.MethodPost, "/auth/register", RegisterRequest{
		Email: "DESK@sunway.TEST", Password: "long-enough", FullName: "Someone Else", AgencyName: "Copycat Tours",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(r, http.MethodPost, "/auth/login", LoginRequest{Email: "desk@SUNWAY.test", Password: "long-enough"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSections_GrantAndRevoke(t *testing.T) {
	store := newMemStore()
	op := store.add(t, "ops@operator.test", "correct-horse", models.RoleOperator)
	admin := store.add(t, "admin@operator.test", "correct-horse", models.RoleAdmin)
	log := &activityLog{}
	r, _ := setup(store, log)
	path := "/admin/users/" + op.ID.String() + "/sections"

	w := post(r, http.MethodPost, path, SectionRequest{Section: "quotes"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.sections[op.ID][models.SectionQuotes])
	require.Len(t, log.entries, 1)
	assert.Equal(t, "user.section_grant", log.entries[0].Action)
	assert.Equal(t, "quotes", *log.entries[0].Changes[0].To)

	w = post(r, http.MethodDelete, path+"/quotes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.sections[op.ID][models.SectionQuotes])
	assert.Equal(t, "user.section_revoke", log.entries[1].Action)

	w = post(r, http.MethodPost, path, SectionRequest{Section: "billing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, http.MethodPost, "/admin/users/"+admin.ID.String()+"/sections", SectionRequest{Section: "quotes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, log.entries, 2)
}

func TestLogout_ClearsCookie(t *testing.T) {
	r, _ := setup(newMemStore(), &activityLog{})

	w := post(r, http.MethodPost, "/auth/logout", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)
}
