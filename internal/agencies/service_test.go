package agencies

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/internal/notifications"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/storage"
)

type memStore struct {
	byID    map[uuid.UUID]*models.Agency
	purged  []Purged
	purgeAt time.Time
}

func newMemStore(agencies ...*models.Agency) *memStore {
	s := &memStore{byID: map[uuid.UUID]*models.Agency{}}
	for _, a := range agencies {
		s.byID[a.ID] = a
	}
	return s
}

func (s *memStore) ByID(_ context.Context, id uuid.UUID) (*models.Agency, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ByUser(_ context.Context, userID uuid.UUID) (*models.Agency, error) {
	for _, a := range s.byID {
		if a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) List(_ context.Context, status models.AgencyStatus) ([]models.Agency, error) {
	var out []models.Agency
	for _, a := range s.byID {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memStore) SetStatus(ctx context.Context, id uuid.UUID, status models.AgencyStatus) (*models.Agency, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = status
	return s.ByID(ctx, id)
}

func (s *memStore) SetDocument(ctx context.Context, id uuid.UUID, key string) (*models.Agency, error) {
	a := s.byID[id]
	a.DocumentKey, a.HasDocument, a.DocumentDueAt = key, true, nil
	return s.ByID(ctx, id)
}

func (s *memStore) PurgeExpired(_ context.Context, now time.Time) ([]Purged, error) {
	s.purgeAt = now
	return s.purged, nil
}

type fakeDocs struct {
	existing map[string]bool
	deleted  []string
}

func (d *fakeDocs) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://s3.example.com/" + key + "?sig=put", nil
}

func (d *fakeDocs) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://s3.example.com/" + key + "?sig=get", nil
}

func (d *fakeDocs) Exists(_ context.Context, key string) error {
	if !d.existing[key] {
		return storage.ErrObjectNotFound
	}
	return nil
}

func (d *fakeDocs) Delete(_ context.Context, key string) error {
	d.deleted = append(d.deleted, key)
	return nil
}

func (d *fakeDocs) PresignExpire() time.Duration { return 15 * time.Minute }

type recorder struct {
	entries []activity.Entry
	system  []activity.Entry
	notes   []notifications.Message
}

func (r *recorder) Log(_ context.Context, e activity.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorder) LogSystem(_ context.Context, e activity.Entry) error {
	r.system = append(r.system, e)
	return nil
}

func (r *recorder) Notify(_ context.Context, _ notifications.Target, m notifications.Message) error {
	r.notes = append(r.notes, m)
	return nil
}

func pendingAgency() *models.Agency {
	return &models.Agency{ID: uuid.New(), UserID: uuid.New(), Name: "Sunway Travel", Email: "desk@sunway.test", Status: models.AgencyStatusPending}
}

func TestService_Decide(t *testing.T) {
	tests := []struct {
		name    string
		from    models.AgencyStatus
		action  Action
		want    models.AgencyStatus
		wantErr error
	}{
		{"approve pending", models.AgencyStatusPending, ActionApprove, models.AgencyStatusActive, nil},
		{"reinstate suspended", models.AgencyStatusSuspended, ActionApprove, models.AgencyStatusActive, nil},
		{"suspend active", models.AgencyStatusActive, ActionSuspend, models.AgencyStatusSuspended, nil},
		{"reject pending", models.AgencyStatusPending, ActionReject, models.AgencyStatusRejected, nil},
		{"suspend pending", models.AgencyStatusPending, ActionSuspend, "", ErrInvalidStatusChange},
		{"approve rejected", models.AgencyStatusRejected, ActionApprove, "", ErrInvalidStatusChange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := pendingAgency()
			a.Status = tt.from
			rec := &recorder{}
			svc := NewService(newMemStore(a), nil, rec, rec, nil)

			got, err := svc.Decide(context.Background(), a.ID, tt.action)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, rec.entries)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
			require.Len(t, rec.entries, 1)
			assert.Equal(t, "agency."+string(tt.action), rec.entries[0].Action)
			require.Len(t, rec.entries[0].Changes, 1)
			assert.Equal(t, "status", rec.entries[0].Changes[0].Field)
			assert.Len(t, rec.notes, 1)
		})
	}
}

func TestService_ConfirmDocument(t *testing.T) {
	a := pendingAgency()
	due := time.Now().Add(48 * time.Hour)
	a.DocumentDueAt = &due
	docs := &fakeDocs{existing: map[string]bool{}}
	rec := &recorder{}
	svc := NewService(newMemStore(a), docs, rec, rec, nil)
	ctx := context.Background()
	p := ctxutil.Principal{UserID: a.UserID, Role: models.RoleAgency}

	ticket, err := svc.RequestDocumentUpload(ctx, p, "chamber-of-commerce.pdf", "")
	require.NoError(t, err)
	assert.Contains(t, ticket.UploadURL, ticket.ObjectKey)

	_, err = svc.ConfirmDocument(ctx, p, ticket.ObjectKey)
	assert.ErrorIs(t, err, ErrDocumentMissing)

	docs.existing[ticket.ObjectKey] = true
	got, err := svc.ConfirmDocument(ctx, p, ticket.ObjectKey)
	require.NoError(t, err)
	assert.True(t, got.HasDocument)
	assert.Nil(t, got.DocumentDueAt)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "agency.document", rec.entries[0].Action)
}

func TestService_ConfirmDocument_ForeignKeyRejected(t *testing.T) {
	a := pendingAgency()
	other := uuid.New()
	key := storage.AgencyDocumentKey(other.String(), "o1", "doc.pdf")
	docs := &fakeDocs{existing: map[string]bool{key: true}}
	svc := NewService(newMemStore(a), docs, &recorder{}, &recorder{}, nil)

	_, err := svc.ConfirmDocument(context.Background(), ctxutil.Principal{UserID: a.UserID, Role: models.RoleAgency}, key)

	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestService_RequestDocumentUpload_Validation(t *testing.T) {
	a := pendingAgency()
	p := ctxutil.Principal{UserID: a.UserID, Role: models.RoleAgency}

	_, err := NewService(newMemStore(a), nil, &recorder{}, &recorder{}, nil).RequestDocumentUpload(context.Background(), p, "doc.pdf", "")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = NewService(newMemStore(a), &fakeDocs{}, &recorder{}, &recorder{}, nil).RequestDocumentUpload(context.Background(), p, "run.exe", "")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestService_PurgeExpired(t *testing.T) {
	store := newMemStore()
	store.purged = []Purged{{AgencyID: uuid.New(), Name: "Late Travel"}, {AgencyID: uuid.New(), Name: "Slow Tours"}}
	rec := &recorder{}
	svc := NewService(store, nil, rec, rec, nil)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	n, err := svc.PurgeExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, fixed, store.purgeAt)
	require.Len(t, rec.system, 2)
	assert.Empty(t, rec.entries)
	for i, e := range rec.system {
		assert.Equal(t, "agency.purge", e.Action)
		assert.Equal(t, EntityType, e.EntityType)
		assert.Equal(t, store.purged[i].AgencyID.String(), e.EntityID)
		assert.Equal(t, store.purged[i].Name, e.EntityTitle)
	}
}
