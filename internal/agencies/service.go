// Package agencies manages partner agencies: approval, suspension, the registration document and its deadline.
package agencies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/internal/notifications"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/storage"
)

var (
	ErrInvalidStatusChange = errors.New("agency status change not allowed")
	ErrStorageUnavailable  = errors.New("document storage not configured")
	ErrInvalidDocument     = errors.New("unsupported document type")
	ErrDocumentMissing     = errors.New("document not uploaded")
	ErrNoDocument          = errors.New("agency has no document")
)

// EntityType is the activity log entity type for agencies.
const EntityType = "agency"

var trackedFields = []string{"status", "document"}

// Store persists agencies.
type Store interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	ByUser(ctx context.Context, userID uuid.UUID) (*models.Agency, error)
	List(ctx context.Context, status models.AgencyStatus) ([]models.Agency, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.AgencyStatus) (*models.Agency, error)
	SetDocument(ctx context.Context, id uuid.UUID, key string) (*models.Agency, error)
	PurgeExpired(ctx context.Context, now time.Time) ([]Purged, error)
}

// Documents is the object storage used for registration documents.
type Documents interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	PresignExpire() time.Duration
}

// ActivityLogger writes audit entries.
type ActivityLogger interface {
	Log(ctx context.Context, e activity.Entry) error
	LogSystem(ctx context.Context, e activity.Entry) error
}

// Notifier writes in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, t notifications.Target, m notifications.Message) error
}

// Service holds agency workflows.
type Service struct {
	store    Store
	docs     Documents
	activity ActivityLogger
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an agency service. docs may be nil when storage is not configured.
func NewService(store Store, docs Documents, activity ActivityLogger, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, docs: docs, activity: activity, notifier: notifier, logger: logger, now: time.Now}
}

// Action is an operator decision on an agency.
type Action string

const (
	ActionApprove Action = "approve"
	ActionSuspend Action = "suspend"
	ActionReject  Action = "reject"
)

// target returns the status an action leads to from the current one.
func (a Action) target(from models.AgencyStatus) (models.AgencyStatus, bool) {
	switch a {
	case ActionApprove:
		return models.AgencyStatusActive, from == models.AgencyStatusPending || from == models.AgencyStatusSuspended
	case ActionSuspend:
		return models.AgencyStatusSuspended, from == models.AgencyStatusActive
	case ActionReject:
		return models.AgencyStatusRejected, from == models.AgencyStatusPending
	}
	return "", false
}

var statusMessages = map[models.AgencyStatus]string{
	models.AgencyStatusActive:    "Your agency has been approved. You can now request quotes.",
	models.AgencyStatusSuspended: "Your agency has been suspended. Contact the operator for details.",
	models.AgencyStatusRejected:  "Your agency registration was not approved.",
}

// Decide applies an operator action to an agency.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, action Action) (*models.Agency, error) {
	before, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	to, ok := action.target(before.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidStatusChange, action, before.Status)
	}
	after, err := s.store.SetStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}
	if err := s.activity.Log(ctx, activity.Entry{
		Action:      "agency." + string(action),
		EntityType:  EntityType,
		EntityID:    id.String(),
		EntityTitle: after.Name,
		Changes:     activity.BuildChanges(snapshot(before), snapshot(after), trackedFields),
	}); err != nil {
		s.logger.Error("agency activity", zap.String("agency_id", id.String()), zap.Error(err))
	}
	if err := s.notifier.Notify(ctx, notifications.Target{UserID: after.UserID, Email: after.Email}, notifications.Message{
		Title:     "Agency status updated",
		Body:      statusMessages[to],
		Link:      "/agency/profile",
		EmailType: models.EmailTypeAgencyStatus,
	}); err != nil {
		s.logger.Error("agency notification", zap.String("agency_id", id.String()), zap.Error(err))
	}
	return after, nil
}

// UploadTicket is a presigned upload for the registration document.
type UploadTicket struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestDocumentUpload presigns an upload of the caller's registration document.
func (s *Service) RequestDocumentUpload(ctx context.Context, p ctxutil.Principal, filename, contentType string) (*UploadTicket, error) {
	if s.docs == nil {
		return nil, ErrStorageUnavailable
	}
	if !storage.ValidateDocumentType(contentType, filename) {
		return nil, ErrInvalidDocument
	}
	a, err := s.store.ByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(filename)
	}
	key := storage.AgencyDocumentKey(a.ID.String(), uuid.NewString(), filename)
	url, err := s.docs.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadTicket{UploadURL: url, ObjectKey: key, ExpiresAt: s.now().Add(s.docs.PresignExpire())}, nil
}

// ConfirmDocument records an uploaded document once it exists in storage.
func (s *Service) ConfirmDocument(ctx context.Context, p ctxutil.Principal, key string) (*models.Agency, error) {
	if s.docs == nil {
		return nil, ErrStorageUnavailable
	}
	before, err := s.store.ByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !storage.KeyUnder(storage.AgencyDocumentPrefix(before.ID.String()), key) {
		return nil, ErrInvalidDocument
	}
	if err := s.docs.Exists(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrDocumentMissing
		}
		return nil, err
	}
	after, err := s.store.SetDocument(ctx, before.ID, key)
	if err != nil {
		return nil, err
	}
	if before.DocumentKey != "" && before.DocumentKey != key {
		if err := s.docs.Delete(ctx, before.DocumentKey); err != nil {
			s.logger.Warn("delete replaced agency document", zap.String("agency_id", before.ID.String()), zap.Error(err))
		}
	}
	if err := s.activity.Log(ctx, activity.Entry{
		Action:      "agency.document",
		EntityType:  EntityType,
		EntityID:    before.ID.String(),
		EntityTitle: before.Name,
		Changes:     activity.BuildChanges(snapshot(before), snapshot(after), trackedFields),
	}); err != nil {
		s.logger.Error("agency activity", zap.String("agency_id", before.ID.String()), zap.Error(err))
	}
	return after, nil
}

// DocumentURL presigns a download of an agency's registration document.
func (s *Service) DocumentURL(ctx context.Context, id uuid.UUID) (string, error) {
	if s.docs == nil {
		return "", ErrStorageUnavailable
	}
	a, err := s.store.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	if a.DocumentKey == "" {
		return "", ErrNoDocument
	}
	return s.docs.PresignDownload(ctx, a.DocumentKey)
}

// PurgeExpired removes pending agencies that missed their document deadline.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	purged, err := s.store.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, p := range purged {
		s.logger.Info("purged agency without document",
			zap.String("agency_id", p.AgencyID.String()),
			zap.String("name", p.Name),
			zap.String("email", p.Email),
		)
		err := s.activity.LogSystem(ctx, activity.Entry{
			Action:      "agency.purge",
			EntityType:  EntityType,
			EntityID:    p.AgencyID.String(),
			EntityTitle: p.Name,
			Detail:      "document deadline passed",
			Changes: activity.BuildDeleteChanges(activity.Snapshot{
				"status":   string(models.AgencyStatusPending),
				"document": false,
			}, trackedFields),
		})
		if err != nil {
			s.logger.Warn("activity log for purge", zap.String("agency_id", p.AgencyID.String()), zap.Error(err))
		}
	}
	return len(purged), nil
}

// Me returns the caller's agency.
func (s *Service) Me(ctx context.Context, p ctxutil.Principal) (*models.Agency, error) {
	return s.store.ByUser(ctx, p.UserID)
}

// Get returns an agency by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	return s.store.ByID(ctx, id)
}

// List returns agencies filtered by status.
func (s *Service) List(ctx context.Context, status models.AgencyStatus) ([]models.Agency, error) {
	return s.store.List(ctx, status)
}

func snapshot(a *models.Agency) activity.Snapshot {
	return activity.Snapshot{
		"status":   string(a.Status),
		"document": a.HasDocument,
	}
}
