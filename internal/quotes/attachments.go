package quotes

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/storage"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAttachmentKind     = errors.New("attachment kind not allowed")
	ErrAttachmentFile     = errors.New("unsupported attachment file")
	ErrAttachmentMissing  = errors.New("attachment not uploaded")
	ErrStorageUnavailable = errors.New("document storage not configured")
)

// AttachmentStore persists attachment rows.
type AttachmentStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	InsertAttachment(ctx context.Context, a *models.Attachment) error
	Attachments(ctx context.Context, quoteID uuid.UUID) ([]models.Attachment, error)
	Attachment(ctx context.Context, quoteID, id uuid.UUID) (*models.Attachment, error)
	AppendTimeline(ctx context.Context, e *models.TimelineEntry) error
}

// ObjectStorage presigns and checks uploaded documents.
type ObjectStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) error
	PresignExpire() time.Duration
}

// Attachments manages documents exchanged on a quote. Uploading never changes the quote status.
type Attachments struct {
	store    AttachmentStore
	access   *Service
	objects  ObjectStorage
	activity ActivityLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttachments creates the attachment service. objects may be nil when storage is not configured.
func NewAttachments(store AttachmentStore, access *Service, objects ObjectStorage, activity ActivityLogger, logger *zap.Logger) *Attachments {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Attachments{store: store, access: access, objects: objects, activity: activity, logger: logger, now: time.Now}
}

// ParseAttachmentKind validates a kind string.
func ParseAttachmentKind(s string) (models.AttachmentKind, bool) {
	switch k := models.AttachmentKind(s); k {
	case models.AttachmentContract, models.AttachmentPaymentProof, models.AttachmentOther:
		return k, true
	}
	return "", false
}

// mayUpload reports whether role may upload kind. Contracts come from the operator, proofs of payment from the agency.
func mayUpload(role models.Role, kind models.AttachmentKind) bool {
	switch kind {
	case models.AttachmentContract:
		return role.Side() == models.SideOperator
	case models.AttachmentPaymentProof:
		return role.Side() == models.SideAgency
	case models.AttachmentOther:
		return role.Side() != models.SideNone
	}
	return false
}

// AttachmentUpload is a presigned upload for one quote document.
type AttachmentUpload struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestUpload presigns an upload of a document to a quote the caller may see.
func (a *Attachments) RequestUpload(ctx context.Context, p ctxutil.Principal, quoteID uuid.UUID, kind models.AttachmentKind, filename, contentType string) (*AttachmentUpload, error) {
	if a.objects == nil {
		return nil, ErrStorageUnavailable
	}
	if !mayUpload(p.Role, kind) {
		return nil, ErrAttachmentKind
	}
	if !storage.ValidateDocumentType(contentType, filename) {
		return nil, ErrAttachmentFile
	}
	if _, err := a.visibleQuote(ctx, p, quoteID); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(filename)
	}
	key := storage.QuoteAttachmentKey(quoteID.String(), string(kind), uuid.NewString(), filename)
	url, err := a.objects.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &AttachmentUpload{UploadURL: url, ObjectKey: key, ExpiresAt: a.now().Add(a.objects.PresignExpire())}, nil
}

// ConfirmInput identifies an uploaded object to record.
type ConfirmInput struct {
	Kind      string `json:"kind" binding:"required"`
	ObjectKey string `json:"object_key" binding:"required"`
	FileName  string `json:"file_name" binding:"required"`
}

// Confirm records an uploaded document once it exists in storage.
func (a *Attachments) Confirm(ctx context.Context, p ctxutil.Principal, quoteID uuid.UUID, in ConfirmInput) (*models.Attachment, error) {
	if a.objects == nil {
		return nil, ErrStorageUnavailable
	}
	kind, ok := ParseAttachmentKind(in.Kind)
	if !ok || !mayUpload(p.Role, kind) {
		return nil, ErrAttachmentKind
	}
	if !storage.KeyUnder(storage.QuoteAttachmentPrefix(quoteID.String(), string(kind)), in.ObjectKey) {
		return nil, ErrAttachmentFile
	}
	q, err := a.visibleQuote(ctx, p, quoteID)
	if err != nil {
		return nil, err
	}
	if err := a.objects.Exists(ctx, in.ObjectKey); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrAttachmentMissing
		}
		return nil, err
	}
	att := &models.Attachment{
		QuoteID:     quoteID,
		Kind:        kind,
		ObjectKey:   in.ObjectKey,
		FileName:    path.Base(in.FileName),
		ContentType: storage.ContentTypeForFilename(in.ObjectKey),
		UploadedBy:  p.UserID,
	}
	if err := a.store.InsertAttachment(ctx, att); err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}

	if err := a.store.AppendTimeline(ctx, &models.TimelineEntry{
		QuoteID:     quoteID,
		Actor:       p.Role.TimelineActor(),
		Description: fmt.Sprintf("Document uploaded (%s): %s.", kind, att.FileName),
	}); err != nil {
		a.logger.Error("attachment timeline", zap.String("quote_id", quoteID.String()), zap.Error(err))
	}
	to := att.FileName
	if err := a.activity.Log(ctx, activity.Entry{
		Action:      ActionAttachment,
		EntityType:  EntityType,
		EntityID:    quoteID.String(),
		EntityTitle: string(q.Subject.Kind) + " " + q.Subject.ID.String(),
		Detail:      string(kind),
		Changes:     []models.FieldChange{{Field: "attachment", To: &to}},
	}); err != nil {
		a.logger.Error("attachment activity", zap.String("quote_id", quoteID.String()), zap.Error(err))
	}
	return att, nil
}

// List returns a quote's documents.
func (a *Attachments) List(ctx context.Context, p ctxutil.Principal, quoteID uuid.UUID) ([]models.Attachment, error) {
	if _, err := a.visibleQuote(ctx, p, quoteID); err != nil {
		return nil, err
	}
	return a.store.Attachments(ctx, quoteID)
}

// DownloadURL presigns a download of one document.
func (a *Attachments) DownloadURL(ctx context.Context, p ctxutil.Principal, quoteID, id uuid.UUID) (string, error) {
	if a.objects == nil {
		return "", ErrStorageUnavailable
	}
	if _, err := a.visibleQuote(ctx, p, quoteID); err != nil {
		return "", err
	}
	att, err := a.store.Attachment(ctx, quoteID, id)
	if err != nil {
		return "", err
	}
	return a.objects.PresignDownload(ctx, att.ObjectKey)
}

func (a *Attachments) visibleQuote(ctx context.Context, p ctxutil.Principal, quoteID uuid.UUID) (*models.QuoteRequest, error) {
	q, err := a.store.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := a.access.canView(ctx, p, q); err != nil {
		return nil, err
	}
	return q, nil
}
