package activity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/ctxutil"
)

// Store is the write side of the activity log.
type Store interface {
	Insert(ctx context.Context, e *models.ActivityLogEntry) error
}

// Entry describes one action against a tracked entity. Action is "entity.verb", e.g. "tour.update".
type Entry struct {
	Action      string
	EntityType  string
	EntityID    string
	EntityTitle string
	Detail      string
	Changes     []models.FieldChange
}

// Logger writes activity entries attributed to the principal in the context.
type Logger struct {
	store  Store
	logger *zap.Logger
}

// NewLogger creates an activity logger.
func NewLogger(store Store, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{store: store, logger: logger}
}

// Log writes one entry. Without a principal in ctx it does nothing and returns nil.
func (l *Logger) Log(ctx context.Context, e Entry) error {
	p, ok := ctxutil.PrincipalFrom(ctx)
	if !ok {
		l.logger.Debug("activity skipped without principal", zap.String("action", e.Action))
		return nil
	}
	return l.insert(ctx, p.UserID, e)
}

// SystemActor is the actor recorded for entries written by background jobs.
var SystemActor = uuid.Nil

// LogSystem writes one entry attributed to SystemActor. It needs no principal.
func (l *Logger) LogSystem(ctx context.Context, e Entry) error {
	return l.insert(ctx, SystemActor, e)
}

func (l *Logger) insert(ctx context.Context, actor uuid.UUID, e Entry) error {
	return l.store.Insert(ctx, &models.ActivityLogEntry{
		ActorID:     actor,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		EntityTitle: e.EntityTitle,
		Detail:      e.Detail,
		Changes:     e.Changes,
	})
}
