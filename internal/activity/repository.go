package activity

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/database"
)

// DefaultLimit bounds a feed page when the caller passes none.
const DefaultLimit = 50

// MaxLimit caps any feed page.
const MaxLimit = 200

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Filter narrows a feed to one entity or entity type.
type Filter struct {
	EntityType string
	EntityID   string
	Limit      int
}

// Repository persists the append-only activity log. It has no update or delete path.
type Repository struct {
	db database.DB
}

// NewRepository creates an activity repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one entry.
func (r *Repository) Insert(ctx context.Context, e *models.ActivityLogEntry) error {
	var changes []byte
	if len(e.Changes) > 0 {
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		changes = raw
	}
	q, args, err := psql.Insert("activity_log").
		Columns("actor_id", "action", "entity_type", "entity_id", "entity_title", "detail", "changes").
		Values(e.ActorID, e.Action, e.EntityType, e.EntityID, e.EntityTitle, nullable(e.Detail), changes).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, q, args...).Scan(&e.ID, &e.CreatedAt)
}

// HistoryForEntity returns entries for one entity, newest first.
func (r *Repository) HistoryForEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.ActivityLogEntry, error) {
	return r.List(ctx, Filter{EntityType: entityType, EntityID: entityID, Limit: limit})
}

// Recent returns the global feed, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	return r.List(ctx, Filter{Limit: limit})
}

// List returns a filtered page, newest first, with actor emails attached.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.ActivityLogEntry, error) {
	b := psql.Select("id", "actor_id", "action", "entity_type", "entity_id", "entity_title",
		"COALESCE(detail, '')", "changes", "created_at").
		From("activity_log").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(clampLimit(f.Limit)))
	if f.EntityType != "" {
		b = b.Where(sq.Eq{"entity_type": f.EntityType})
	}
	if f.EntityID != "" {
		b = b.Where(sq.Eq{"entity_id": f.EntityID})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ActivityLogEntry
	for rows.Next() {
		var e models.ActivityLogEntry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.EntityTitle,
			&e.Detail, &changes, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("activity %s: decode changes: %w", e.ID, err)
			}
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachEmails(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// attachEmails resolves actor emails for the whole page in one query.
func (r *Repository) attachEmails(ctx context.Context, list []models.ActivityLogEntry) error {
	seen := make(map[uuid.UUID]struct{}, len(list))
	ids := make([]uuid.UUID, 0, len(list))
	for _, e := range list {
		if _, ok := seen[e.ActorID]; ok {
			continue
		}
		seen[e.ActorID] = struct{}{}
		ids = append(ids, e.ActorID)
	}
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, email FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("resolve actors: %w", err)
	}
	defer rows.Close()
	emails := make(map[uuid.UUID]string, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var email string
		if err := rows.Scan(&id, &email); err != nil {
			return err
		}
		emails[id] = email
	}
	if err := rows.Err(); err != nil {
		return err
	}
	emails[uuid.Nil] = "system"
	for i := range list {
		list[i].ActorEmail = emails[list[i].ActorID]
	}
	return nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
