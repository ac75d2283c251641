package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/database"
)

// ErrNotFound is returned when the notification does not exist or belongs to someone else.
var ErrNotFound = errors.New("notification not found")

// Repository handles notifications persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a notifications repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes an unread notification.
func (r *Repository) Insert(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (user_id, title, message, link, is_read)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), FALSE)
		RETURNING id, is_read, created_at`
	return r.db.QueryRow(ctx, q, n.UserID, n.Title, n.Message, n.Link).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

// List returns the principal's notifications, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	const q = `SELECT id, user_id, title, COALESCE(message, ''), COALESCE(link, ''), is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.Notification, 0, limit)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// UnreadCount returns the number of unread notifications for the principal.
func (r *Repository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	return n, err
}

// MarkRead flips one notification to read. Repeating it is harmless.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification of the principal and returns how many changed.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
