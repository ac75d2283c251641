package emaillogs

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository handles email_logs persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an email logs repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Create records one delivery outcome.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	q, args, err := psql.Insert("email_logs").
		Columns("quote_id", "email_type", "recipient_email", "subject", "status", "attempt", "sent_at", "error_message").
		Values(el.QuoteID, el.EmailType, el.RecipientEmail, nullable(el.Subject), el.Status, el.Attempt, el.SentAt, nullable(el.ErrorMessage)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, q, args...).Scan(&el.ID, &el.CreatedAt)
}

// ListByQuote returns email logs for a quote, newest first.
func (r *Repository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*models.EmailLog, error) {
	q, args, err := psql.Select("id", "quote_id", "email_type", "recipient_email", "subject", "status", "attempt", "sent_at", "error_message", "created_at").
		From("email_logs").
		Where(sq.Eq{"quote_id": quoteID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.QuoteID, &el.EmailType, &el.RecipientEmail, &subject, &el.Status, &el.Attempt, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
