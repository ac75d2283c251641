package agencies

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/database"
)

// ErrNotFound is returned when no agency matches.
var ErrNotFound = errors.New("agency not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const agencyColumns = `id, user_id, name, email, COALESCE(phone, ''), COALESCE(vat_number, ''), status,
	COALESCE(document_key, ''), document_due_at, created_at, updated_at`

// Repository handles agency persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an agencies repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanAgency(row pgx.Row) (*models.Agency, error) {
	var a models.Agency
	var status string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Email, &a.Phone, &a.VATNumber, &status,
		&a.DocumentKey, &a.DocumentDueAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status = models.AgencyStatus(status)
	a.HasDocument = a.DocumentKey != ""
	return &a, nil
}

// ByID returns an agency by ID.
func (r *Repository) ByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	return scanAgency(r.db.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE id = $1`, id))
}

// ByUser returns the agency owned by a principal.
func (r *Repository) ByUser(ctx context.Context, userID uuid.UUID) (*models.Agency, error) {
	return scanAgency(r.db.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE user_id = $1`, userID))
}

// List returns agencies, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status models.AgencyStatus) ([]models.Agency, error) {
	b := psql.Select(agencyColumns).From("agencies").OrderBy("created_at DESC")
	if status != "" {
		b = b.Where(sq.Eq{"status": string(status)})
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
	var list []models.Agency
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// SetStatus changes the agency status and returns the updated row.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.AgencyStatus) (*models.Agency, error) {
	return scanAgency(r.db.QueryRow(ctx,
		`UPDATE agencies SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+agencyColumns,
		id, string(status)))
}

// SetDocument records the uploaded registration document and clears the deadline.
func (r *Repository) SetDocument(ctx context.Context, id uuid.UUID, key string) (*models.Agency, error) {
	return scanAgency(r.db.QueryRow(ctx,
		`UPDATE agencies SET document_key = $2, document_due_at = NULL, updated_at = NOW() WHERE id = $1 RETURNING `+agencyColumns,
		id, key))
}

// Purged identifies an agency removed for missing its document deadline.
type Purged struct {
	AgencyID uuid.UUID
	UserID   uuid.UUID
	Name     string
	Email    string
}

// PurgeExpired deletes pending agencies (and their owners) whose document deadline passed before now
// without a document.
func (r *Repository) PurgeExpired(ctx context.Context, now time.Time) ([]Purged, error) {
	const q = `WITH expired AS (
			SELECT id, user_id, name, email FROM agencies
			WHERE status = 'pending' AND document_key IS NULL AND document_due_at < $1
		), removed AS (
			DELETE FROM users u USING expired e WHERE u.id = e.user_id RETURNING u.id
		)
		SELECT e.id, e.user_id, e.name, e.email FROM expired e INNER JOIN removed r ON r.id = e.user_id`
	rows, err := r.db.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Purged
	for rows.Next() {
		var p Purged
		if err := rows.Scan(&p.AgencyID, &p.UserID, &p.Name, &p.Email); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
