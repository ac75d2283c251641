package quotes

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const quoteColumns = `id, agency_id, tour_id, cruise_id, departure_id, participants_adults, participants_children,
	COALESCE(cabin_type, ''), cabin_id, num_cabins, COALESCE(notes, ''), preview_price, COALESCE(preview_price_label, ''),
	offer_price, COALESCE(offer_notes, ''), status, created_at, updated_at`

// Offer carries the operator's price when a quote moves to offer_sent.
type Offer struct {
	Price *float64
	Notes string
}

// ListFilter narrows a quote listing.
type ListFilter struct {
	AgencyID *uuid.UUID
	Status   models.Status
	Limit    int
	Offset   int
}

// Repository handles quote_requests and its child tables.
type Repository struct {
	db database.DB
}

// NewRepository creates a quotes repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanQuote(row pgx.Row) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	var tourID, cruiseID *uuid.UUID
	var status string
	err := row.Scan(&q.ID, &q.AgencyID, &tourID, &cruiseID, &q.DepartureID, &q.ParticipantsAdults, &q.ParticipantsChildren,
		&q.CabinType, &q.CabinID, &q.NumCabins, &q.Notes, &q.PreviewPrice, &q.PreviewPriceLabel,
		&q.OfferPrice, &q.OfferNotes, &status, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	q.Subject, err = models.SubjectFromColumns(tourID, cruiseID)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", q.ID, err)
	}
	q.Status = models.Status(status)
	if s, ok := models.ParseStatus(status); ok {
		q.Status = s
	}
	return &q, nil
}

// Create inserts the quote with status sent and fills in the generated fields.
func (r *Repository) Create(ctx context.Context, q *models.QuoteRequest) error {
	const stmt = `INSERT INTO quote_requests (agency_id, tour_id, cruise_id, departure_id, participants_adults,
			participants_children, cabin_type, cabin_id, num_cabins, notes, preview_price, preview_price_label, status)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, NULLIF($10, ''), $11, NULLIF($12, ''), $13)
		RETURNING id, created_at, updated_at`
	q.Status = models.StatusSent
	return r.db.QueryRow(ctx, stmt,
		q.AgencyID, q.Subject.TourID(), q.Subject.CruiseID(), q.DepartureID, q.ParticipantsAdults,
		q.ParticipantsChildren, q.CabinType, q.CabinID, q.NumCabins, q.Notes, q.PreviewPrice, q.PreviewPriceLabel,
		string(q.Status),
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Get returns one quote.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	return scanQuote(r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE id = $1`, id))
}

// UpdateStatus writes the new status, and the offer when one is given. agency_id is never touched.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, to models.Status, offer *Offer) (*models.QuoteRequest, error) {
	b := psql.Update("quote_requests").
		Set("status", string(to)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + quoteColumns)
	if offer != nil {
		if offer.Price != nil {
			b = b.Set("offer_price", *offer.Price)
		}
		if offer.Notes != "" {
			b = b.Set("offer_notes", offer.Notes)
		}
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return scanQuote(r.db.QueryRow(ctx, q, args...))
}

// List returns quotes newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.QuoteRequest, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	b := psql.Select(quoteColumns).
		From("quote_requests").
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	if f.AgencyID != nil {
		b = b.Where(sq.Eq{"agency_id": *f.AgencyID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status.StoredNames()})
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
	var list []models.QuoteRequest
	for rows.Next() {
		qr, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *qr)
	}
	return list, rows.Err()
}

// CountByStatus returns the number of quotes per status. Statuses with no quotes are present with zero.
func (r *Repository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM quote_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, err
		}
		s, ok := models.ParseStatus(raw)
		if !ok {
			s = models.Status(raw)
		}
		counts[s] += n
	}
	return counts, rows.Err()
}

// InsertExtras writes all line items in one statement.
func (r *Repository) InsertExtras(ctx context.Context, quoteID uuid.UUID, extras []models.QuoteExtra) error {
	if len(extras) == 0 {
		return nil
	}
	b := psql.Insert("quote_extras").Columns("quote_id", "name", "quantity")
	for _, e := range extras {
		b = b.Values(quoteID, e.Name, e.Quantity)
	}
	q, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, q, args...)
	return err
}

// Extras returns a quote's line items.
func (r *Repository) Extras(ctx context.Context, quoteID uuid.UUID) ([]models.QuoteExtra, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, quote_id, name, quantity, created_at FROM quote_extras WHERE quote_id = $1 ORDER BY created_at, name`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.QuoteExtra
	for rows.Next() {
		var e models.QuoteExtra
		if err := rows.Scan(&e.ID, &e.QuoteID, &e.Name, &e.Quantity, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// AppendTimeline writes one timeline note.
func (r *Repository) AppendTimeline(ctx context.Context, e *models.TimelineEntry) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO quote_timeline (quote_id, actor, description) VALUES ($1, $2, $3) RETURNING id, created_at`,
		e.QuoteID, string(e.Actor), e.Description,
	).Scan(&e.ID, &e.CreatedAt)
}

// Timeline returns a quote's notes, oldest first.
func (r *Repository) Timeline(ctx context.Context, quoteID uuid.UUID) ([]models.TimelineEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, quote_id, actor, description, created_at FROM quote_timeline WHERE quote_id = $1 ORDER BY created_at, id`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.TimelineEntry
	for rows.Next() {
		var e models.TimelineEntry
		var actor string
		if err := rows.Scan(&e.ID, &e.QuoteID, &actor, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Actor = models.TimelineActor(actor)
		list = append(list, e)
	}
	return list, rows.Err()
}

// InsertAttachment records an uploaded document.
func (r *Repository) InsertAttachment(ctx context.Context, a *models.Attachment) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO quote_attachments (quote_id, kind, object_key, file_name, content_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		a.QuoteID, string(a.Kind), a.ObjectKey, a.FileName, a.ContentType, a.UploadedBy,
	).Scan(&a.ID, &a.CreatedAt)
}

const attachmentColumns = `id, quote_id, kind, object_key, file_name, content_type, uploaded_by, created_at`

func scanAttachment(row pgx.Row) (*models.Attachment, error) {
	var a models.Attachment
	var kind string
	err := row.Scan(&a.ID, &a.QuoteID, &kind, &a.ObjectKey, &a.FileName, &a.ContentType, &a.UploadedBy, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Kind = models.AttachmentKind(kind)
	return &a, nil
}

// Attachments lists a quote's documents, newest first.
func (r *Repository) Attachments(ctx context.Context, quoteID uuid.UUID) ([]models.Attachment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+attachmentColumns+` FROM quote_attachments WHERE quote_id = $1 ORDER BY created_at DESC`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Attachment returns one document of a quote.
func (r *Repository) Attachment(ctx context.Context, quoteID, id uuid.UUID) (*models.Attachment, error) {
	return scanAttachment(r.db.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM quote_attachments WHERE quote_id = $1 AND id = $2`, quoteID, id))
}
