// Package catalog is a read-only view of tours, cruises and their departures.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/database"
)

// ErrNotFound is returned when the subject or departure does not exist.
var ErrNotFound = errors.New("catalog item not found")

// Repository reads catalog titles and departures.
type Repository struct {
	db database.DB
}

// NewRepository creates a catalog repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func subjectTable(kind models.SubjectKind) (string, error) {
	switch kind {
	case models.SubjectTour:
		return "tours", nil
	case models.SubjectCruise:
		return "cruises", nil
	}
	return "", fmt.Errorf("unknown subject kind %q", kind)
}

// SubjectTitle returns the display title of a tour or cruise.
func (r *Repository) SubjectTitle(ctx context.Context, s models.Subject) (string, error) {
	table, err := subjectTable(s.Kind)
	if err != nil {
		return "", err
	}
	var title string
	err = r.db.QueryRow(ctx, `SELECT title FROM `+table+` WHERE id = $1`, s.ID).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return title, nil
}

// SubjectExists reports whether the tour or cruise exists.
func (r *Repository) SubjectExists(ctx context.Context, s models.Subject) (bool, error) {
	table, err := subjectTable(s.Kind)
	if err != nil {
		return false, err
	}
	var ok bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, s.ID).Scan(&ok)
	return ok, err
}

// DepartureBelongsTo reports whether the departure exists and is scheduled for s.
// A missing departure returns ErrNotFound.
func (r *Repository) DepartureBelongsTo(ctx context.Context, departureID uuid.UUID, s models.Subject) (bool, error) {
	var tourID, cruiseID *uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT tour_id, cruise_id FROM departures WHERE id = $1`, departureID).Scan(&tourID, &cruiseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	owner, err := models.SubjectFromColumns(tourID, cruiseID)
	if err != nil {
		return false, err
	}
	return owner == s, nil
}
