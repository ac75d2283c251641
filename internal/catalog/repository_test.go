package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-travel/backend/internal/models"
)

func TestRepository_SubjectTitle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cruise := models.CruiseSubject(uuid.New())
	mock.ExpectQuery("SELECT title FROM cruises").
		WithArgs(cruise.ID).
		WillReturnRows(pgxmock.NewRows([]string{"title"}).AddRow("Western Mediterranean"))

	title, err := NewRepository(mock).SubjectTitle(context.Background(), cruise)
	require.NoError(t, err)
	assert.Equal(t, "Western Mediterranean", title)
}

func TestRepository_SubjectTitle_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tour := models.TourSubject(uuid.New())
	mock.ExpectQuery("SELECT title FROM tours").
		WithArgs(tour.ID).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewRepository(mock).SubjectTitle(context.Background(), tour)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_DepartureBelongsTo(t *testing.T) {
	tourID := uuid.New()
	departure := uuid.New()

	tests := []struct {
		name    string
		subject models.Subject
		want    bool
	}{
		{"same tour", models.TourSubject(tourID), true},
		{"other tour", models.TourSubject(uuid.New()), false},
		{"cruise with same id", models.CruiseSubject(tourID), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery("SELECT tour_id, cruise_id FROM departures").
				WithArgs(departure).
				WillReturnRows(pgxmock.NewRows([]string{"tour_id", "cruise_id"}).AddRow(&tourID, (*uuid.UUID)(nil)))

			ok, err := NewRepository(mock).DepartureBelongsTo(context.Background(), departure, tt.subject)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
