package quotes

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-travel/backend/internal/models"
)

var columns = []string{"id", "agency_id", "tour_id", "cruise_id", "departure_id", "participants_adults", "participants_children",
	"cabin_type", "cabin_id", "num_cabins", "notes", "preview_price", "preview_price_label",
	"offer_price", "offer_notes", "status", "created_at", "updated_at"}

type row struct {
	id, agency   uuid.UUID
	tour, cruise *uuid.UUID
	adults       int
	status       string
	offerPrice   *float64
	offerNotes   string
	createdAt    time.Time
}

func quoteRows(rs ...row) *pgxmock.Rows {
	out := pgxmock.NewRows(columns)
	for _, r := range rs {
		out.AddRow(r.id, r.agency, r.tour, r.cruise, uuid.New(), r.adults, 0,
			"", (*uuid.UUID)(nil), 1, "", (*float64)(nil), "",
			r.offerPrice, r.offerNotes, r.status, r.createdAt, r.createdAt)
	}
	return out
}

func TestRepository_Get_SubjectFromColumns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, tour := uuid.New(), uuid.New()
	mock.ExpectQuery("FROM quote_requests WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(quoteRows(row{id: id, agency: uuid.New(), tour: &tour, cruise: (*uuid.UUID)(nil), status: "requested", adults: 2}))

	q, err := NewRepository(mock).Get(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, models.TourSubject(tour), q.Subject)
	assert.Nil(t, q.Subject.CruiseID())
	assert.Equal(t, models.StatusSent, q.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get_Errors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	missing := uuid.New()
	mock.ExpectQuery("FROM quote_requests WHERE id").WithArgs(missing).WillReturnError(pgx.ErrNoRows)
	_, err = repo.Get(context.Background(), missing)
	assert.ErrorIs(t, err, ErrNotFound)

	both := uuid.New()
	tour, cruise := uuid.New(), uuid.New()
	mock.ExpectQuery("FROM quote_requests WHERE id").WithArgs(both).
		WillReturnRows(quoteRows(row{id: both, agency: uuid.New(), tour: &tour, cruise: &cruise, status: "sent", adults: 1}))
	_, err = repo.Get(context.Background(), both)
	assert.ErrorIs(t, err, models.ErrSubjectColumns)

	legacy := uuid.New()
	mock.ExpectQuery("FROM quote_requests WHERE id").WithArgs(legacy).
		WillReturnRows(quoteRows(row{id: legacy, agency: uuid.New(), cruise: &cruise, status: "on_hold", adults: 1}))
	q, err := repo.Get(context.Background(), legacy)
	require.NoError(t, err)
	assert.Equal(t, models.Status("on_hold"), q.Status)
	assert.Equal(t, models.SubjectCruise, q.Subject.Kind)
}

func TestRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cruise := uuid.New()
	q := &models.QuoteRequest{
		AgencyID:           uuid.New(),
		Subject:            models.CruiseSubject(cruise),
		DepartureID:        uuid.New(),
		ParticipantsAdults: 2,
		NumCabins:          1,
	}
	newID, now := uuid.New(), time.Now()
	mock.ExpectQuery("INSERT INTO quote_requests").
		WithArgs(q.AgencyID, (*uuid.UUID)(nil), &cruise, q.DepartureID, 2, 0, "", (*uuid.UUID)(nil), 1, "", (*float64)(nil), "", "sent").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(newID, now, now))

	require.NoError(t, NewRepository(mock).Create(context.Background(), q))

	assert.Equal(t, newID, q.ID)
	assert.Equal(t, models.StatusSent, q.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus_WithOffer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, tour := uuid.New(), uuid.New()
	price := 1250.0
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE quote_requests SET status = $1, updated_at = NOW(), offer_price = $2, offer_notes = $3 WHERE id = $4 RETURNING")).
		WithArgs("offer_sent", price, "Breakfast included", id.String()).
		WillReturnRows(quoteRows(row{id: id, agency: uuid.New(), tour: &tour, status: "offer_sent", offerPrice: &price, offerNotes: "Breakfast included", adults: 2}))

	q, err := NewRepository(mock).UpdateStatus(context.Background(), id, models.StatusOfferSent, &Offer{Price: &price, Notes: "Breakfast included"})

	require.NoError(t, err)
	assert.Equal(t, models.StatusOfferSent, q.Status)
	require.NotNil(t, q.OfferPrice)
	assert.Equal(t, price, *q.OfferPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_AgencyScoped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	agency, tour := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM quote_requests WHERE agency_id = $1 AND status IN ($2,$3) ORDER BY created_at DESC LIMIT 10")).
		WithArgs(agency.String(), "offer_sent", "offered").
		WillReturnRows(quoteRows(row{id: uuid.New(), agency: agency, tour: &tour, status: "offered", adults: 3}))

	list, err := NewRepository(mock).List(context.Background(), ListFilter{AgencyID: &agency, Status: models.StatusOfferSent, Limit: 10})

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusOfferSent, list[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_StatusMatchesLegacyNames(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tour := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM quote_requests WHERE status IN ($1,$2) ORDER BY created_at DESC LIMIT 50")).
		WithArgs("sent", "requested").
		WillReturnRows(quoteRows(
			row{id: uuid.New(), agency: uuid.New(), tour: &tour, status: "sent", adults: 2},
			row{id: uuid.New(), agency: uuid.New(), tour: &tour, status: "requested", adults: 1},
		))

	list, err := NewRepository(mock).List(context.Background(), ListFilter{Status: models.StatusSent})

	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, q := range list {
		assert.Equal(t, models.StatusSent, q.Status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountByStatus_FoldsAliases(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM quote_requests GROUP BY status").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("sent", 3).
			AddRow("requested", 2).
			AddRow("confirmed", 1))

	counts, err := NewRepository(mock).CountByStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, counts[models.StatusSent])
	assert.Equal(t, 1, counts[models.StatusConfirmed])
	assert.Equal(t, 0, counts[models.StatusArchived])
	assert.Len(t, counts, len(models.AllStatuses))
}

func TestRepository_InsertExtras(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quote_extras (quote_id,name,quantity) VALUES ($1,$2,$3),($4,$5,$6)")).
		WithArgs(id, "transfer", 2, id, "insurance", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	repo := NewRepository(mock)
	require.NoError(t, repo.InsertExtras(context.Background(), id, nil))
	require.NoError(t, repo.InsertExtras(context.Background(), id, []models.QuoteExtra{{Name: "transfer", Quantity: 2}, {Name: "insurance", Quantity: 1}}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
