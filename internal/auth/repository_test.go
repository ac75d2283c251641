package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "bob@x.com", NormalizeEmail("  Bob@X.com "))
	assert.Equal(t, "bob@x.com", NormalizeEmail("bob@x.com"))
}

func TestRepository_GetByEmail_LowercasesLookup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, now := uuid.New(), time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE lower(email) = $1")).
		WithArgs("bob@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "full_name", "created_at", "updated_at"}).
			AddRow(id, "bob@x.com", "hash", "Bob", now, now))

	u, err := NewRepository(mock).GetByEmail(context.Background(), "Bob@X.com")

	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RegisterAgency_CaseVariantTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("bob@x.com", "hash", "Bob").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, _, err = NewRepository(mock).RegisterAgency(context.Background(), RegisterAgencyParams{
		Email:         "Bob@X.com",
		PasswordHash:  "hash",
		FullName:      "Bob",
		AgencyName:    "Bob Travel",
		DocumentDueAt: time.Now().Add(7 * 24 * time.Hour),
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
