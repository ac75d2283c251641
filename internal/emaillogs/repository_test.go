package emaillogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-travel/backend/internal/models"
)

func TestRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	quoteID, id, now := uuid.New(), uuid.New(), time.Now()
	el := &models.EmailLog{
		QuoteID:        &quoteID,
		EmailType:      models.EmailTypeQuoteStatus,
		RecipientEmail: "desk@sunway.test",
		Subject:        "Offer ready",
		Status:         models.EmailLogStatusFailed,
		Attempt:        1,
		ErrorMessage:   "451 try later",
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO email_logs (quote_id,email_type,recipient_email,subject,status,attempt,sent_at,error_message) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at")).
		WithArgs(&quoteID, "quote_status", "desk@sunway.test", pgxmock.AnyArg(), "failed", 1, (*time.Time)(nil), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, now))

	require.NoError(t, NewRepository(mock).Create(context.Background(), el))
	assert.Equal(t, id, el.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_ListByQuote(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	quoteID, now := uuid.New(), time.Now()
	subject := "Offer ready"
	mock.ExpectQuery("FROM email_logs WHERE quote_id = \\$1 ORDER BY created_at DESC").
		WithArgs(quoteID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "quote_id", "email_type", "recipient_email", "subject", "status", "attempt", "sent_at", "error_message", "created_at"}).
			AddRow(uuid.New(), &quoteID, "quote_status", "desk@sunway.test", &subject, "sent", 0, &now, (*string)(nil), now))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/quotes/:id/emails", NewHandler(NewRepository(mock), nil).ListByQuote)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/quotes/"+quoteID.String()+"/emails", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subject":"Offer ready"`)
	assert.NotContains(t, w.Body.String(), "error_message")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/quotes/nope/emails", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
