package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/pkg/queue"
)

type fakeStore struct {
	rows []*models.Notification
	err  error
}

func (s *fakeStore) Insert(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	n.ID = uuid.New()
	s.rows = append(s.rows, n)
	return nil
}

type fakeQueue struct {
	jobs []queue.EmailPayload
	err  error
}

func (q *fakeQueue) EnqueueEmail(_ context.Context, p queue.EmailPayload) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, p)
	return nil
}

func TestDispatcher_WritesRowAndQueuesEmail(t *testing.T) {
	store, q := &fakeStore{}, &fakeQueue{}
	d := NewDispatcher(store, q, "https://portal.example.com", nil)
	quoteID := uuid.New()
	target := Target{UserID: uuid.New(), Email: "agency@example.com"}

	err := d.Notify(context.Background(), target, Message{
		Title:     "New offer",
		Body:      "An offer is ready for your review.",
		Link:      "/agency/quotes/" + quoteID.String(),
		EmailType: models.EmailTypeQuoteStatus,
		QuoteID:   &quoteID,
	})

	require.NoError(t, err)
	require.Len(t, store.rows, 1)
	assert.Equal(t, target.UserID, store.rows[0].UserID)
	assert.False(t, store.rows[0].IsRead)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, "agency@example.com", q.jobs[0].RecipientEmail)
	assert.Equal(t, "New offer", q.jobs[0].Subject)
	assert.Contains(t, q.jobs[0].BodyHTML, "https://portal.example.com/agency/quotes/"+quoteID.String())
	assert.Equal(t, &quoteID, q.jobs[0].QuoteID)
}

func TestDispatcher_EmailFailureIsSwallowed(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(store, &fakeQueue{err: errors.New("redis down")}, "", nil)

	err := d.Notify(context.Background(), Target{UserID: uuid.New(), Email: "a@example.com"}, Message{Title: "t"})

	require.NoError(t, err)
	assert.Len(t, store.rows, 1)
}

func TestDispatcher_RowFailureIsReturned(t *testing.T) {
	q := &fakeQueue{}
	d := NewDispatcher(&fakeStore{err: errors.New("insert failed")}, q, "", nil)

	err := d.Notify(context.Background(), Target{UserID: uuid.New(), Email: "a@example.com"}, Message{Title: "t"})

	require.Error(t, err)
	assert.Empty(t, q.jobs)
}

func TestDispatcher_NoEmailWithoutAddressOrQueue(t *testing.T) {
	q := &fakeQueue{}
	require.NoError(t, NewDispatcher(&fakeStore{}, q, "", nil).Notify(context.Background(), Target{UserID: uuid.New()}, Message{Title: "t"}))
	assert.Empty(t, q.jobs)

	require.NoError(t, NewDispatcher(&fakeStore{}, nil, "", nil).Notify(context.Background(), Target{UserID: uuid.New(), Email: "x@example.com"}, Message{Title: "t"}))
}

func TestRenderEmail_EscapesContent(t *testing.T) {
	html, err := renderEmail("https://portal.example.com/", "<b>Hi</b>", "", "agency/quotes/1")
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;Hi&lt;/b&gt;")
	assert.Contains(t, html, "https://portal.example.com/agency/quotes/1")
}
