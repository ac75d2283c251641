package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/agencies"
	"github.com/aura-travel/backend/internal/auth"
	"github.com/aura-travel/backend/internal/catalog"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/internal/notifications"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/storage"
)

var errInjected = errors.New("injected failure")

type memStore struct {
	quotes      map[uuid.UUID]*models.QuoteRequest
	extras      map[uuid.UUID][]models.QuoteExtra
	timeline    map[uuid.UUID][]models.TimelineEntry
	attachments map[uuid.UUID][]models.Attachment

	failCreate   bool
	failUpdate   bool
	failExtras   bool
	failTimeline bool
}

func newMemStore() *memStore {
	return &memStore{
		quotes:      map[uuid.UUID]*models.QuoteRequest{},
		extras:      map[uuid.UUID][]models.QuoteExtra{},
		timeline:    map[uuid.UUID][]models.TimelineEntry{},
		attachments: map[uuid.UUID][]models.Attachment{},
	}
}

func (s *memStore) Create(_ context.Context, q *models.QuoteRequest) error {
	if s.failCreate {
		return errInjected
	}
	q.ID = uuid.New()
	q.Status = models.StatusSent
	q.CreatedAt, q.UpdatedAt = time.Now(), time.Now()
	cp := *q
	s.quotes[q.ID] = &cp
	return nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	q, ok := s.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, to models.Status, offer *Offer) (*models.QuoteRequest, error) {
	if s.failUpdate {
		return nil, errInjected
	}
	q, ok := s.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	q.Status = to
	if offer != nil {
		if offer.Price != nil {
			q.OfferPrice = offer.Price
		}
		if offer.Notes != "" {
			q.OfferNotes = offer.Notes
		}
	}
	q.UpdatedAt = time.Now()
	return s.Get(ctx, id)
}

func (s *memStore) List(_ context.Context, f ListFilter) ([]models.QuoteRequest, error) {
	var out []models.QuoteRequest
	for _, q := range s.quotes {
		if f.AgencyID != nil && q.AgencyID != *f.AgencyID {
			continue
		}
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (s *memStore) InsertExtras(_ context.Context, quoteID uuid.UUID, extras []models.QuoteExtra) error {
	if s.failExtras {
		return errInjected
	}
	for _, e := range extras {
		e.ID, e.QuoteID = uuid.New(), quoteID
		s.extras[quoteID] = append(s.extras[quoteID], e)
	}
	return nil
}

func (s *memStore) Extras(_ context.Context, quoteID uuid.UUID) ([]models.QuoteExtra, error) {
	return s.extras[quoteID], nil
}

func (s *memStore) AppendTimeline(_ context.Context, e *models.TimelineEntry) error {
	if s.failTimeline {
		return errInjected
	}
	e.ID, e.CreatedAt = uuid.New(), time.Now()
	s.timeline[e.QuoteID] = append(s.timeline[e.QuoteID], *e)
	return nil
}

func (s *memStore) Timeline(_ context.Context, quoteID uuid.UUID) ([]models.TimelineEntry, error) {
	return s.timeline[quoteID], nil
}

func (s *memStore) InsertAttachment(_ context.Context, a *models.Attachment) error {
	a.ID, a.CreatedAt = uuid.New(), time.Now()
	s.attachments[a.QuoteID] = append(s.attachments[a.QuoteID], *a)
	return nil
}

func (s *memStore) Attachments(_ context.Context, quoteID uuid.UUID) ([]models.Attachment, error) {
	return s.attachments[quoteID], nil
}

func (s *memStore) Attachment(_ context.Context, quoteID, id uuid.UUID) (*models.Attachment, error) {
	for _, a := range s.attachments[quoteID] {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, ErrAttachmentNotFound
}

type agencyDir map[uuid.UUID]*models.Agency

func (d agencyDir) ByUser(_ context.Context, userID uuid.UUID) (*models.Agency, error) {
	for _, a := range d {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, agencies.ErrNotFound
}

func (d agencyDir) ByID(_ context.Context, id uuid.UUID) (*models.Agency, error) {
	a, ok := d[id]
	if !ok {
		return nil, agencies.ErrNotFound
	}
	return a, nil
}

type fakeCatalog struct {
	titles     map[uuid.UUID]string
	departures map[uuid.UUID]uuid.UUID
	titleErr   error
}

func (c *fakeCatalog) SubjectExists(_ context.Context, s models.Subject) (bool, error) {
	_, ok := c.titles[s.ID]
	return ok, nil
}

func (c *fakeCatalog) SubjectTitle(_ context.Context, s models.Subject) (string, error) {
	if c.titleErr != nil {
		return "", c.titleErr
	}
	return c.titles[s.ID], nil
}

func (c *fakeCatalog) DepartureBelongsTo(_ context.Context, departureID uuid.UUID, s models.Subject) (bool, error) {
	owner, ok := c.departures[departureID]
	if !ok {
		return false, catalog.ErrNotFound
	}
	return owner == s.ID, nil
}

type activityLog struct {
	entries []activity.Entry
	err     error
}

func (l *activityLog) Log(_ context.Context, e activity.Entry) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, e)
	return nil
}

func (l *activityLog) count(action string) int {
	n := 0
	for _, e := range l.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

type sentNote struct {
	to  notifications.Target
	msg notifications.Message
}

type notifier struct {
	sent []sentNote
	err  error
}

func (n *notifier) Notify(_ context.Context, t notifications.Target, m notifications.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNote{to: t, msg: m})
	return nil
}

type staffDir []auth.StaffMember

func (s staffDir) QuoteStaff(context.Context) ([]auth.StaffMember, error) { return s, nil }

type objects struct {
	existing map[string]bool
}

func (o *objects) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://s3.example.com/" + key + "?sig=put", nil
}

func (o *objects) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://s3.example.com/" + key + "?sig=get", nil
}

func (o *objects) Exists(_ context.Context, key string) error {
	if !o.existing[key] {
		return storage.ErrObjectNotFound
	}
	return nil
}

func (o *objects) PresignExpire() time.Duration { return 15 * time.Minute }

// fixture is one active agency, one tour with a departure, and the collaborators around them.
type fixture struct {
	store     *memStore
	agencies  agencyDir
	catalog   *fakeCatalog
	activity  *activityLog
	notifier  *notifier
	staff     staffDir
	svc       *Service
	agency    *models.Agency
	tourID    uuid.UUID
	departure uuid.UUID
}

func newFixture() *fixture {
	agency := &models.Agency{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Name:   "Sunway Travel",
		Email:  "desk@sunway.test",
		Status: models.AgencyStatusActive,
	}
	tourID, departure := uuid.New(), uuid.New()
	f := &fixture{
		store:    newMemStore(),
		agencies: agencyDir{agency.ID: agency},
		catalog: &fakeCatalog{
			titles:     map[uuid.UUID]string{tourID: "Sicily Grand Tour"},
			departures: map[uuid.UUID]uuid.UUID{departure: tourID},
		},
		activity:  &activityLog{},
		notifier:  &notifier{},
		staff:     staffDir{{UserID: uuid.New(), Email: "ops@operator.test"}, {UserID: uuid.New(), Email: "admin@operator.test"}},
		agency:    agency,
		tourID:    tourID,
		departure: departure,
	}
	f.svc = NewService(f.store, f.agencies, f.catalog, f.activity, f.notifier, f.staff, nil)
	return f
}

func (f *fixture) tourInput(adults, children int, extras ...string) CreateInput {
	return CreateInput{
		RequestType:          "tour",
		SubjectID:            f.tourID.String(),
		DepartureID:          f.departure.String(),
		ParticipantsAdults:   &adults,
		ParticipantsChildren: &children,
		Extras:               extras,
	}
}

func agencyPrincipal(a *models.Agency) ctxutil.Principal {
	return ctxutil.Principal{UserID: a.UserID, Email: a.Email, Role: models.RoleAgency}
}

func staffPrincipal(role models.Role) ctxutil.Principal {
	return ctxutil.Principal{UserID: uuid.New(), Email: string(role) + "@operator.test", Role: role}
}
