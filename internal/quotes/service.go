// Package quotes implements quote request creation, the status lifecycle and its projection.
package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/activity"
	"github.com/aura-travel/backend/internal/agencies"
	"github.com/aura-travel/backend/internal/auth"
	"github.com/aura-travel/backend/internal/catalog"
	"github.com/aura-travel/backend/internal/models"
	"github.com/aura-travel/backend/internal/notifications"
	"github.com/aura-travel/backend/pkg/ctxutil"
)

// EntityType is the activity log entity type for quote requests.
const EntityType = "quoterequest"

// Activity actions written for quote requests.
const (
	ActionCreate     = "quoterequest.create"
	ActionStatus     = "quoterequest.status"
	ActionAttachment = "quoterequest.attachment"
)

var trackedStatusFields = []string{"status", "offer_price", "offer_notes"}

var trackedCreateFields = []string{"type", "subject_id", "departure_id", "participants_adults", "participants_children",
	"cabin_type", "num_cabins", "extras", "preview_price", "status"}

// Store persists quote requests and their timeline.
type Store interface {
	Create(ctx context.Context, q *models.QuoteRequest) error
	Get(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to models.Status, offer *Offer) (*models.QuoteRequest, error)
	List(ctx context.Context, f ListFilter) ([]models.QuoteRequest, error)
	InsertExtras(ctx context.Context, quoteID uuid.UUID, extras []models.QuoteExtra) error
	Extras(ctx context.Context, quoteID uuid.UUID) ([]models.QuoteExtra, error)
	AppendTimeline(ctx context.Context, e *models.TimelineEntry) error
	Timeline(ctx context.Context, quoteID uuid.UUID) ([]models.TimelineEntry, error)
}

// AgencyDirectory resolves agencies by owner or id.
type AgencyDirectory interface {
	ByUser(ctx context.Context, userID uuid.UUID) (*models.Agency, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
}

// Catalog resolves subjects and departures.
type Catalog interface {
	SubjectExists(ctx context.Context, s models.Subject) (bool, error)
	SubjectTitle(ctx context.Context, s models.Subject) (string, error)
	DepartureBelongsTo(ctx context.Context, departureID uuid.UUID, s models.Subject) (bool, error)
}

// ActivityLogger writes audit entries.
type ActivityLogger interface {
	Log(ctx context.Context, e activity.Entry) error
}

// Notifier writes in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, t notifications.Target, m notifications.Message) error
}

// StaffDirectory lists the operator-side principals that follow quotes.
type StaffDirectory interface {
	QuoteStaff(ctx context.Context) ([]auth.StaffMember, error)
}

// Service runs quote creation and transitions.
type Service struct {
	store    Store
	agencies AgencyDirectory
	catalog  Catalog
	activity ActivityLogger
	notifier Notifier
	staff    StaffDirectory
	logger   *zap.Logger
}

// NewService creates a quote service.
func NewService(store Store, agencies AgencyDirectory, catalog Catalog, activity ActivityLogger,
	notifier Notifier, staff StaffDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		agencies: agencies,
		catalog:  catalog,
		activity: activity,
		notifier: notifier,
		staff:    staff,
		logger:   logger,
	}
}

// agencyFor returns the caller's agency. Only the agency role has one.
func (s *Service) agencyFor(ctx context.Context, p ctxutil.Principal) (*models.Agency, error) {
	a, err := s.agencies.ByUser(ctx, p.UserID)
	if errors.Is(err, agencies.ErrNotFound) {
		return nil, ErrNoAgency
	}
	if err != nil {
		return nil, fmt.Errorf("load agency: %w", err)
	}
	return a, nil
}

// Create stores a new quote request for the caller's active agency, then runs the companions.
func (s *Service) Create(ctx context.Context, p ctxutil.Principal, in CreateInput) (*CreateResult, error) {
	if !canCreate(p.Role) {
		return nil, ErrForbidden
	}
	agency, err := s.agencyFor(ctx, p)
	if err != nil {
		return nil, err
	}
	if !agency.IsActive() {
		return nil, ErrAgencyNotActive
	}
	draft, verr := Validate(in)
	if verr != nil {
		return nil, verr
	}
	if err := s.checkCatalog(ctx, draft); err != nil {
		return nil, err
	}

	q := &models.QuoteRequest{
		AgencyID:             agency.ID,
		Subject:              draft.Subject,
		DepartureID:          draft.DepartureID,
		ParticipantsAdults:   draft.ParticipantsAdults,
		ParticipantsChildren: draft.ParticipantsChildren,
		CabinType:            draft.CabinType,
		CabinID:              draft.CabinID,
		NumCabins:            draft.NumCabins,
		Notes:                draft.Notes,
		PreviewPrice:         draft.PreviewPrice,
		PreviewPriceLabel:    draft.PreviewPriceLabel,
	}
	if err := s.store.Create(ctx, q); err != nil {
		s.logger.Error("create quote request", zap.String("agency_id", agency.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	res := &CreateResult{Quote: q}
	run := s.companionRunner(q.ID, ActionCreate, &res.Companions)

	if len(draft.Extras) > 0 {
		run(CompanionExtras, func() error { return s.store.InsertExtras(ctx, q.ID, draft.Extras) })
	}
	title := s.subjectTitle(ctx, q, run)
	run(CompanionTimeline, func() error {
		return s.store.AppendTimeline(ctx, &models.TimelineEntry{
			QuoteID:     q.ID,
			Actor:       models.TimelineActorAgency,
			Description: fmt.Sprintf("Quote request submitted by %s.", agency.Name),
		})
	})
	run(CompanionActivity, func() error {
		return s.activity.Log(ctx, activity.Entry{
			Action:      ActionCreate,
			EntityType:  EntityType,
			EntityID:    q.ID.String(),
			EntityTitle: title,
			Changes:     activity.BuildCreateChanges(createSnapshot(q, draft.Extras), trackedCreateFields),
		})
	})
	run(CompanionNotifyAgency, func() error {
		return s.notifier.Notify(ctx, notifications.Target{UserID: agency.UserID, Email: agency.Email}, notifications.Message{
			Title:     "Quote request received",
			Body:      fmt.Sprintf("Your request for %s has been sent to the operator.", title),
			Link:      agencyLink(q.ID),
			EmailType: models.EmailTypeQuoteSubmitted,
			QuoteID:   &q.ID,
		})
	})
	run(CompanionNotifyStaff, func() error {
		return s.notifyStaff(ctx, notifications.Message{
			Title:     "New quote request",
			Body:      fmt.Sprintf("%s requested a quote for %s.", agency.Name, title),
			Link:      operatorLink(q.ID),
			EmailType: models.EmailTypeQuoteAlert,
			QuoteID:   &q.ID,
		})
	})
	return res, nil
}

func (s *Service) checkCatalog(ctx context.Context, d *Draft) error {
	ok, err := s.catalog.SubjectExists(ctx, d.Subject)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if !ok {
		return invalid("subject_invalid")
	}
	belongs, err := s.catalog.DepartureBelongsTo(ctx, d.DepartureID, d.Subject)
	if errors.Is(err, catalog.ErrNotFound) {
		return invalid("departure_invalid")
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if !belongs {
		return invalid("departure_mismatch")
	}
	return nil
}

// TransitionInput is a requested status change. Offer fields only apply when moving to offer_sent.
type TransitionInput struct {
	Status     string   `json:"status" binding:"required"`
	OfferPrice *float64 `json:"offer_price"`
	OfferNotes string   `json:"offer_notes"`
}

// Transition moves a quote to the requested status when the state machine allows it for the caller's role.
func (s *Service) Transition(ctx context.Context, p ctxutil.Principal, id uuid.UUID, in TransitionInput) (*TransitionResult, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.authorize(ctx, p, q)
	if err != nil {
		return nil, err
	}
	from := q.Status
	to, err := Decide(from, in.Status, p.Role)
	if err != nil {
		return nil, err
	}
	var offer *Offer
	if to == models.StatusOfferSent && p.Role.Side() == models.SideOperator {
		if in.OfferPrice != nil && *in.OfferPrice < 0 {
			return nil, invalid("offer_price_negative")
		}
		offer = &Offer{Price: in.OfferPrice, Notes: in.OfferNotes}
	}

	updated, err := s.store.UpdateStatus(ctx, q.ID, to, offer)
	if err != nil {
		s.logger.Error("update quote status",
			zap.String("quote_id", q.ID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	res := &TransitionResult{Quote: updated, From: from, To: to}
	run := s.companionRunner(q.ID, ActionStatus, &res.Companions)

	title := s.subjectTitle(ctx, updated, run)
	run(CompanionTimeline, func() error {
		return s.store.AppendTimeline(ctx, &models.TimelineEntry{
			QuoteID:     q.ID,
			Actor:       p.Role.TimelineActor(),
			Description: transitionNote(from, to, p.Role),
		})
	})
	run(CompanionActivity, func() error {
		return s.activity.Log(ctx, activity.Entry{
			Action:      ActionStatus,
			EntityType:  EntityType,
			EntityID:    q.ID.String(),
			EntityTitle: title,
			Changes:     activity.BuildChanges(statusSnapshot(q), statusSnapshot(updated), trackedStatusFields),
		})
	})
	s.notifyCounterpart(ctx, p.Role, owner, updated, title, run)
	return res, nil
}

// authorize returns the quote's agency, and refuses agency callers that do not own it.
func (s *Service) authorize(ctx context.Context, p ctxutil.Principal, q *models.QuoteRequest) (*models.Agency, error) {
	switch p.Role {
	case models.RoleAgency:
		a, err := s.agencyFor(ctx, p)
		if err != nil {
			return nil, err
		}
		if a.ID != q.AgencyID {
			return nil, ErrNotFound
		}
		return a, nil
	case models.RoleOperator, models.RoleAdmin, models.RoleSuperAdmin:
		a, err := s.agencies.ByID(ctx, q.AgencyID)
		if err != nil {
			// Only the notification needs the agency; the transition itself does not.
			s.logger.Warn("load quote agency", zap.String("quote_id", q.ID.String()), zap.Error(err))
			return nil, nil
		}
		return a, nil
	}
	return nil, ErrForbidden
}

func (s *Service) notifyCounterpart(ctx context.Context, role models.Role, owner *models.Agency, q *models.QuoteRequest,
	title string, run func(string, func() error)) {
	switch role.Side() {
	case models.SideAgency:
		row := ProjectionTable[q.Status]
		run(CompanionNotifyStaff, func() error {
			return s.notifyStaff(ctx, notifications.Message{
				Title:     fmt.Sprintf("Quote update: %s", title),
				Body:      row.OperatorMessage,
				Link:      operatorLink(q.ID),
				EmailType: models.EmailTypeQuoteStatus,
				QuoteID:   &q.ID,
			})
		})
	case models.SideOperator:
		run(CompanionNotifyAgency, func() error {
			if owner == nil {
				return agencies.ErrNotFound
			}
			return s.notifier.Notify(ctx, notifications.Target{UserID: owner.UserID, Email: owner.Email}, notifications.Message{
				Title:     fmt.Sprintf("Quote update: %s", title),
				Body:      ProjectionTable[q.Status].AgencyMessage,
				Link:      agencyLink(q.ID),
				EmailType: models.EmailTypeQuoteStatus,
				QuoteID:   &q.ID,
			})
		})
	case models.SideNone:
	}
}

func (s *Service) notifyStaff(ctx context.Context, m notifications.Message) error {
	staff, err := s.staff.QuoteStaff(ctx)
	if err != nil {
		return fmt.Errorf("load staff: %w", err)
	}
	var errs []error
	for _, member := range staff {
		if err := s.notifier.Notify(ctx, notifications.Target{UserID: member.UserID, Email: member.Email}, m); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", member.UserID, err))
		}
	}
	return errors.Join(errs...)
}

// subjectTitle resolves the display title, falling back to the subject id when the lookup fails.
func (s *Service) subjectTitle(ctx context.Context, q *models.QuoteRequest, run func(string, func() error)) string {
	title := fmt.Sprintf("%s %s", q.Subject.Kind, q.Subject.ID)
	run(CompanionSubjectTitle, func() error {
		t, err := s.catalog.SubjectTitle(ctx, q.Subject)
		if err != nil {
			return err
		}
		title = t
		return nil
	})
	return title
}

// companionRunner runs companions in order, recording each outcome and logging failures.
func (s *Service) companionRunner(quoteID uuid.UUID, action string, out *Companions) func(string, func() error) {
	return func(name string, fn func() error) {
		err := fn()
		if err != nil {
			s.logger.Error("quote companion failed",
				zap.String("quote_id", quoteID.String()),
				zap.String("action", action),
				zap.String("companion", name),
				zap.Error(err),
			)
		}
		*out = append(*out, Companion{Name: name, Err: err})
	}
}

// View is a quote with its children and the caller's projection.
type View struct {
	Quote       *models.QuoteRequest   `json:"quote"`
	Extras      []models.QuoteExtra    `json:"extras"`
	Timeline    []models.TimelineEntry `json:"timeline"`
	Projection  Projection             `json:"projection"`
	NextActions []models.Status        `json:"next_actions"`
}

// Get returns one quote as seen by the caller.
func (s *Service) Get(ctx context.Context, p ctxutil.Principal, id uuid.UUID) (*View, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, p, q); err != nil {
		return nil, err
	}
	extras, err := s.store.Extras(ctx, id)
	if err != nil {
		return nil, err
	}
	timeline, err := s.store.Timeline(ctx, id)
	if err != nil {
		return nil, err
	}
	return &View{
		Quote:       q,
		Extras:      extras,
		Timeline:    timeline,
		Projection:  ProjectRaw(string(q.Status), p.Role.Side()),
		NextActions: AllowedTargets(q.Status, p.Role),
	}, nil
}

// canView reports ErrNotFound to agency callers for quotes of other agencies.
func (s *Service) canView(ctx context.Context, p ctxutil.Principal, q *models.QuoteRequest) error {
	switch p.Role {
	case models.RoleAgency:
		a, err := s.agencyFor(ctx, p)
		if err != nil {
			return err
		}
		if a.ID != q.AgencyID {
			return ErrNotFound
		}
		return nil
	case models.RoleOperator, models.RoleAdmin, models.RoleSuperAdmin:
		return nil
	}
	return ErrForbidden
}

// ListItem is a quote with the caller's projection.
type ListItem struct {
	models.QuoteRequest
	Projection Projection `json:"projection"`
}

// List returns quotes visible to the caller: their own for agencies, all for operator staff.
func (s *Service) List(ctx context.Context, p ctxutil.Principal, f ListFilter) ([]ListItem, error) {
	switch p.Role {
	case models.RoleAgency:
		a, err := s.agencyFor(ctx, p)
		if err != nil {
			return nil, err
		}
		f.AgencyID = &a.ID
	case models.RoleOperator, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return nil, ErrForbidden
	}
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	side := p.Role.Side()
	out := make([]ListItem, 0, len(list))
	for _, q := range list {
		out = append(out, ListItem{QuoteRequest: q, Projection: ProjectRaw(string(q.Status), side)})
	}
	return out, nil
}

func canCreate(r models.Role) bool {
	switch r {
	case models.RoleAgency:
		return true
	case models.RoleOperator, models.RoleAdmin, models.RoleSuperAdmin:
		return false
	}
	return false
}

func transitionNote(from, to models.Status, role models.Role) string {
	note := fmt.Sprintf("Status changed from %s to %s.", from, to)
	if role.CanOverride() && role.Side() != NextActor(from) {
		note = fmt.Sprintf("Status changed from %s to %s by administrative override.", from, to)
	}
	return note
}

func statusSnapshot(q *models.QuoteRequest) activity.Snapshot {
	return activity.Snapshot{
		"status":      string(q.Status),
		"offer_price": q.OfferPrice,
		"offer_notes": q.OfferNotes,
	}
}

func createSnapshot(q *models.QuoteRequest, extras []models.QuoteExtra) activity.Snapshot {
	return activity.Snapshot{
		"type":                  string(q.Subject.Kind),
		"subject_id":            q.Subject.ID,
		"departure_id":          q.DepartureID,
		"participants_adults":   q.ParticipantsAdults,
		"participants_children": q.ParticipantsChildren,
		"cabin_type":            q.CabinType,
		"num_cabins":            q.NumCabins,
		"extras":                extras,
		"preview_price":         q.PreviewPrice,
		"status":                string(q.Status),
	}
}

func agencyLink(id uuid.UUID) string   { return "/agency/quotes/" + id.String() }
func operatorLink(id uuid.UUID) string { return "/admin/quotes/" + id.String() }
