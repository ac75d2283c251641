package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteRequest is a pricing inquiry from an agency for one catalog subject and departure.
// AgencyID is fixed at creation; no write path updates it.
type QuoteRequest struct {
	ID                   uuid.UUID  `json:"id"`
	AgencyID             uuid.UUID  `json:"agency_id"`
	Subject              Subject    `json:"subject"`
	DepartureID          uuid.UUID  `json:"departure_id"`
	ParticipantsAdults   int        `json:"participants_adults"`
	ParticipantsChildren int        `json:"participants_children"`
	CabinType            string     `json:"cabin_type,omitempty"`
	CabinID              *uuid.UUID `json:"cabin_id,omitempty"`
	NumCabins            int        `json:"num_cabins"`
	Notes                string     `json:"notes,omitempty"`
	PreviewPrice         *float64   `json:"preview_price,omitempty"`
	PreviewPriceLabel    string     `json:"preview_price_label,omitempty"`
	OfferPrice           *float64   `json:"offer_price,omitempty"`
	OfferNotes           string     `json:"offer_notes,omitempty"`
	Status               Status     `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// QuoteExtra is a line item requested alongside a quote.
type QuoteExtra struct {
	ID        uuid.UUID `json:"id"`
	QuoteID   uuid.UUID `json:"quote_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// TimelineActor labels who caused a timeline entry.
type TimelineActor string

const (
	TimelineActorAgency TimelineActor = "agency"
	TimelineActorAdmin  TimelineActor = "admin"
	TimelineActorSystem TimelineActor = "system"
)

// TimelineEntry is a write-once note on a quote request.
type TimelineEntry struct {
	ID          uuid.UUID     `json:"id"`
	QuoteID     uuid.UUID     `json:"quote_id"`
	Actor       TimelineActor `json:"actor"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}

// AttachmentKind classifies documents stored against a quote.
type AttachmentKind string

const (
	AttachmentContract     AttachmentKind = "contract"
	AttachmentPaymentProof AttachmentKind = "payment_proof"
	AttachmentOther        AttachmentKind = "other"
)

// Attachment is a document uploaded to object storage for a quote.
type Attachment struct {
	ID          uuid.UUID      `json:"id"`
	QuoteID     uuid.UUID      `json:"quote_id"`
	Kind        AttachmentKind `json:"kind"`
	ObjectKey   string         `json:"-"`
	FileName    string         `json:"file_name"`
	ContentType string         `json:"content_type"`
	UploadedBy  uuid.UUID      `json:"uploaded_by"`
	CreatedAt   time.Time      `json:"created_at"`
}
