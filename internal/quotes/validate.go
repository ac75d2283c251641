package quotes

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aura-travel/backend/internal/models"
)

const (
	maxNotesLength = 2000
	maxExtras      = 20
)

var errNilID = errors.New("nil id")

// CreateInput is the quote creation payload. RequestType selects the tour or cruise shape.
type CreateInput struct {
	RequestType          string   `json:"request_type"`
	SubjectID            string   `json:"subject_id"`
	DepartureID          string   `json:"departure_id"`
	ParticipantsAdults   *int     `json:"participants_adults"`
	ParticipantsChildren *int     `json:"participants_children"`
	CabinType            string   `json:"cabin_type"`
	CabinID              string   `json:"cabin_id"`
	NumCabins            *int     `json:"num_cabins"`
	Notes                string   `json:"notes"`
	Extras               []string `json:"extras"`
	PreviewPrice         *float64 `json:"preview_price"`
	PreviewPriceLabel    string   `json:"preview_price_label"`
}

// Draft is a validated quote request that has not been stored yet.
type Draft struct {
	Subject              models.Subject
	DepartureID          uuid.UUID
	ParticipantsAdults   int
	ParticipantsChildren int
	CabinType            string
	CabinID              *uuid.UUID
	NumCabins            int
	Notes                string
	Extras               []models.QuoteExtra
	PreviewPrice         *float64
	PreviewPriceLabel    string
}

// Validate checks the payload and returns the first broken rule.
func Validate(in CreateInput) (*Draft, *ValidationError) {
	switch models.SubjectKind(strings.TrimSpace(in.RequestType)) {
	case models.SubjectTour:
		return validateTour(in)
	case models.SubjectCruise:
		return validateCruise(in)
	}
	return nil, invalid("request_type")
}

func validateTour(in CreateInput) (*Draft, *ValidationError) {
	id, err := parseID(in.SubjectID)
	if err != nil {
		return nil, invalid("tour_required")
	}
	d := &Draft{Subject: models.TourSubject(id)}
	if verr := validateCommon(in, d); verr != nil {
		return nil, verr
	}
	return d, nil
}

func validateCruise(in CreateInput) (*Draft, *ValidationError) {
	id, err := parseID(in.SubjectID)
	if err != nil {
		return nil, invalid("cruise_required")
	}
	d := &Draft{Subject: models.CruiseSubject(id)}
	if verr := validateCommon(in, d); verr != nil {
		return nil, verr
	}
	if in.CabinID != "" {
		cabin, err := uuid.Parse(strings.TrimSpace(in.CabinID))
		if err != nil {
			return nil, invalid("cabin_invalid")
		}
		d.CabinID = &cabin
	}
	return d, nil
}

// validateCommon checks the fields both shapes share, in payload order.
func validateCommon(in CreateInput, d *Draft) *ValidationError {
	if strings.TrimSpace(in.DepartureID) == "" {
		return invalid("departure_required")
	}
	dep, err := parseID(in.DepartureID)
	if err != nil {
		return invalid("departure_invalid")
	}
	d.DepartureID = dep

	if in.ParticipantsAdults == nil || *in.ParticipantsAdults < 1 {
		return invalid("adults_min")
	}
	d.ParticipantsAdults = *in.ParticipantsAdults

	if in.ParticipantsChildren != nil {
		if *in.ParticipantsChildren < 0 {
			return invalid("children_min")
		}
		d.ParticipantsChildren = *in.ParticipantsChildren
	}

	d.NumCabins = 1
	if in.NumCabins != nil {
		if *in.NumCabins < 1 {
			return invalid("cabins_min")
		}
		d.NumCabins = *in.NumCabins
	}
	d.CabinType = strings.TrimSpace(in.CabinType)

	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return invalid("notes_too_long", maxNotesLength)
	}
	d.Notes = notes

	if len(in.Extras) > maxExtras {
		return invalid("extras_too_many", maxExtras)
	}
	extras, verr := collapseExtras(in.Extras)
	if verr != nil {
		return verr
	}
	d.Extras = extras

	if in.PreviewPrice != nil && *in.PreviewPrice < 0 {
		return invalid("preview_price_negative")
	}
	d.PreviewPrice = in.PreviewPrice
	d.PreviewPriceLabel = strings.TrimSpace(in.PreviewPriceLabel)
	return nil
}

// collapseExtras turns repeated names into one line item with a quantity, keeping first-seen order.
func collapseExtras(names []string) ([]models.QuoteExtra, *ValidationError) {
	var out []models.QuoteExtra
	index := make(map[string]int, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, invalid("extra_blank")
		}
		key := strings.ToLower(name)
		if i, ok := index[key]; ok {
			out[i].Quantity++
			continue
		}
		index[key] = len(out)
		out = append(out, models.QuoteExtra{Name: name, Quantity: 1})
	}
	return out, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errNilID
	}
	return id, nil
}
