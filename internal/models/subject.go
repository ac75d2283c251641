package models

import (
	"errors"

	"github.com/google/uuid"
)

// SubjectKind discriminates the catalog item a quote is about.
type SubjectKind string

const (
	SubjectTour   SubjectKind = "tour"
	SubjectCruise SubjectKind = "cruise"
)

// ErrSubjectColumns is returned when stored tour/cruise columns are not exactly one non-null.
var ErrSubjectColumns = errors.New("exactly one of tour_id and cruise_id must be set")

// Subject is either a tour or a cruise, never both.
type Subject struct {
	Kind SubjectKind `json:"type"`
	ID   uuid.UUID   `json:"id"`
}

// TourSubject builds a tour subject.
func TourSubject(id uuid.UUID) Subject { return Subject{Kind: SubjectTour, ID: id} }

// CruiseSubject builds a cruise subject.
func CruiseSubject(id uuid.UUID) Subject { return Subject{Kind: SubjectCruise, ID: id} }

// TourID returns the id for the tour_id column, or nil for a cruise.
func (s Subject) TourID() *uuid.UUID {
	if s.Kind != SubjectTour {
		return nil
	}
	id := s.ID
	return &id
}

// CruiseID returns the id for the cruise_id column, or nil for a tour.
func (s Subject) CruiseID() *uuid.UUID {
	if s.Kind != SubjectCruise {
		return nil
	}
	id := s.ID
	return &id
}

// SubjectFromColumns rebuilds a Subject from the two nullable storage columns.
func SubjectFromColumns(tourID, cruiseID *uuid.UUID) (Subject, error) {
	switch {
	case tourID != nil && cruiseID == nil:
		return TourSubject(*tourID), nil
	case cruiseID != nil && tourID == nil:
		return CruiseSubject(*cruiseID), nil
	}
	return Subject{}, ErrSubjectColumns
}
