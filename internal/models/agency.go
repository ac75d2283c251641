package models

import (
	"time"

	"github.com/google/uuid"
)

// AgencyStatus gates whether an agency may submit quote requests.
type AgencyStatus string

const (
	AgencyStatusPending   AgencyStatus = "pending"
	AgencyStatusActive    AgencyStatus = "active"
	AgencyStatusSuspended AgencyStatus = "suspended"
	AgencyStatusRejected  AgencyStatus = "rejected"
)

// Agency is a partner business owned by exactly one principal.
type Agency struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"user_id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone,omitempty"`
	VATNumber     string       `json:"vat_number,omitempty"`
	Status        AgencyStatus `json:"status"`
	DocumentKey   string       `json:"-"`
	HasDocument   bool         `json:"has_document"`
	DocumentDueAt *time.Time   `json:"document_due_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// IsActive reports whether the agency may create quote requests.
func (a *Agency) IsActive() bool {
	return a != nil && a.Status == AgencyStatusActive
}
