package models

import (
	"time"

	"github.com/google/uuid"
)

// Email types sent by the dispatcher.
const (
	EmailTypeQuoteSubmitted = "quote_submitted"
	EmailTypeQuoteAlert     = "quote_alert"
	EmailTypeQuoteStatus    = "quote_status"
	EmailTypeAgencyStatus   = "agency_status"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
	EmailLogStatusDead   = "dead"
)

// EmailLog records one delivery attempt outcome.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	QuoteID        *uuid.UUID `json:"quote_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	Attempt        int        `json:"attempt"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
