package quotes

import "github.com/aura-travel/backend/internal/models"

// Tier is how a projected status is presented.
type Tier string

const (
	TierTerminal       Tier = "terminal"
	TierActionRequired Tier = "action_required"
	TierWaiting        Tier = "waiting"
)

// ProjectionRow is one line of the status table, shared by both views.
type ProjectionRow struct {
	AgencyMessage          string `json:"agency_message"`
	AgencyActionRequired   bool   `json:"agency_action_required"`
	OperatorMessage        string `json:"operator_message"`
	OperatorActionRequired bool   `json:"operator_action_required"`
}

// Projection is what one side sees for a status.
type Projection struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	ActionRequired bool   `json:"action_required"`
	Tier           Tier   `json:"tier"`
}

// ProjectionTable is keyed by every member of the status enumeration.
var ProjectionTable = map[models.Status]ProjectionRow{
	models.StatusSent: {
		AgencyMessage:          "Request sent. Waiting for the operator to review it.",
		OperatorMessage:        "New request: review it and prepare an offer.",
		OperatorActionRequired: true,
	},
	models.StatusInReview: {
		AgencyMessage:          "The operator is reviewing your request.",
		OperatorMessage:        "Under review: send the offer when it is ready.",
		OperatorActionRequired: true,
	},
	models.StatusOfferSent: {
		AgencyMessage:        "Offer received: accept or decline it.",
		AgencyActionRequired: true,
		OperatorMessage:      "Offer sent. Waiting for the agency to answer.",
	},
	models.StatusAccepted: {
		AgencyMessage:          "Offer accepted. Waiting for the contract.",
		OperatorMessage:        "Offer accepted: send the contract and payment details.",
		OperatorActionRequired: true,
	},
	models.StatusContractSent: {
		AgencyMessage:        "Contract received: send the proof of payment.",
		AgencyActionRequired: true,
		OperatorMessage:      "Contract sent. Waiting for the payment.",
	},
	models.StatusPaymentSent: {
		AgencyMessage:          "Payment sent. Waiting for the booking confirmation.",
		OperatorMessage:        "Payment received: verify it and confirm the booking.",
		OperatorActionRequired: true,
	},
	models.StatusConfirmed: {
		AgencyMessage:   "Booking confirmed.",
		OperatorMessage: "Booking confirmed.",
	},
	models.StatusDeclined: {
		AgencyMessage:   "You declined the offer.",
		OperatorMessage: "The agency declined the offer.",
	},
	models.StatusRejected: {
		AgencyMessage:   "The operator rejected this request.",
		OperatorMessage: "Request rejected.",
	},
	models.StatusArchived: {
		AgencyMessage:   "This request has been archived.",
		OperatorMessage: "Request archived.",
	},
}

// TerminalStatuses is the set of statuses with no further transitions.
var TerminalStatuses = map[models.Status]bool{
	models.StatusConfirmed: true,
	models.StatusDeclined:  true,
	models.StatusRejected:  true,
	models.StatusArchived:  true,
}

// Project returns what side sees for s. It is defined for every status.
func Project(s models.Status, side models.Side) Projection {
	row := ProjectionTable[s]
	p := Projection{Status: string(s)}
	switch side {
	case models.SideAgency:
		p.Message, p.ActionRequired = row.AgencyMessage, row.AgencyActionRequired
	case models.SideOperator, models.SideNone:
		p.Message, p.ActionRequired = row.OperatorMessage, row.OperatorActionRequired
	}
	switch {
	case TerminalStatuses[s]:
		p.Tier = TierTerminal
	case p.ActionRequired:
		p.Tier = TierActionRequired
	default:
		p.Tier = TierWaiting
	}
	return p
}

// ProjectRaw projects a stored value. Unknown values come back as themselves with no action required.
func ProjectRaw(raw string, side models.Side) Projection {
	s, ok := models.ParseStatus(raw)
	if !ok {
		return Projection{Status: raw, Message: raw, Tier: TierTerminal}
	}
	return Project(s, side)
}
