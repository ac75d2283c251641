package models

// Status is the lifecycle state of a quote request. Canonical names only; aliases are
// accepted by ParseStatus at the storage and API boundary.
type Status string

const (
	StatusSent         Status = "sent"
	StatusInReview     Status = "in_review"
	StatusOfferSent    Status = "offer_sent"
	StatusAccepted     Status = "accepted"
	StatusContractSent Status = "contract_sent"
	StatusPaymentSent  Status = "payment_sent"
	StatusConfirmed    Status = "confirmed"
	StatusDeclined     Status = "declined"
	StatusRejected     Status = "rejected"
	StatusArchived     Status = "archived"
)

// AllStatuses lists every member of the enumeration in lifecycle order.
var AllStatuses = []Status{
	StatusSent,
	StatusInReview,
	StatusOfferSent,
	StatusAccepted,
	StatusContractSent,
	StatusPaymentSent,
	StatusConfirmed,
	StatusDeclined,
	StatusRejected,
	StatusArchived,
}

var statusAliases = map[string]Status{
	"requested": StatusSent,
	"offered":   StatusOfferSent,
}

// ParseStatus maps a raw value (canonical or alias) onto the enumeration.
func ParseStatus(s string) (Status, bool) {
	if alias, ok := statusAliases[s]; ok {
		return alias, true
	}
	st := Status(s)
	return st, st.Valid()
}

// Valid reports whether s is a member of the enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusSent, StatusInReview, StatusOfferSent, StatusAccepted, StatusContractSent,
		StatusPaymentSent, StatusConfirmed, StatusDeclined, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusDeclined, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// StoredNames returns every raw value that ParseStatus maps onto s, canonical name first.
func (s Status) StoredNames() []string {
	names := []string{string(s)}
	for alias, st := range statusAliases {
		if st == s {
			names = append(names, alias)
		}
	}
	return names
}
