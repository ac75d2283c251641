package quotes

import "github.com/aura-travel/backend/internal/models"

// Companion names, one per best-effort write that follows the authoritative one.
const (
	CompanionExtras       = "extras"
	CompanionSubjectTitle = "subject_title"
	CompanionTimeline     = "timeline"
	CompanionActivity     = "activity"
	CompanionNotifyAgency = "notify_agency"
	CompanionNotifyStaff  = "notify_staff"
)

// Companion is the outcome of one best-effort write. Err is nil on success.
type Companion struct {
	Name string
	Err  error
}

// Companions is the ordered outcome list attached to a result.
type Companions []Companion

// Failed returns the companions that did not succeed.
func (cs Companions) Failed() Companions {
	var out Companions
	for _, c := range cs {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// Err returns the error of the named companion, or nil when it succeeded or never ran.
func (cs Companions) Err(name string) error {
	for _, c := range cs {
		if c.Name == name {
			return c.Err
		}
	}
	return nil
}

// Ran reports whether the named companion was attempted.
func (cs Companions) Ran(name string) bool {
	for _, c := range cs {
		if c.Name == name {
			return true
		}
	}
	return false
}

// CreateResult is a stored quote plus what happened to its companions.
type CreateResult struct {
	Quote      *models.QuoteRequest
	Companions Companions
}

// TransitionResult is the updated quote plus what happened to its companions.
type TransitionResult struct {
	Quote      *models.QuoteRequest
	From       models.Status
	To         models.Status
	Companions Companions
}
