package quotes

import "github.com/aura-travel/backend/internal/models"

// nextActor is the side expected to move each non-terminal status forward.
var nextActor = map[models.Status]models.Side{
	models.StatusSent:         models.SideOperator,
	models.StatusInReview:     models.SideOperator,
	models.StatusOfferSent:    models.SideAgency,
	models.StatusAccepted:     models.SideOperator,
	models.StatusContractSent: models.SideAgency,
	models.StatusPaymentSent:  models.SideOperator,
}

// edges lists the forward moves the expected side may make from each status.
var edges = map[models.Status][]models.Status{
	models.StatusSent:         {models.StatusInReview, models.StatusOfferSent, models.StatusRejected, models.StatusArchived},
	models.StatusInReview:     {models.StatusOfferSent, models.StatusRejected, models.StatusArchived},
	models.StatusOfferSent:    {models.StatusAccepted, models.StatusDeclined},
	models.StatusAccepted:     {models.StatusContractSent, models.StatusRejected, models.StatusArchived},
	models.StatusContractSent: {models.StatusPaymentSent, models.StatusDeclined},
	models.StatusPaymentSent:  {models.StatusConfirmed, models.StatusContractSent, models.StatusArchived},
}

// NextActor returns the side expected to act on s, or SideNone for terminal states.
func NextActor(s models.Status) models.Side {
	return nextActor[s]
}

// Decide applies the transition rules to (from, requested, role). requested may be an alias.
func Decide(from models.Status, requested string, role models.Role) (models.Status, error) {
	refuse := func(reason TransitionReason) (models.Status, error) {
		return "", &TransitionError{From: from, To: requested, Role: role, Reason: reason}
	}
	if from.Terminal() {
		return refuse(ReasonTerminal)
	}
	to, ok := models.ParseStatus(requested)
	if !ok {
		return refuse(ReasonUnknownStatus)
	}
	if to == from {
		return refuse(ReasonUnchanged)
	}
	switch role {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return to, nil
	case models.RoleOperator, models.RoleAgency:
		if role.Side() != NextActor(from) {
			return refuse(ReasonWrongActor)
		}
		for _, allowed := range edges[from] {
			if allowed == to {
				return to, nil
			}
		}
		return refuse(ReasonNotAllowed)
	}
	return refuse(ReasonWrongActor)
}

// AllowedTargets lists the statuses role may move a quote in from to, in lifecycle order.
func AllowedTargets(from models.Status, role models.Role) []models.Status {
	var out []models.Status
	for _, to := range models.AllStatuses {
		if _, err := Decide(from, string(to), role); err == nil {
			out = append(out, to)
		}
	}
	return out
}
