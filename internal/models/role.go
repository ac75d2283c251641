package models

import "fmt"

// Role is the single role a principal holds. The set is closed; every switch over it lists all four.
type Role string

const (
	RoleAgency     Role = "agency"
	RoleOperator   Role = "operator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole maps a stored role string onto the closed set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAgency, RoleOperator, RoleAdmin, RoleSuperAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Side is the party a role acts for: the agency or the operator staff.
type Side string

const (
	SideNone     Side = ""
	SideAgency   Side = "agency"
	SideOperator Side = "operator"
)

// Side reports which party the role belongs to.
func (r Role) Side() Side {
	switch r {
	case RoleAgency:
		return SideAgency
	case RoleOperator, RoleAdmin, RoleSuperAdmin:
		return SideOperator
	}
	return SideNone
}

// CanOverride reports whether the role may force any lifecycle transition.
func (r Role) CanOverride() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	case RoleAgency, RoleOperator:
		return false
	}
	return false
}

// NeedsSectionGrant reports whether the role is restricted to granted operator sections.
func (r Role) NeedsSectionGrant() bool {
	switch r {
	case RoleOperator:
		return true
	case RoleAgency, RoleAdmin, RoleSuperAdmin:
		return false
	}
	return false
}

// TimelineActor is the label written on timeline entries for actions by this role.
func (r Role) TimelineActor() TimelineActor {
	switch r {
	case RoleAgency:
		return TimelineActorAgency
	case RoleOperator, RoleAdmin, RoleSuperAdmin:
		return TimelineActorAdmin
	}
	return TimelineActorSystem
}

// Section is a functional area of the operator surface granted per operator.
type Section string

const (
	SectionQuotes   Section = "quotes"
	SectionAgencies Section = "agencies"
	SectionCatalog  Section = "catalog"
	SectionMedia    Section = "media"
	SectionBlog     Section = "blog"
	SectionActivity Section = "activity"
	SectionUsers    Section = "users"
)

// ParseSection validates a section identifier.
func ParseSection(s string) (Section, error) {
	switch sec := Section(s); sec {
	case SectionQuotes, SectionAgencies, SectionCatalog, SectionMedia, SectionBlog, SectionActivity, SectionUsers:
		return sec, nil
	}
	return "", fmt.Errorf("unknown section %q", s)
}
