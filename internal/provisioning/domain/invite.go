package domain

import "time"

// InviteKind discriminates the invite token types. The string values are the
// invite_type column values.
type InviteKind string

const (
	KindOrganizationRegistration InviteKind = "organization_registration"
	KindOrganizationEmployee     InviteKind = "organization_employee"
	KindOrganizationClient       InviteKind = "organization_client"
	KindCaregiverClient          InviteKind = "caregiver_client"
	KindAdminStatic              InviteKind = "admin_static"
)

// Valid reports whether k is a known invite kind.
func (k InviteKind) Valid() bool {
	switch k {
	case KindOrganizationRegistration, KindOrganizationEmployee,
		KindOrganizationClient, KindCaregiverClient, KindAdminStatic:
		return true
	}
	return false
}

// EmployeeRole is the role an employee invite grants inside an organization.
type EmployeeRole string

const (
	EmployeeRoleAdmin     EmployeeRole = "admin"
	EmployeeRoleManager   EmployeeRole = "manager"
	EmployeeRoleCaregiver EmployeeRole = "caregiver"
	EmployeeRoleDoctor    EmployeeRole = "doctor"
)

func (r EmployeeRole) Valid() bool {
	switch r {
	case EmployeeRoleAdmin, EmployeeRoleManager, EmployeeRoleCaregiver, EmployeeRoleDoctor:
		return true
	}
	return false
}

// OrganizationType classifies a registered organization.
type OrganizationType string

const (
	OrgTypePension         OrganizationType = "pension"
	OrgTypePatronageAgency OrganizationType = "patronage_agency"
)

func (t OrganizationType) Valid() bool {
	return t == OrgTypePension || t == OrgTypePatronageAgency
}

// Invite is the invite_tokens row: a single-use, typed, expiring token.
// The token column is the unguessable external handle; kind-specific payload
// lives in a satellite row joined 1:1 by kind.
type Invite struct {
	ID        string
	Token     string
	Kind      InviteKind
	CreatedAt time.Time
	ExpiresAt *time.Time // nil = never expires
	UsedAt    *time.Time
	UsedBy    string // identity id, empty until used
	RevokedAt *time.Time
	Metadata  map[string]string // kind-agnostic extras, e.g. pre-bound phone
}

// Redeemable reports whether the invite can still be redeemed at now.
// Expiry is a strict comparison: expires_at equal to now is already expired.
func (i Invite) Redeemable(now time.Time) bool {
	if i.UsedAt != nil || i.RevokedAt != nil {
		return false
	}
	return i.ExpiresAt == nil || i.ExpiresAt.After(now)
}

// InviteDetails is the kind-specific satellite payload. Exactly one concrete
// type exists per redeemable kind; the validator constructs it once so
// downstream handlers never re-inspect raw optional columns.
type InviteDetails interface {
	Kind() InviteKind
}

// OrganizationEmployeeDetails is the payload of an organization_employee
// invite.
type OrganizationEmployeeDetails struct {
	OrganizationID string
	Role           EmployeeRole
}

func (OrganizationEmployeeDetails) Kind() InviteKind { return KindOrganizationEmployee }

// OrganizationClientDetails is the payload of an organization_client invite.
// PatientCardID always references an existing card; DiaryID may be empty when
// the client is invited before a diary exists.
type OrganizationClientDetails struct {
	OrganizationID string
	PatientCardID  string
	DiaryID        string
	InvitedPhone   string
	InvitedName    string
}

func (OrganizationClientDetails) Kind() InviteKind { return KindOrganizationClient }

// CaregiverClientDetails is the payload of a caregiver_client invite.
type CaregiverClientDetails struct {
	CaregiverID  string
	InvitedPhone string
	InvitedName  string
}

func (CaregiverClientDetails) Kind() InviteKind { return KindCaregiverClient }

// OrganizationRegistrationDetails is the payload of an
// organization_registration invite.
type OrganizationRegistrationDetails struct {
	OrganizationType OrganizationType
	InvitedEmail     string
	InvitedName      string
}

func (OrganizationRegistrationDetails) Kind() InviteKind { return KindOrganizationRegistration }

// RedeemableInvite is a validated, currently-redeemable invite together with
// its kind-specific payload.
type RedeemableInvite struct {
	ID       string
	Token    string
	Kind     InviteKind
	Metadata map[string]string
	Details  InviteDetails
}
