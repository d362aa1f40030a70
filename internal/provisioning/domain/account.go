package domain

import "time"

// ProfileRole is the coarse-grained role stored on a user profile.
type ProfileRole string

const (
	RoleOrgEmployee ProfileRole = "org_employee"
	RoleClient      ProfileRole = "client"
)

// Profile is the user_profiles row, 1:1 with an identity.
type Profile struct {
	UserID         string
	Role           ProfileRole
	OrganizationID string // set for employees
	ClientID       string // set for clients
	Phone          string // E.164
	SourceInvite   string // token of the invite that provisioned this profile
	CreatedAt      time.Time
}

// Employee is the organization_employees row. UserID is unique: one employee
// record per identity, which doubles as the duplicate-provisioning guard.
type Employee struct {
	ID             string
	UserID         string
	OrganizationID string
	Role           EmployeeRole
	Phone          string
	FirstName      string
	LastName       string
	CreatedAt      time.Time
}

// Client is the clients row. Exactly one of InvitedByOrganizationID /
// InvitedByCaregiverID is set (enforced by a table check constraint).
// UserID is unique, same guard as Employee.
type Client struct {
	ID                     string
	UserID                 string
	InvitedByOrganizationID string
	InvitedByCaregiverID    string
	Phone                  string
	FirstName              string
	LastName               string
	CreatedAt              time.Time
}
