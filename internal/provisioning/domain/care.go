package domain

import "time"

// Organization is a registered care organization (pension or patronage
// agency).
type Organization struct {
	ID        string
	Name      string
	Type      OrganizationType
	CreatedAt time.Time
}

// Caregiver is a private caregiver who invites their own clients.
type Caregiver struct {
	ID          string
	DisplayName string
	Phone       string
	CreatedAt   time.Time
}

// PatientCard is created by an organization or caregiver before the client
// registers; redemption of a client invite attaches the new client as owner.
type PatientCard struct {
	ID             string
	OrganizationID string
	CaregiverID    string
	ClientID       string // empty until a client invite is redeemed
	FullName       string
	CreatedAt      time.Time
}

// Diary tracks a patient's health metrics. OwnerClientID is empty until the
// invited client registers.
type Diary struct {
	ID            string
	PatientCardID string
	OwnerClientID string
	Title         string
	CreatedAt     time.Time
}

// DiaryClientLink records the acceptance linking a diary to its client.
// One link per diary.
type DiaryClientLink struct {
	DiaryID    string
	ClientID   string
	AcceptedBy string // identity id
	AcceptedAt time.Time
	Token      string // invite token that established the link
}
