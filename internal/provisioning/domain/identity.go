package domain

import "time"

// Identity is an authentication principal. Email is the login handle and may
// be a pseudo-email derived from a phone number; pseudo-emails are an
// identity-layer implementation detail and never appear in API responses.
type Identity struct {
	ID           string
	Email        string
	Phone        string // E.164, may be empty for email-based identities
	PasswordHash string
	Metadata     map[string]string // role/org hints for downstream authorization
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialRequest is the resolved credential material for creating an
// identity: the login email (real or pseudo) plus the normalized phone.
type CredentialRequest struct {
	Email       string
	Phone       string // empty for email-based identities
	PseudoEmail bool   // true when Email was derived, not user-supplied
}
