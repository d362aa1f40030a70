package diarysdk

import "time"

// Error codes returned by the service.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeInvalidPhone        = "invalid_phone"
	ErrCodeUnsupportedKind     = "unsupported_invite_kind"
	ErrCodeInviteNotFound      = "invite_not_found"
	ErrCodeInviteExpired       = "invite_expired"
	ErrCodeInviteUsed          = "invite_used"
	ErrCodeInviteRevoked       = "invite_revoked"
	ErrCodeCorruptInvite       = "corrupt_invite"
	ErrCodeIdentityFailed      = "identity_creation_failed"
	ErrCodeProvisioningFailed  = "provisioning_failed"
	ErrCodeInvalidCredentials  = "invalid_credentials"
	ErrCodeInvalidRefreshToken = "invalid_refresh_token"
	ErrCodeServerError         = "server_error"
)

// ErrorResponse is the error envelope for every non-2xx response.
type ErrorResponse struct {
	Success bool `json:"success"`

	// Error is a stable machine-readable code; the set of codes per
	// endpoint is part of the API contract.
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// Session is the token pair issued on sign-in or redemption.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AcceptInviteRequest is the registrant's form submission against an invite
// link. Phone is required for all kinds except organization_registration,
// which takes Email instead.
type AcceptInviteRequest struct {
	Token     string `json:"token"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AcceptInviteData is the payload of a successful redemption. Session is
// null when the account was created but automatic sign-in failed; the
// registrant then signs in manually.
type AcceptInviteData struct {
	UserID         string   `json:"userId"`
	Role           string   `json:"role"`
	OrganizationID string   `json:"organizationId,omitempty"`
	ClientID       string   `json:"clientId,omitempty"`
	Session        *Session `json:"session"`
}

// AcceptInviteResponse is the success envelope of POST /v1/invites/accept.
type AcceptInviteResponse struct {
	Success bool             `json:"success"`
	Data    AcceptInviteData `json:"data"`
}

// ValidateInviteData describes a still-redeemable invite without consuming
// it, so the registration form can render kind-appropriate fields.
type ValidateInviteData struct {
	Kind           string `json:"kind"`
	OrganizationID string `json:"organizationId,omitempty"`
	InvitedPhone   string `json:"invitedPhone,omitempty"`
	InvitedName    string `json:"invitedName,omitempty"`
	InvitedEmail   string `json:"invitedEmail,omitempty"`
}

// ValidateInviteResponse is the success envelope of GET /v1/invites/validate.
type ValidateInviteResponse struct {
	Success bool               `json:"success"`
	Data    ValidateInviteData `json:"data"`
}

// MintInviteRequest creates a new invite. Exactly the fields matching Kind
// are read; the rest are ignored.
type MintInviteRequest struct {
	Kind string `json:"kind"`

	// ExpiresAt overrides the default TTL; NoExpiry mints a token that
	// never expires. At most one of the two may be set.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	NoExpiry  bool       `json:"noExpiry,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	// organization_registration
	OrganizationType string `json:"organizationType,omitempty"`
	InvitedEmail     string `json:"invitedEmail,omitempty"`

	// organization_employee / organization_client
	OrganizationID string `json:"organizationId,omitempty"`
	Role           string `json:"role,omitempty"`

	// organization_client
	PatientCardID string `json:"patientCardId,omitempty"`
	DiaryID       string `json:"diaryId,omitempty"`

	// caregiver_client
	CaregiverID string `json:"caregiverId,omitempty"`

	InvitedPhone string `json:"invitedPhone,omitempty"`
	InvitedName  string `json:"invitedName,omitempty"`
}

// MintInviteData returns the minted token. The raw token is shown exactly
// once; the caller embeds it into the registration link.
type MintInviteData struct {
	InviteID  string     `json:"inviteId"`
	Token     string     `json:"token"`
	Kind      string     `json:"kind"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// MintInviteResponse is the success envelope of POST /v1/invites/mint.
type MintInviteResponse struct {
	Success bool           `json:"success"`
	Data    MintInviteData `json:"data"`
}

// SignInRequest authenticates with email (or pseudo-email) and password.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse is the success envelope of POST /v1/sessions.
type SignInResponse struct {
	Success bool    `json:"success"`
	Data    Session `json:"data"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfileData is the authenticated caller's provisioned profile.
type ProfileData struct {
	UserID         string `json:"userId"`
	Role           string `json:"role"`
	OrganizationID string `json:"organizationId,omitempty"`
	ClientID       string `json:"clientId,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// ProfileResponse is the success envelope of GET /v1/profile.
type ProfileResponse struct {
	Success bool        `json:"success"`
	Data    ProfileData `json:"data"`
}
