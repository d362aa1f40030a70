package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short-lived access tokens, week-long refresh tokens.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// AMR values recorded on issued tokens.
	AMRPassword = "pwd"
	AMRRefresh  = "refresh"
)

// Claims are the access-token claims shared across the care-diary services.
// Keep changes additive to preserve compatibility.
type Claims struct {
	jwt.RegisteredClaims

	// SID is the session ID, stable across refresh rotations.
	SID string `json:"sid,omitempty"`

	// Role is the profile role ("org_employee", "client", ...). Downstream
	// authorization reads this instead of re-querying the profile row.
	Role string `json:"role,omitempty"`

	// OrganizationID is set for employees of an organization.
	OrganizationID string `json:"org_id,omitempty"`

	// ClientID is set for client principals (the clients table id, not an
	// OAuth client).
	ClientID string `json:"client_id,omitempty"`

	// AMR is the Authentication Methods Reference, e.g. ["pwd"].
	AMR []string `json:"amr,omitempty"`
}

// NewAccessClaims builds minimally-correct access-token claims.
func NewAccessClaims(
	subject, sid string,
	role, organizationID, clientID string,
	amr []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:            sid,
		Role:           role,
		OrganizationID: organizationID,
		ClientID:       clientID,
		AMR:            amr,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
