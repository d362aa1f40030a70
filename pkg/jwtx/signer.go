package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrVerify      = errors.New("jwtx: token verification failed")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: unexpected issuer")
)

// Verifier checks a raw JWT and returns its claims.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// Signer signs and verifies EdDSA (Ed25519) access tokens with a single
// ephemeral key generated at startup. Tokens do not survive a restart,
// which is acceptable: refresh tokens are persisted and re-issue access.
type Signer struct {
	kid    string
	issuer string
	key    ed25519.PrivateKey
	pub    ed25519.PublicKey
}

// NewEphemeralSigner generates a fresh Ed25519 key pair.
func NewEphemeralSigner(kid, issuer string) (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate ed25519 key: %w", err)
	}
	return &Signer{kid: kid, issuer: issuer, key: priv, pub: pub}, nil
}

func (s *Signer) KID() string { return s.kid }

// Ready reports whether key material is loaded.
func (s *Signer) Ready() bool { return len(s.key) > 0 }

// Sign turns claims into a signed JWT string.
func (s *Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// Verify parses and validates raw, enforcing the EdDSA method, signature and
// issuer. Expiry is validated by the jwt parser.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("jwtx: unexpected signing method %q", t.Method.Alg())
		}
		return s.pub, nil
	})
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrVerify
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return Claims{}, ErrIssuer
	}
	return claims, nil
}
