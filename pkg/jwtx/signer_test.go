package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("key-001", "carediary")
	require.NoError(t, err)
	require.True(t, signer.Ready())

	claims := NewAccessClaims(
		"user-1", "sess-1",
		"org_employee", "org-1", "",
		[]string{"pwd"},
		time.Minute,
		"carediary",
		[]string{"carediary-web"},
		time.Now(),
	)

	raw, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := signer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "sess-1", got.SID)
	require.Equal(t, "org_employee", got.Role)
	require.Equal(t, "org-1", got.OrganizationID)
	require.Equal(t, []string{"pwd"}, got.AMR)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("key-001", "carediary")
	require.NoError(t, err)

	claims := NewAccessClaims(
		"user-1", "sess-1", "client", "", "client-1",
		[]string{"pwd"}, time.Minute, "carediary", nil,
		time.Now().Add(-time.Hour),
	)
	raw, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = signer.Verify(raw)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	t.Parallel()

	a, err := NewEphemeralSigner("a", "carediary")
	require.NoError(t, err)
	b, err := NewEphemeralSigner("b", "carediary")
	require.NoError(t, err)

	raw, err := a.Sign(NewAccessClaims("u", "s", "client", "", "", nil, time.Minute, "carediary", nil, time.Now()))
	require.NoError(t, err)

	_, err = b.Verify(raw)
	require.ErrorIs(t, err, ErrVerify)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("k", "expected-issuer")
	require.NoError(t, err)

	raw, err := signer.Sign(NewAccessClaims("u", "s", "client", "", "", nil, time.Minute, "other-issuer", nil, time.Now()))
	require.NoError(t, err)

	_, err = signer.Verify(raw)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestPublicJWKShape(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("key-001", "carediary")
	require.NoError(t, err)

	jwk := signer.PublicJWK()
	require.Equal(t, "OKP", jwk.Kty)
	require.Equal(t, "Ed25519", jwk.Crv)
	require.Equal(t, "EdDSA", jwk.Alg)
	require.Equal(t, "key-001", jwk.Kid)
	require.NotEmpty(t, jwk.X)
	require.Len(t, signer.JWKS().Keys, 1)
}
