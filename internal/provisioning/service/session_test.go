package service

import (
	"context"
	"testing"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/stretchr/testify/require"
)

func TestSignInAndRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newTestSessions(t, st)
	identities := &IdentityService{Store: st}

	_, err := identities.CreateIdentity(ctx, domain.CredentialRequest{Email: "user@example.com"}, "Secret123", nil)
	require.NoError(t, err)

	session, err := sessions.SignIn(ctx, "user@example.com", "Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, "Bearer", session.TokenType)
	require.Positive(t, session.ExpiresIn)

	rotated, err := sessions.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	// The old token is gone after rotation.
	_, err = sessions.Refresh(ctx, session.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The new one still works.
	_, err = sessions.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newTestSessions(t, st)
	identities := &IdentityService{Store: st}

	_, err := identities.CreateIdentity(ctx, domain.CredentialRequest{Email: "user@example.com"}, "Secret123", nil)
	require.NoError(t, err)

	_, err = sessions.SignIn(ctx, "user@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = sessions.SignIn(ctx, "ghost@example.com", "Secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = sessions.SignIn(ctx, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newTestSessions(t, st)
	sessions.RefreshTTL = time.Millisecond
	identities := &IdentityService{Store: st}

	_, err := identities.CreateIdentity(ctx, domain.CredentialRequest{Email: "user@example.com"}, "Secret123", nil)
	require.NoError(t, err)

	session, err := sessions.SignIn(ctx, "user@example.com", "Secret123")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = sessions.Refresh(ctx, session.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRevokeRefreshTokenSignsOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newTestSessions(t, st)
	identities := &IdentityService{Store: st}

	_, err := identities.CreateIdentity(ctx, domain.CredentialRequest{Email: "user@example.com"}, "Secret123", nil)
	require.NoError(t, err)

	session, err := sessions.SignIn(ctx, "user@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, sessions.RevokeRefreshToken(ctx, session.RefreshToken))

	_, err = sessions.Refresh(ctx, session.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Revoking twice reports the token as already invalid.
	err = sessions.RevokeRefreshToken(ctx, session.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	sessions := newTestSessions(t, st)

	_, err := sessions.Refresh(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
