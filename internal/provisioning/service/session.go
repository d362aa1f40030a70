package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/pkg/cryptox"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/carelog/carediary/pkg/jwtx"
	"github.com/carelog/carediary/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
)

type SessionService struct {
	Store      store.Store
	Signer     *jwtx.Signer
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// SignIn verifies an email/password pair and issues a session. The email may
// be a pseudo-email; callers that registered by phone pass the derived handle.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return domain.Session{}, ErrInvalidCredentials
	}

	identity, err := s.Store.Identities().GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("sign-in attempted with unknown email")
			return domain.Session{}, ErrInvalidCredentials
		}
		return domain.Session{}, err
	}
	if err := cryptox.VerifyPassword(password, identity.PasswordHash); err != nil {
		log.Info("sign-in password mismatch", slog.String("identity_id", identity.ID))
		return domain.Session{}, ErrInvalidCredentials
	}

	return s.issueSession(ctx, identity, idx.New().String(), []string{jwtx.AMRPassword})
}

// Refresh rotates a refresh token: the old row is revoked and a new pair is
// issued under the same session id, all in one transaction.
func (s *SessionService) Refresh(ctx context.Context, refreshOpaque string) (domain.Session, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	// 1. Lookup the persisted refresh row by token fingerprint.
	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrInvalidRefresh
		}
		return domain.Session{}, err
	}

	// 2. Reject revoked or expired tokens.
	if rt.Revoked || now.After(rt.ExpiresAt) {
		return domain.Session{}, ErrInvalidRefresh
	}

	identity, err := s.Store.Identities().GetIdentityByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrInvalidRefresh
		}
		return domain.Session{}, err
	}

	// 3. Sign a new access token under the original session id.
	accessToken, expiresAt, err := s.signAccess(ctx, identity, rt.SessionID, []string{jwtx.AMRPassword, jwtx.AMRRefresh}, now)
	if err != nil {
		return domain.Session{}, err
	}

	// 4. Rotate: revoke old row, create the replacement atomically.
	newOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}
	newRT := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    identity.ID,
		TokenHash: cryptox.FingerprintToken(newOpaque),
		SessionID: rt.SessionID,
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			// A parallel refresh already rotated this token.
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, newRT)
	})
	if err != nil {
		return domain.Session{}, err
	}

	log.Debug("refresh token rotated",
		slog.String("identity_id", identity.ID),
		slog.String("session_id", rt.SessionID),
	)

	return domain.Session{
		AccessToken:  accessToken,
		RefreshToken: newOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

// RevokeRefreshToken invalidates a single refresh token (sign-out).
func (s *SessionService) RevokeRefreshToken(ctx context.Context, refreshOpaque string) error {
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshOpaque))
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidRefresh
	}
	return err
}

func (s *SessionService) issueSession(ctx context.Context, identity domain.Identity, sid string, amr []string) (domain.Session, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	accessToken, expiresAt, err := s.signAccess(ctx, identity, sid, amr, now)
	if err != nil {
		return domain.Session{}, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}
	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    identity.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		SessionID: sid,
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		log.Error("failed to persist refresh token", slog.Any("error", err))
		return domain.Session{}, err
	}

	log.Debug("session issued",
		slog.String("identity_id", identity.ID),
		slog.String("session_id", sid),
	)

	return domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

// signAccess builds the access claims from the identity's profile. Identities
// without a profile yet (organization registration awaiting approval) get a
// token with no role claims.
func (s *SessionService) signAccess(ctx context.Context, identity domain.Identity, sid string, amr []string, now time.Time) (string, time.Time, error) {
	var role, orgID, clientID string
	profile, err := s.Store.Profiles().GetProfileByUserID(ctx, identity.ID)
	switch {
	case err == nil:
		role = string(profile.Role)
		orgID = profile.OrganizationID
		clientID = profile.ClientID
	case errors.Is(err, store.ErrNotFound):
		// no profile yet
	default:
		return "", time.Time{}, err
	}

	ttl := s.accessTTL()
	claims := jwtx.NewAccessClaims(identity.ID, sid, role, orgID, clientID, amr, ttl, s.Issuer, s.Audience, now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(ttl), nil
}
