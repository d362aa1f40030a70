package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweepsExpiredRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	org := seedOrganization(t, st)

	past := time.Now().UTC().Add(-time.Hour)
	expired := domain.Invite{
		ID:        idx.New().String(),
		Token:     idx.New().String(),
		Kind:      domain.KindOrganizationEmployee,
		CreatedAt: past.Add(-time.Hour),
		ExpiresAt: &past,
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, expired))
	require.NoError(t, st.Invites().CreateDetails(ctx, expired.ID, domain.OrganizationEmployeeDetails{
		OrganizationID: org.ID,
		Role:           domain.EmployeeRoleManager,
	}))

	eternal := domain.Invite{
		ID:        idx.New().String(),
		Token:     idx.New().String(),
		Kind:      domain.KindOrganizationEmployee,
		CreatedAt: past,
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, eternal))
	require.NoError(t, st.Invites().CreateDetails(ctx, eternal.ID, domain.OrganizationEmployeeDetails{
		OrganizationID: org.ID,
		Role:           domain.EmployeeRoleManager,
	}))

	identity := domain.Identity{
		ID:           idx.New().String(),
		Email:        "user@example.com",
		PasswordHash: "x",
		CreatedAt:    past,
		UpdatedAt:    past,
	}
	require.NoError(t, st.Identities().CreateIdentity(ctx, identity))
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    identity.ID,
		TokenHash: "stale-hash",
		SessionID: idx.New().String(),
		ExpiresAt: past,
		CreatedAt: past,
		UpdatedAt: past,
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hk := NewHousekeepingService(st, logger, 50*time.Millisecond)
	hk.Start()
	hk.Stop() // startup sweep has run by the time Stop returns

	_, err := st.Invites().GetInviteByToken(ctx, expired.Token)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Invites().GetInviteByToken(ctx, eternal.Token)
	require.NoError(t, err)

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "stale-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}
