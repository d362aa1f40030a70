package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedOrganization(t *testing.T, st *Store) domain.Organization {
	t.Helper()
	org := domain.Organization{
		ID:        idx.New().String(),
		Name:      "Sunrise Pension",
		Type:      domain.OrgTypePension,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Organizations().CreateOrganization(context.Background(), org))
	return org
}

func seedIdentity(t *testing.T, st *Store, email string) domain.Identity {
	t.Helper()
	now := time.Now().UTC()
	id := domain.Identity{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Identities().CreateIdentity(context.Background(), id))
	return id
}

func TestInviteLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	org := seedOrganization(t, st)

	expires := time.Now().UTC().Add(time.Hour)
	inv := domain.Invite{
		ID:        idx.New().String(),
		Token:     "tok-employee-1",
		Kind:      domain.KindOrganizationEmployee,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: &expires,
		Metadata:  map[string]string{"source": "test"},
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))
	require.NoError(t, st.Invites().CreateDetails(ctx, inv.ID, domain.OrganizationEmployeeDetails{
		OrganizationID: org.ID,
		Role:           domain.EmployeeRoleCaregiver,
	}))

	got, err := st.Invites().GetInviteByToken(ctx, "tok-employee-1")
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)
	require.Equal(t, domain.KindOrganizationEmployee, got.Kind)
	require.Equal(t, "test", got.Metadata["source"])
	require.Nil(t, got.UsedAt)
	require.NotNil(t, got.ExpiresAt)

	details, err := st.Invites().GetDetails(ctx, inv.ID, got.Kind)
	require.NoError(t, err)
	empDetails, ok := details.(domain.OrganizationEmployeeDetails)
	require.True(t, ok)
	require.Equal(t, org.ID, empDetails.OrganizationID)
	require.Equal(t, domain.EmployeeRoleCaregiver, empDetails.Role)

	_, err = st.Invites().GetInviteByToken(ctx, "no-such-token")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInviteTokenUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	inv := domain.Invite{
		ID:        idx.New().String(),
		Token:     "dup-token",
		Kind:      domain.KindAdminStatic,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))

	dup := inv
	dup.ID = idx.New().String()
	require.ErrorIs(t, st.Invites().CreateInvite(ctx, dup), store.ErrAlreadyExists)
}

func TestMarkInviteUsedIsSingleShot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	inv := domain.Invite{
		ID:        idx.New().String(),
		Token:     "single-shot",
		Kind:      domain.KindAdminStatic,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))

	identity := seedIdentity(t, st, "first@example.com")
	require.NoError(t, st.Invites().MarkInviteUsed(ctx, inv.ID, identity.ID))

	// The second consume loses the conditional update.
	other := seedIdentity(t, st, "second@example.com")
	require.ErrorIs(t, st.Invites().MarkInviteUsed(ctx, inv.ID, other.ID), store.ErrAlreadyConsumed)

	got, err := st.Invites().GetInviteByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UsedAt)
	require.Equal(t, identity.ID, got.UsedBy)
}

func TestRevokeBlocksConsumption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	inv := domain.Invite{
		ID:        idx.New().String(),
		Token:     "revoke-me",
		Kind:      domain.KindAdminStatic,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))
	require.NoError(t, st.Invites().RevokeInvite(ctx, inv.ID))

	identity := seedIdentity(t, st, "late@example.com")
	require.ErrorIs(t, st.Invites().MarkInviteUsed(ctx, inv.ID, identity.ID), store.ErrAlreadyConsumed)
	require.ErrorIs(t, st.Invites().RevokeInvite(ctx, inv.ID), store.ErrAlreadyConsumed)
}

func TestDeleteInviteCascadesDetails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	org := seedOrganization(t, st)

	inv := domain.Invite{
		ID:        idx.New().String(),
		Token:     "delete-me",
		Kind:      domain.KindOrganizationEmployee,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))
	require.NoError(t, st.Invites().CreateDetails(ctx, inv.ID, domain.OrganizationEmployeeDetails{
		OrganizationID: org.ID,
		Role:           domain.EmployeeRoleAdmin,
	}))

	require.NoError(t, st.Invites().DeleteInvite(ctx, inv.ID))

	_, err := st.Invites().GetInviteByID(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Invites().GetDetails(ctx, inv.ID, domain.KindOrganizationEmployee)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteExpiredInvitesKeepsUsedOnes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	past := time.Now().UTC().Add(-time.Hour)

	expired := domain.Invite{
		ID:        idx.New().String(),
		Token:     "expired-unused",
		Kind:      domain.KindAdminStatic,
		CreatedAt: past.Add(-time.Hour),
		ExpiresAt: &past,
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, expired))

	used := domain.Invite{
		ID:        idx.New().String(),
		Token:     "expired-used",
		Kind:      domain.KindAdminStatic,
		CreatedAt: past.Add(-time.Hour),
		ExpiresAt: &past,
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, used))
	identity := seedIdentity(t, st, "audit@example.com")

	// Mark used directly; the conditional guard checks used/revoked, not expiry.
	require.NoError(t, st.Invites().MarkInviteUsed(ctx, used.ID, identity.ID))

	require.NoError(t, st.Invites().DeleteExpiredInvites(ctx))

	_, err := st.Invites().GetInviteByID(ctx, expired.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Used invites survive as the audit trail.
	_, err = st.Invites().GetInviteByID(ctx, used.ID)
	require.NoError(t, err)
}

func TestCreateClientIsIdempotentOnUserID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	org := seedOrganization(t, st)
	identity := seedIdentity(t, st, "client@example.com")

	first, err := st.Clients().CreateClient(ctx, domain.Client{
		ID:                      idx.New().String(),
		UserID:                  identity.ID,
		InvitedByOrganizationID: org.ID,
		Phone:                   "+79991234567",
		FirstName:               "Anna",
		CreatedAt:               time.Now().UTC(),
	})
	require.NoError(t, err)

	// A retried insert for the same user lands on the original row.
	second, err := st.Clients().CreateClient(ctx, domain.Client{
		ID:                      idx.New().String(),
		UserID:                  identity.ID,
		InvitedByOrganizationID: org.ID,
		CreatedAt:               time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Anna", second.FirstName)
}

func TestPatientCardAssignClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	org := seedOrganization(t, st)
	identity := seedIdentity(t, st, "owner@example.com")

	card := domain.PatientCard{
		ID:             idx.New().String(),
		OrganizationID: org.ID,
		FullName:       "Ivan Petrov",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, st.PatientCards().CreatePatientCard(ctx, card))

	client, err := st.Clients().CreateClient(ctx, domain.Client{
		ID:                      idx.New().String(),
		UserID:                  identity.ID,
		InvitedByOrganizationID: org.ID,
		CreatedAt:               time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, st.PatientCards().AssignClient(ctx, card.ID, client.ID))

	got, err := st.PatientCards().GetPatientCardByID(ctx, card.ID)
	require.NoError(t, err)
	require.Equal(t, client.ID, got.ClientID)

	require.ErrorIs(t, st.PatientCards().AssignClient(ctx, "missing-card", client.ID), store.ErrNotFound)
}

func TestDiaryClientLinkUpsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	org := seedOrganization(t, st)
	identity := seedIdentity(t, st, "diary@example.com")

	card := domain.PatientCard{
		ID:             idx.New().String(),
		OrganizationID: org.ID,
		FullName:       "Maria Ivanova",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, st.PatientCards().CreatePatientCard(ctx, card))

	diary := domain.Diary{
		ID:            idx.New().String(),
		PatientCardID: card.ID,
		Title:         "Blood pressure",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, st.Diaries().CreateDiary(ctx, diary))

	client, err := st.Clients().CreateClient(ctx, domain.Client{
		ID:                      idx.New().String(),
		UserID:                  identity.ID,
		InvitedByOrganizationID: org.ID,
		CreatedAt:               time.Now().UTC(),
	})
	require.NoError(t, err)

	link := domain.DiaryClientLink{
		DiaryID:    diary.ID,
		ClientID:   client.ID,
		AcceptedBy: identity.ID,
		AcceptedAt: time.Now().UTC(),
		Token:      "tok-1",
	}
	require.NoError(t, st.Diaries().UpsertClientLink(ctx, link))

	// Re-acceptance replaces the single row per diary.
	link.Token = "tok-2"
	require.NoError(t, st.Diaries().UpsertClientLink(ctx, link))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	inv := domain.Invite{
		ID:        idx.New().String(),
		Token:     "tx-rollback",
		Kind:      domain.KindAdminStatic,
		CreatedAt: time.Now().UTC(),
	}

	sentinel := store.ErrAlreadyConsumed
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Invites().CreateInvite(ctx, inv); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.Invites().GetInviteByID(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	identity := seedIdentity(t, st, "session@example.com")

	now := time.Now().UTC()
	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    identity.ID,
		TokenHash: "fingerprint-1",
		SessionID: "sess-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	require.Equal(t, identity.ID, got.UserID)
	require.False(t, got.Revoked)

	require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, "fingerprint-1"))
	require.ErrorIs(t, st.RefreshTokens().RevokeRefreshToken(ctx, "fingerprint-1"), store.ErrNotFound)

	got, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	require.True(t, got.Revoked)
}
