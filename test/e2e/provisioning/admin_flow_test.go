package provisioning_test

import (
	"net/http"
	"testing"

	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/stretchr/testify/require"
)

// TestAdminLifecycle mints, revokes and deletes invites through the
// administrative endpoints.
func TestAdminLifecycle(t *testing.T) {
	client, st := setupService(t)
	ctx := t.Context()

	org, card, _ := seedCareContext(t, st)

	t.Run("revoked invite stops validating", func(t *testing.T) {
		minted, err := client.MintInvite(ctx, diarysdk.MintInviteRequest{
			Kind:           "organization_client",
			OrganizationID: org.ID,
			PatientCardID:  card.ID,
		})
		require.NoError(t, err)

		require.NoError(t, client.RevokeInvite(ctx, minted.InviteID))

		_, err = client.ValidateInvite(ctx, minted.Token)
		requireAPIError(t, err, http.StatusGone, diarysdk.ErrCodeInviteRevoked)

		// Revoking twice reports the terminal state.
		err = client.RevokeInvite(ctx, minted.InviteID)
		requireAPIError(t, err, http.StatusGone, diarysdk.ErrCodeInviteRevoked)
	})

	t.Run("deleted invite vanishes", func(t *testing.T) {
		minted, err := client.MintInvite(ctx, diarysdk.MintInviteRequest{
			Kind:           "organization_client",
			OrganizationID: org.ID,
			PatientCardID:  card.ID,
		})
		require.NoError(t, err)

		require.NoError(t, client.DeleteInvite(ctx, minted.InviteID))

		_, err = client.ValidateInvite(ctx, minted.Token)
		requireAPIError(t, err, http.StatusNotFound, diarysdk.ErrCodeInviteNotFound)
	})

	t.Run("used invite cannot be deleted", func(t *testing.T) {
		minted, err := client.MintInvite(ctx, diarysdk.MintInviteRequest{
			Kind:           "organization_client",
			OrganizationID: org.ID,
			PatientCardID:  card.ID,
		})
		require.NoError(t, err)

		_, err = client.AcceptInvite(ctx, diarysdk.AcceptInviteRequest{
			Token:    minted.Token,
			Phone:    testPhone,
			Password: testPassword,
		})
		require.NoError(t, err)

		err = client.DeleteInvite(ctx, minted.InviteID)
		requireAPIError(t, err, http.StatusGone, diarysdk.ErrCodeInviteUsed)
	})

	t.Run("mint rejects dangling references", func(t *testing.T) {
		_, err := client.MintInvite(ctx, diarysdk.MintInviteRequest{
			Kind:           "organization_client",
			OrganizationID: org.ID,
			PatientCardID:  "no-such-card",
		})
		requireAPIError(t, err, http.StatusBadRequest, diarysdk.ErrCodeInvalidRequest)
	})
}

// TestAdminAuthentication exercises the admin-token guard.
func TestAdminAuthentication(t *testing.T) {
	client, st := setupService(t)
	ctx := t.Context()

	org, card, _ := seedCareContext(t, st)
	req := diarysdk.MintInviteRequest{
		Kind:           "organization_client",
		OrganizationID: org.ID,
		PatientCardID:  card.ID,
	}

	anonymous := diarysdk.NewClient(client.BaseURL)
	_, err := anonymous.MintInvite(ctx, req)
	apiErr, ok := err.(*diarysdk.APIError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	anonymous.AdminToken = "wrong-token"
	_, err = anonymous.MintInvite(ctx, req)
	apiErr, ok = err.(*diarysdk.APIError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, err = client.MintInvite(ctx, req)
	require.NoError(t, err)
}
