package provisioning_test

import (
	"context"
	"testing"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/stretchr/testify/require"
)

// TestOrganizationRegistrationFlow redeems an organization_registration
// invite: only the identity is created, the organization itself comes later
// through the approval flow, so the profile endpoint has nothing yet.
func TestOrganizationRegistrationFlow(t *testing.T) {
	client, _ := setupService(t)
	ctx := t.Context()

	minted, err := client.MintInvite(ctx, diarysdk.MintInviteRequest{
		Kind:             "organization_registration",
		OrganizationType: "pension",
		InvitedEmail:     "director@example.com",
	})
	require.NoError(t, err)

	validated, err := client.ValidateInvite(ctx, minted.Token)
	require.NoError(t, err)
	require.Equal(t, "organization_registration", validated.Kind)
	require.Equal(t, "director@example.com", validated.InvitedEmail)

	accepted, err := client.AcceptInvite(ctx, diarysdk.AcceptInviteRequest{
		Token:    minted.Token,
		Email:    "director@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, "organization_registration", accepted.Role)
	require.Empty(t, accepted.ClientID)
	require.NotNil(t, accepted.Session)

	// Sign-in works with the real email from day one.
	session, err := client.SignIn(ctx, "director@example.com", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
}

// TestCaregiverClientFlow redeems a caregiver_client invite and signs in
// with the phone-derived pseudo-email.
func TestCaregiverClientFlow(t *testing.T) {
	client, st := setupService(t)
	ctx := t.Context()

	cg := domain.Caregiver{
		ID:          idx.New().String(),
		DisplayName: "Olga",
		Phone:       "+79990000001",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.Caregivers().CreateCaregiver(context.Background(), cg))

	minted, err := client.MintInvite(ctx, diarysdk.MintInviteRequest{
		Kind:        "caregiver_client",
		CaregiverID: cg.ID,
	})
	require.NoError(t, err)

	accepted, err := client.AcceptInvite(ctx, diarysdk.AcceptInviteRequest{
		Token:     minted.Token,
		Phone:     "8 (999) 123-45-67",
		Password:  testPassword,
		FirstName: "Maria",
	})
	require.NoError(t, err)
	require.Equal(t, "client", accepted.Role)
	require.Empty(t, accepted.OrganizationID)

	session, err := client.SignIn(ctx, "caregiver_client-79991234567@diary.local", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, session.RefreshToken)

	require.NoError(t, client.SignOut(ctx, session.RefreshToken))

	_, err = client.Refresh(ctx, session.RefreshToken)
	require.Error(t, err)
}
