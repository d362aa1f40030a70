package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/internal/provisioning/store/drivers/sqlite"
	"github.com/carelog/carediary/pkg/cryptox"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/carelog/carediary/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()
	signer, err := jwtx.NewEphemeralSigner("test-key", "carediary-test")
	require.NoError(t, err)
	return signer
}

func newTestSessions(t *testing.T, st store.Store) *SessionService {
	t.Helper()
	return &SessionService{
		Store:  st,
		Signer: newTestSigner(t),
		Issuer: "carediary-test",
	}
}

func newTestProvisioning(t *testing.T, st store.Store) *ProvisioningService {
	t.Helper()
	return &ProvisioningService{
		Store:       st,
		Invites:     &InviteService{Store: st},
		Identities:  &IdentityService{Store: st},
		Credentials: &CredentialResolver{},
		Sessions:    newTestSessions(t, st),
	}
}

func seedOrganization(t *testing.T, st store.Store) domain.Organization {
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

func seedCaregiver(t *testing.T, st store.Store) domain.Caregiver {
	t.Helper()
	cg := domain.Caregiver{
		ID:          idx.New().String(),
		DisplayName: "Olga",
		Phone:       "+79990000001",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.Caregivers().CreateCaregiver(context.Background(), cg))
	return cg
}

func seedPatientCard(t *testing.T, st store.Store, orgID string) domain.PatientCard {
	t.Helper()
	card := domain.PatientCard{
		ID:             idx.New().String(),
		OrganizationID: orgID,
		FullName:       "Ivan Petrov",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, st.PatientCards().CreatePatientCard(context.Background(), card))
	return card
}

func seedDiary(t *testing.T, st store.Store, cardID string) domain.Diary {
	t.Helper()
	diary := domain.Diary{
		ID:            idx.New().String(),
		PatientCardID: cardID,
		Title:         "Blood pressure",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, st.Diaries().CreateDiary(context.Background(), diary))
	return diary
}

// mintClientInvite mints an organization_client invite against a fresh card
// (and optionally a diary) and returns it with the raw token.
func mintClientInvite(t *testing.T, st store.Store, orgID, cardID, diaryID string) domain.Invite {
	t.Helper()
	invites := &InviteService{Store: st}
	inv, err := invites.MintInvite(context.Background(), MintParams{
		Kind: domain.KindOrganizationClient,
		Details: domain.OrganizationClientDetails{
			OrganizationID: orgID,
			PatientCardID:  cardID,
			DiaryID:        diaryID,
		},
	})
	require.NoError(t, err)
	return inv
}
