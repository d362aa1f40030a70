package provisioning_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	provhttp "github.com/carelog/carediary/internal/provisioning/http"
	"github.com/carelog/carediary/internal/provisioning/service"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/internal/provisioning/store/drivers/sqlite"
	"github.com/carelog/carediary/pkg/cryptox"
	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/carelog/carediary/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

/*
 * Common helpers for provisioning service end-to-end tests. The service is
 * wired in-process against an in-memory database and exposed through
 * httptest, so the full HTTP surface (middleware included) is exercised
 * without external infrastructure.
 */

const (
	adminToken   = "e2e-admin-token-12345"
	testPassword = "Sup3rSecret!"
	testPhone    = "+79991234567"
)

// setupService starts the provisioning service on an httptest server and
// returns an SDK client pointed at it plus the backing store for seeding.
func setupService(t *testing.T) (*diarysdk.Client, store.Store) {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewEphemeralSigner("e2e-key", "carediary-e2e")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	invites := &service.InviteService{Store: st}
	identities := &service.IdentityService{Store: st}
	sessions := &service.SessionService{Store: st, Signer: signer, Issuer: "carediary-e2e"}

	router := provhttp.NewRouter(signer, "e2e", st, []string{adminToken}, logger)
	router.InviteService = invites
	router.SessionService = sessions
	router.ProvisioningService = &service.ProvisioningService{
		Store:       st,
		Invites:     invites,
		Identities:  identities,
		Credentials: &service.CredentialResolver{},
		Sessions:    sessions,
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client := diarysdk.NewClient(srv.URL)
	client.AdminToken = adminToken
	return client, st
}

// seedCareContext creates an organization, a patient card and a diary, the
// minimum a client invite needs to point at.
func seedCareContext(t *testing.T, st store.Store) (domain.Organization, domain.PatientCard, domain.Diary) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	org := domain.Organization{
		ID:        idx.New().String(),
		Name:      "Sunrise Pension",
		Type:      domain.OrgTypePension,
		CreatedAt: now,
	}
	require.NoError(t, st.Organizations().CreateOrganization(ctx, org))

	card := domain.PatientCard{
		ID:             idx.New().String(),
		OrganizationID: org.ID,
		FullName:       "Ivan Petrov",
		CreatedAt:      now,
	}
	require.NoError(t, st.PatientCards().CreatePatientCard(ctx, card))

	diary := domain.Diary{
		ID:            idx.New().String(),
		PatientCardID: card.ID,
		Title:         "Blood pressure",
		CreatedAt:     now,
	}
	require.NoError(t, st.Diaries().CreateDiary(ctx, diary))

	return org, card, diary
}

// requireAPIError asserts err is an *APIError with the given status and code.
func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	apiErr, ok := err.(*diarysdk.APIError)
	require.True(t, ok, "expected *diarysdk.APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}
