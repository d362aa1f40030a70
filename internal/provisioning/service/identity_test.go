package service

import (
	"context"
	"testing"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/stretchr/testify/require"
)

func TestCredentialResolverPseudoEmail(t *testing.T) {
	t.Parallel()
	r := &CredentialResolver{}

	cred, err := r.Resolve(domain.KindOrganizationClient, "8 (999) 123-45-67", "")
	require.NoError(t, err)
	require.True(t, cred.PseudoEmail)
	require.Equal(t, "+79991234567", cred.Phone)
	require.Equal(t, "organization_client-79991234567@diary.local", cred.Email)
}

func TestCredentialResolverIsDeterministic(t *testing.T) {
	t.Parallel()
	r := &CredentialResolver{}

	a, err := r.Resolve(domain.KindCaregiverClient, "+7 999 123-45-67", "")
	require.NoError(t, err)
	b, err := r.Resolve(domain.KindCaregiverClient, "89991234567", "")
	require.NoError(t, err)

	// Different spellings of the same number resolve identically.
	require.Equal(t, a.Email, b.Email)
	require.Equal(t, a.Phone, b.Phone)
}

func TestCredentialResolverKindDisambiguates(t *testing.T) {
	t.Parallel()
	r := &CredentialResolver{}

	a, err := r.Resolve(domain.KindOrganizationClient, "+79991234567", "")
	require.NoError(t, err)
	b, err := r.Resolve(domain.KindCaregiverClient, "+79991234567", "")
	require.NoError(t, err)

	// Same phone under different kinds yields distinct identities.
	require.NotEqual(t, a.Email, b.Email)
}

func TestCredentialResolverCustomDomain(t *testing.T) {
	t.Parallel()
	r := &CredentialResolver{PseudoEmailDomain: "accounts.example.org"}

	cred, err := r.Resolve(domain.KindOrganizationEmployee, "+79991234567", "")
	require.NoError(t, err)
	require.Equal(t, "organization_employee-79991234567@accounts.example.org", cred.Email)
}

func TestCredentialResolverErrors(t *testing.T) {
	t.Parallel()
	r := &CredentialResolver{}

	_, err := r.Resolve(domain.KindOrganizationClient, "", "")
	require.ErrorIs(t, err, ErrMissingField)

	_, err = r.Resolve(domain.KindOrganizationClient, "not a phone", "")
	require.ErrorIs(t, err, ErrInvalidPhone)

	_, err = r.Resolve(domain.KindOrganizationRegistration, "", "")
	require.ErrorIs(t, err, ErrMissingField)

	_, err = r.Resolve(domain.KindOrganizationRegistration, "", "no-at-sign")
	require.ErrorIs(t, err, ErrMissingField)
}

func TestCredentialResolverRealEmail(t *testing.T) {
	t.Parallel()
	r := &CredentialResolver{}

	cred, err := r.Resolve(domain.KindOrganizationRegistration, "", " Boss@Example.COM ")
	require.NoError(t, err)
	require.False(t, cred.PseudoEmail)
	require.Equal(t, "boss@example.com", cred.Email)
	require.Empty(t, cred.Phone)
}

func TestCreateIdentityConvergesOnRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	svc := &IdentityService{Store: st}
	r := &CredentialResolver{}

	cred, err := r.Resolve(domain.KindCaregiverClient, "+79991234567", "")
	require.NoError(t, err)

	first, err := svc.CreateIdentity(ctx, cred, "Secret123", nil)
	require.NoError(t, err)

	// Same registrant retrying after a crash lands on the same identity.
	second, err := svc.CreateIdentity(ctx, cred, "Secret123", nil)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestCreateIdentityRejectsTakenCredential(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	svc := &IdentityService{Store: st}
	r := &CredentialResolver{}

	cred, err := r.Resolve(domain.KindCaregiverClient, "+79991234567", "")
	require.NoError(t, err)

	_, err = svc.CreateIdentity(ctx, cred, "Secret123", nil)
	require.NoError(t, err)

	// A different password means a different person: the handle is taken.
	_, err = svc.CreateIdentity(ctx, cred, "Other456", nil)
	require.ErrorIs(t, err, ErrIdentityCreationFailed)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	svc := &IdentityService{Store: st}

	cred := domain.CredentialRequest{Email: "user@example.com"}
	created, err := svc.CreateIdentity(ctx, cred, "Secret123", nil)
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "user@example.com", "Secret123")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.Authenticate(ctx, "user@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "ghost@example.com", "Secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
