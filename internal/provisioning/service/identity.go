package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/pkg/cryptox"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/carelog/carediary/pkg/phonex"
	"github.com/carelog/carediary/pkg/slogx"
)

var (
	ErrMissingField           = errors.New("missing required field")
	ErrInvalidPhone           = errors.New("invalid phone number")
	ErrIdentityCreationFailed = errors.New("failed to create identity")
)

// DefaultPseudoEmailDomain is the synthetic domain for phone-derived login
// handles. Pseudo-emails never leave the identity layer.
const DefaultPseudoEmailDomain = "diary.local"

// CredentialResolver derives the login credential for a registrant. Most
// invite kinds register by phone; the identity layer only speaks email, so
// the resolver maps a normalized phone onto a deterministic pseudo-email.
type CredentialResolver struct {
	// PseudoEmailDomain defaults to DefaultPseudoEmailDomain when empty.
	PseudoEmailDomain string
}

// Resolve produces the credential request for the given invite kind. The
// same kind and phone always resolve to the same pseudo-email, which is what
// makes interrupted registrations retryable.
func (r *CredentialResolver) Resolve(kind domain.InviteKind, phone, email string) (domain.CredentialRequest, error) {
	if kind == domain.KindOrganizationRegistration {
		email = strings.TrimSpace(strings.ToLower(email))
		if email == "" || !strings.Contains(email, "@") {
			return domain.CredentialRequest{}, ErrMissingField
		}
		return domain.CredentialRequest{Email: email}, nil
	}

	if strings.TrimSpace(phone) == "" {
		return domain.CredentialRequest{}, ErrMissingField
	}
	normalized, err := phonex.Normalize(phone)
	if err != nil {
		return domain.CredentialRequest{}, ErrInvalidPhone
	}

	dom := r.PseudoEmailDomain
	if dom == "" {
		dom = DefaultPseudoEmailDomain
	}

	return domain.CredentialRequest{
		Email:       fmt.Sprintf("%s-%s@%s", kind, phonex.Digits(normalized), dom),
		Phone:       normalized,
		PseudoEmail: true,
	}, nil
}

type IdentityService struct {
	Store store.Store
}

// CreateIdentity creates the authentication principal for a registrant.
// Identity creation is deliberately outside the provisioning transaction:
// it cannot be rolled back, so it happens first and everything after is
// written to converge onto it.
//
// When the email is already taken the previous registration attempt got at
// least this far. If the supplied password matches the stored hash this is
// the same registrant retrying and we hand back the existing identity;
// otherwise the credential is simply taken and creation fails.
func (s *IdentityService) CreateIdentity(
	ctx context.Context,
	cred domain.CredentialRequest,
	password string,
	metadata map[string]string,
) (domain.Identity, error) {
	log := slogx.FromContext(ctx)

	if password == "" {
		return domain.Identity{}, ErrMissingField
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.Identity{}, err
	}

	now := time.Now().UTC()
	identity := domain.Identity{
		ID:           idx.New().String(),
		Email:        cred.Email,
		Phone:        cred.Phone,
		PasswordHash: hash,
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.Identities().CreateIdentity(ctx, identity)
	if err == nil {
		log.Debug("identity created",
			slog.String("identity_id", identity.ID),
			slog.Bool("pseudo_email", cred.PseudoEmail),
		)
		return identity, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		log.Error("failed to create identity", slog.Any("error", err))
		return domain.Identity{}, err
	}

	// Email conflict: converge onto the existing identity if this is the
	// same registrant retrying.
	existing, err := s.Store.Identities().GetIdentityByEmail(ctx, cred.Email)
	if err != nil {
		log.Error("failed to load conflicting identity", slog.Any("error", err))
		return domain.Identity{}, ErrIdentityCreationFailed
	}
	if err := cryptox.VerifyPassword(password, existing.PasswordHash); err != nil {
		log.Warn("identity email already taken with different credentials",
			slog.Bool("pseudo_email", cred.PseudoEmail),
		)
		return domain.Identity{}, ErrIdentityCreationFailed
	}

	log.Info("resuming interrupted registration on existing identity",
		slog.String("identity_id", existing.ID),
	)
	return existing, nil
}

// Authenticate verifies an email/password pair and returns the identity.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	identity, err := s.Store.Identities().GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}
	if err := cryptox.VerifyPassword(password, identity.PasswordHash); err != nil {
		return domain.Identity{}, ErrInvalidCredentials
	}
	return identity, nil
}
