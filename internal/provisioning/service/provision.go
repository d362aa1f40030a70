package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/pkg/idx"
	"github.com/carelog/carediary/pkg/slogx"
)

var ErrProvisioningFailed = errors.New("failed to provision account")

// AcceptRequest is the registrant's submission against an invite link.
type AcceptRequest struct {
	Token     string
	Phone     string
	Email     string // organization_registration only
	Password  string
	FirstName string
	LastName  string
}

// AcceptResult is the successful outcome of a redemption. Session is nil
// when account creation succeeded but the automatic sign-in did not; the
// registrant signs in manually in that case.
type AcceptResult struct {
	UserID         string
	Role           string
	OrganizationID string
	ClientID       string
	Session        *domain.Session
}

// ProvisioningService runs the redemption pipeline: validate the invite,
// create the identity, build the domain records, consume the token, start a
// session.
type ProvisioningService struct {
	Store       store.Store
	Invites     *InviteService
	Identities  *IdentityService
	Credentials *CredentialResolver
	Sessions    *SessionService
}

// AcceptInvite redeems an invite token end to end.
//
// Identity creation happens before the provisioning transaction because it
// cannot be undone. Everything inside the transaction is idempotent, keyed
// on the identity, so a crash between the two phases leaves a state the
// registrant repairs simply by submitting the same form again: the pseudo
// email re-resolves to the same identity, the domain upserts land on the
// existing rows, and the invite is consumed on the retry.
func (s *ProvisioningService) AcceptInvite(ctx context.Context, req AcceptRequest) (AcceptResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Basic field validation.
	if strings.TrimSpace(req.Token) == "" || req.Password == "" {
		return AcceptResult{}, ErrMissingField
	}

	// 2. Validate the invite and load its satellite payload.
	invite, err := s.Invites.ValidateInvite(ctx, req.Token)
	if err != nil {
		return AcceptResult{}, err
	}

	// 3. Resolve the login credential for this kind.
	cred, err := s.Credentials.Resolve(invite.Kind, req.Phone, req.Email)
	if err != nil {
		return AcceptResult{}, err
	}

	// 4. Create (or converge onto) the identity. Irreversible, so first.
	identity, err := s.Identities.CreateIdentity(ctx, cred, req.Password, identityHints(invite))
	if err != nil {
		return AcceptResult{}, err
	}

	// 5. Provision domain records and consume the token in one transaction.
	var result AcceptResult
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		switch d := invite.Details.(type) {
		case domain.OrganizationRegistrationDetails:
			result, err = s.provisionOrganizationRegistration(ctx, tx, invite, identity)
		case domain.OrganizationEmployeeDetails:
			result, err = s.provisionEmployee(ctx, tx, invite, d, identity, cred, req)
		case domain.OrganizationClientDetails:
			result, err = s.provisionOrganizationClient(ctx, tx, invite, d, identity, cred, req)
		case domain.CaregiverClientDetails:
			result, err = s.provisionCaregiverClient(ctx, tx, invite, d, identity, cred, req)
		default:
			return ErrUnsupportedInviteKind
		}
		if err != nil {
			return err
		}

		// Consume the token last so any failure above leaves it
		// redeemable. Of two racing redemptions exactly one commits.
		if err := tx.Invites().MarkInviteUsed(ctx, invite.ID, identity.ID); err != nil {
			if errors.Is(err, store.ErrAlreadyConsumed) {
				return ErrInviteAlreadyUsed
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteAlreadyUsed) || errors.Is(err, ErrUnsupportedInviteKind) {
			return AcceptResult{}, err
		}
		// The identity survives the rollback; log the trail so support
		// can find it if the registrant never retries.
		log.Error("provisioning failed after identity creation",
			slog.String("invite_id", invite.ID),
			slog.String("kind", string(invite.Kind)),
			slog.String("identity_id", identity.ID),
			slog.Any("error", err),
		)
		return AcceptResult{}, errors.Join(ErrProvisioningFailed, err)
	}

	log.Info("invite redeemed",
		slog.String("invite_id", invite.ID),
		slog.String("kind", string(invite.Kind)),
		slog.String("user_id", identity.ID),
	)

	// 6. Start a session. Failure here is not fatal: the account exists,
	// the registrant can sign in manually.
	session, err := s.Sessions.SignIn(ctx, cred.Email, req.Password)
	if err != nil {
		log.Warn("automatic sign-in after provisioning failed",
			slog.String("user_id", identity.ID),
			slog.Any("error", err),
		)
	} else {
		result.Session = &session
	}

	return result, nil
}

// identityHints builds the metadata stored on the identity: coarse role and
// linkage hints downstream authorization can read before profiles exist.
func identityHints(invite domain.RedeemableInvite) map[string]string {
	hints := map[string]string{"invite_kind": string(invite.Kind)}
	switch d := invite.Details.(type) {
	case domain.OrganizationRegistrationDetails:
		hints["organization_type"] = string(d.OrganizationType)
	case domain.OrganizationEmployeeDetails:
		hints["organization_id"] = d.OrganizationID
		hints["role"] = string(d.Role)
	case domain.OrganizationClientDetails:
		hints["organization_id"] = d.OrganizationID
	case domain.CaregiverClientDetails:
		hints["caregiver_id"] = d.CaregiverID
	}
	return hints
}

// provisionOrganizationRegistration only establishes the identity; the
// organization itself is created once the application is approved, so there
// is no profile to write yet.
func (s *ProvisioningService) provisionOrganizationRegistration(
	ctx context.Context,
	tx store.Tx,
	invite domain.RedeemableInvite,
	identity domain.Identity,
) (AcceptResult, error) {
	return AcceptResult{
		UserID: identity.ID,
		Role:   string(domain.KindOrganizationRegistration),
	}, nil
}

func (s *ProvisioningService) provisionEmployee(
	ctx context.Context,
	tx store.Tx,
	invite domain.RedeemableInvite,
	d domain.OrganizationEmployeeDetails,
	identity domain.Identity,
	cred domain.CredentialRequest,
	req AcceptRequest,
) (AcceptResult, error) {
	now := time.Now().UTC()

	if _, err := tx.Employees().CreateEmployee(ctx, domain.Employee{
		ID:             idx.New().String(),
		UserID:         identity.ID,
		OrganizationID: d.OrganizationID,
		Role:           d.Role,
		Phone:          cred.Phone,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		CreatedAt:      now,
	}); err != nil {
		return AcceptResult{}, err
	}

	if err := tx.Profiles().CreateProfile(ctx, domain.Profile{
		UserID:         identity.ID,
		Role:           domain.RoleOrgEmployee,
		OrganizationID: d.OrganizationID,
		Phone:          cred.Phone,
		SourceInvite:   invite.Token,
		CreatedAt:      now,
	}); err != nil {
		return AcceptResult{}, err
	}

	return AcceptResult{
		UserID:         identity.ID,
		Role:           string(domain.RoleOrgEmployee),
		OrganizationID: d.OrganizationID,
	}, nil
}

func (s *ProvisioningService) provisionOrganizationClient(
	ctx context.Context,
	tx store.Tx,
	invite domain.RedeemableInvite,
	d domain.OrganizationClientDetails,
	identity domain.Identity,
	cred domain.CredentialRequest,
	req AcceptRequest,
) (AcceptResult, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	client, err := tx.Clients().CreateClient(ctx, domain.Client{
		ID:                      idx.New().String(),
		UserID:                  identity.ID,
		InvitedByOrganizationID: d.OrganizationID,
		Phone:                   cred.Phone,
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		CreatedAt:               now,
	})
	if err != nil {
		return AcceptResult{}, err
	}

	if err := tx.Profiles().CreateProfile(ctx, domain.Profile{
		UserID:         identity.ID,
		Role:           domain.RoleClient,
		OrganizationID: d.OrganizationID,
		ClientID:       client.ID,
		Phone:          cred.Phone,
		SourceInvite:   invite.Token,
		CreatedAt:      now,
	}); err != nil {
		return AcceptResult{}, err
	}

	// The card must gain its owner. Zero rows here means the card is gone
	// and the redemption cannot be honored.
	if err := tx.PatientCards().AssignClient(ctx, d.PatientCardID, client.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Error("patient card referenced by invite no longer exists",
				slog.String("invite_id", invite.ID),
				slog.String("patient_card_id", d.PatientCardID),
			)
		}
		return AcceptResult{}, err
	}

	// The diary linkage is best effort: a missing diary degrades the
	// experience but does not orphan the account.
	if d.DiaryID != "" {
		if err := tx.Diaries().AssignOwner(ctx, d.DiaryID, client.ID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return AcceptResult{}, err
			}
			log.Warn("diary referenced by invite no longer exists",
				slog.String("invite_id", invite.ID),
				slog.String("diary_id", d.DiaryID),
			)
		} else {
			if err := tx.Diaries().UpsertClientLink(ctx, domain.DiaryClientLink{
				DiaryID:    d.DiaryID,
				ClientID:   client.ID,
				AcceptedBy: identity.ID,
				AcceptedAt: now,
				Token:      invite.Token,
			}); err != nil {
				return AcceptResult{}, err
			}
		}
	}

	// Back-fill the satellite with who actually showed up.
	if err := tx.Invites().RecordRedemptionHints(ctx, invite.ID, invite.Kind, cred.Phone, displayName(req)); err != nil {
		log.Warn("failed to record redemption hints",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
	}

	return AcceptResult{
		UserID:         identity.ID,
		Role:           string(domain.RoleClient),
		OrganizationID: d.OrganizationID,
		ClientID:       client.ID,
	}, nil
}

func (s *ProvisioningService) provisionCaregiverClient(
	ctx context.Context,
	tx store.Tx,
	invite domain.RedeemableInvite,
	d domain.CaregiverClientDetails,
	identity domain.Identity,
	cred domain.CredentialRequest,
	req AcceptRequest,
) (AcceptResult, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	client, err := tx.Clients().CreateClient(ctx, domain.Client{
		ID:                   idx.New().String(),
		UserID:               identity.ID,
		InvitedByCaregiverID: d.CaregiverID,
		Phone:                cred.Phone,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		CreatedAt:            now,
	})
	if err != nil {
		return AcceptResult{}, err
	}

	if err := tx.Profiles().CreateProfile(ctx, domain.Profile{
		UserID:       identity.ID,
		Role:         domain.RoleClient,
		ClientID:     client.ID,
		Phone:        cred.Phone,
		SourceInvite: invite.Token,
		CreatedAt:    now,
	}); err != nil {
		return AcceptResult{}, err
	}

	if err := tx.Invites().RecordRedemptionHints(ctx, invite.ID, invite.Kind, cred.Phone, displayName(req)); err != nil {
		log.Warn("failed to record redemption hints",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
	}

	return AcceptResult{
		UserID:   identity.ID,
		Role:     string(domain.RoleClient),
		ClientID: client.ID,
	}, nil
}

func displayName(req AcceptRequest) string {
	return strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))
}
