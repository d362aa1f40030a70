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
	"github.com/carelog/carediary/pkg/slogx"
)

var (
	ErrInvalidInviteRequest  = errors.New("invalid invite request")
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteExpired         = errors.New("invite has expired")
	ErrInviteAlreadyUsed     = errors.New("invite has already been used")
	ErrInviteRevoked         = errors.New("invite has been revoked")
	ErrCorruptInvite         = errors.New("invite is missing its detail record")
	ErrUnsupportedInviteKind = errors.New("invite kind cannot be redeemed")
)

// DefaultInviteTTL applies when a mint request carries no explicit expiry.
const DefaultInviteTTL = 168 * time.Hour

type InviteService struct {
	Store store.Store

	// TTL for minted invites without an explicit expiry. Zero means
	// DefaultInviteTTL.
	DefaultTTL time.Duration
}

// MintParams describes a new invite. Details must match Kind; NoExpiry mints
// a never-expiring token (admin statics and long-lived org links).
type MintParams struct {
	Kind      domain.InviteKind
	ExpiresAt *time.Time
	NoExpiry  bool
	Metadata  map[string]string
	Details   domain.InviteDetails
}

// MintInvite creates a new invite token plus its kind-specific satellite row.
func (s *InviteService) MintInvite(ctx context.Context, p MintParams) (domain.Invite, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	// 1. Validate the kind and that details match it.
	if !p.Kind.Valid() {
		log.Warn("attempted to mint invite with unknown kind",
			slog.String("kind", string(p.Kind)),
		)
		return domain.Invite{}, ErrInvalidInviteRequest
	}
	if p.Kind == domain.KindAdminStatic {
		if p.Details != nil {
			return domain.Invite{}, ErrInvalidInviteRequest
		}
	} else {
		if p.Details == nil || p.Details.Kind() != p.Kind {
			log.Warn("invite details do not match kind",
				slog.String("kind", string(p.Kind)),
			)
			return domain.Invite{}, ErrInvalidInviteRequest
		}
	}

	// 2. Validate the referenced aggregates exist so a minted link can
	// never dangle from day one.
	if err := s.validateDetails(ctx, p.Details); err != nil {
		return domain.Invite{}, err
	}

	// 3. Resolve expiry.
	var expiresAt *time.Time
	switch {
	case p.NoExpiry:
		expiresAt = nil
	case p.ExpiresAt != nil:
		if !p.ExpiresAt.After(now) {
			log.Warn("attempted to mint invite with past expiry",
				slog.Time("expires_at", *p.ExpiresAt),
			)
			return domain.Invite{}, ErrInvalidInviteRequest
		}
		expiresAt = p.ExpiresAt
	default:
		ttl := s.DefaultTTL
		if ttl <= 0 {
			ttl = DefaultInviteTTL
		}
		e := now.Add(ttl)
		expiresAt = &e
	}

	// 4. Generate the random token. The raw value is the external handle
	// embedded in the registration link.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return domain.Invite{}, err
	}

	invite := domain.Invite{
		ID:        idx.New().String(),
		Token:     token,
		Kind:      p.Kind,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Metadata:  p.Metadata,
	}

	// 5. Store invite and satellite atomically.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Invites().CreateInvite(ctx, invite); err != nil {
			return err
		}
		if p.Details != nil {
			if err := tx.Invites().CreateDetails(ctx, invite.ID, p.Details); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to store invite",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
		return domain.Invite{}, err
	}

	log.Debug("invite minted",
		slog.String("invite_id", invite.ID),
		slog.String("kind", string(p.Kind)),
	)

	return invite, nil
}

func (s *InviteService) validateDetails(ctx context.Context, details domain.InviteDetails) error {
	log := slogx.FromContext(ctx)

	switch d := details.(type) {
	case nil:
		return nil
	case domain.OrganizationRegistrationDetails:
		if !d.OrganizationType.Valid() {
			return ErrInvalidInviteRequest
		}
	case domain.OrganizationEmployeeDetails:
		if !d.Role.Valid() {
			return ErrInvalidInviteRequest
		}
		if _, err := s.Store.Organizations().GetOrganizationByID(ctx, d.OrganizationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("employee invite references unknown organization",
					slog.String("organization_id", d.OrganizationID),
				)
				return ErrInvalidInviteRequest
			}
			return err
		}
	case domain.OrganizationClientDetails:
		if _, err := s.Store.Organizations().GetOrganizationByID(ctx, d.OrganizationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidInviteRequest
			}
			return err
		}
		if _, err := s.Store.PatientCards().GetPatientCardByID(ctx, d.PatientCardID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("client invite references unknown patient card",
					slog.String("patient_card_id", d.PatientCardID),
				)
				return ErrInvalidInviteRequest
			}
			return err
		}
		if d.DiaryID != "" {
			if _, err := s.Store.Diaries().GetDiaryByID(ctx, d.DiaryID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrInvalidInviteRequest
				}
				return err
			}
		}
	case domain.CaregiverClientDetails:
		if _, err := s.Store.Caregivers().GetCaregiverByID(ctx, d.CaregiverID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidInviteRequest
			}
			return err
		}
	}
	return nil
}

// ValidateInvite looks an invite up by its raw token and checks it is still
// redeemable. Consumed states are reported with distinct errors so callers
// can tell a stale link from a revoked one; revoked wins over used, used
// wins over expired.
func (s *InviteService) ValidateInvite(ctx context.Context, token string) (domain.RedeemableInvite, error) {
	log := slogx.FromContext(ctx)

	if token == "" {
		return domain.RedeemableInvite{}, ErrInvalidInviteRequest
	}

	// 1. Lookup by exact token match.
	invite, err := s.Store.Invites().GetInviteByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("validation attempted with unknown invite token")
			return domain.RedeemableInvite{}, ErrInviteNotFound
		}
		log.Error("failed to fetch invite", slog.Any("error", err))
		return domain.RedeemableInvite{}, err
	}

	// 2. Consumed-state precedence: revoked > used > expired.
	switch {
	case invite.RevokedAt != nil:
		return domain.RedeemableInvite{}, ErrInviteRevoked
	case invite.UsedAt != nil:
		return domain.RedeemableInvite{}, ErrInviteAlreadyUsed
	case invite.ExpiresAt != nil && !invite.ExpiresAt.After(time.Now().UTC()):
		return domain.RedeemableInvite{}, ErrInviteExpired
	}

	// 3. Static admin tokens are never redeemed through registration.
	if invite.Kind == domain.KindAdminStatic {
		return domain.RedeemableInvite{}, ErrUnsupportedInviteKind
	}
	if !invite.Kind.Valid() {
		return domain.RedeemableInvite{}, ErrUnsupportedInviteKind
	}

	// 4. Load the satellite row. A redeemable invite without one is data
	// corruption, not user error.
	details, err := s.Store.Invites().GetDetails(ctx, invite.ID, invite.Kind)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Error("invite has no detail record",
				slog.String("invite_id", invite.ID),
				slog.String("kind", string(invite.Kind)),
			)
			return domain.RedeemableInvite{}, ErrCorruptInvite
		}
		log.Error("failed to fetch invite details", slog.Any("error", err))
		return domain.RedeemableInvite{}, err
	}

	return domain.RedeemableInvite{
		ID:       invite.ID,
		Token:    invite.Token,
		Kind:     invite.Kind,
		Metadata: invite.Metadata,
		Details:  details,
	}, nil
}

// RevokeInvite withdraws an unused invite. Already-consumed invites report
// their state instead of revoking twice.
func (s *InviteService) RevokeInvite(ctx context.Context, inviteID string) error {
	log := slogx.FromContext(ctx)

	invite, err := s.Store.Invites().GetInviteByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}

	switch {
	case invite.RevokedAt != nil:
		return ErrInviteRevoked
	case invite.UsedAt != nil:
		return ErrInviteAlreadyUsed
	}

	if err := s.Store.Invites().RevokeInvite(ctx, inviteID); err != nil {
		if errors.Is(err, store.ErrAlreadyConsumed) {
			// Lost a race with a redemption or another revoke.
			return ErrInviteAlreadyUsed
		}
		log.Error("failed to revoke invite",
			slog.String("invite_id", inviteID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invite revoked", slog.String("invite_id", inviteID))
	return nil
}

// DeleteInvite hard-deletes an unused invite and its satellite row. Used
// invites are kept: they are the audit record of a provisioning run.
func (s *InviteService) DeleteInvite(ctx context.Context, inviteID string) error {
	log := slogx.FromContext(ctx)

	invite, err := s.Store.Invites().GetInviteByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}
	if invite.UsedAt != nil {
		return ErrInviteAlreadyUsed
	}

	if err := s.Store.Invites().DeleteInvite(ctx, inviteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteAlreadyUsed
		}
		log.Error("failed to delete invite",
			slog.String("invite_id", inviteID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invite deleted", slog.String("invite_id", inviteID))
	return nil
}
