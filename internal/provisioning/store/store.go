package store

import (
	"context"
	"errors"

	"github.com/carelog/carediary/internal/provisioning/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrAlreadyConsumed reports that a conditional consume/revoke lost the
	// race: the invite was already used or revoked by another request.
	ErrAlreadyConsumed = errors.New("store: invite already consumed")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Invites() Invites
	Identities() Identities
	Profiles() Profiles
	Employees() Employees
	Clients() Clients
	Organizations() Organizations
	Caregivers() Caregivers
	PatientCards() PatientCards
	Diaries() Diaries
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and rolling
	// back on error. Preferred over Tx for multi-step operations that must
	// be atomic (domain inserts + mark-used).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Invites interface {
	// CreateInvite inserts the invite_tokens row. The raw token is stored:
	// it is the external lookup handle for the registration link.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// CreateDetails inserts the kind-specific satellite row for an invite.
	CreateDetails(ctx context.Context, inviteID string, details domain.InviteDetails) error

	// GetInviteByToken looks an invite up by exact token match.
	GetInviteByToken(ctx context.Context, token string) (domain.Invite, error)

	GetInviteByID(ctx context.Context, id string) (domain.Invite, error)

	// GetDetails loads the satellite row matching the invite's kind.
	// ErrNotFound here signals a corrupt invite, not user error.
	GetDetails(ctx context.Context, inviteID string, kind domain.InviteKind) (domain.InviteDetails, error)

	// MarkInviteUsed flips the token to consumed. It is a conditional
	// update guarded on used_at/revoked_at being NULL; losing the race
	// returns ErrAlreadyConsumed. This is the single concurrency guard for
	// redemption.
	MarkInviteUsed(ctx context.Context, inviteID, identityID string) error

	// RevokeInvite sets revoked_at on an unused invite.
	RevokeInvite(ctx context.Context, inviteID string) error

	// DeleteInvite hard-deletes an unused invite; satellites cascade.
	DeleteInvite(ctx context.Context, inviteID string) error

	// RecordRedemptionHints back-fills the satellite row with the
	// registrant's normalized phone and display name. Best effort.
	RecordRedemptionHints(ctx context.Context, inviteID string, kind domain.InviteKind, phone, name string) error

	// DeleteExpiredInvites removes expired unused invites (housekeeping).
	DeleteExpiredInvites(ctx context.Context) error
}

type Identities interface {
	// CreateIdentity inserts a new identity. Returns ErrAlreadyExists when
	// the email (the login handle) is taken.
	CreateIdentity(ctx context.Context, id domain.Identity) error

	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)

	// GetIdentityByEmail is the sign-in lookup (pseudo or real email).
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)
}

type Profiles interface {
	// CreateProfile inserts the user_profiles row. Idempotent: an existing
	// row for the same user_id is left untouched and treated as success.
	CreateProfile(ctx context.Context, p domain.Profile) error

	GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error)
}

type Employees interface {
	// CreateEmployee inserts an employee record keyed unique by user_id and
	// returns the stored row. A pre-existing row for the same user_id is
	// returned as-is (idempotent retry after a crashed provisioning run).
	CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error)

	GetEmployeeByUserID(ctx context.Context, userID string) (domain.Employee, error)
}

type Clients interface {
	// CreateClient inserts a client record keyed unique by user_id and
	// returns the stored row; same idempotency contract as CreateEmployee.
	CreateClient(ctx context.Context, c domain.Client) (domain.Client, error)

	GetClientByUserID(ctx context.Context, userID string) (domain.Client, error)
}

type Organizations interface {
	CreateOrganization(ctx context.Context, o domain.Organization) error
	GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error)
}

type Caregivers interface {
	CreateCaregiver(ctx context.Context, c domain.Caregiver) error
	GetCaregiverByID(ctx context.Context, id string) (domain.Caregiver, error)
}

type PatientCards interface {
	CreatePatientCard(ctx context.Context, p domain.PatientCard) error
	GetPatientCardByID(ctx context.Context, id string) (domain.PatientCard, error)

	// AssignClient sets the card's owning client. ErrNotFound when the card
	// does not exist: the caller must treat that as a provisioning failure,
	// never as success.
	AssignClient(ctx context.Context, cardID, clientID string) error
}

type Diaries interface {
	CreateDiary(ctx context.Context, d domain.Diary) error
	GetDiaryByID(ctx context.Context, id string) (domain.Diary, error)

	// AssignOwner sets the diary's owning client. ErrNotFound when the
	// diary does not exist.
	AssignOwner(ctx context.Context, diaryID, clientID string) error

	// UpsertClientLink creates or replaces the one link row per diary.
	UpsertClientLink(ctx context.Context, link domain.DiaryClientLink) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, hash string) error
	DeleteExpiredRefreshTokens(ctx context.Context) error
}
