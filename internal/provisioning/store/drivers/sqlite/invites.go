package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
)

type invitesRepo struct {
	db dbtx
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invite_tokens (id, token, invite_type, metadata, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Token, string(inv.Kind), encodeMetadata(inv.Metadata),
		inv.CreatedAt, mapOptionalTime(inv.ExpiresAt),
	)
	return mapConflict(err)
}

func (r *invitesRepo) CreateDetails(ctx context.Context, inviteID string, details domain.InviteDetails) error {
	switch d := details.(type) {
	case domain.OrganizationRegistrationDetails:
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO organization_registration_invites (invite_id, organization_type, invited_email, invited_name)
			VALUES (?, ?, ?, ?)`,
			inviteID, string(d.OrganizationType), mapStringNull(d.InvitedEmail), mapStringNull(d.InvitedName),
		)
		return mapConflict(err)
	case domain.OrganizationEmployeeDetails:
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO organization_employee_invites (invite_id, organization_id, role)
			VALUES (?, ?, ?)`,
			inviteID, d.OrganizationID, string(d.Role),
		)
		return mapConflict(err)
	case domain.OrganizationClientDetails:
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO organization_client_invites (invite_id, organization_id, patient_card_id, diary_id, invited_phone, invited_name)
			VALUES (?, ?, ?, ?, ?, ?)`,
			inviteID, d.OrganizationID, d.PatientCardID,
			mapStringNull(d.DiaryID), mapStringNull(d.InvitedPhone), mapStringNull(d.InvitedName),
		)
		return mapConflict(err)
	case domain.CaregiverClientDetails:
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO caregiver_client_invites (invite_id, caregiver_id, invited_phone, invited_name)
			VALUES (?, ?, ?, ?)`,
			inviteID, d.CaregiverID, mapStringNull(d.InvitedPhone), mapStringNull(d.InvitedName),
		)
		return mapConflict(err)
	default:
		return fmt.Errorf("sqlite: unknown invite details type %T", details)
	}
}

const selectInvite = `
	SELECT id, token, invite_type, metadata, created_at, expires_at, used_at, used_by, revoked_at
	FROM invite_tokens`

func (r *invitesRepo) GetInviteByToken(ctx context.Context, token string) (domain.Invite, error) {
	row := r.db.QueryRowContext(ctx, selectInvite+` WHERE token = ?`, token)
	return scanInvite(row)
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	row := r.db.QueryRowContext(ctx, selectInvite+` WHERE id = ?`, id)
	return scanInvite(row)
}

func (r *invitesRepo) GetDetails(ctx context.Context, inviteID string, kind domain.InviteKind) (domain.InviteDetails, error) {
	switch kind {
	case domain.KindOrganizationRegistration:
		var d domain.OrganizationRegistrationDetails
		var orgType string
		var email, name sql.NullString
		err := r.db.QueryRowContext(ctx, `
			SELECT organization_type, invited_email, invited_name
			FROM organization_registration_invites WHERE invite_id = ?`, inviteID,
		).Scan(&orgType, &email, &name)
		if err != nil {
			return nil, mapNotFound(err)
		}
		d.OrganizationType = domain.OrganizationType(orgType)
		d.InvitedEmail = mapNullString(email)
		d.InvitedName = mapNullString(name)
		return d, nil

	case domain.KindOrganizationEmployee:
		var d domain.OrganizationEmployeeDetails
		var role string
		err := r.db.QueryRowContext(ctx, `
			SELECT organization_id, role
			FROM organization_employee_invites WHERE invite_id = ?`, inviteID,
		).Scan(&d.OrganizationID, &role)
		if err != nil {
			return nil, mapNotFound(err)
		}
		d.Role = domain.EmployeeRole(role)
		return d, nil

	case domain.KindOrganizationClient:
		var d domain.OrganizationClientDetails
		var diaryID, phone, name sql.NullString
		err := r.db.QueryRowContext(ctx, `
			SELECT organization_id, patient_card_id, diary_id, invited_phone, invited_name
			FROM organization_client_invites WHERE invite_id = ?`, inviteID,
		).Scan(&d.OrganizationID, &d.PatientCardID, &diaryID, &phone, &name)
		if err != nil {
			return nil, mapNotFound(err)
		}
		d.DiaryID = mapNullString(diaryID)
		d.InvitedPhone = mapNullString(phone)
		d.InvitedName = mapNullString(name)
		return d, nil

	case domain.KindCaregiverClient:
		var d domain.CaregiverClientDetails
		var phone, name sql.NullString
		err := r.db.QueryRowContext(ctx, `
			SELECT caregiver_id, invited_phone, invited_name
			FROM caregiver_client_invites WHERE invite_id = ?`, inviteID,
		).Scan(&d.CaregiverID, &phone, &name)
		if err != nil {
			return nil, mapNotFound(err)
		}
		d.InvitedPhone = mapNullString(phone)
		d.InvitedName = mapNullString(name)
		return d, nil

	default:
		return nil, fmt.Errorf("sqlite: invite kind %q has no detail table", kind)
	}
}

// MarkInviteUsed is the single concurrency guard for redemption: the UPDATE
// only lands if the token is still unused and unrevoked, so of two racing
// transactions exactly one sees RowsAffected == 1.
func (r *invitesRepo) MarkInviteUsed(ctx context.Context, inviteID, identityID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invite_tokens
		SET used_at = ?, used_by = ?
		WHERE id = ? AND used_at IS NULL AND revoked_at IS NULL`,
		time.Now().UTC(), identityID, inviteID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyConsumed
	}
	return nil
}

func (r *invitesRepo) RevokeInvite(ctx context.Context, inviteID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invite_tokens
		SET revoked_at = ?
		WHERE id = ? AND used_at IS NULL AND revoked_at IS NULL`,
		time.Now().UTC(), inviteID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyConsumed
	}
	return nil
}

func (r *invitesRepo) DeleteInvite(ctx context.Context, inviteID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM invite_tokens
		WHERE id = ? AND used_at IS NULL`,
		inviteID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitesRepo) RecordRedemptionHints(ctx context.Context, inviteID string, kind domain.InviteKind, phone, name string) error {
	var table string
	switch kind {
	case domain.KindOrganizationClient:
		table = "organization_client_invites"
	case domain.KindCaregiverClient:
		table = "caregiver_client_invites"
	default:
		return nil // other kinds carry no phone/name hints
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET invited_phone = COALESCE(invited_phone, ?),
		    invited_name  = COALESCE(invited_name, ?)
		WHERE invite_id = ?`,
		mapStringNull(phone), mapStringNull(name), inviteID,
	)
	return err
}

func (r *invitesRepo) DeleteExpiredInvites(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM invite_tokens
		WHERE used_at IS NULL
		  AND expires_at IS NOT NULL
		  AND expires_at <= ?`,
		time.Now().UTC(),
	)
	return err
}

func scanInvite(row interface{ Scan(...any) error }) (domain.Invite, error) {
	var (
		inv      domain.Invite
		kind     string
		metadata string
		expires  sql.NullTime
		used     sql.NullTime
		usedBy   sql.NullString
		revoked  sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.Token, &kind, &metadata,
		&inv.CreatedAt, &expires, &used, &usedBy, &revoked)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	inv.Kind = domain.InviteKind(kind)
	inv.Metadata = decodeMetadata(metadata)
	inv.ExpiresAt = mapNullTimePtr(expires)
	inv.UsedAt = mapNullTimePtr(used)
	inv.UsedBy = mapNullString(usedBy)
	inv.RevokedAt = mapNullTimePtr(revoked)
	return inv, nil
}
