package sqlite

import (
	"context"
	"database/sql"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/store"
)

type organizationsRepo struct {
	db dbtx
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, org_type, created_at)
		VALUES (?, ?, ?, ?)`,
		o.ID, o.Name, string(o.Type), o.CreatedAt,
	)
	return mapConflict(err)
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var (
		o       domain.Organization
		orgType string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, org_type, created_at
		FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Name, &orgType, &o.CreatedAt)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	o.Type = domain.OrganizationType(orgType)
	return o, nil
}

type caregiversRepo struct {
	db dbtx
}

func (r *caregiversRepo) CreateCaregiver(ctx context.Context, c domain.Caregiver) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO caregivers (id, display_name, phone, created_at)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.DisplayName, mapStringNull(c.Phone), c.CreatedAt,
	)
	return mapConflict(err)
}

func (r *caregiversRepo) GetCaregiverByID(ctx context.Context, id string) (domain.Caregiver, error) {
	var (
		c     domain.Caregiver
		phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, display_name, phone, created_at
		FROM caregivers WHERE id = ?`, id,
	).Scan(&c.ID, &c.DisplayName, &phone, &c.CreatedAt)
	if err != nil {
		return domain.Caregiver{}, mapNotFound(err)
	}
	c.Phone = mapNullString(phone)
	return c, nil
}

type patientCardsRepo struct {
	db dbtx
}

func (r *patientCardsRepo) CreatePatientCard(ctx context.Context, p domain.PatientCard) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patient_cards (id, organization_id, caregiver_id, client_id, full_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, mapStringNull(p.OrganizationID), mapStringNull(p.CaregiverID),
		mapStringNull(p.ClientID), p.FullName, p.CreatedAt,
	)
	return mapConflict(err)
}

func (r *patientCardsRepo) GetPatientCardByID(ctx context.Context, id string) (domain.PatientCard, error) {
	var (
		p      domain.PatientCard
		orgID  sql.NullString
		cgID   sql.NullString
		client sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, caregiver_id, client_id, full_name, created_at
		FROM patient_cards WHERE id = ?`, id,
	).Scan(&p.ID, &orgID, &cgID, &client, &p.FullName, &p.CreatedAt)
	if err != nil {
		return domain.PatientCard{}, mapNotFound(err)
	}
	p.OrganizationID = mapNullString(orgID)
	p.CaregiverID = mapNullString(cgID)
	p.ClientID = mapNullString(client)
	return p, nil
}

// AssignClient returns store.ErrNotFound when zero rows change: a client
// invite that names a vanished card must fail the whole provisioning run.
func (r *patientCardsRepo) AssignClient(ctx context.Context, cardID, clientID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patient_cards SET client_id = ? WHERE id = ?`,
		clientID, cardID,
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

type diariesRepo struct {
	db dbtx
}

func (r *diariesRepo) CreateDiary(ctx context.Context, d domain.Diary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO diaries (id, patient_card_id, owner_client_id, title, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.PatientCardID, mapStringNull(d.OwnerClientID), d.Title, d.CreatedAt,
	)
	return mapConflict(err)
}

func (r *diariesRepo) GetDiaryByID(ctx context.Context, id string) (domain.Diary, error) {
	var (
		d     domain.Diary
		owner sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, patient_card_id, owner_client_id, title, created_at
		FROM diaries WHERE id = ?`, id,
	).Scan(&d.ID, &d.PatientCardID, &owner, &d.Title, &d.CreatedAt)
	if err != nil {
		return domain.Diary{}, mapNotFound(err)
	}
	d.OwnerClientID = mapNullString(owner)
	return d, nil
}

func (r *diariesRepo) AssignOwner(ctx context.Context, diaryID, clientID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE diaries SET owner_client_id = ? WHERE id = ?`,
		clientID, diaryID,
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

func (r *diariesRepo) UpsertClientLink(ctx context.Context, link domain.DiaryClientLink) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO diary_client_links (diary_id, client_id, accepted_by, accepted_at, token)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (diary_id) DO UPDATE SET
			client_id   = excluded.client_id,
			accepted_by = excluded.accepted_by,
			accepted_at = excluded.accepted_at,
			token       = excluded.token`,
		link.DiaryID, link.ClientID, link.AcceptedBy, link.AcceptedAt, link.Token,
	)
	return err
}
