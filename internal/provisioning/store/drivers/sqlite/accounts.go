package sqlite

import (
	"context"
	"database/sql"

	"github.com/carelog/carediary/internal/provisioning/domain"
)

type profilesRepo struct {
	db dbtx
}

// CreateProfile is idempotent on user_id: a retried provisioning run after a
// crash finds the row already present and moves on.
func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, role, organization_id, client_id, phone, source_invite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, string(p.Role), mapStringNull(p.OrganizationID), mapStringNull(p.ClientID),
		mapStringNull(p.Phone), mapStringNull(p.SourceInvite), p.CreatedAt,
	)
	return err
}

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	var (
		p      domain.Profile
		role   string
		orgID  sql.NullString
		client sql.NullString
		phone  sql.NullString
		src    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, role, organization_id, client_id, phone, source_invite, created_at
		FROM user_profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &role, &orgID, &client, &phone, &src, &p.CreatedAt)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	p.Role = domain.ProfileRole(role)
	p.OrganizationID = mapNullString(orgID)
	p.ClientID = mapNullString(client)
	p.Phone = mapNullString(phone)
	p.SourceInvite = mapNullString(src)
	return p, nil
}

type employeesRepo struct {
	db dbtx
}

// CreateEmployee inserts keyed unique on user_id and reads the row back, so
// a retry lands on the original record instead of failing or duplicating.
func (r *employeesRepo) CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organization_employees (id, user_id, organization_id, role, phone, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		e.ID, e.UserID, e.OrganizationID, string(e.Role),
		mapStringNull(e.Phone), mapStringNull(e.FirstName), mapStringNull(e.LastName), e.CreatedAt,
	)
	if err != nil {
		return domain.Employee{}, err
	}
	return r.GetEmployeeByUserID(ctx, e.UserID)
}

func (r *employeesRepo) GetEmployeeByUserID(ctx context.Context, userID string) (domain.Employee, error) {
	var (
		e     domain.Employee
		role  string
		phone sql.NullString
		first sql.NullString
		last  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, organization_id, role, phone, first_name, last_name, created_at
		FROM organization_employees WHERE user_id = ?`, userID,
	).Scan(&e.ID, &e.UserID, &e.OrganizationID, &role, &phone, &first, &last, &e.CreatedAt)
	if err != nil {
		return domain.Employee{}, mapNotFound(err)
	}
	e.Role = domain.EmployeeRole(role)
	e.Phone = mapNullString(phone)
	e.FirstName = mapNullString(first)
	e.LastName = mapNullString(last)
	return e, nil
}

type clientsRepo struct {
	db dbtx
}

// CreateClient has the same idempotency contract as CreateEmployee.
func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, user_id, invited_by_organization_id, invited_by_caregiver_id, phone, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		c.ID, c.UserID, mapStringNull(c.InvitedByOrganizationID), mapStringNull(c.InvitedByCaregiverID),
		mapStringNull(c.Phone), mapStringNull(c.FirstName), mapStringNull(c.LastName), c.CreatedAt,
	)
	if err != nil {
		return domain.Client{}, err
	}
	return r.GetClientByUserID(ctx, c.UserID)
}

func (r *clientsRepo) GetClientByUserID(ctx context.Context, userID string) (domain.Client, error) {
	var (
		c     domain.Client
		orgID sql.NullString
		cgID  sql.NullString
		phone sql.NullString
		first sql.NullString
		last  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, invited_by_organization_id, invited_by_caregiver_id, phone, first_name, last_name, created_at
		FROM clients WHERE user_id = ?`, userID,
	).Scan(&c.ID, &c.UserID, &orgID, &cgID, &phone, &first, &last, &c.CreatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.InvitedByOrganizationID = mapNullString(orgID)
	c.InvitedByCaregiverID = mapNullString(cgID)
	c.Phone = mapNullString(phone)
	c.FirstName = mapNullString(first)
	c.LastName = mapNullString(last)
	return c, nil
}
