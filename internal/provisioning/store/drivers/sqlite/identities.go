package sqlite

import (
	"context"
	"database/sql"

	"github.com/carelog/carediary/internal/provisioning/domain"
)

type identitiesRepo struct {
	db dbtx
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, id domain.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (id, email, phone, password_hash, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.ID, id.Email, mapStringNull(id.Phone), id.PasswordHash,
		encodeMetadata(id.Metadata), id.CreatedAt, id.UpdatedAt,
	)
	return mapConflict(err)
}

const selectIdentity = `
	SELECT id, email, phone, password_hash, metadata, created_at, updated_at
	FROM identities`

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, selectIdentity+` WHERE id = ?`, id)
	return scanIdentity(row)
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, selectIdentity+` WHERE email = ?`, email)
	return scanIdentity(row)
}

func scanIdentity(row interface{ Scan(...any) error }) (domain.Identity, error) {
	var (
		id       domain.Identity
		phone    sql.NullString
		metadata string
	)
	err := row.Scan(&id.ID, &id.Email, &phone, &id.PasswordHash,
		&metadata, &id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	id.Phone = mapNullString(phone)
	id.Metadata = decodeMetadata(metadata)
	return id, nil
}
