package database

import (
	"context"

	"github.com/google/uuid"
)

const staffColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

func scanStaff(row interface{ Scan(...interface{}) error }) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const createStaff = `
INSERT INTO staff (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + staffColumns

type CreateStaffParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, createStaff, arg.Name, arg.Email, arg.PasswordHash, arg.Role)
	return scanStaff(row)
}

const getStaff = `
SELECT ` + staffColumns + `
FROM staff
WHERE id = $1`

func (q *Queries) GetStaff(ctx context.Context, id uuid.UUID) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaff, id))
}

const getStaffByEmail = `
SELECT ` + staffColumns + `
FROM staff
WHERE email = $1 AND is_active = true`

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaffByEmail, email))
}
