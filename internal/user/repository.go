// internal/user/repository.go
//
// Users-table query helpers.  Thin parameterised queries; callers wrap the
// results in their own handling.  Errors return verbatim except for the
// ErrNotFound translation on single-row lookups.
package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no user row matches the lookup.
var ErrNotFound = errors.New("user not found")

const columns = `id, tenant_id, name, email, role, status, password_hash,
               created_at, updated_at`

// ByID fetches a user row by primary key.
func ByID(ctx context.Context, db *sqlx.DB, id string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   users
        WHERE  id = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ByEmail fetches a user row by email address.  Email is globally unique
// across tenants (it doubles as the login identifier).
func ByEmail(ctx context.Context, db *sqlx.DB, email string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   users
        WHERE  email = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Insert creates a user row.
func Insert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO users
               (id, tenant_id, name, email, role, status, password_hash)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		rec.ID, rec.TenantID, rec.Name, rec.Email, rec.Role, rec.Status, rec.PasswordHash)
	return err
}

// Delete removes a user row.  Registration rollback is the only caller.
func Delete(ctx context.Context, db *sqlx.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// CountByTenant returns the number of active users in a tenant, for the
// usage-vs-ceiling report.
func CountByTenant(ctx context.Context, db *sqlx.DB, tenantID string) (int, error) {
	const q = `SELECT COUNT(*) FROM users WHERE tenant_id = ? AND status = 'active'`
	var n int
	if err := db.GetContext(ctx, &n, q, tenantID); err != nil {
		return 0, err
	}
	return n, nil
}
