// internal/acl/store.go
//
// Small query helpers for role-based access control.
//
// Context
// -------
// Tally's access model is deliberately flat: every user row carries one
// `role` column (`admin` or `user`), scoped to its tenant.  There are no
// role or permission tables; middleware needs exactly one fast answer:
//
//	Which role does user X have inside tenant T?   → `UserRole()`
//
// The tenant id is part of the lookup so a stolen session cookie from one
// tenant can never exercise a role inside another.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package acl

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNoRole is returned when the user has no active row inside the tenant.
var ErrNoRole = errors.New("user has no role in tenant")

// UserRole returns the role name bound to userID inside tenantID.
// Disabled users are filtered out.
func UserRole(ctx context.Context, db *sql.DB, userID, tenantID string) (string, error) {
	const q = `SELECT role
                 FROM users
                WHERE id = ? AND tenant_id = ? AND status = 'active'`

	var role string
	err := db.QueryRowContext(ctx, q, userID, tenantID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRole
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
