// internal/tenant/repository.go
//
// Tenants-table query helpers.
//
// Context
// -------
// Read side serves the resolver on every request (no caching layer; the
// row-store’s own index on `subdomain` is what keeps this fast).  Write
// side serves registration and the billing reconciler.  All mutations are
// plain overwrites, so replaying a webhook re-applies the same final state.
//
// Notes
// -----
//   • Errors are returned verbatim; callers decide between redirect,
//     HTTP status, or log-only handling.
//   • Column list matches `Record`; update both together.
package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a subdomain has no row in `tenants`.
var ErrNotFound = errors.New("tenant not found")

const columns = `id, name, subdomain, status, subscription_tier,
               max_users, max_projects, max_storage_gb,
               trial_ends_at, admin_user_id, created_at, updated_at`

// BySubdomain fetches the tenant row for an exact subdomain match.  The
// caller supplies a context so the lookup respects request deadlines.
func BySubdomain(ctx context.Context, db *sqlx.DB, subdomain string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   tenants
        WHERE  subdomain = ?
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, subdomain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ByID fetches a tenant row by primary key.
func ByID(ctx context.Context, db *sqlx.DB, id string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   tenants
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

// Insert creates a tenant row.  Registration is the only caller; it fills
// every column except the timestamps, which default at SQL level.
func Insert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO tenants
               (id, name, subdomain, status, subscription_tier,
                max_users, max_projects, max_storage_gb,
                trial_ends_at, admin_user_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		rec.ID, rec.Name, rec.Subdomain, rec.Status, rec.Tier,
		rec.MaxUsers, rec.MaxProjects, rec.MaxStorageGB,
		rec.TrialEndsAt, rec.AdminUserID)
	return err
}

// Delete removes a tenant row.  Used only by registration rollback; the
// serving flows never hard-delete.
func Delete(ctx context.Context, db *sqlx.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	return err
}

// UpdateTier overwrites tier and ceilings only, leaving status untouched.
// The subscription-deleted downgrade uses this: losing a paid plan does not
// suspend the tenant.
func UpdateTier(ctx context.Context, db *sqlx.DB, id, tier string, maxUsers, maxProjects, maxStorageGB int) error {
	const q = `
        UPDATE tenants
        SET    subscription_tier = ?,
               max_users         = ?,
               max_projects      = ?,
               max_storage_gb    = ?
        WHERE  id = ?`
	_, err := db.ExecContext(ctx, q, tier, maxUsers, maxProjects, maxStorageGB, id)
	return err
}

// UpdatePlan overwrites the denormalised billing facts on a tenant row:
// tier, status, and the three ceilings.  A pure overwrite, safe to replay.
func UpdatePlan(ctx context.Context, db *sqlx.DB, id, tier, status string, maxUsers, maxProjects, maxStorageGB int) error {
	const q = `
        UPDATE tenants
        SET    subscription_tier = ?,
               status            = ?,
               max_users         = ?,
               max_projects      = ?,
               max_storage_gb    = ?
        WHERE  id = ?`
	_, err := db.ExecContext(ctx, q, tier, status, maxUsers, maxProjects, maxStorageGB, id)
	return err
}
