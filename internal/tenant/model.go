// internal/tenant/model.go
//
// Tenant row model and status/tier vocabulary.
//
// Context
// -------
// One row in `tenants` identifies a customer organisation.  The subdomain
// is the routing key: registration lower-cases and validates it, and the
// resolver matches it exactly (case-sensitive) on every request.  The
// subscription tier and the three ceilings are denormalised copies of
// whatever the billing reconciler last applied; they must never be edited
// by hand outside an admin tool.
//
// Notes
// -----
//   • Column list matches the `db:` tags; update both together.
//   • Tenants are never hard-deleted by application code.  Lifecycle ends
//     at `cancelled` or `suspended`.
package tenant

import "time"

// Tenant status values.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
)

// Subscription tiers.  TierFree is both the registration default and the
// downgrade target when a subscription is deleted.
const (
	TierFree         = "free"
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

// DefaultSubdomain is the reserved sentinel used when the request host
// carries no real subdomain (bare apex domain or plain localhost).  A row
// with this subdomain must be seeded in any environment that wants
// non-subdomain access to work; that is a deployment concern, not resolver
// logic.
const DefaultSubdomain = "legacy"

// Record mirrors one row in the persistent `tenants` table.  This is the
// single snake_case mapping point for the entity; nothing else in the
// codebase spells these column names.
type Record struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Subdomain    string     `db:"subdomain"`
	Status       string     `db:"status"`
	Tier         string     `db:"subscription_tier"`
	MaxUsers     int        `db:"max_users"`
	MaxProjects  int        `db:"max_projects"`
	MaxStorageGB int        `db:"max_storage_gb"`
	TrialEndsAt  *time.Time `db:"trial_ends_at"`
	AdminUserID  string     `db:"admin_user_id"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Serveable reports whether requests for this tenant should be served at
// all.  Suspended and cancelled tenants are redirected to the suspended
// page for every route, public or not.
func (r *Record) Serveable() bool {
	return r.Status != StatusSuspended && r.Status != StatusCancelled
}
