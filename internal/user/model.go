// internal/user/model.go
//
// User-profile row model.
//
// Context
// -------
// One row in `users` per person, scoped to a tenant.  The bcrypt password
// hash lives on the same row (the auth side and the profile side of the
// original split schema are folded together here); the role column drives
// the ACL middleware.
package user

import "time"

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Record mirrors one row in `users`.  Single snake_case mapping point.
type Record struct {
	ID           string    `db:"id"`
	TenantID     string    `db:"tenant_id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	Status       string    `db:"status"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
