// internal/auth/context.go
//
// Request-context helpers for the authenticated user id.
//
// Usage
// -----
//     // Attach the user after the session cookie verifies.
//     ctx = auth.WithUser(ctx, "8f14e45f-…")
//
//     // Downstream code retrieves the id.
//     id, ok := auth.UserID(ctx)
//
// Notes
// -----
// • Stores the row id (uuid string) directly in context.  You may swap this
//   for a richer struct once profile data is needed downstream.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying the given userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID extracts the userID from ctx.  It returns ("", false) if no user is
// set or if the stored value is not a string.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userKey{})
	id, ok := v.(string)
	if id == "" {
		return "", false
	}
	return id, ok
}
