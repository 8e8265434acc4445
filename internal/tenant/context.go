// context.go stores the resolved tenant in the request context so handlers
// and middleware further down the chain (ACL, billing, stats) can read it
// without re-querying.
package tenant

import "context"

// ctxKey is unexported to avoid context-key collisions.
type ctxKey struct{}

// WithTenant returns a new context carrying the resolved tenant row.
func WithTenant(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, ctxKey{}, rec)
}

// FromContext returns the tenant stored by the resolver, or nil when the
// resolver has not run (or resolution failed on a public route).
func FromContext(ctx context.Context) *Record {
	rec, _ := ctx.Value(ctxKey{}).(*Record)
	return rec
}
