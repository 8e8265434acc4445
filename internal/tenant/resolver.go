// internal/tenant/resolver.go
//
// Request middleware: hostname → tenant identity.
//
/*
Context
--------
Runs once per request, synchronously, after the security-header and
request-info middleware.  Order of checks:

 1. Session gate.  No authenticated session + private route → /login.
    The session check always precedes tenant logic.
 2. Subdomain extraction (SubdomainFromHost).
 3. Tenant lookup by exact subdomain match.  Public routes still attempt
    resolution (to set the cookies) but never block on failure.
 4. Status check.  Suspended or cancelled → /suspended for ALL routes.
 5. On success: two readable (non-HttpOnly) cookies, `tenant_id` and
    `tenant_subdomain`, scoped to path “/”, SameSite=Lax, Secure over
    TLS, so client-side code can read tenant identity without a further
    round trip.  The tenant row and user id are also attached to the
    request context for handlers.

Failure semantics: ANY lookup error on a private route collapses to the
not-found redirect.  Failing closed here means a backend outage can not
leak access.

Notes
-----
  • No caching, no retries.  Every request re-queries the tenants table;
    the row-store’s subdomain index is the collaborator’s job.
  • Oxford commas, two spaces after periods.
*/
package tenant

import (
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/metrics"
	"github.com/tallyhq/tally/internal/session"
)

// Redirect targets issued by the resolver.
const (
	LoginPath     = "/login"
	NotFoundPath  = "/tenant-not-found"
	SuspendedPath = "/suspended"
)

// publicPaths never require a session or a resolved tenant.  The two
// dedicated error pages are included so their own requests cannot loop.
var publicPaths = map[string]struct{}{
	"/":             {},
	"/login":        {},
	"/register":     {},
	"/api/login":    {},
	"/api/register": {},
	NotFoundPath:    {},
	SuspendedPath:   {},
}

// IsPublic reports whether path is on the explicit public allow-list.
func IsPublic(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// Resolver maps inbound hostnames to tenant rows.
type Resolver struct {
	db *sqlx.DB
}

// NewResolver builds a Resolver over the control-plane pool.
func NewResolver(db *sqlx.DB) *Resolver {
	return &Resolver{db: db}
}

// Middleware wires the resolver into a chi chain.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		public := IsPublic(r.URL.Path)

		// 1. Session gate.  Precedes all tenant logic.
		userID, loggedIn := session.CurrentUserID(r)
		if !loggedIn && !public {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		if loggedIn {
			r = r.WithContext(auth.WithUser(r.Context(), userID))
		}

		// 2–3. Subdomain extraction and lookup.
		sub := SubdomainFromHost(r.Host)
		rec, err := BySubdomain(r.Context(), rv.db, sub)
		if err != nil {
			metrics.TenantResolveErrorsTotal.Inc()
			if !errors.Is(err, ErrNotFound) {
				// Backend error: fail closed, same as not-found.
				zap.L().Error("tenant lookup failed",
					zap.String("subdomain", sub), zap.Error(err))
			}
			if public {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, NotFoundPath, http.StatusFound)
			return
		}

		// 4. Status check applies to every route, public or not.  The
		// suspended page itself is exempt or the redirect would loop.
		if !rec.Serveable() && r.URL.Path != SuspendedPath {
			http.Redirect(w, r, SuspendedPath, http.StatusFound)
			return
		}

		// 5. Expose tenant identity to the client and to handlers.
		setTenantCookies(w, r, rec.ID, sub)
		metrics.TenantResolveTotal.Inc()

		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), rec)))
	})
}

// setTenantCookies writes the two readable tenant-identity cookies.
// Deliberately not HttpOnly: client-side code reads them, and no server
// trusts them for authorization.
func setTenantCookies(w http.ResponseWriter, r *http.Request, id, sub string) {
	secure := r.TLS != nil
	http.SetCookie(w, &http.Cookie{
		Name:     "tenant_id",
		Value:    id,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "tenant_subdomain",
		Value:    sub,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
