// internal/tenant/subdomain.go
//
// Host-header → candidate subdomain token.
//
// The rules preserve the behaviour the dashboards grew up with:
//
//   • “localhost” hosts: everything before the first dot is the candidate,
//     unless that first label is itself “localhost” (no subdomain present),
//     in which case the sentinel applies.
//   • Production hosts: more than two dot-separated labels → first label;
//     a bare apex domain (two labels) → sentinel.
//
// Candidate tokens are already lowercased by registration-time validation,
// so no case folding happens here.
package tenant

import "strings"

// SubdomainFromHost extracts the candidate subdomain token from a raw Host
// header value.  The :port suffix is stripped before splitting.
func SubdomainFromHost(host string) string {
	host = stripPort(host)
	parts := strings.Split(host, ".")

	if strings.Contains(host, "localhost") {
		if parts[0] == "localhost" {
			return DefaultSubdomain
		}
		return parts[0]
	}

	if len(parts) > 2 {
		return parts[0]
	}
	return DefaultSubdomain
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
