// internal/register/slug.go
//
// Subdomain suggestion.
//
// • SuggestSubdomain(name) ─ converts a company name into a valid tenant
//   subdomain restricted to ASCII a-z, 0-9 and “-”.
//
// Rules
// -----
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Collapse consecutive “-” to a single “-”.
// 4. Trim leading / trailing “-”.
// 5. Pad with "hq" when the result is shorter than the three-character
//    minimum the subdomain rule enforces.
//
// Notes
// -----
// • No Unicode transliteration; sign-up is English-only for now.
// • Suggestions are max 63 runes (DNS label limit).

package register

import (
	"strings"
)

// SuggestSubdomain converts a company name → lower-kebab ASCII suitable
// as a tenant subdomain.  Used when the sign-up form leaves the
// subdomain field blank.
func SuggestSubdomain(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastWasDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			// any non-ASCII or punctuation becomes a single dash
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 63 {
		slug = slug[:63]
		// trim trailing dash if the cut landed on one
		slug = strings.TrimRight(slug, "-")
	}
	for len(slug) < 3 {
		slug += "hq"
	}
	return slug
}
