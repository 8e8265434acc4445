// internal/session/session.go
//
// Tally – signed session cookie.
//
// Context
//   Authentication requires persisting a “logged-in” flag between requests.
//   These helpers set or clear a cookie named “tally_session” carrying the
//   user’s row id plus an HMAC-SHA256 signature, so the id cannot be forged
//   client-side.  The signing key comes from configuration (and may itself
//   be a Vault-resolved secret).
//
//   All callers rely only on this tiny API, so swapping the implementation
//   for a server-side store later is painless.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const cookieName = "tally_session"

var signingKey []byte

// Init installs the HMAC signing key.  Must be called once at boot before
// any cookie is issued or verified.
func Init(key string) { signingKey = []byte(key) }

// sign returns the URL-safe base64 HMAC of value.
func sign(value string) string {
	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// LoginUser sets a session cookie containing the signed user id.
//
// Callers typically invoke this after credential verification succeeds.
func LoginUser(w http.ResponseWriter, r *http.Request, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    userID + "." + sign(userID),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
}

// LogoutUser clears the session cookie.
func LogoutUser(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// CurrentUserID returns the user id stored in the session, if any.
//
// ok == false when the cookie is missing, malformed, or fails signature
// verification.
func CurrentUserID(r *http.Request) (userID string, ok bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, found := strings.Cut(c.Value, ".")
	if !found || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sign(id))) {
		return "", false
	}
	return id, true
}
