// internal/user/handler.go
//
// Sign-in and sign-out endpoints.
//
// Context
// -------
// POST /api/login accepts either a JSON body or a classic form post (the
// server-rendered /login page submits the latter).  A successful check
// sets the signed session cookie; the caller's tenant membership is NOT
// verified here — the resolver re-checks tenant state on every
// subsequent request, so a user signing in on the wrong subdomain simply
// gets that tenant's redirect treatment.
//
// Failed attempts return a uniform 401 with no detail about which half
// of the credential pair was wrong.
package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tallyhq/tally/internal/activity"
	"github.com/tallyhq/tally/internal/session"
)

// Handler serves the credential endpoints.
type Handler struct {
	DB       *sqlx.DB
	Recorder *activity.Recorder
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies a credential pair and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, isForm := readLogin(r)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "missing credentials", http.StatusBadRequest)
		return
	}

	u, err := ByEmail(r.Context(), h.DB, strings.ToLower(req.Email))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zap.L().Error("login lookup failed", zap.Error(err))
		}
		unauthorized(w)
		return
	}
	if u.Status != StatusActive {
		unauthorized(w)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		unauthorized(w)
		return
	}

	session.LoginUser(w, r, u.ID)
	if h.Recorder != nil {
		h.Recorder.Record(r.Context(), u.TenantID, u.ID, activity.ActionLogin, "user", u.ID)
	}

	if isForm {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"user_id": u.ID})
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session.LogoutUser(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// readLogin decodes a JSON body or falls back to form values.  The bool
// reports a form post, which gets a redirect response instead of JSON.
func readLogin(r *http.Request) (loginRequest, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		return req, false
	}
	_ = r.ParseForm()
	return loginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}, true
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "invalid email or password", http.StatusUnauthorized)
}
