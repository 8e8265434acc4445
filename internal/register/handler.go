// internal/register/handler.go
//
// HTTP adapter for sign-up.  Decodes the JSON form, runs the service, and
// starts a signed session for the new admin on success.
package register

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/activity"
	"github.com/tallyhq/tally/internal/session"
)

// Handler serves POST /api/register.
type Handler struct {
	Service  *Service
	Recorder *activity.Recorder
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in Input
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "malformed request", http.StatusBadRequest)
			return
		}
	} else {
		// The server-rendered /register page submits a classic form post.
		_ = r.ParseForm()
		in = Input{
			CompanyName: r.PostFormValue("company_name"),
			Subdomain:   r.PostFormValue("subdomain"),
			Name:        r.PostFormValue("full_name"),
			Email:       r.PostFormValue("email"),
			Password:    r.PostFormValue("password"),
		}
	}
	in.Subdomain = strings.ToLower(strings.TrimSpace(in.Subdomain))
	if in.Subdomain == "" {
		in.Subdomain = SuggestSubdomain(in.CompanyName)
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	res, err := h.Service.Register(r.Context(), &in)
	switch {
	case err == nil:
		session.LoginUser(w, r, res.UserID)
		if h.Recorder != nil {
			h.Recorder.Record(r.Context(), res.TenantID, res.UserID,
				activity.ActionRegister, "tenant", res.TenantID)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(res)
	case errors.Is(err, ErrSubdomainTaken), errors.Is(err, ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			http.Error(w, "invalid input: "+verr.Error(), http.StatusUnprocessableEntity)
			return
		}
		zap.L().Error("registration failed", zap.Error(err))
		http.Error(w, "registration failed", http.StatusInternalServerError)
	}
}
