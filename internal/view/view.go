// internal/view/view.go
//
// Minimal server-rendered pages.
//
/*
Context
--------
The dashboard proper is a separate front-end; the Go binary only renders
the handful of pages the resolver can land a browser on: the marketing
root, the sign-in and sign-up forms, and the two dead-end pages
(`/tenant-not-found`, `/suspended`).  Redirect targets must exist, so
these are compiled into the binary with embed rather than loaded from
disk.

Templates share one base layout.  Parse happens once at package init;
a malformed template is a build artifact problem and panics on boot.
*/
package view

import (
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/requestinfo"
	"github.com/tallyhq/tally/internal/tenant"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(
	template.New("pages").Funcs(uaFuncMap()).ParseFS(templateFS, "templates/*.html"))

// data is the payload every page template receives.
type data struct {
	Title   string
	Tenant  *tenant.Record
	Request *requestinfo.RequestInfo
}

// render writes one named page; template failures get a plain 500.
func render(w http.ResponseWriter, r *http.Request, name, title string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	d := data{
		Title:   title,
		Tenant:  tenant.FromContext(r.Context()),
		Request: requestinfo.FromContext(r.Context()),
	}
	if err := pages.ExecuteTemplate(w, name, d); err != nil {
		zap.L().Error("template render failed",
			zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
	}
}

// Page handlers, one per route.

func Home(w http.ResponseWriter, r *http.Request) {
	render(w, r, "home.html", "Tally")
}

func Login(w http.ResponseWriter, r *http.Request) {
	render(w, r, "login.html", "Sign in · Tally")
}

func Register(w http.ResponseWriter, r *http.Request) {
	render(w, r, "register.html", "Create your workspace · Tally")
}

func TenantNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	render(w, r, "tenant_not_found.html", "Workspace not found · Tally")
}

func Suspended(w http.ResponseWriter, r *http.Request) {
	render(w, r, "suspended.html", "Workspace suspended · Tally")
}
