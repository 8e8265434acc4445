// cmd/web/main.go
//
// Tally – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (conf/.env → conf/global.yaml → TALLY_* env).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Resolve `vault:` secret references (DB password, Stripe keys,
//     session signing key).
//
//  4. Open the control-plane DB and log active-tenant count.
//
//  5. Initialise session signing and the optional GeoLite2 reader.
//
//  6. Build the chi router:
//
//     • /metrics and the Stripe webhook mount OUTSIDE the tenant
//       resolver; the processor posts with no session or tenant cookie.
//     • Everything else runs behind security headers, request-info
//       enrichment, and the subdomain → tenant resolver.
//
//  7. Wrap with ForceHTTPS when configured, then serve with sane
//     timeouts and graceful shutdown on SIGINT/SIGTERM.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/acl"
	"github.com/tallyhq/tally/internal/activity"
	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/database"
	"github.com/tallyhq/tally/internal/logger"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/register"
	"github.com/tallyhq/tally/internal/requestinfo"
	"github.com/tallyhq/tally/internal/server"
	"github.com/tallyhq/tally/internal/session"
	"github.com/tallyhq/tally/internal/stats"
	"github.com/tallyhq/tally/internal/tenant"
	"github.com/tallyhq/tally/internal/user"
	"github.com/tallyhq/tally/internal/vault"
	"github.com/tallyhq/tally/internal/view"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Configuration ──────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sugar, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	//
	// ── 2.  Secret resolution ──────────────────────────────────────────
	//
	secrets, err := resolveSecrets(ctx, cfg)
	if err != nil {
		sugar.Fatalw("resolve secrets", "error", err)
	}

	//
	// ── 3.  Control-plane DB ───────────────────────────────────────────
	//
	dsn := strings.Replace(cfg.Database.DSN, "{password}", secrets.dbPassword, 1)
	sugar.Info("connecting to control-plane DB …")
	db, err := database.Open(dsn)
	if err != nil {
		sugar.Fatalw("connect control-plane DB", "error", err)
	}
	defer db.Close()
	sugar.Info("control-plane DB online")

	// Log active-tenant count as an early sanity check.
	var active int
	_ = db.Get(&active, `SELECT COUNT(*) FROM tenants WHERE status IN ('trial', 'active')`)
	sugar.Infof("%d serveable tenant(s) found", active)

	//
	// ── 4.  Session signing + geo enrichment ───────────────────────────
	//
	session.Init(secrets.sessionKey)
	if err := requestinfo.InitGeo(cfg.Geo.CityDBPath); err != nil {
		// Geo is enrichment only; a missing database must not block boot.
		sugar.Warnw("geo database unavailable", "path", cfg.Geo.CityDBPath, "error", err)
	}

	//
	// ── 5.  Billing wiring ─────────────────────────────────────────────
	//
	prices := billing.PriceIDs{
		tenant.TierStarter:      cfg.Stripe.PriceStarter,
		tenant.TierProfessional: cfg.Stripe.PriceProfessional,
		tenant.TierEnterprise:   cfg.Stripe.PriceEnterprise,
	}
	stripeClient := billing.NewClient(secrets.stripeKey, prices)
	store := &billing.SQLStore{DB: db}
	reconciler := billing.NewReconciler(secrets.webhookSecret, store, store, stripeClient)
	billingH := &billing.Handler{
		DB:         db,
		Client:     stripeClient,
		Reconciler: reconciler,
		Subs:       store,
		BaseURL:    cfg.HTTP.BaseURL,
	}

	recorder := activity.NewRecorder(db)
	userH := &user.Handler{DB: db, Recorder: recorder}
	registerH := &register.Handler{Service: register.NewService(db), Recorder: recorder}
	activityH := &activity.Handler{Recorder: recorder}
	statsH := &stats.Handler{DB: db}
	resolver := tenant.NewResolver(db)

	//
	// ── 6.  Router ─────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)

	// Processor- and operator-facing mounts; no session, no tenant.
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/webhooks/stripe", billingH.Webhook)

	// Everything else resolves the tenant first.
	r.Group(func(r chi.Router) {
		r.Use(resolver.Middleware)

		r.Get("/", view.Home)
		r.Get("/login", view.Login)
		r.Get("/register", view.Register)
		r.Get(tenant.NotFoundPath, view.TenantNotFound)
		r.Get(tenant.SuspendedPath, view.Suspended)

		r.Post("/api/login", userH.Login)
		r.Post("/api/register", registerH.Register)
		r.Get("/logout", userH.Logout)

		r.Get("/api/tenant/usage", statsH.Usage)
		r.Get("/api/activity", activityH.Feed)

		// Billing mutations are admin-only.
		r.Group(func(r chi.Router) {
			r.Use(acl.RequireRole(db, user.RoleAdmin))
			r.Post("/api/subscriptions/checkout", billingH.Checkout)
			r.Post("/api/subscriptions/portal", billingH.Portal)
		})
	})

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	//
	// ── 7.  Serve ──────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)
	go func() {
		sugar.Infof("listening on %s", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("http server", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down …")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("shutdown", "error", err)
	}
}

// bootSecrets holds the resolved secret material for the process.
type bootSecrets struct {
	dbPassword    string
	sessionKey    string
	stripeKey     string
	webhookSecret string
}

// resolveSecrets passes each secret-bearing config field through the
// Vault resolver.  The Vault client is only constructed when at least
// one field actually carries the vault: prefix, so development setups
// with literal values never need a Vault server.
func resolveSecrets(ctx context.Context, cfg *config.Config) (*bootSecrets, error) {
	fields := []string{
		cfg.Database.Password,
		cfg.Session.SigningKey,
		cfg.Stripe.SecretKey,
		cfg.Stripe.WebhookSecret,
	}

	needVault := false
	for _, f := range fields {
		if strings.HasPrefix(f, vault.Prefix) {
			needVault = true
			break
		}
	}

	resolve := func(v string) (string, error) { return v, nil }
	if needVault {
		cli, err := vault.New(ctx, zap.S().Infof)
		if err != nil {
			return nil, err
		}
		resolve = func(v string) (string, error) { return cli.Resolve(ctx, v) }
	}

	var s bootSecrets
	var err error
	if s.dbPassword, err = resolve(cfg.Database.Password); err != nil {
		return nil, err
	}
	if s.sessionKey, err = resolve(cfg.Session.SigningKey); err != nil {
		return nil, err
	}
	if s.stripeKey, err = resolve(cfg.Stripe.SecretKey); err != nil {
		return nil, err
	}
	if s.webhookSecret, err = resolve(cfg.Stripe.WebhookSecret); err != nil {
		return nil, err
	}
	return &s, nil
}
