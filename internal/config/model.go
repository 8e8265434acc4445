// internal/config/model.go
//
// Typed configuration model for Tally.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `TALLY_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* use, so secret material (the DB
// password, the Stripe API key, the webhook signing secret) never sits
// in flat files or git history.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.  BaseURL is the public application URL
// used to build Stripe success, cancel, and portal-return links.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	BaseURL    string `koanf:"base_url"    validate:"required,url"`
}

//
// Database section
//

// Database holds the control-plane DSN.  The *template* (`DSN`) is kept in
// YAML so operators can tweak host, port, or flags without touching Vault.
// The *secret* portion (`Password`) may be a `vault:` URI resolved at boot.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

//
// Stripe section
//

// Stripe carries the payment-processor credentials plus the three price
// identifiers tenants can check out against.  SecretKey and WebhookSecret
// may be `vault:` URIs.
type Stripe struct {
	SecretKey         string `koanf:"secret_key"         validate:"required"`
	WebhookSecret     string `koanf:"webhook_secret"     validate:"required"`
	PriceStarter      string `koanf:"price_starter"      validate:"required"`
	PriceProfessional string `koanf:"price_professional" validate:"required"`
	PriceEnterprise   string `koanf:"price_enterprise"   validate:"required"`
}

//
// Session section
//

// Session holds the HMAC key that signs the session cookie.  May be a
// `vault:` URI.
type Session struct {
	SigningKey string `koanf:"signing_key" validate:"required"`
}

//
// Geo section
//

// Geo points at the optional GeoLite2-City database used by the
// request-info middleware.  Empty path disables geolocation.
type Geo struct {
	CityDBPath string `koanf:"city_db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or TALLY_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // TALLY_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Stripe   Stripe   `koanf:"stripe"`
	Session  Session  `koanf:"session"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
