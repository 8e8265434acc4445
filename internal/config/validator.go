// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Beyond the struct tags, one custom rule is registered: `subdomain`,
// the registration-time pattern for tenant subdomains (lowercase
// alphanumeric plus hyphen, at least three characters).  It lives here
// so both config checks and the registration handler validate with the
// same instance.

package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

// subdomainRe is the registration-time tenant-subdomain pattern.
var subdomainRe = regexp.MustCompile(`^[a-z0-9-]{3,}$`)

func init() {
	_ = v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
		return subdomainRe.MatchString(fl.Field().String())
	})
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

// Validate exposes the shared validator for request payloads (e.g., the
// registration form), so custom rules like `subdomain` are available
// everywhere.
func Validate(s any) error { return v.Struct(s) }
