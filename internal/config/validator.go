// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after
// unmarshalling and secret resolution, so the daemon never runs with
// partial, malformed, or missing configuration.
//
// Rules in use: `required` on the DSN template, webhook secret, and
// listen addresses, plus `hostname_port` on the address fields.  A
// custom rule for “dsn must contain exactly one %s verb” can be
// registered here if operators keep tripping on it.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
