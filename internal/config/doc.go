// Package config provides environment-based configuration.
//
// Loads environment variables into a Config struct, applies defaults for
// optional settings (port, log level, admission quotas) and validates
// required fields.
package config
