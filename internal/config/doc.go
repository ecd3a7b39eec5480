// Package config loads and validates dubber's TOML configuration.
//
// Load resolves the config file (explicit path, ~/.config/dubber/config.toml,
// or ./dubber.toml), decodes it over Default(), normalizes paths, and
// validates the result. Missing files are not an error; defaults apply.
package config
