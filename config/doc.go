// Package config loads the tiercache service configuration.
//
// Values are layered in this order, later layers winning:
//
//  1. Default()
//  2. an optional YAML file
//  3. environment variables prefixed with TIERCACHE_
//
// String fields that commonly carry secrets or addresses may reference
// environment variables as ${VAR}. A reference to an unset variable is an
// error, and $$ produces a literal dollar sign.
//
// The section structs convert into the option types of the packages they
// configure (cache.Policy, cache.LocalConfig, observe.Config, ...), so
// callers never copy fields by hand.
package config
