// Package environment builds and exposes the layered configuration view a
// run operates on.
//
// An Environment is an ordered list of named property sources (first match
// wins) plus the active and default profile sets. The Builder assembles the
// sources in strict precedence: command-line arguments, explicit runtime
// properties, process environment variables, an optional .env file,
// profile-specific configuration files, default configuration files, and
// framework defaults. Configuration files are read with viper, .env files
// with godotenv.
//
// Once built, the source order is fixed; later phases may only add sources
// at either end via AddPropertySource.
package environment
