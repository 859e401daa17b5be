// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It maps
// flags, PANDOCDEPS_* environment variables and an optional settings file
// onto the application's configuration and exposes the scan, build, watch,
// check and version commands.
package cli
