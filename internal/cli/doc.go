// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates global flags into the application's configuration and command
// flags into overrides of the configuration model.
package cli
