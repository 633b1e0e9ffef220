// Package config defines the format-agnostic configuration model of the
// toolkit, its defaults, and the Loader interface implemented by format
// specific packages such as hcl_adapter.
//
// The Model is the single source of truth for commands: flags given on the
// command line are applied on top of a loaded Model, never the other way
// round.
package config
