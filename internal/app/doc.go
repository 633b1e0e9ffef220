// Package app contains the core application logic. It defines the main App
// struct, its configuration, the commands it runs and their shared
// collaborators (run accessor, resolver, exporter, databases), decoupled
// from any specific entrypoint like a CLI.
package app
