// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the operations exposed by the CLI,
// decoupled from any specific entrypoint.
package app
