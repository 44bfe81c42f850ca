// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - Authenticator: credential acquisition against the remote API
//   - Operations + UserOps/FolderOps/FileOps: per-account API handles
//   - CredentialStore: account persistence
//
// Import rule: this package may import domain only, never an adapter.
package driven
