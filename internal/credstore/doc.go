// Package credstore persists the application's single API key.
//
// Three backends implement [Store] with different security and deployment tradeoffs:
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, Linux Secret Service)
//   - File: Local filesystem storage with atomic writes and 0600 permissions
//   - Env: Read-only environment variable access (requires external secret management)
//
// Every backend addresses exactly one secret. Saving overwrites it, deleting
// removes it, and [ErrNotFound] reports its absence.
package credstore
