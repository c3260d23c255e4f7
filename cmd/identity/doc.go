// Package identity owns ScribeAssist principals: usernames, roles and the
// credential check performed at login.
//
// Credentials live behind Store. Postgres is used when a database is
// configured; MemoryStore serves local development and tests. Secrets are
// stored as argon2id PHC strings produced by cmd/security/password.
package identity
