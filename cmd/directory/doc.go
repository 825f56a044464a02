// Package directory holds the user directory consumed by the auth subsystem.
//
// The session/token lifecycle only needs a narrow view of a user: identifier,
// role, and whether the account is active. That view is captured by the
// Directory interface; the Postgres store is the production implementation and
// the in-memory store backs tests and DB-less development.
//
// Password hashing is Argon2id with PHC-encoded output. Hashing parameters are
// fixed here rather than policy-driven; password policy is owned elsewhere.
package directory
