// Package store defines the persistence contracts for accounts and session
// documents, plus the record types that cross that boundary.
//
// # Backends
//
//   - store/redisstore: go-redis, the default; tests run it on miniredis.
//   - store/sqlitestore: modernc.org/sqlite with embedded migrations.
//   - store/mongostore: MongoDB document collections.
//
// # Architecture boundaries
//
// Backends own ID assignment, email uniqueness and the owner filter on
// session lookups. They do NOT hash passwords, verify tokens or coerce
// session status; the Engine hands them already-normalized values.
//
// # What this package must NOT do
//
//   - Import the root package (no upward imports).
//   - Leak backend-specific errors past the sentinels below for the
//     not-found and duplicate cases.
package store
