// Package password implements one-way salted password hashing and verification.
//
// # Algorithms
//
// [Argon2] is the default and encodes hashes in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] produces standard $2a$ hashes and exists for accounts imported from
// systems that stored bcrypt digests. Both satisfy [Hasher].
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Presence checks on the
// plaintext are enforced by the Engine before a hash is requested.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and get hashes back.
//   - Import any other package of this module.
//   - Log plaintext passwords or hash parameters at runtime.
package password
