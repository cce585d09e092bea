// Package jwt issues and verifies the bearer tokens handed out at login.
//
// A token carries the authenticated account email plus standard registered
// claims (exp, iat, optional iss/aud). HS256 with a process-configured secret
// is the default; Ed25519 key pairs with optional kid rotation are supported.
package jwt
