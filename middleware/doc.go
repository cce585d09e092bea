// Package middleware holds the bearer-token guard for protected routes.
//
// [RequireAuth] reads the Authorization header, asks the engine to verify the
// token and stores the resulting identity on the request context. It never
// looks up the user; handlers do that through the engine.
package middleware
