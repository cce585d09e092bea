// Package wellness is the core of the wellness session backend.
//
// An [Engine] registers and authenticates users and lets them draft, update and
// publish session documents. Storage, password hashing and token signing are
// injected through the [Builder]; the HTTP surface lives in package httpapi.
//
//	engine, err := wellness.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		Build()
//
// Engine methods return *[Error] values whose Kind is one of [ErrBadRequest],
// [ErrUnauthorized], [ErrNotFound] or [ErrConflict]. Any other error is an
// internal failure.
package wellness
