// Package httpapi exposes a [wellness.Engine] over JSON/HTTP.
//
// Routes:
//
//	POST /register
//	POST /login
//	POST /my-sessions/save-draft   (bearer)
//	POST /my-sessions/publish      (bearer)
//	GET  /sessions
//	GET  /my-sessions              (bearer)
//	GET  /my-sessions/{id}         (bearer)
//	GET  /healthz
//	GET  /metrics                  (when Options.Metrics is set)
//
// Every response is JSON. Failures carry {"error": message}; uncategorized
// engine errors are logged and answered with a generic 500.
package httpapi
