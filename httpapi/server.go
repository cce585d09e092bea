package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	wellness "github.com/Dinesh17-Dev/wellness-session-app"
	"github.com/Dinesh17-Dev/wellness-session-app/middleware"
	"github.com/rs/cors"
)

const (
	defaultMaxBodyBytes  = 1 << 20
	defaultHealthTimeout = 2 * time.Second
)

// Options tunes the handler. The zero value is usable.
type Options struct {
	// Metrics is mounted on GET /metrics when non-nil.
	Metrics http.Handler
	// MaxBodyBytes caps request bodies; 0 means 1 MiB.
	MaxBodyBytes int64
	// HealthTimeout bounds the store ping behind /healthz; 0 means 2s.
	HealthTimeout time.Duration
}

type api struct {
	engine        *wellness.Engine
	maxBodyBytes  int64
	healthTimeout time.Duration
}

// NewHandler returns the routed handler wrapped in permissive CORS.
func NewHandler(engine *wellness.Engine, opts Options) http.Handler {
	a := &api{
		engine:        engine,
		maxBodyBytes:  opts.MaxBodyBytes,
		healthTimeout: opts.HealthTimeout,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = defaultMaxBodyBytes
	}
	if a.healthTimeout <= 0 {
		a.healthTimeout = defaultHealthTimeout
	}

	protected := middleware.RequireAuth(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", a.register)
	mux.HandleFunc("POST /login", a.login)
	mux.HandleFunc("GET /sessions", a.listPublished)
	mux.Handle("GET /my-sessions", protected(http.HandlerFunc(a.listMine)))
	mux.Handle("GET /my-sessions/{id}", protected(http.HandlerFunc(a.getMine)))
	mux.Handle("POST /my-sessions/save-draft", protected(http.HandlerFunc(a.saveDraft)))
	mux.Handle("POST /my-sessions/publish", protected(http.HandlerFunc(a.publish)))
	mux.HandleFunc("GET /healthz", a.healthz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return cors.AllowAll().Handler(withClientIP(mux))
}

func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(wellness.WithClientIP(r.Context(), host)))
	})
}

func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.healthTimeout)
	defer cancel()

	if err := a.engine.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
