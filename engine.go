package wellness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/internal/audit"
	"github.com/Dinesh17-Dev/wellness-session-app/jwt"
	"github.com/Dinesh17-Dev/wellness-session-app/password"
	"github.com/Dinesh17-Dev/wellness-session-app/store"
)

// Engine implements account and session operations. It holds no mutable
// domain state; the store arbitrates concurrent writes. Safe for concurrent use.
type Engine struct {
	config   Config
	users    store.UserStore
	sessions store.SessionStore
	backend  store.Store
	hasher   password.Hasher
	jwt      *jwt.Manager
	audit    *audit.Dispatcher
	metrics  *Metrics
	now      func() time.Time
}

// Close flushes pending audit events. The store is owned by the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Ping checks the backing store.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.backend == nil {
		return errors.New("engine not initialized")
	}
	return e.backend.Ping(ctx)
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// Authenticate verifies a bearer token and returns the identity it carries.
// It does not consult the user store.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if e == nil || e.jwt == nil {
		return nil, newError(ErrUnauthorized, MsgInvalidToken)
	}
	start := time.Now()
	defer e.observe(MetricValidateLatency, start)

	if token == "" {
		e.metricInc(MetricAuthenticateFailure)
		return nil, newError(ErrUnauthorized, MsgInvalidToken)
	}
	claims, err := e.jwt.Verify(token)
	if err != nil {
		e.metricInc(MetricAuthenticateFailure)
		return nil, newError(ErrUnauthorized, MsgInvalidToken)
	}
	return &Identity{Email: claims.Email}, nil
}

// internal wraps an unexpected failure so it stays uncategorized.
func (e *Engine) internal(op string, err error) error {
	e.metricInc(MetricInternalError)
	return fmt.Errorf("%s: %w", op, err)
}
