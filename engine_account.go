package wellness

import (
	"context"
	"errors"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/password"
	"github.com/Dinesh17-Dev/wellness-session-app/store"
)

// MsgPasswordTooLong is returned when a password exceeds the hasher's byte cap.
const MsgPasswordTooLong = "Password is too long"

// Register creates an account. The email must not already be registered.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) error {
	if req.Email == "" || req.Password == "" {
		err := newError(ErrBadRequest, MsgCredentialsRequired)
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return err
	}

	// Lookup first so duplicates skip the password hash. The store still
	// enforces uniqueness for racing registrations.
	if _, err := e.users.GetUserByEmail(ctx, req.Email); err == nil {
		return e.registerDuplicate(ctx)
	} else if !errors.Is(err, store.ErrNotFound) {
		e.metricInc(MetricRegisterFailure)
		return e.internal("lookup user", err)
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		if errors.Is(err, password.ErrPasswordTooLong) {
			return newError(ErrBadRequest, MsgPasswordTooLong)
		}
		return e.internal("hash password", err)
	}

	user, err := e.users.CreateUser(ctx, store.User{
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    e.now().UTC(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return e.registerDuplicate(ctx)
	}
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return e.internal("create user", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, "", nil, nil)
	return nil
}

func (e *Engine) registerDuplicate(ctx context.Context) error {
	err := newError(ErrConflict, MsgUserExists)
	e.metricInc(MetricRegisterDuplicate)
	e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", "", err, nil)
	return err
}

// Login checks credentials and returns a signed bearer token carrying the
// account email.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (string, error) {
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	if req.Email == "" || req.Password == "" {
		return "", e.loginFailure(ctx, "", newError(ErrBadRequest, MsgLoginCredentialsRequired))
	}

	user, err := e.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return "", e.loginFailure(ctx, "", e.invalidCredentials(MsgUnknownUser))
	}
	if err != nil {
		return "", e.internal("lookup user", err)
	}

	ok, err := e.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil && !errors.Is(err, password.ErrPasswordTooLong) {
		return "", e.internal("verify password", err)
	}
	if !ok {
		return "", e.loginFailure(ctx, user.ID, e.invalidCredentials(MsgInvalidPassword))
	}

	token, err := e.jwt.Issue(user.Email)
	if err != nil {
		return "", e.internal("issue token", err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, "", nil, nil)
	return token, nil
}

func (e *Engine) invalidCredentials(distinct string) error {
	if e.config.Login.DistinctFailureMessages {
		return newError(ErrUnauthorized, distinct)
	}
	return newError(ErrUnauthorized, MsgInvalidCredentials)
}

func (e *Engine) loginFailure(ctx context.Context, userID string, err error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, "", err, nil)
	return err
}
