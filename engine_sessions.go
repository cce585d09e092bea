package wellness

import (
	"context"
	"errors"

	"github.com/Dinesh17-Dev/wellness-session-app/store"
)

// resolveUser maps the token identity to an account. A valid token for an
// email with no account is unauthorized.
func (e *Engine) resolveUser(ctx context.Context, id Identity) (store.User, error) {
	if id.Email == "" {
		return store.User{}, newError(ErrUnauthorized, MsgInvalidToken)
	}
	user, err := e.users.GetUserByEmail(ctx, id.Email)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, newError(ErrUnauthorized, MsgUserNotFound)
	}
	if err != nil {
		return store.User{}, e.internal("lookup user", err)
	}
	return user, nil
}

// SaveDraft creates a session when req.ID is empty and otherwise overwrites
// title, tags and status of the caller's session with that id.
func (e *Engine) SaveDraft(ctx context.Context, id Identity, req SaveDraftRequest) (Session, error) {
	if req.Title == "" {
		return Session{}, newError(ErrBadRequest, MsgTitleRequired)
	}
	user, err := e.resolveUser(ctx, id)
	if err != nil {
		return Session{}, err
	}

	now := e.now().UTC()
	status := string(NormalizeStatus(req.Status))
	tags := store.NormalizeTags(req.Tags)

	if req.ID == "" {
		created, err := e.sessions.CreateSession(ctx, store.Session{
			OwnerID:   user.ID,
			Title:     req.Title,
			Tags:      tags,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return Session{}, e.internal("create session", err)
		}
		e.metricInc(MetricSessionCreated)
		e.emitAudit(ctx, auditEventSessionCreated, true, user.ID, created.ID, nil, statusMetadata(status))
		return sessionFromStore(created), nil
	}

	updated, err := e.sessions.UpdateOwnedSession(ctx, req.ID, user.ID, store.SessionPatch{
		Title:     &req.Title,
		Tags:      &tags,
		Status:    &status,
		UpdatedAt: now,
	})
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, e.accessDenied(ctx, user.ID, req.ID, MsgSessionNotFound)
	}
	if err != nil {
		return Session{}, e.internal("update session", err)
	}
	e.metricInc(MetricSessionUpdated)
	e.emitAudit(ctx, auditEventSessionUpdated, true, user.ID, updated.ID, nil, statusMetadata(status))
	return sessionFromStore(updated), nil
}

// Publish marks the caller's session published.
func (e *Engine) Publish(ctx context.Context, id Identity, req PublishRequest) (Session, error) {
	if req.ID == "" {
		return Session{}, newError(ErrBadRequest, MsgSessionIDRequired)
	}
	user, err := e.resolveUser(ctx, id)
	if err != nil {
		return Session{}, err
	}

	status := store.StatusPublished
	published, err := e.sessions.UpdateOwnedSession(ctx, req.ID, user.ID, store.SessionPatch{
		Status:    &status,
		UpdatedAt: e.now().UTC(),
	})
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, e.accessDenied(ctx, user.ID, req.ID, MsgSessionAccessDenied)
	}
	if err != nil {
		return Session{}, e.internal("publish session", err)
	}
	e.metricInc(MetricSessionPublished)
	e.emitAudit(ctx, auditEventSessionPublished, true, user.ID, published.ID, nil, nil)
	return sessionFromStore(published), nil
}

// ListPublished returns every published session in store order.
func (e *Engine) ListPublished(ctx context.Context) ([]Session, error) {
	list, err := e.sessions.ListSessionsByStatus(ctx, store.StatusPublished)
	if err != nil {
		return nil, e.internal("list published sessions", err)
	}
	return sessionsFromStore(list), nil
}

// ListMine returns all of the caller's sessions regardless of status.
func (e *Engine) ListMine(ctx context.Context, id Identity) ([]Session, error) {
	user, err := e.resolveUser(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := e.sessions.ListSessionsByOwner(ctx, user.ID)
	if err != nil {
		return nil, e.internal("list own sessions", err)
	}
	return sessionsFromStore(list), nil
}

// GetMine returns one of the caller's sessions. Sessions owned by someone
// else are reported as not found.
func (e *Engine) GetMine(ctx context.Context, id Identity, sessionID string) (Session, error) {
	user, err := e.resolveUser(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sessionID == "" {
		return Session{}, e.accessDenied(ctx, user.ID, sessionID, MsgSessionAccessDenied)
	}
	sess, err := e.sessions.GetOwnedSession(ctx, sessionID, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, e.accessDenied(ctx, user.ID, sessionID, MsgSessionAccessDenied)
	}
	if err != nil {
		return Session{}, e.internal("get session", err)
	}
	return sessionFromStore(sess), nil
}

func (e *Engine) accessDenied(ctx context.Context, userID, sessionID, message string) error {
	err := newError(ErrNotFound, message)
	e.metricInc(MetricSessionAccessDenied)
	e.emitAudit(ctx, auditEventSessionDenied, false, userID, sessionID, err, nil)
	return err
}

func statusMetadata(status string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"status": status}
	}
}
