package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist or, for session
	// lookups scoped to an owner, is owned by someone else.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (account email) is taken.
	ErrDuplicate = errors.New("duplicate record")
)

const (
	// StatusDraft marks a session that is only visible to its owner.
	StatusDraft = "draft"
	// StatusPublished marks a session listed publicly.
	StatusPublished = "published"
)

// User is a stored account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is a stored session document.
type Session struct {
	ID        string
	OwnerID   string
	Title     string
	Tags      []string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionPatch describes an in-place update. Nil fields are left untouched;
// UpdatedAt is always written.
type SessionPatch struct {
	Title     *string
	Tags      *[]string
	Status    *string
	UpdatedAt time.Time
}

// Apply writes the patch onto s.
func (p SessionPatch) Apply(s *Session) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Tags != nil {
		s.Tags = cloneTags(*p.Tags)
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	s.UpdatedAt = p.UpdatedAt
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser stores u, assigning an ID when u.ID is empty. It returns
	// ErrDuplicate when the email is already registered.
	CreateUser(ctx context.Context, u User) (User, error)
	// GetUserByEmail returns ErrNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// SessionStore persists session documents.
type SessionStore interface {
	// CreateSession stores s, assigning an ID when s.ID is empty.
	CreateSession(ctx context.Context, s Session) (Session, error)
	// GetOwnedSession returns the session with id when it belongs to ownerID.
	GetOwnedSession(ctx context.Context, id, ownerID string) (Session, error)
	// UpdateOwnedSession applies patch to the session with id when it belongs
	// to ownerID and returns the stored result.
	UpdateOwnedSession(ctx context.Context, id, ownerID string, patch SessionPatch) (Session, error)
	// ListSessionsByStatus returns every session with status in insertion order.
	ListSessionsByStatus(ctx context.Context, status string) ([]Session, error)
	// ListSessionsByOwner returns every session owned by ownerID in insertion order.
	ListSessionsByOwner(ctx context.Context, ownerID string) ([]Session, error)
}

// Store is a complete backend.
type Store interface {
	UserStore
	SessionStore
	Ping(ctx context.Context) error
	Close() error
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// NormalizeTags returns a non-nil copy of tags.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return cloneTags(tags)
}
