// Package sqlitestore persists users and wellness sessions in a single SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/internal/sqlitemigrate"
	"github.com/Dinesh17-Dev/wellness-session-app/store"
	"github.com/Dinesh17-Dev/wellness-session-app/store/sqlitestore/migrations"
	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sessionColumns = `id, user_id, title, tags, status, created_at, updated_at`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements store.Store over SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and applies bundled migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer connection; SQLite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Ping checks that the database handle is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser inserts a user; the email UNIQUE constraint arbitrates concurrent registrations.
func (s *Store) CreateUser(ctx context.Context, u store.User) (store.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.User{}, store.ErrDuplicate
		}
		return store.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.CreatedAt = fromMillis(toMillis(u.CreatedAt))
	return u, nil
}

// GetUserByEmail returns store.ErrNotFound when no user has the email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	var (
		u       store.User
		created int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// CreateSession inserts a document and returns it with its assigned id.
func (s *Store) CreateSession(ctx context.Context, sess store.Session) (store.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}
	sess.Tags = store.NormalizeTags(sess.Tags)
	tags, err := json.Marshal(sess.Tags)
	if err != nil {
		return store.Session{}, fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.OwnerID, sess.Title, string(tags), sess.Status,
		toMillis(sess.CreatedAt), toMillis(sess.UpdatedAt),
	)
	if err != nil {
		return store.Session{}, fmt.Errorf("insert session: %w", err)
	}
	sess.CreatedAt = fromMillis(toMillis(sess.CreatedAt))
	sess.UpdatedAt = fromMillis(toMillis(sess.UpdatedAt))
	return sess, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getOwned(ctx context.Context, q queryRower, id, ownerID string) (store.Session, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND user_id = ?`, id, ownerID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Session{}, store.ErrNotFound
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// GetOwnedSession returns store.ErrNotFound for unknown ids and for documents owned by someone else.
func (s *Store) GetOwnedSession(ctx context.Context, id, ownerID string) (store.Session, error) {
	return getOwned(ctx, s.sqlDB, id, ownerID)
}

// UpdateOwnedSession applies patch inside a transaction and returns the post-update document.
func (s *Store) UpdateOwnedSession(ctx context.Context, id, ownerID string, patch store.SessionPatch) (store.Session, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return store.Session{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := getOwned(ctx, tx, id, ownerID)
	if err != nil {
		return store.Session{}, err
	}
	patch.Apply(&sess)

	tags, err := json.Marshal(store.NormalizeTags(sess.Tags))
	if err != nil {
		return store.Session{}, fmt.Errorf("encode tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET title = ?, tags = ?, status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		sess.Title, string(tags), sess.Status, toMillis(sess.UpdatedAt), id, ownerID,
	); err != nil {
		return store.Session{}, fmt.Errorf("update session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return store.Session{}, fmt.Errorf("commit update: %w", err)
	}
	sess.UpdatedAt = fromMillis(toMillis(sess.UpdatedAt))
	return sess, nil
}

// ListSessionsByStatus returns documents with the given status in insertion order.
func (s *Store) ListSessionsByStatus(ctx context.Context, status string) ([]store.Session, error) {
	return s.list(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY seq`, status)
}

// ListSessionsByOwner returns every document owned by ownerID in insertion order.
func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string) ([]store.Session, error) {
	return s.list(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY seq`, ownerID)
}

func (s *Store) list(ctx context.Context, query string, arg string) ([]store.Session, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]store.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (store.Session, error) {
	var (
		sess             store.Session
		tags             string
		created, updated int64
	)
	if err := row.Scan(&sess.ID, &sess.OwnerID, &sess.Title, &tags, &sess.Status, &created, &updated); err != nil {
		return store.Session{}, err
	}
	if err := json.Unmarshal([]byte(tags), &sess.Tags); err != nil {
		return store.Session{}, fmt.Errorf("decode tags: %w", err)
	}
	sess.Tags = store.NormalizeTags(sess.Tags)
	sess.CreatedAt = fromMillis(created)
	sess.UpdatedAt = fromMillis(updated)
	return sess, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ store.Store = (*Store)(nil)
