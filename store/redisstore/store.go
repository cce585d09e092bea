package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable wraps transport failures from the Redis client.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrCorruptRecord is returned when a stored blob cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrUpdateContention is returned when an update lost every WATCH retry.
	ErrUpdateContention = errors.New("session update contention")
)

const (
	defaultPrefix    = "wl"
	maxUpdateRetries = 8
	mgetBatchSize    = 256
)

// Store implements store.Store on top of a go-redis client.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store that namespaces every key under prefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) userKey(id string) string       { return s.prefix + ":user:" + id }
func (s *Store) emailKey(email string) string   { return s.prefix + ":email:" + email }
func (s *Store) docKey(id string) string        { return s.prefix + ":doc:" + id }
func (s *Store) docsKey() string                { return s.prefix + ":docs" }
func (s *Store) ownerKey(ownerID string) string { return s.prefix + ":owner:" + ownerID }

func toMillis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.redis.Close()
}

// CreateUser claims the email key with SETNX and then writes the record.
func (s *Store) CreateUser(ctx context.Context, u store.User) (store.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.CreatedAt = toMillis(u.CreatedAt)
	encoded, err := encodeUser(u)
	if err != nil {
		return store.User{}, err
	}

	claimed, err := s.redis.SetNX(ctx, s.emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return store.User{}, unavailable(err)
	}
	if !claimed {
		return store.User{}, store.ErrDuplicate
	}

	if err := s.redis.Set(ctx, s.userKey(u.ID), encoded, 0).Err(); err != nil {
		// Release the email so a retry can register it.
		_ = s.redis.Del(ctx, s.emailKey(u.Email)).Err()
		return store.User{}, unavailable(err)
	}
	return u, nil
}

// GetUserByEmail resolves the email index and loads the account.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, unavailable(err)
	}

	data, err := s.redis.Get(ctx, s.userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, unavailable(err)
	}
	return decodeUser(data)
}

// CreateSession writes the document and appends it to both indexes in one
// MULTI/EXEC.
func (s *Store) CreateSession(ctx context.Context, sess store.Session) (store.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}
	// Records keep millisecond precision; return what Get will return.
	sess.CreatedAt = toMillis(sess.CreatedAt)
	sess.UpdatedAt = toMillis(sess.UpdatedAt)
	sess.Tags = store.NormalizeTags(sess.Tags)

	encoded, err := encodeSession(sess)
	if err != nil {
		return store.Session{}, err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(sess.ID), encoded, 0)
		pipe.RPush(ctx, s.docsKey(), sess.ID)
		pipe.RPush(ctx, s.ownerKey(sess.OwnerID), sess.ID)
		return nil
	})
	if err != nil {
		return store.Session{}, unavailable(err)
	}
	return sess, nil
}

// GetOwnedSession loads a document and hides it unless ownerID matches.
func (s *Store) GetOwnedSession(ctx context.Context, id, ownerID string) (store.Session, error) {
	data, err := s.redis.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.Session{}, store.ErrNotFound
	}
	if err != nil {
		return store.Session{}, unavailable(err)
	}

	sess, err := decodeSession(data)
	if err != nil {
		return store.Session{}, err
	}
	if sess.OwnerID != ownerID {
		return store.Session{}, store.ErrNotFound
	}
	return sess, nil
}

// UpdateOwnedSession applies patch under WATCH, retrying when another writer
// touched the key between read and EXEC.
func (s *Store) UpdateOwnedSession(ctx context.Context, id, ownerID string, patch store.SessionPatch) (store.Session, error) {
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = time.Now()
	}
	patch.UpdatedAt = toMillis(patch.UpdatedAt)
	key := s.docKey(id)

	for i := 0; i < maxUpdateRetries; i++ {
		var updated store.Session

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return store.ErrNotFound
			}
			if err != nil {
				return err
			}

			sess, err := decodeSession(data)
			if err != nil {
				return err
			}
			if sess.OwnerID != ownerID {
				return store.ErrNotFound
			}

			patch.Apply(&sess)
			encoded, err := encodeSession(sess)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return err
			}
			updated = sess
			return nil
		}, key)

		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrCorruptRecord):
			return store.Session{}, err
		default:
			return store.Session{}, unavailable(err)
		}
	}

	return store.Session{}, ErrUpdateContention
}

// ListSessionsByStatus scans the global index and keeps matching documents.
func (s *Store) ListSessionsByStatus(ctx context.Context, status string) ([]store.Session, error) {
	all, err := s.loadIndexed(ctx, s.docsKey())
	if err != nil {
		return nil, err
	}

	out := make([]store.Session, 0, len(all))
	for _, sess := range all {
		if sess.Status == status {
			out = append(out, sess)
		}
	}
	return out, nil
}

// ListSessionsByOwner loads every document in the owner's index.
func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string) ([]store.Session, error) {
	sessions, err := s.loadIndexed(ctx, s.ownerKey(ownerID))
	if err != nil {
		return nil, err
	}

	out := sessions[:0]
	for _, sess := range sessions {
		if sess.OwnerID == ownerID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *Store) loadIndexed(ctx context.Context, indexKey string) ([]store.Session, error) {
	ids, err := s.redis.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]store.Session, 0, len(ids))
	for start := 0; start < len(ids); start += mgetBatchSize {
		end := start + mgetBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, s.docKey(id))
		}

		values, err := s.redis.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, unavailable(err)
		}
		for _, v := range values {
			raw, ok := v.(string)
			if !ok {
				// Index entry without a document; skip it.
				continue
			}
			sess, err := decodeSession([]byte(raw))
			if err != nil {
				return nil, err
			}
			out = append(out, sess)
		}
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
