package redisstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/store"
)

const recordVersionV1 = 1

type userRecord struct {
	Version      int    `json:"v"`
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

type sessionRecord struct {
	Version   int      `json:"v"`
	ID        string   `json:"id"`
	OwnerID   string   `json:"owner_id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	Status    string   `json:"status"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

func encodeUser(u store.User) ([]byte, error) {
	return json.Marshal(userRecord{
		Version:      recordVersionV1,
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().UnixMilli(),
	})
}

func decodeUser(data []byte) (store.User, error) {
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return store.User{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Version != recordVersionV1 || rec.ID == "" {
		return store.User{}, ErrCorruptRecord
	}
	return store.User{
		ID:           rec.ID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    time.UnixMilli(rec.CreatedAt).UTC(),
	}, nil
}

func encodeSession(s store.Session) ([]byte, error) {
	return json.Marshal(sessionRecord{
		Version:   recordVersionV1,
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Title:     s.Title,
		Tags:      store.NormalizeTags(s.Tags),
		Status:    s.Status,
		CreatedAt: s.CreatedAt.UTC().UnixMilli(),
		UpdatedAt: s.UpdatedAt.UTC().UnixMilli(),
	})
}

func decodeSession(data []byte) (store.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return store.Session{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Version != recordVersionV1 || rec.ID == "" || rec.OwnerID == "" {
		return store.Session{}, ErrCorruptRecord
	}
	return store.Session{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Title:     rec.Title,
		Tags:      store.NormalizeTags(rec.Tags),
		Status:    rec.Status,
		CreatedAt: time.UnixMilli(rec.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(rec.UpdatedAt).UTC(),
	}, nil
}
