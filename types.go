package wellness

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/store"
)

// SessionStatus is the publication state of a session document.
type SessionStatus string

const (
	StatusDraft     SessionStatus = store.StatusDraft
	StatusPublished SessionStatus = store.StatusPublished
)

// NormalizeStatus maps the exact string "published" to StatusPublished and
// every other value, including the empty string, to StatusDraft.
func NormalizeStatus(s string) SessionStatus {
	if s == string(StatusPublished) {
		return StatusPublished
	}
	return StatusDraft
}

// User is a registered account. The password hash never leaves the process.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a wellness session document.
type Session struct {
	ID        string        `json:"_id"`
	UserID    string        `json:"user_id"`
	Title     string        `json:"title"`
	Tags      []string      `json:"tags"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func sessionFromStore(s store.Session) Session {
	return Session{
		ID:        s.ID,
		UserID:    s.OwnerID,
		Title:     s.Title,
		Tags:      store.NormalizeTags(s.Tags),
		Status:    NormalizeStatus(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func sessionsFromStore(in []store.Session) []Session {
	out := make([]Session, 0, len(in))
	for _, s := range in {
		out = append(out, sessionFromStore(s))
	}
	return out
}

// Identity is the verified caller attached to a request.
type Identity struct {
	Email string
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SaveDraftRequest creates a session when ID is empty and overwrites the
// caller's session otherwise.
type SaveDraftRequest struct {
	ID     string
	Title  string
	Tags   []string
	Status string
}

// UnmarshalJSON is lenient the way the HTTP API has always been: the id is
// read from "_id" or "id", a non-string field counts as absent and tags that
// are not an array of strings become empty.
func (r *SaveDraftRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		UnderscoreID json.RawMessage `json:"_id"`
		ID           json.RawMessage `json:"id"`
		Title        json.RawMessage `json:"title"`
		Tags         json.RawMessage `json:"tags"`
		Status       json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = SaveDraftRequest{
		ID:     firstString(raw.UnderscoreID, raw.ID),
		Title:  looseString(raw.Title),
		Tags:   looseTags(raw.Tags),
		Status: looseString(raw.Status),
	}
	return nil
}

// PublishRequest names the session to publish by "_id" or "id".
type PublishRequest struct {
	ID string
}

func (r *PublishRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		UnderscoreID json.RawMessage `json:"_id"`
		ID           json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = firstString(raw.UnderscoreID, raw.ID)
	return nil
}

func looseString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func firstString(candidates ...json.RawMessage) string {
	for _, c := range candidates {
		if s := looseString(c); s != "" {
			return s
		}
	}
	return ""
}

func looseTags(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return []string{}
	}
	return store.NormalizeTags(tags)
}
