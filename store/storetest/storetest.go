// Package storetest holds the behavioral checks every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/store"
)

// Opener returns a fresh, empty backend. Cleanup is registered on t.
type Opener func(t *testing.T) store.Store

// Run executes the conformance suite against backends produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	t.Run("UserCreateAndLookup", func(t *testing.T) { testUserCreateAndLookup(t, open(t)) })
	t.Run("UserDuplicateEmail", func(t *testing.T) { testUserDuplicateEmail(t, open(t)) })
	t.Run("UserConcurrentRegistration", func(t *testing.T) { testUserConcurrentRegistration(t, open(t)) })
	t.Run("SessionCreateAndGet", func(t *testing.T) { testSessionCreateAndGet(t, open(t)) })
	t.Run("SessionOwnerScoping", func(t *testing.T) { testSessionOwnerScoping(t, open(t)) })
	t.Run("SessionUpdate", func(t *testing.T) { testSessionUpdate(t, open(t)) })
	t.Run("SessionWritesMatchReads", func(t *testing.T) { testSessionWritesMatchReads(t, open(t)) })
	t.Run("SessionListings", func(t *testing.T) { testSessionListings(t, open(t)) })
	t.Run("Ping", func(t *testing.T) {
		if err := open(t).Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func mustCreateUser(t *testing.T, s store.Store, email string) store.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), store.User{
		Email:        email,
		PasswordHash: "hash-" + email,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	if u.ID == "" {
		t.Fatalf("expected backend to assign a user id")
	}
	return u
}

func mustCreateSession(t *testing.T, s store.Store, ownerID, title, status string) store.Session {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	sess, err := s.CreateSession(context.Background(), store.Session{
		OwnerID:   ownerID,
		Title:     title,
		Tags:      []string{"breath", "focus"},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create session %s: %v", title, err)
	}
	if sess.ID == "" {
		t.Fatalf("expected backend to assign a session id")
	}
	return sess
}

func testUserCreateAndLookup(t *testing.T, s store.Store) {
	created := mustCreateUser(t, s, "a@x.com")

	got, err := s.GetUserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != created.ID || got.Email != "a@x.com" || got.PasswordHash != "hash-a@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to round-trip")
	}

	if _, err := s.GetUserByEmail(context.Background(), "missing@x.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testUserDuplicateEmail(t *testing.T, s store.Store) {
	mustCreateUser(t, s, "dup@x.com")
	_, err := s.CreateUser(context.Background(), store.User{Email: "dup@x.com", PasswordHash: "other"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func testUserConcurrentRegistration(t *testing.T, s store.Store) {
	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(context.Background(), store.User{Email: "race@x.com", PasswordHash: "h"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrDuplicate) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one registration to win, got %d", successes)
	}
}

func testSessionCreateAndGet(t *testing.T, s store.Store) {
	owner := mustCreateUser(t, s, "owner@x.com")
	created := mustCreateSession(t, s, owner.ID, "Body scan", store.StatusDraft)

	got, err := s.GetOwnedSession(context.Background(), created.ID, owner.ID)
	if err != nil {
		t.Fatalf("get owned session: %v", err)
	}
	if got.Title != "Body scan" || got.Status != store.StatusDraft || got.OwnerID != owner.ID {
		t.Fatalf("unexpected session: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "breath" || got.Tags[1] != "focus" {
		t.Fatalf("expected tags to keep order, got %v", got.Tags)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, created.CreatedAt)
	}

	empty, err := s.CreateSession(context.Background(), store.Session{OwnerID: owner.ID, Title: "No tags", Status: store.StatusDraft})
	if err != nil {
		t.Fatalf("create untagged session: %v", err)
	}
	reloaded, err := s.GetOwnedSession(context.Background(), empty.ID, owner.ID)
	if err != nil {
		t.Fatalf("get untagged session: %v", err)
	}
	if reloaded.Tags == nil || len(reloaded.Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", reloaded.Tags)
	}
}

func testSessionOwnerScoping(t *testing.T, s store.Store) {
	owner := mustCreateUser(t, s, "owner@x.com")
	other := mustCreateUser(t, s, "other@x.com")
	sess := mustCreateSession(t, s, owner.ID, "Private", store.StatusDraft)
	ctx := context.Background()

	if _, err := s.GetOwnedSession(ctx, sess.ID, other.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	status := store.StatusPublished
	if _, err := s.UpdateOwnedSession(ctx, sess.ID, other.ID, store.SessionPatch{Status: &status, UpdatedAt: time.Now()}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating foreign session, got %v", err)
	}
	if _, err := s.GetOwnedSession(ctx, "does-not-exist", owner.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	got, err := s.GetOwnedSession(ctx, sess.ID, owner.ID)
	if err != nil {
		t.Fatalf("get owned session: %v", err)
	}
	if got.Status != store.StatusDraft {
		t.Fatalf("foreign update must not apply, got status %q", got.Status)
	}
}

func testSessionUpdate(t *testing.T, s store.Store) {
	owner := mustCreateUser(t, s, "owner@x.com")
	sess := mustCreateSession(t, s, owner.ID, "Before", store.StatusDraft)
	ctx := context.Background()

	title := "After"
	tags := []string{"sleep"}
	status := store.StatusPublished
	later := sess.UpdatedAt.Add(time.Minute)

	updated, err := s.UpdateOwnedSession(ctx, sess.ID, owner.ID, store.SessionPatch{
		Title:     &title,
		Tags:      &tags,
		Status:    &status,
		UpdatedAt: later,
	})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if updated.ID != sess.ID {
		t.Fatalf("expected id to be stable, got %q want %q", updated.ID, sess.ID)
	}
	if updated.Title != "After" || updated.Status != store.StatusPublished || len(updated.Tags) != 1 || updated.Tags[0] != "sleep" {
		t.Fatalf("unexpected updated session: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at %v, got %v", later, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(sess.CreatedAt) {
		t.Fatalf("created_at must not change: %v vs %v", updated.CreatedAt, sess.CreatedAt)
	}

	draft := store.StatusDraft
	again, err := s.UpdateOwnedSession(ctx, sess.ID, owner.ID, store.SessionPatch{Status: &draft, UpdatedAt: later.Add(time.Minute)})
	if err != nil {
		t.Fatalf("status-only update: %v", err)
	}
	if again.Title != "After" || again.Status != store.StatusDraft {
		t.Fatalf("status-only update must keep title, got %+v", again)
	}
}

func sameSession(a, b store.Session) bool {
	if a.ID != b.ID || a.OwnerID != b.OwnerID || a.Title != b.Title || a.Status != b.Status {
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) || !a.UpdatedAt.Equal(b.UpdatedAt) || len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return false
		}
	}
	return true
}

// Sub-millisecond inputs must come back from a write exactly as a later read
// returns them.
func testSessionWritesMatchReads(t *testing.T, s store.Store) {
	owner := mustCreateUser(t, s, "owner@x.com")
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)

	created, err := s.CreateSession(ctx, store.Session{
		OwnerID:   owner.ID,
		Title:     "Precise",
		Tags:      []string{"calm"},
		Status:    store.StatusDraft,
		CreatedAt: at,
		UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	stored, err := s.GetOwnedSession(ctx, created.ID, owner.ID)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if !sameSession(created, stored) {
		t.Fatalf("create returned %+v, get returned %+v", created, stored)
	}

	status := store.StatusPublished
	updated, err := s.UpdateOwnedSession(ctx, created.ID, owner.ID, store.SessionPatch{
		Status:    &status,
		UpdatedAt: at.Add(987654321 * time.Nanosecond),
	})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	stored, err = s.GetOwnedSession(ctx, created.ID, owner.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if !sameSession(updated, stored) {
		t.Fatalf("update returned %+v, get returned %+v", updated, stored)
	}
}

func testSessionListings(t *testing.T, s store.Store) {
	alice := mustCreateUser(t, s, "alice@x.com")
	bob := mustCreateUser(t, s, "bob@x.com")

	a1 := mustCreateSession(t, s, alice.ID, "A1", store.StatusPublished)
	mustCreateSession(t, s, alice.ID, "A2", store.StatusDraft)
	b1 := mustCreateSession(t, s, bob.ID, "B1", store.StatusPublished)
	mustCreateSession(t, s, bob.ID, "B2", store.StatusDraft)
	ctx := context.Background()

	published, err := s.ListSessionsByStatus(ctx, store.StatusPublished)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(published) != 2 || published[0].ID != a1.ID || published[1].ID != b1.ID {
		t.Fatalf("expected [A1 B1] in insertion order, got %+v", published)
	}
	for _, sess := range published {
		if sess.Status != store.StatusPublished {
			t.Fatalf("draft leaked into published listing: %+v", sess)
		}
	}

	mine, err := s.ListSessionsByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 2 || mine[0].Title != "A1" || mine[1].Title != "A2" {
		t.Fatalf("expected alice's two sessions in order, got %+v", mine)
	}

	none, err := s.ListSessionsByOwner(ctx, "nobody")
	if err != nil {
		t.Fatalf("list for unknown owner: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no sessions, got %+v", none)
	}
}
