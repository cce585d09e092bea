package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/store"
	"github.com/Dinesh17-Dev/wellness-session-app/store/storetest"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var dbSeq atomic.Int64

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("WELLNESS_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("WELLNESS_TEST_MONGO_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := fmt.Sprintf("wellness_test_%d_%d", time.Now().UnixNano(), dbSeq.Add(1))
	s, err := Open(ctx, uri, name)
	if err != nil {
		t.Fatalf("open mongo store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.users.Database().Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTestStore(t) })
}

func TestMalformedIDIsNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetOwnedSession(context.Background(), "zzz", "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRequiresURL(t *testing.T) {
	if _, err := Open(context.Background(), "", ""); err == nil {
		t.Fatal("expected empty url to fail")
	}
}

func TestOwnedFilterMatchesOwnerByObjectID(t *testing.T) {
	owner := bson.NewObjectID()
	id := bson.NewObjectID()

	filter, ok := ownedFilter(id.Hex(), owner.Hex())
	if !ok {
		t.Fatal("expected hex ids to build a filter")
	}
	want := bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: owner}}
	if len(filter) != len(want) || filter[0] != want[0] || filter[1] != want[1] {
		t.Fatalf("unexpected filter %v", filter)
	}

	if _, ok := ownedFilter(id.Hex(), "u1"); ok {
		t.Fatal("non-hex owner must not build a filter")
	}
}

func TestSessionOwnerStoredAsObjectID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, store.User{Email: "a@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := s.CreateSession(ctx, store.Session{OwnerID: u.ID, Title: "T", Status: store.StatusDraft})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var raw bson.M
	sid, _ := bson.ObjectIDFromHex(sess.ID)
	if err := s.sessions.FindOne(ctx, bson.D{{Key: "_id", Value: sid}}).Decode(&raw); err != nil {
		t.Fatalf("find raw session: %v", err)
	}
	owner, ok := raw["user_id"].(bson.ObjectID)
	if !ok || owner.Hex() != u.ID {
		t.Fatalf("expected user_id ObjectID %s, got %T %v", u.ID, raw["user_id"], raw["user_id"])
	}

	if _, err := s.CreateSession(ctx, store.Session{OwnerID: "not-hex", Title: "T"}); err == nil {
		t.Fatal("expected non-hex owner to be rejected")
	}
}
