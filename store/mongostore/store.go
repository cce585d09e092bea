// Package mongostore persists users and wellness sessions in MongoDB. Documents
// live in the users and sessions collections; sessions reference their owner
// by the user's ObjectID in user_id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection    = "users"
	sessionsCollection = "sessions"
	// DefaultDatabase is used when the connection URI names no database.
	DefaultDatabase = "wellness"
)

type userDoc struct {
	ID           bson.ObjectID `bson:"_id"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	CreatedAt    time.Time     `bson:"created_at"`
}

type sessionDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	UserID    bson.ObjectID `bson:"user_id"`
	Title     string        `bson:"title"`
	Tags      []string      `bson:"tags"`
	Status    string        `bson:"status"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func (d sessionDoc) session() store.Session {
	return store.Session{
		ID:        d.ID.Hex(),
		OwnerID:   d.UserID.Hex(),
		Title:     d.Title,
		Tags:      store.NormalizeTags(d.Tags),
		Status:    d.Status,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Store implements store.Store over a MongoDB database.
type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	sessions *mongo.Collection
}

// Open connects to uri, selects database (DefaultDatabase when empty) and
// ensures the unique email index exists.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("mongo url is required")
	}
	if database == "" {
		database = DefaultDatabase
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		sessions: db.Collection(sessionsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	if _, err := s.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create owner index: %w", err)
	}
	if _, err := s.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create status index: %w", err)
	}
	return nil
}

// Ping round-trips to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// CreateUser inserts the account; the unique email index rejects duplicates.
func (s *Store) CreateUser(ctx context.Context, u store.User) (store.User, error) {
	id := bson.NewObjectID()
	if u.ID != "" {
		parsed, err := bson.ObjectIDFromHex(u.ID)
		if err != nil {
			return store.User{}, fmt.Errorf("user id: %w", err)
		}
		id = parsed
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	doc := userDoc{
		ID:           id,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.User{}, store.ErrDuplicate
		}
		return store.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID = id.Hex()
	u.CreatedAt = doc.CreatedAt
	return u, nil
}

// GetUserByEmail returns store.ErrNotFound when no user has the email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("find user: %w", err)
	}
	return store.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

// CreateSession inserts a document with a fresh ObjectID. OwnerID must be the
// hex form of a user ObjectID.
func (s *Store) CreateSession(ctx context.Context, sess store.Session) (store.Session, error) {
	owner, err := bson.ObjectIDFromHex(sess.OwnerID)
	if err != nil {
		return store.Session{}, fmt.Errorf("session owner id: %w", err)
	}
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}
	doc := sessionDoc{
		ID:        bson.NewObjectID(),
		UserID:    owner,
		Title:     sess.Title,
		Tags:      store.NormalizeTags(sess.Tags),
		Status:    sess.Status,
		CreatedAt: sess.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt: sess.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.sessions.InsertOne(ctx, doc); err != nil {
		return store.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return doc.session(), nil
}

// ownedFilter returns ok=false for ids that cannot name any document.
func ownedFilter(id, ownerID string) (bson.D, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := bson.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "user_id", Value: owner}}, true
}

// GetOwnedSession returns store.ErrNotFound for unknown, malformed or foreign ids.
func (s *Store) GetOwnedSession(ctx context.Context, id, ownerID string) (store.Session, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return store.Session{}, store.ErrNotFound
	}
	var doc sessionDoc
	err := s.sessions.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Session{}, store.ErrNotFound
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("find session: %w", err)
	}
	return doc.session(), nil
}

// UpdateOwnedSession applies patch with a single FindOneAndUpdate.
func (s *Store) UpdateOwnedSession(ctx context.Context, id, ownerID string, patch store.SessionPatch) (store.Session, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return store.Session{}, store.ErrNotFound
	}

	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set := bson.D{{Key: "updated_at", Value: updatedAt.UTC().Truncate(time.Millisecond)}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: store.NormalizeTags(*patch.Tags)})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *patch.Status})
	}

	var doc sessionDoc
	err := s.sessions.FindOneAndUpdate(ctx, filter,
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Session{}, store.ErrNotFound
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("update session: %w", err)
	}
	return doc.session(), nil
}

// ListSessionsByStatus returns documents with the given status in insertion order.
func (s *Store) ListSessionsByStatus(ctx context.Context, status string) ([]store.Session, error) {
	return s.find(ctx, bson.D{{Key: "status", Value: status}})
}

// ListSessionsByOwner returns every document owned by ownerID in insertion order.
func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string) ([]store.Session, error) {
	owner, err := bson.ObjectIDFromHex(ownerID)
	if err != nil {
		return []store.Session{}, nil
	}
	return s.find(ctx, bson.D{{Key: "user_id", Value: owner}})
}

func (s *Store) find(ctx context.Context, filter bson.D) ([]store.Session, error) {
	cur, err := s.sessions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	out := make([]store.Session, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.session())
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
