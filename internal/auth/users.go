package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"club-site/internal/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const UsersCollection = "users"

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// Save creates the user or replaces the one with the same e-mail.
	Save(ctx context.Context, u *User) error
}

type mongoUserStore struct {
	col    *mongo.Collection
	logger *log.Logger
}

func NewMongoUserStore(db *mongo.Database, logger *log.Logger) (UserStore, error) {
	store := &mongoUserStore{
		col:    db.Collection(UsersCollection),
		logger: logger,
	}
	if err := store.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// ensureIndexes makes e-mail the login identity: one account per address.
func (s *mongoUserStore) ensureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil && s.logger != nil {
		s.logger.Printf("auth: failed to create user indexes: %v", err)
	}
	return err
}

func (s *mongoUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (s *mongoUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoUserStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	err := s.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoUserStore) Save(ctx context.Context, u *User) error {
	_, err := s.col.ReplaceOne(
		ctx,
		bson.M{"email": u.Email},
		u,
		options.Replace().SetUpsert(true),
	)
	return err
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
