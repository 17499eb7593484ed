package docstore

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreatedAtField is assigned by the store on insert for every collection.
const CreatedAtField = "createdAt"

var ErrNotFound = errors.New("docstore: document not found")

// Spec describes one collection: its name, the fixed display order and
// the fields that get a secondary index.
type Spec struct {
	Name       string
	OrderBy    string
	Descending bool
	Indexes    []string
}

func (s Spec) sort() bson.D {
	dir := 1
	if s.Descending {
		dir = -1
	}
	return bson.D{{Key: s.OrderBy, Value: dir}}
}

// ChangeStream is the part of *mongo.ChangeStream the live adapters use.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

// Repository stores documents of type T in a single collection. T must
// carry an `_id,omitempty` string field and a `createdAt,omitempty` field.
type Repository[T any] struct {
	col    *mongo.Collection
	spec   Spec
	logger *log.Logger
}

func NewRepository[T any](db *mongo.Database, spec Spec, logger *log.Logger) (*Repository[T], error) {
	repo := &Repository[T]{
		col:    db.Collection(spec.Name),
		spec:   spec,
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes backs the ordered listing and the equality lookups. Slugs
// are indexed but not unique; collisions are possible.
func (r *Repository[T]) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: r.spec.sort()},
	}
	for _, field := range r.spec.Indexes {
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}})
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	if err != nil && r.logger != nil {
		r.logger.Printf("docstore: failed to create indexes on %s: %v", r.spec.Name, err)
	}
	return err
}

func (r *Repository[T]) Name() string {
	return r.spec.Name
}

// Insert writes a new document and returns its id. The creation timestamp
// comes from the database clock, not from the caller.
func (r *Repository[T]) Insert(ctx context.Context, doc *T) (string, error) {
	id := primitive.NewObjectID().Hex()

	_, err := r.col.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$setOnInsert": doc,
			"$currentDate": bson.M{CreatedAtField: true},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", err
	}

	if r.logger != nil {
		r.logger.Printf("docstore: inserted %s/%s", r.spec.Name, id)
	}
	return id, nil
}

func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	return r.FindBy(ctx, "_id", id)
}

// FindBy returns the first document whose field equals value.
func (r *Repository[T]) FindBy(ctx context.Context, field string, value any) (*T, error) {
	var doc T
	err := r.col.FindOne(ctx, bson.M{field: value}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the whole collection in its display order.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(r.spec.sort()))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update merges fields into an existing document. Last write wins.
func (r *Repository[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if r.logger != nil {
		r.logger.Printf("docstore: deleted %s/%s", r.spec.Name, id)
	}
	return nil
}

// Changes opens a change stream over the whole collection. Change streams
// need a replica set or sharded cluster.
func (r *Repository[T]) Changes(ctx context.Context) (ChangeStream, error) {
	stream, err := r.col.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, err
	}
	return stream, nil
}
