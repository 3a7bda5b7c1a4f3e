package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"indexchat/internal/model"
)

const DefaultCollection = "indexes"

// MongoStore reads snapshots from a MongoDB collection where each document
// carries an ID and a Date field.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore builds a client for uri. The driver connects lazily, so a
// bad host only surfaces on Ping or the first query.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) LatestSnapshot(ctx context.Context, indexID string) (model.Snapshot, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: model.FieldDate, Value: -1}}).
		SetProjection(bson.M{model.FieldInternalID: 0})

	var doc bson.M
	err := s.collection.FindOne(ctx, bson.M{model.FieldID: indexID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest snapshot for %q: %w", indexID, err)
	}
	return model.Snapshot(doc).Clean(), nil
}

func (s *MongoStore) InsertSnapshots(ctx context.Context, docs []model.Snapshot) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	batch := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		batch = append(batch, bson.M(doc.Clean()))
	}
	res, err := s.collection.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("insert snapshots: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
