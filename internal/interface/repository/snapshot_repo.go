package repository

import (
	"context"
	"time"

	"skybox-manifest/internal/domain/entity"
	"skybox-manifest/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSnapshotRepository implements the SnapshotRepository interface
type MongoSnapshotRepository struct {
	collection *mongo.Collection
}

// NewMongoSnapshotRepository creates a new MongoDB snapshot repository
func NewMongoSnapshotRepository(ctx context.Context, db *mongo.Database) (*MongoSnapshotRepository, error) {
	collection := db.Collection("feed_snapshots")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"hash": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.M{"lastSeenAt": -1},
		},
	})
	if err != nil {
		return nil, err
	}

	return &MongoSnapshotRepository{
		collection: collection,
	}, nil
}

// Save stores the snapshot once per distinct body; a repeated body only
// refreshes lastSeenAt.
func (r *MongoSnapshotRepository) Save(ctx context.Context, snapshot *entity.FeedSnapshot) error {
	filter := bson.M{"hash": snapshot.Hash}
	update := bson.M{
		"$setOnInsert": bson.M{
			"hash":        snapshot.Hash,
			"dzId":        snapshot.DZID,
			"feedVersion": snapshot.FeedVersion,
			"statusCode":  snapshot.StatusCode,
			"body":        snapshot.Body,
			"recordCount": snapshot.RecordCount,
			"fetchedAt":   snapshot.FetchedAt,
		},
		"$set": bson.M{
			"lastSeenAt": snapshot.LastSeenAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// DeleteOlderThan drops snapshots not seen since cutoff
func (r *MongoSnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"lastSeenAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// NoopSnapshotRepository is used when no archive is configured
type NoopSnapshotRepository struct{}

// Save implements repository.SnapshotRepository
func (NoopSnapshotRepository) Save(ctx context.Context, snapshot *entity.FeedSnapshot) error {
	return nil
}

// DeleteOlderThan implements repository.SnapshotRepository
func (NoopSnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

var (
	_ repository.SnapshotRepository = (*MongoSnapshotRepository)(nil)
	_ repository.SnapshotRepository = NoopSnapshotRepository{}
)
