package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"skybox-manifest/internal/domain/entity"
)

func TestMongoSnapshotRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save and prune", func(mt *mtest.T) {
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo, err := NewMongoSnapshotRepository(ctx, mt.DB)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		err = repo.Save(ctx, &entity.FeedSnapshot{
			Hash:        "abc",
			DZID:        "2351",
			FeedVersion: "json",
			StatusCode:  200,
			Body:        []byte(`{"loads":[]}`),
			FetchedAt:   time.Now(),
			LastSeenAt:  time.Now(),
		})
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), deleted)
	})
}

func TestNoopSnapshotRepository(t *testing.T) {
	var repo NoopSnapshotRepository
	assert.NoError(t, repo.Save(context.Background(), &entity.FeedSnapshot{}))
	n, err := repo.DeleteOlderThan(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Zero(t, n)
}
