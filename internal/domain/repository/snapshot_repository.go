package repository

import (
	"context"
	"time"

	"skybox-manifest/internal/domain/entity"
)

// SnapshotRepository defines the interface for raw feed archiving
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *entity.FeedSnapshot) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
