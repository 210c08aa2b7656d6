package repository

import (
	"context"
	"errors"

	"skybox-manifest/internal/domain/entity"
)

var (
	// ErrLoadNotFound is returned when no load matches the lookup
	ErrLoadNotFound = errors.New("load not found")
	// ErrInvalidLoad is returned for loads that must never be persisted
	ErrInvalidLoad = errors.New("invalid load")
)

// LoadRepository defines the interface for departed load storage
type LoadRepository interface {
	// Save inserts the load and its jumpers atomically. It returns false
	// without writing when a load with the same external id already exists.
	Save(ctx context.Context, load *entity.Load) (bool, error)
	// Confirm upgrades an unconfirmed load. It returns false when the load
	// does not exist or is already confirmed.
	Confirm(ctx context.Context, externalID string) (bool, error)
	ListDates(ctx context.Context) ([]string, error)
	ListByDate(ctx context.Context, date string) ([]*entity.Load, error)
	GetByID(ctx context.Context, id uint) (*entity.Load, error)
	PurgeInvalid(ctx context.Context) (int64, error)
}
