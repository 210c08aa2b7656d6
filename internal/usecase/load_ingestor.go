package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"skybox-manifest/internal/domain/entity"
	"skybox-manifest/internal/domain/repository"
	"skybox-manifest/internal/interface/feed"
	"skybox-manifest/pkg/logger"
	"skybox-manifest/pkg/manifest"
	"skybox-manifest/pkg/metrics"
)

// FeedFetcher retrieves the current manifest
type FeedFetcher interface {
	Fetch(ctx context.Context) (*feed.Batch, error)
}

// RecordParser turns one raw record into an accepted load
type RecordParser interface {
	Parse(raw manifest.RawRecord) (*manifest.ParsedLoad, error)
}

// CycleResult counts what one ingestion cycle did
type CycleResult struct {
	Records       int
	Accepted      int
	Saved         int
	Upgraded      int
	AlreadyStored int
	Rejected      int
	Malformed     int
	FetchFailed   bool
}

// FoundActivity reports whether the cycle stored or upgraded any load
func (r CycleResult) FoundActivity() bool {
	return r.Saved+r.Upgraded > 0
}

// LoadIngestor runs fetch, classify and persist for one feed
type LoadIngestor struct {
	fetcher      FeedFetcher
	parser       RecordParser
	loadRepo     repository.LoadRepository
	snapshotRepo repository.SnapshotRepository
	dzID         string
	feedVersion  string
	retention    time.Duration
	lastPrune    time.Time
	now          func() time.Time
	logger       logger.Logger
	metrics      *metrics.Metrics
}

// NewLoadIngestor creates a new load ingestor. snapshotRepo may be nil.
func NewLoadIngestor(
	fetcher FeedFetcher,
	parser RecordParser,
	loadRepo repository.LoadRepository,
	snapshotRepo repository.SnapshotRepository,
	dzID string,
	feedVersion string,
	retention time.Duration,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *LoadIngestor {
	return &LoadIngestor{
		fetcher:      fetcher,
		parser:       parser,
		loadRepo:     loadRepo,
		snapshotRepo: snapshotRepo,
		dzID:         dzID,
		feedVersion:  feedVersion,
		retention:    retention,
		now:          time.Now,
		logger:       logger,
		metrics:      metrics,
	}
}

// RunCycle fetches the manifest once and stores every newly departed load.
// Fetch failures end the cycle without an error; storage failures are
// returned.
func (li *LoadIngestor) RunCycle(ctx context.Context) (CycleResult, error) {
	var result CycleResult
	start := li.now()

	li.logger.Info("Starting ingestion cycle", "dzId", li.dzID, "feedVersion", li.feedVersion)
	if li.metrics != nil {
		li.metrics.CyclesTotal.Inc()
		defer func() {
			li.metrics.CycleDuration.Observe(li.now().Sub(start).Seconds())
		}()
	}

	batch, err := li.fetcher.Fetch(ctx)
	if err != nil {
		li.logger.Error("Feed fetch failed", "error", err)
		result.FetchFailed = true
		return result, nil
	}
	result.Records = len(batch.Records)

	li.archive(ctx, batch)

	for _, raw := range batch.Records {
		parsed, err := li.parser.Parse(raw)
		if err != nil {
			li.skip(&result, err)
			continue
		}
		result.Accepted++

		if err := li.persist(ctx, parsed, &result); err != nil {
			if li.metrics != nil {
				li.metrics.StorageErrors.Inc()
			}
			return result, err
		}
	}

	switch {
	case result.Accepted == 0:
		li.logger.Info("No departed loads visible", "records", result.Records)
	case !result.FoundActivity():
		li.logger.Info("Departed loads already stored", "count", result.AlreadyStored)
	}

	li.logger.Info("Ingestion cycle completed",
		"records", result.Records,
		"accepted", result.Accepted,
		"saved", result.Saved,
		"upgraded", result.Upgraded,
		"alreadyStored", result.AlreadyStored,
		"rejected", result.Rejected,
		"malformed", result.Malformed)

	return result, nil
}

// persist upgrades before saving, so a confirmed sighting of a load stored
// as unconfirmed is not swallowed by the duplicate check.
func (li *LoadIngestor) persist(ctx context.Context, parsed *manifest.ParsedLoad, result *CycleResult) error {
	load := parsed.Load

	if load.IsConfirmed() {
		upgraded, err := li.loadRepo.Confirm(ctx, load.ExternalID)
		if err != nil {
			return fmt.Errorf("failed to confirm load %s: %w", load.ExternalID, err)
		}
		if upgraded {
			result.Upgraded++
			if li.metrics != nil {
				li.metrics.LoadsUpgraded.Inc()
			}
			li.logger.Info("Load upgraded to confirmed",
				"externalId", load.ExternalID,
				"sequenceNumber", load.SequenceNumber,
				"aircraft", load.Aircraft)
			return nil
		}
	}

	inserted, err := li.loadRepo.Save(ctx, load)
	if err != nil {
		return fmt.Errorf("failed to save load %s: %w", load.ExternalID, err)
	}
	if !inserted {
		result.AlreadyStored++
		return nil
	}

	result.Saved++
	if li.metrics != nil {
		li.metrics.LoadsSaved.Inc()
	}
	li.logger.Info("Saved departed load",
		"externalId", load.ExternalID,
		"sequenceNumber", load.SequenceNumber,
		"aircraft", load.Aircraft,
		"date", load.Date,
		"jumpers", len(load.Jumpers),
		"state", load.ConfirmationState,
		"rule", parsed.Rule)
	return nil
}

func (li *LoadIngestor) skip(result *CycleResult, err error) {
	var rejectErr *manifest.RejectError
	if errors.As(err, &rejectErr) {
		result.Rejected++
		if li.metrics != nil {
			li.metrics.RecordsRejected.WithLabelValues(rejectErr.Reason).Inc()
		}
		li.logger.Debug("Record not accepted", "externalId", rejectErr.ExternalID, "reason", rejectErr.Reason)
		return
	}

	result.Malformed++
	if li.metrics != nil {
		li.metrics.RecordsRejected.WithLabelValues("malformed").Inc()
	}
	li.logger.Warn("Skipping malformed record", "error", err)
}

// archive keeps the raw body when an archive is configured. Archive errors
// never fail the cycle.
func (li *LoadIngestor) archive(ctx context.Context, batch *feed.Batch) {
	if li.snapshotRepo == nil {
		return
	}

	sum := sha256.Sum256(batch.Body)
	snapshot := &entity.FeedSnapshot{
		Hash:        hex.EncodeToString(sum[:]),
		DZID:        li.dzID,
		FeedVersion: li.feedVersion,
		StatusCode:  batch.StatusCode,
		Body:        batch.Body,
		RecordCount: len(batch.Records),
		FetchedAt:   batch.FetchedAt,
		LastSeenAt:  batch.FetchedAt,
	}
	if err := li.snapshotRepo.Save(ctx, snapshot); err != nil {
		li.logger.Warn("Failed to archive feed snapshot", "error", err)
		return
	}

	if li.retention <= 0 || li.now().Sub(li.lastPrune) < 24*time.Hour {
		return
	}
	deleted, err := li.snapshotRepo.DeleteOlderThan(ctx, li.now().Add(-li.retention))
	if err != nil {
		li.logger.Warn("Failed to prune feed snapshots", "error", err)
		return
	}
	li.lastPrune = li.now()
	if deleted > 0 {
		li.logger.Info("Pruned feed snapshots", "deleted", deleted)
	}
}
