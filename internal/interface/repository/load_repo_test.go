package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skybox-manifest/internal/domain/entity"
	"skybox-manifest/internal/domain/repository"
	"skybox-manifest/internal/infrastructure/persistence"
)

func strPtr(s string) *string { return &s }

func newTestLoadRepo(t *testing.T) (*GormLoadRepository, *gorm.DB) {
	t.Helper()
	db, err := persistence.ConnectDatabase("sqlite", filepath.Join(t.TempDir(), "loads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { persistence.CloseDatabase(db) })

	repo := NewGormLoadRepository(db)
	_, err = repo.Migrate(context.Background())
	require.NoError(t, err)
	return repo, db
}

func sampleLoad(externalID string, seq int, state entity.ConfirmationState) *entity.Load {
	return &entity.Load{
		ExternalID:        externalID,
		SequenceNumber:    seq,
		Aircraft:          "PH-ABC",
		LoadMaster:        strPtr("Anna"),
		Date:              "2026-05-02",
		DepartedAt:        time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC),
		ConfirmationState: state,
		Jumpers: []entity.Jumper{
			{Name: "Mia", Type: strPtr("FJ"), GroupName: strPtr("Freefly"), Formation: strPtr(""), Rig: strPtr("Vector")},
			{Name: "Tom"},
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSaveIsIdempotent(t *testing.T) {
	repo, db := newTestLoadRepo(t)
	ctx := context.Background()

	load := sampleLoad("100", 1, entity.Confirmed)
	inserted, err := repo.Save(ctx, load)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, load.ID)

	again := sampleLoad("100", 1, entity.Confirmed)
	again.Aircraft = "PH-OTHER"
	inserted, err = repo.Save(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, int64(1), countRows(t, db, &Loads{}))
	assert.Equal(t, int64(2), countRows(t, db, &Jumpers{}))

	stored, err := repo.GetByID(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, "PH-ABC", stored.Aircraft)
}

func TestSaveRejectsZeroSequence(t *testing.T) {
	repo, db := newTestLoadRepo(t)

	inserted, err := repo.Save(context.Background(), sampleLoad("101", 0, entity.Confirmed))
	assert.ErrorIs(t, err, repository.ErrInvalidLoad)
	assert.False(t, inserted)
	assert.Equal(t, int64(0), countRows(t, db, &Loads{}))
}

func TestSaveConcurrentSameExternalID(t *testing.T) {
	repo, db := newTestLoadRepo(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := repo.Save(ctx, sampleLoad("200", 3, entity.Unconfirmed))
			assert.NoError(t, err)
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for inserted := range results {
		if inserted {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, int64(1), countRows(t, db, &Loads{}))
	assert.Equal(t, int64(2), countRows(t, db, &Jumpers{}))
}

func TestConfirmThenSaveKeepsOneConfirmedRow(t *testing.T) {
	repo, db := newTestLoadRepo(t)
	ctx := context.Background()

	inserted, err := repo.Save(ctx, sampleLoad("300", 4, entity.Unconfirmed))
	require.NoError(t, err)
	require.True(t, inserted)

	upgraded, err := repo.Confirm(ctx, "300")
	require.NoError(t, err)
	assert.True(t, upgraded)

	inserted, err = repo.Save(ctx, sampleLoad("300", 4, entity.Confirmed))
	require.NoError(t, err)
	assert.False(t, inserted)

	upgraded, err = repo.Confirm(ctx, "300")
	require.NoError(t, err)
	assert.False(t, upgraded, "already confirmed")

	upgraded, err = repo.Confirm(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, upgraded)

	loads, err := repo.ListByDate(ctx, "2026-05-02")
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, entity.Confirmed, loads[0].ConfirmationState)
	assert.Equal(t, int64(1), countRows(t, db, &Loads{}))
}

func TestQueries(t *testing.T) {
	repo, _ := newTestLoadRepo(t)
	ctx := context.Background()

	dates, err := repo.ListDates(ctx)
	require.NoError(t, err)
	assert.Empty(t, dates)

	loads, err := repo.ListByDate(ctx, "2026-05-02")
	require.NoError(t, err)
	assert.Empty(t, loads)

	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrLoadNotFound)

	for _, l := range []*entity.Load{
		sampleLoad("a", 3, entity.Confirmed),
		sampleLoad("b", 1, entity.Unconfirmed),
		sampleLoad("c", 2, entity.Confirmed),
	} {
		_, err := repo.Save(ctx, l)
		require.NoError(t, err)
	}
	older := sampleLoad("d", 1, entity.Confirmed)
	older.Date = "2026-04-30"
	older.Jumpers = nil
	older.LoadMaster = nil
	_, err = repo.Save(ctx, older)
	require.NoError(t, err)

	dates, err = repo.ListDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-05-02", "2026-04-30"}, dates)

	loads, err = repo.ListByDate(ctx, "2026-05-02")
	require.NoError(t, err)
	require.Len(t, loads, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{loads[0].SequenceNumber, loads[1].SequenceNumber, loads[2].SequenceNumber})
	assert.Equal(t, "b", loads[0].ExternalID)

	first := loads[0]
	require.Len(t, first.Jumpers, 2)
	mia := first.Jumpers[0]
	assert.Equal(t, "Mia", mia.Name)
	require.NotNil(t, mia.Formation)
	assert.Equal(t, "", *mia.Formation)
	tom := first.Jumpers[1]
	assert.Nil(t, tom.Type)
	assert.Nil(t, tom.GroupName)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ExternalID, got.ExternalID)
	assert.Len(t, got.Jumpers, 2)
	assert.WithinDuration(t, time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC), got.DepartedAt, time.Second)

	oldLoads, err := repo.ListByDate(ctx, "2026-04-30")
	require.NoError(t, err)
	require.Len(t, oldLoads, 1)
	assert.Nil(t, oldLoads[0].LoadMaster)
	assert.NotNil(t, oldLoads[0].Jumpers)
	assert.Empty(t, oldLoads[0].Jumpers)
}

func TestPurgeInvalidRemovesZeroSequenceLoads(t *testing.T) {
	repo, db := newTestLoadRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, sampleLoad("ok", 5, entity.Confirmed))
	require.NoError(t, err)

	// Written by an older release that did not filter load number 0.
	phantom := Loads{ExternalID: "phantom", SequenceNumber: 0, Aircraft: "PH-ABC", Date: "2026-05-02",
		DepartedAt: time.Now(), ConfirmationState: "confirmed",
		Jumpers: []Jumpers{{Name: "Ghost"}}}
	require.NoError(t, db.Create(&phantom).Error)
	require.Equal(t, int64(3), countRows(t, db, &Jumpers{}))

	purged, err := repo.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	assert.Equal(t, int64(1), countRows(t, db, &Loads{}))
	assert.Equal(t, int64(2), countRows(t, db, &Jumpers{}))
}

func TestDeletingLoadCascadesToJumpers(t *testing.T) {
	repo, db := newTestLoadRepo(t)
	ctx := context.Background()

	load := sampleLoad("cascade", 9, entity.Confirmed)
	_, err := repo.Save(ctx, load)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&Loads{}, load.ID).Error)
	assert.Equal(t, int64(0), countRows(t, db, &Jumpers{}))
}

func TestMigrateAddsConfirmationStateToExistingStore(t *testing.T) {
	db, err := persistence.ConnectDatabase("sqlite", filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { persistence.CloseDatabase(db) })
	ctx := context.Background()

	// Schema of stores created before confirmation tracking.
	require.NoError(t, db.Exec(`CREATE TABLE loads (
		id integer PRIMARY KEY AUTOINCREMENT,
		external_id text NOT NULL UNIQUE,
		sequence_number integer NOT NULL,
		aircraft text NOT NULL,
		load_master text,
		date text NOT NULL,
		departed_at datetime NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO loads (external_id, sequence_number, aircraft, date, departed_at) VALUES (?, ?, ?, ?, ?)`,
		"legacy-1", 3, "PH-ABC", "2025-09-14", time.Date(2025, 9, 14, 11, 0, 0, 0, time.UTC),
	).Error)
	require.False(t, db.Migrator().HasColumn(&Loads{}, "confirmation_state"))

	repo := NewGormLoadRepository(db)
	purged, err := repo.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)
	assert.True(t, db.Migrator().HasColumn(&Loads{}, "confirmation_state"))

	loads, err := repo.ListByDate(ctx, "2025-09-14")
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, "legacy-1", loads[0].ExternalID)
	assert.Equal(t, entity.Confirmed, loads[0].ConfirmationState)
	assert.Empty(t, loads[0].Jumpers)

	upgraded, err := repo.Confirm(ctx, "legacy-1")
	require.NoError(t, err)
	assert.False(t, upgraded)
}
