package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skybox-manifest/internal/domain/entity"
	"skybox-manifest/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLoadRepository implements the LoadRepository interface
type GormLoadRepository struct {
	db *gorm.DB
}

// NewGormLoadRepository creates a new GORM load repository
func NewGormLoadRepository(db *gorm.DB) *GormLoadRepository {
	return &GormLoadRepository{
		db: db,
	}
}

// Loads GORM model for database mapping
type Loads struct {
	ID                uint      `gorm:"primaryKey"`
	ExternalID        string    `gorm:"column:external_id;not null;uniqueIndex"`
	SequenceNumber    int       `gorm:"column:sequence_number;not null"`
	Aircraft          string    `gorm:"column:aircraft;not null"`
	LoadMaster        *string   `gorm:"column:load_master"`
	Date              string    `gorm:"column:date;not null;index"`
	DepartedAt        time.Time `gorm:"column:departed_at;not null"`
	ConfirmationState string    `gorm:"column:confirmation_state;not null;default:confirmed"`
	Jumpers           []Jumpers `gorm:"foreignKey:LoadID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default table name
func (Loads) TableName() string {
	return "loads"
}

// Jumpers GORM model for database mapping
type Jumpers struct {
	ID        uint    `gorm:"primaryKey"`
	LoadID    uint    `gorm:"column:load_id;not null;index"`
	Name      string  `gorm:"column:name;not null"`
	Type      *string `gorm:"column:type"`
	GroupName *string `gorm:"column:group_name"`
	Formation *string `gorm:"column:formation"`
	Rig       *string `gorm:"column:rig"`

	Load *Loads `gorm:"foreignKey:LoadID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default table name
func (Jumpers) TableName() string {
	return "jumpers"
}

// Migrate creates or upgrades the schema and drops loads that must never have
// been stored. Stores created before confirmation tracking get the column with
// every existing load counted as confirmed.
func (r *GormLoadRepository) Migrate(ctx context.Context) (int64, error) {
	if err := r.db.WithContext(ctx).AutoMigrate(&Loads{}, &Jumpers{}); err != nil {
		return 0, fmt.Errorf("failed to migrate load schema: %w", err)
	}
	return r.PurgeInvalid(ctx)
}

// Save inserts the load and its jumpers in one transaction. The insert is
// ON CONFLICT DO NOTHING on external_id, so concurrent savers of the same load
// cannot both succeed.
func (r *GormLoadRepository) Save(ctx context.Context, load *entity.Load) (bool, error) {
	if load.SequenceNumber == 0 {
		return false, fmt.Errorf("%w: load %q has sequence number 0", repository.ErrInvalidLoad, load.ExternalID)
	}

	model := Loads{
		ExternalID:        load.ExternalID,
		SequenceNumber:    load.SequenceNumber,
		Aircraft:          load.Aircraft,
		LoadMaster:        load.LoadMaster,
		Date:              load.Date,
		DepartedAt:        load.DepartedAt,
		ConfirmationState: string(load.ConfirmationState),
	}
	if model.ConfirmationState == "" {
		model.ConfirmationState = string(entity.Confirmed)
	}

	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).Create(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if len(load.Jumpers) > 0 {
			jumpers := make([]Jumpers, 0, len(load.Jumpers))
			for _, j := range load.Jumpers {
				jumpers = append(jumpers, Jumpers{
					LoadID:    model.ID,
					Name:      j.Name,
					Type:      j.Type,
					GroupName: j.GroupName,
					Formation: j.Formation,
					Rig:       j.Rig,
				})
			}
			if err := tx.Create(&jumpers).Error; err != nil {
				return err
			}
		}

		inserted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to save load %q: %w", load.ExternalID, err)
	}

	if inserted {
		load.ID = model.ID
	}
	return inserted, nil
}

// Confirm upgrades an unconfirmed load in place
func (r *GormLoadRepository) Confirm(ctx context.Context, externalID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Loads{}).
		Where("external_id = ?", externalID).
		Where("confirmation_state = ?", string(entity.Unconfirmed)).
		Update("confirmation_state", string(entity.Confirmed))

	if result.Error != nil {
		return false, fmt.Errorf("failed to confirm load %q: %w", externalID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListDates lists the operational days with at least one load, newest first
func (r *GormLoadRepository) ListDates(ctx context.Context) ([]string, error) {
	dates := []string{}
	result := r.db.WithContext(ctx).Model(&Loads{}).
		Distinct("date").
		Order("date DESC").
		Pluck("date", &dates)

	if result.Error != nil {
		return nil, result.Error
	}
	return dates, nil
}

// ListByDate lists the loads of one day by sequence number, with jumpers
func (r *GormLoadRepository) ListByDate(ctx context.Context, date string) ([]*entity.Load, error) {
	var loads []Loads
	result := r.db.WithContext(ctx).
		Preload("Jumpers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("date = ?", date).
		Order("sequence_number").
		Order("id").
		Find(&loads)

	if result.Error != nil {
		return nil, result.Error
	}

	// Convert to domain entities
	entities := make([]*entity.Load, 0, len(loads))
	for i := range loads {
		entities = append(entities, toEntity(&loads[i]))
	}
	return entities, nil
}

// GetByID finds a load by its internal id
func (r *GormLoadRepository) GetByID(ctx context.Context, id uint) (*entity.Load, error) {
	var load Loads
	result := r.db.WithContext(ctx).
		Preload("Jumpers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		First(&load)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLoadNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return toEntity(&load), nil
}

// PurgeInvalid deletes loads stored with sequence number 0, jumpers first so
// it does not depend on the engine enforcing the cascade.
func (r *GormLoadRepository) PurgeInvalid(ctx context.Context) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invalid := tx.Model(&Loads{}).Select("id").Where("sequence_number = ?", 0)
		if err := tx.Where("load_id IN (?)", invalid).Delete(&Jumpers{}).Error; err != nil {
			return err
		}
		result := tx.Where("sequence_number = ?", 0).Delete(&Loads{})
		if result.Error != nil {
			return result.Error
		}
		purged = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge invalid loads: %w", err)
	}
	return purged, nil
}

func toEntity(model *Loads) *entity.Load {
	jumpers := make([]entity.Jumper, 0, len(model.Jumpers))
	for _, j := range model.Jumpers {
		jumpers = append(jumpers, entity.Jumper{
			Name:      j.Name,
			Type:      j.Type,
			GroupName: j.GroupName,
			Formation: j.Formation,
			Rig:       j.Rig,
		})
	}

	return &entity.Load{
		ID:                model.ID,
		ExternalID:        model.ExternalID,
		SequenceNumber:    model.SequenceNumber,
		Aircraft:          model.Aircraft,
		LoadMaster:        model.LoadMaster,
		Date:              model.Date,
		DepartedAt:        model.DepartedAt,
		ConfirmationState: entity.ConfirmationState(model.ConfirmationState),
		Jumpers:           jumpers,
	}
}

var _ repository.LoadRepository = (*GormLoadRepository)(nil)
