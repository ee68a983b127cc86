package timezone

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomly-app/push-backend/pkg/db/models"
)

// Repository persists per-user timezone preferences.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, pref *models.TimezonePreference) error
	Get(ctx context.Context, userID uuid.UUID) (*models.TimezonePreference, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a timezone repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Upsert(ctx context.Context, pref *models.TimezonePreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"timezone", "updated_at"}),
		}).
		Create(pref).Error
}

func (r *repositoryImpl) Get(ctx context.Context, userID uuid.UUID) (*models.TimezonePreference, error) {
	var pref models.TimezonePreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}
