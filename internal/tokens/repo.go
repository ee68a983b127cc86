package tokens

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomly-app/push-backend/pkg/db/models"
	"github.com/roomly-app/push-backend/pkg/enums"
)

// Repository exposes persistence helpers for push tokens.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, token *models.PushToken) error
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.PushToken, error)
	ListActive(ctx context.Context, provider enums.PushProvider) ([]models.PushToken, error)
	Deactivate(ctx context.Context, userID uuid.UUID, platform enums.Platform, token string) (bool, error)
	DeactivateByToken(ctx context.Context, token string) (int64, error)
	TouchLastUsed(ctx context.Context, tokenIDs []uuid.UUID, now time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a push token repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Upsert inserts the token or, when (user, platform, token) already exists,
// reactivates it and refreshes the device metadata.
func (r *repositoryImpl) Upsert(ctx context.Context, token *models.PushToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "token"}},
			DoUpdates: clause.Assignments(map[string]any{
				"is_active":    true,
				"provider":     token.Provider,
				"device_model": token.DeviceModel,
				"os_version":   token.OSVersion,
				"timezone":     token.Timezone,
				"updated_at":   time.Now().UTC(),
			}),
		}).
		Create(token).Error
}

func (r *repositoryImpl) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.PushToken, error) {
	var rows []models.PushToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active", userID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListActive(ctx context.Context, provider enums.PushProvider) ([]models.PushToken, error) {
	var rows []models.PushToken
	err := r.db.WithContext(ctx).
		Where("provider = ? AND is_active", provider).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// Deactivate flips is_active off for one (user, platform, token) row. Returns
// false when no matching active row exists.
func (r *repositoryImpl) Deactivate(ctx context.Context, userID uuid.UUID, platform enums.Platform, token string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PushToken{}).
		Where("user_id = ? AND platform = ? AND token = ? AND is_active", userID, platform, token).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeactivateByToken flips is_active off for every row carrying the token
// value, regardless of owner. Used when the provider reports the device gone.
func (r *repositoryImpl) DeactivateByToken(ctx context.Context, token string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PushToken{}).
		Where("token = ? AND is_active", token).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) TouchLastUsed(ctx context.Context, tokenIDs []uuid.UUID, now time.Time) error {
	if len(tokenIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PushToken{}).
		Where("id IN ?", tokenIDs).
		Update("last_used_at", now).Error
}
