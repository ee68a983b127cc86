package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/pkg/enums"
)

// PushToken maps a user to one registered push address. Rows are deactivated
// rather than deleted when the provider reports the token invalid.
type PushToken struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_push_tokens_identity,priority:1"`
	Platform    enums.Platform     `gorm:"type:text;not null;uniqueIndex:idx_push_tokens_identity,priority:2"`
	Token       string             `gorm:"type:text;not null;uniqueIndex:idx_push_tokens_identity,priority:3"`
	Provider    enums.PushProvider `gorm:"type:text;not null;default:expo"`
	DeviceModel *string            `gorm:"type:text"`
	OSVersion   *string            `gorm:"column:os_version;type:text"`
	Timezone    *string            `gorm:"type:text"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true"`
	LastUsedAt  *time.Time         `gorm:"column:last_used_at;type:timestamptz"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
