package models

import (
	"time"

	"github.com/google/uuid"
)

// TimezonePreference holds the user's preferred IANA timezone for scheduled
// reminders. Peripheral to dispatch; one row per user.
type TimezonePreference struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Timezone  string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
